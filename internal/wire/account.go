package wire

import (
	"encoding/json"
	"strings"
)

// Account is a user row from the administrative /Users endpoint. The id has
// been seen under id, userId and sub depending on the backend version; the
// coalesced value is the one DELETE /Users/{id} expects.
type Account struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Sub       string     `json:"sub"`
	UserName  string     `json:"userName"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Role      string     `json:"role"`
	Roles     StringList `json:"roles"`
	CreatedAt Time       `json:"createdAt"`
}

// AccountID returns the canonical identifier for the account.
func (a *Account) AccountID() string {
	if a == nil {
		return ""
	}
	return firstNonEmpty(a.ID, a.UserID, a.Sub)
}

// DisplayName derives a presentable name the same way Profile does.
func (a *Account) DisplayName() string {
	if a == nil {
		return ""
	}
	if a.FirstName != "" || a.LastName != "" {
		return strings.TrimSpace(a.FirstName + " " + a.LastName)
	}
	return a.UserName
}

// DecodeAccountList accepts the two shapes GET /Users has been seen
// returning: a bare array of accounts, or an envelope wrapping the array
// under items.
func DecodeAccountList(data []byte) ([]Account, error) {
	var accounts []Account
	if err := json.Unmarshal(data, &accounts); err == nil {
		return accounts, nil
	}

	var envelope struct {
		Items []Account `json:"items"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	return envelope.Items, nil
}
