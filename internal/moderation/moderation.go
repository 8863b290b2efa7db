// Package moderation asks the backend's AI endpoint whether user-written
// text is appropriate before it is posted.
package moderation

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/refconnect/refconnect-cli/internal/api"
	"github.com/refconnect/refconnect-cli/internal/wire"
)

// FlagReason is the message shown when content is rejected.
const FlagReason = "Content has been flagged as inappropriate by AI moderation."

// Result of a moderation check.
type Result struct {
	Allowed bool
	Reason  string
}

// Checker calls POST /AI/appropriate-content. The endpoint takes a bare JSON
// string body and returns a boolean-ish value.
type Checker struct {
	client *api.Client
}

// NewChecker creates a Checker over client.
func NewChecker(client *api.Client) *Checker {
	return &Checker{client: client}
}

// Check classifies text. Empty text is allowed without a request. Any
// failure of the check itself also allows the content: moderation must never
// block users because the moderation service is down.
func (c *Checker) Check(ctx context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Allowed: true}
	}

	body, err := json.Marshal(text)
	if err != nil {
		return Result{Allowed: true}
	}

	resp, err := c.client.PostRawJSON(ctx, "/AI/appropriate-content", body)
	if err != nil {
		log.Warn().Err(err).Msg("moderation check failed, allowing content")
		return Result{Allowed: true}
	}

	if wire.Truthy(resp, "isAppropriate", "appropriate", "allowed") {
		return Result{Allowed: true}
	}

	return Result{Allowed: false, Reason: FlagReason}
}
