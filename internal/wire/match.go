package wire

import (
	"regexp"
	"strings"
)

// Match is a scheduled match. The backend stores the teams inside the Score
// string ("{Home} {h} - {a} {Away}"); HomeTeam and AwayTeam are filled in
// client-side by ParseScore and never sent back.
type Match struct {
	MatchID        string `json:"matchId"`
	MatchDate      Time   `json:"matchDate"`
	Location       string `json:"location"`
	ChampionshipID string `json:"championshipId"`
	Score          string `json:"score"`
	Status         string `json:"status"`
	HomeTeam       string `json:"homeTeam,omitempty"`
	AwayTeam       string `json:"awayTeam,omitempty"`
}

// CreateMatch is the POST /Matches payload; the same shape serves PUT.
type CreateMatch struct {
	HomeTeam       string `json:"homeTeam"`
	AwayTeam       string `json:"awayTeam"`
	MatchDate      Time   `json:"matchDate"`
	Location       string `json:"location"`
	ChampionshipID string `json:"championshipId"`
	Score          string `json:"score,omitempty"`
	Status         string `json:"status,omitempty"`
}

// Assignment delegates a referee to a match in a given role.
type Assignment struct {
	MatchAssignmentID string   `json:"matchAssignmentId"`
	MatchID           string   `json:"matchId"`
	UserID            string   `json:"userId"`
	Role              string   `json:"role"`
	AssignedAt        Time     `json:"assignedAt"`
	User              *Profile `json:"user,omitempty"`
}

// CreateAssignment is the POST /MatchAssignments payload. The backend binds
// the role under RoleInMatch, not Role.
type CreateAssignment struct {
	MatchID     string `json:"matchId"`
	UserID      string `json:"userId"`
	RoleInMatch string `json:"RoleInMatch"`
}

var (
	homeScoreRe = regexp.MustCompile(`^(.*?)(\d+)$`)
	awayScoreRe = regexp.MustCompile(`^(\d+)(.*)$`)
)

// ParseScore splits a score string like "Rapid 2 - 1 Steaua" into team names.
// On an unexpected format the raw string becomes the home team and the away
// team is left empty, so nothing is lost for display.
func ParseScore(score string) (home, away string) {
	if score == "" {
		return "", ""
	}

	parts := strings.SplitN(score, " - ", 2)
	if len(parts) != 2 {
		return score, ""
	}

	left := strings.TrimSpace(parts[0])
	right := strings.TrimSpace(parts[1])

	home = left
	if m := homeScoreRe.FindStringSubmatch(left); m != nil {
		home = strings.TrimSpace(m[1])
	}

	away = right
	if m := awayScoreRe.FindStringSubmatch(right); m != nil {
		away = strings.TrimSpace(m[2])
	}

	return home, away
}
