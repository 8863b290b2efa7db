package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/refconnect/refconnect-cli/internal/wire"
)

type MatchesCmd struct {
	List        MatchListCmd        `cmd:"" help:"List matches"`
	Create      MatchCreateCmd      `cmd:"" help:"Schedule a match"`
	Update      MatchUpdateCmd      `cmd:"" help:"Update a match"`
	Delete      MatchDeleteCmd      `cmd:"" help:"Delete a match"`
	Delegate    MatchDelegateCmd    `cmd:"" help:"Delegate a referee to a match"`
	Assignments MatchAssignmentsCmd `cmd:"" help:"List a match's delegations"`
}

type MatchListCmd struct{}

func (m *MatchListCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if err := env.Matches.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to load matches: %w", err)
	}

	matches := env.Matches.Matches()
	fmt.Printf("%-36s %-18s %-20s %-24s %-10s\n", "Match ID", "Date", "Location", "Teams", "Status")
	for _, match := range matches {
		teams := match.HomeTeam
		if match.AwayTeam != "" {
			teams += " vs " + match.AwayTeam
		}
		fmt.Printf("%-36s %-18s %-20s %-24s %-10s\n",
			match.MatchID,
			formatTime(match.MatchDate.Time),
			truncate(match.Location, 20),
			truncate(teams, 24),
			match.Status)
	}
	fmt.Printf("\nTotal matches: %d\n", len(matches))
	return nil
}

type MatchCreateCmd struct {
	HomeTeam     string `arg:"" help:"Home team name"`
	AwayTeam     string `arg:"" help:"Away team name"`
	Date         string `help:"Match date, RFC 3339 or YYYY-MM-DD" required:""`
	Location     string `help:"Venue"`
	Championship string `help:"Championship id"`
}

func (m *MatchCreateCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	date, err := parseDate(m.Date)
	if err != nil {
		return err
	}

	created, err := env.Matches.Create(ctx, wire.CreateMatch{
		HomeTeam:       m.HomeTeam,
		AwayTeam:       m.AwayTeam,
		MatchDate:      wire.Time{Time: date},
		Location:       m.Location,
		ChampionshipID: m.Championship,
	})
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}

	fmt.Printf("Match %s scheduled\n", created.MatchID)
	return nil
}

type MatchUpdateCmd struct {
	MatchID  string `arg:"" help:"Match id"`
	Date     string `help:"New date"`
	Location string `help:"New venue"`
	Score    string `help:"Score string, e.g. \"Home 2 - 1 Away\""`
	Status   string `help:"New status"`
}

func (m *MatchUpdateCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	existing, err := env.Matches.Get(ctx, m.MatchID)
	if err != nil {
		return fmt.Errorf("failed to load match: %w", err)
	}

	params := wire.CreateMatch{
		MatchDate:      existing.MatchDate,
		Location:       existing.Location,
		ChampionshipID: existing.ChampionshipID,
		Score:          existing.Score,
		Status:         existing.Status,
	}
	if m.Date != "" {
		date, err := parseDate(m.Date)
		if err != nil {
			return err
		}
		params.MatchDate = wire.Time{Time: date}
	}
	if m.Location != "" {
		params.Location = m.Location
	}
	if m.Score != "" {
		params.Score = m.Score
	}
	if m.Status != "" {
		params.Status = m.Status
	}

	if _, err := env.Matches.Update(ctx, m.MatchID, params); err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}

	fmt.Println("Match updated")
	return nil
}

type MatchDeleteCmd struct {
	MatchID string `arg:"" help:"Match id"`
}

func (m *MatchDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if err := env.Matches.Delete(ctx, m.MatchID); err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}

	fmt.Println("Match deleted")
	return nil
}

type MatchDelegateCmd struct {
	MatchID string `arg:"" help:"Match id"`
	UserID  string `arg:"" help:"Referee user id"`
	Role    string `help:"Role in the match" default:"referee"`
}

func (m *MatchDelegateCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if _, err := env.Matches.Delegate(ctx, m.MatchID, m.UserID, m.Role); err != nil {
		return fmt.Errorf("failed to delegate: %w", err)
	}

	fmt.Printf("Delegated %s as %s\n", m.UserID, m.Role)
	return nil
}

type MatchAssignmentsCmd struct {
	MatchID string `arg:"" help:"Match id"`
}

func (m *MatchAssignmentsCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	assignments, err := env.Matches.Assignments(ctx, m.MatchID)
	if err != nil {
		return fmt.Errorf("failed to list assignments: %w", err)
	}

	for _, a := range assignments {
		name := a.User.DisplayName()
		if name == "" {
			name = a.UserID
		}
		fmt.Printf("%s  %s  %s  assigned %s\n", a.MatchAssignmentID, name, a.Role, formatTime(a.AssignedAt.Time))
	}
	fmt.Printf("\nTotal assignments: %d\n", len(assignments))
	return nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q, want RFC 3339 or YYYY-MM-DD", s)
}
