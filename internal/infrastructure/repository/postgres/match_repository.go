package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pitchside/prediction-engine/internal/domain/match"
	qb "github.com/pitchside/prediction-engine/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// ListChronological returns the whole staged stream already in replay order.
// The composite key tie-break on equal dates matches the replay engine's.
func (r *MatchRepository) ListChronological(ctx context.Context) ([]match.Event, error) {
	query, args, err := qb.Select("*").From("matches").
		OrderBy("date", "key").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}

	out := make([]match.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, match.Event{
			Key:         row.Key,
			Date:        row.Date.UTC(),
			Season:      row.Season,
			Competition: row.Competition,
			HomeTeam:    row.HomeTeam,
			AwayTeam:    row.AwayTeam,
			HomeName:    row.HomeName,
			AwayName:    row.AwayName,
			HomeGoals:   row.HomeGoals,
			AwayGoals:   row.AwayGoals,
			HomeXG:      floatPtr(row.HomeXG),
			AwayXG:      floatPtr(row.AwayXG),
			HomeTactical: match.Tactical{
				PPDA: floatPtr(row.HomePPDA),
				Deep: floatPtr(row.HomeDeep),
			},
			AwayTactical: match.Tactical{
				PPDA: floatPtr(row.AwayPPDA),
				Deep: floatPtr(row.AwayDeep),
			},
		})
	}

	return out, nil
}

func (r *MatchRepository) UpsertMany(ctx context.Context, events []match.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert matches tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, event := range events {
		model := matchInsertModel{
			Key:         event.Key,
			Date:        event.Date.UTC(),
			Season:      event.Season,
			Competition: event.Competition,
			HomeTeam:    event.HomeTeam,
			AwayTeam:    event.AwayTeam,
			HomeName:    event.HomeName,
			AwayName:    event.AwayName,
			HomeGoals:   event.HomeGoals,
			AwayGoals:   event.AwayGoals,
			HomeXG:      nullFloat(event.HomeXG),
			AwayXG:      nullFloat(event.AwayXG),
			HomePPDA:    nullFloat(event.HomeTactical.PPDA),
			AwayPPDA:    nullFloat(event.AwayTactical.PPDA),
			HomeDeep:    nullFloat(event.HomeTactical.Deep),
			AwayDeep:    nullFloat(event.AwayTactical.Deep),
		}
		query, args, err := qb.InsertModel("matches", model, `ON CONFLICT (key)
DO UPDATE SET
    season = EXCLUDED.season,
    competition = EXCLUDED.competition,
    home_name = EXCLUDED.home_name,
    away_name = EXCLUDED.away_name,
    home_goals = EXCLUDED.home_goals,
    away_goals = EXCLUDED.away_goals,
    home_xg = COALESCE(EXCLUDED.home_xg, matches.home_xg),
    away_xg = COALESCE(EXCLUDED.away_xg, matches.away_xg),
    home_ppda = COALESCE(EXCLUDED.home_ppda, matches.home_ppda),
    away_ppda = COALESCE(EXCLUDED.away_ppda, matches.away_ppda),
    home_deep = COALESCE(EXCLUDED.home_deep, matches.home_deep),
    away_deep = COALESCE(EXCLUDED.away_deep, matches.away_deep),
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert match query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert match %s: %w", event.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert matches tx: %w", err)
	}
	return nil
}
