package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pitchside/prediction-engine/internal/domain/feature"
	qb "github.com/pitchside/prediction-engine/internal/platform/querybuilder"
)

type FeatureRepository struct {
	db *sqlx.DB
}

func NewFeatureRepository(db *sqlx.DB) *FeatureRepository {
	return &FeatureRepository{db: db}
}

// ReplaceAll swaps the derived feature set in one transaction. The table is
// disposable output; a rebuild always starts from a clean slate.
func (r *FeatureRepository) ReplaceAll(ctx context.Context, vectors []feature.Vector) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace features tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM model_features"); err != nil {
		return fmt.Errorf("clear model features: %w", err)
	}

	for _, vector := range vectors {
		model := featureInsertModel{
			MatchKey:        vector.MatchKey,
			Date:            vector.Date.UTC(),
			Season:          vector.Season,
			HomeTeam:        vector.HomeTeam,
			AwayTeam:        vector.AwayTeam,
			HomeElo:         vector.HomeElo,
			AwayElo:         vector.AwayElo,
			EloDiff:         vector.EloDiff,
			HomeGoalsLast5:  vector.HomeGoalsLast5,
			AwayGoalsLast5:  vector.AwayGoalsLast5,
			HomeXGLast5:     vector.HomeXGLast5,
			AwayXGLast5:     vector.AwayXGLast5,
			HomePointsLast5: vector.HomePointsLast5,
			AwayPointsLast5: vector.AwayPointsLast5,
			HomePPDALast5:   vector.HomePPDALast5,
			AwayPPDALast5:   vector.AwayPPDALast5,
			HomeDeepLast5:   vector.HomeDeepLast5,
			AwayDeepLast5:   vector.AwayDeepLast5,
			HomeRestDays:    vector.HomeRestDays,
			AwayRestDays:    vector.AwayRestDays,
			HomeFormGames:   vector.HomeFormGames,
			AwayFormGames:   vector.AwayFormGames,
			Label:           vector.Label,
			TargetHomeWin:   vector.TargetHomeWin,
		}
		query, args, err := qb.InsertModel("model_features", model, "")
		if err != nil {
			return fmt.Errorf("build insert feature query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert feature row %s: %w", vector.MatchKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace features tx: %w", err)
	}
	return nil
}

func (r *FeatureRepository) List(ctx context.Context) ([]feature.Vector, error) {
	query, args, err := qb.Select("*").From("model_features").
		OrderBy("date", "match_key").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select features query: %w", err)
	}

	var rows []featureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select features: %w", err)
	}

	out := make([]feature.Vector, 0, len(rows))
	for _, row := range rows {
		out = append(out, feature.Vector{
			MatchKey:        row.MatchKey,
			Date:            row.Date.UTC(),
			Season:          row.Season,
			HomeTeam:        row.HomeTeam,
			AwayTeam:        row.AwayTeam,
			HomeElo:         row.HomeElo,
			AwayElo:         row.AwayElo,
			EloDiff:         row.EloDiff,
			HomeGoalsLast5:  row.HomeGoalsLast5,
			AwayGoalsLast5:  row.AwayGoalsLast5,
			HomeXGLast5:     row.HomeXGLast5,
			AwayXGLast5:     row.AwayXGLast5,
			HomePointsLast5: row.HomePointsLast5,
			AwayPointsLast5: row.AwayPointsLast5,
			HomePPDALast5:   row.HomePPDALast5,
			AwayPPDALast5:   row.AwayPPDALast5,
			HomeDeepLast5:   row.HomeDeepLast5,
			AwayDeepLast5:   row.AwayDeepLast5,
			HomeRestDays:    row.HomeRestDays,
			AwayRestDays:    row.AwayRestDays,
			HomeFormGames:   row.HomeFormGames,
			AwayFormGames:   row.AwayFormGames,
			Label:           row.Label,
			TargetHomeWin:   row.TargetHomeWin,
		})
	}

	return out, nil
}
