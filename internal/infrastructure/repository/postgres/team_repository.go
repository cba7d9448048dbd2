package postgres

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/pitchside/prediction-engine/internal/domain/team"
	qb "github.com/pitchside/prediction-engine/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Identity, error) {
	query, args, err := qb.Select("*").From("teams").
		OrderBy("created_at", "key").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	out := make([]team.Identity, 0, len(rows))
	for _, row := range rows {
		var aliases []string
		if row.Aliases != "" {
			if err := sonic.UnmarshalString(row.Aliases, &aliases); err != nil {
				return nil, fmt.Errorf("decode aliases for team %s: %w", row.Key, err)
			}
		}

		identity := team.NewIdentity(row.Key, row.DisplayName, row.Competition)
		for _, alias := range aliases {
			identity.Aliases[alias] = struct{}{}
		}
		out = append(out, identity)
	}

	return out, nil
}

func (r *TeamRepository) UpsertMany(ctx context.Context, identities []team.Identity) error {
	if len(identities) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert teams tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, identity := range identities {
		aliases, err := sonic.MarshalString(identity.SortedAliases())
		if err != nil {
			return fmt.Errorf("encode aliases for team %s: %w", identity.Key, err)
		}

		model := teamInsertModel{
			Key:         identity.Key,
			DisplayName: identity.DisplayName,
			Competition: identity.Competition,
			Aliases:     aliases,
		}
		query, args, err := qb.InsertModel("teams", model, `ON CONFLICT (key)
DO UPDATE SET
    display_name = EXCLUDED.display_name,
    competition = EXCLUDED.competition,
    aliases = EXCLUDED.aliases,
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert team query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert team %s: %w", identity.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert teams tx: %w", err)
	}
	return nil
}
