package postgres

import (
	"database/sql"
	"time"
)

type matchTableModel struct {
	Key         string    `db:"key"`
	Date        time.Time `db:"date"`
	Season      string    `db:"season"`
	Competition string    `db:"competition"`

	HomeTeam string `db:"home_team"`
	AwayTeam string `db:"away_team"`
	HomeName string `db:"home_name"`
	AwayName string `db:"away_name"`

	HomeGoals int `db:"home_goals"`
	AwayGoals int `db:"away_goals"`

	HomeXG sql.NullFloat64 `db:"home_xg"`
	AwayXG sql.NullFloat64 `db:"away_xg"`

	HomePPDA sql.NullFloat64 `db:"home_ppda"`
	AwayPPDA sql.NullFloat64 `db:"away_ppda"`
	HomeDeep sql.NullFloat64 `db:"home_deep"`
	AwayDeep sql.NullFloat64 `db:"away_deep"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type matchInsertModel struct {
	Key         string    `db:"key"`
	Date        time.Time `db:"date"`
	Season      string    `db:"season"`
	Competition string    `db:"competition"`

	HomeTeam string `db:"home_team"`
	AwayTeam string `db:"away_team"`
	HomeName string `db:"home_name"`
	AwayName string `db:"away_name"`

	HomeGoals int `db:"home_goals"`
	AwayGoals int `db:"away_goals"`

	HomeXG sql.NullFloat64 `db:"home_xg"`
	AwayXG sql.NullFloat64 `db:"away_xg"`

	HomePPDA sql.NullFloat64 `db:"home_ppda"`
	AwayPPDA sql.NullFloat64 `db:"away_ppda"`
	HomeDeep sql.NullFloat64 `db:"home_deep"`
	AwayDeep sql.NullFloat64 `db:"away_deep"`
}
