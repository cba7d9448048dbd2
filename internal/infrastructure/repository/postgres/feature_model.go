package postgres

import "time"

type featureTableModel struct {
	MatchKey string    `db:"match_key"`
	Date     time.Time `db:"date"`
	Season   string    `db:"season"`

	HomeTeam string `db:"home_team"`
	AwayTeam string `db:"away_team"`

	HomeElo float64 `db:"home_elo"`
	AwayElo float64 `db:"away_elo"`
	EloDiff float64 `db:"elo_diff"`

	HomeGoalsLast5  float64 `db:"home_goals_last5"`
	AwayGoalsLast5  float64 `db:"away_goals_last5"`
	HomeXGLast5     float64 `db:"home_xg_last5"`
	AwayXGLast5     float64 `db:"away_xg_last5"`
	HomePointsLast5 float64 `db:"home_points_last5"`
	AwayPointsLast5 float64 `db:"away_points_last5"`
	HomePPDALast5   float64 `db:"home_ppda_last5"`
	AwayPPDALast5   float64 `db:"away_ppda_last5"`
	HomeDeepLast5   float64 `db:"home_deep_last5"`
	AwayDeepLast5   float64 `db:"away_deep_last5"`

	HomeRestDays float64 `db:"home_rest_days"`
	AwayRestDays float64 `db:"away_rest_days"`

	HomeFormGames int `db:"home_form_games"`
	AwayFormGames int `db:"away_form_games"`

	Label         int  `db:"label"`
	TargetHomeWin bool `db:"target_home_win"`

	CreatedAt time.Time `db:"created_at"`
}

type featureInsertModel struct {
	MatchKey string    `db:"match_key"`
	Date     time.Time `db:"date"`
	Season   string    `db:"season"`

	HomeTeam string `db:"home_team"`
	AwayTeam string `db:"away_team"`

	HomeElo float64 `db:"home_elo"`
	AwayElo float64 `db:"away_elo"`
	EloDiff float64 `db:"elo_diff"`

	HomeGoalsLast5  float64 `db:"home_goals_last5"`
	AwayGoalsLast5  float64 `db:"away_goals_last5"`
	HomeXGLast5     float64 `db:"home_xg_last5"`
	AwayXGLast5     float64 `db:"away_xg_last5"`
	HomePointsLast5 float64 `db:"home_points_last5"`
	AwayPointsLast5 float64 `db:"away_points_last5"`
	HomePPDALast5   float64 `db:"home_ppda_last5"`
	AwayPPDALast5   float64 `db:"away_ppda_last5"`
	HomeDeepLast5   float64 `db:"home_deep_last5"`
	AwayDeepLast5   float64 `db:"away_deep_last5"`

	HomeRestDays float64 `db:"home_rest_days"`
	AwayRestDays float64 `db:"away_rest_days"`

	HomeFormGames int `db:"home_form_games"`
	AwayFormGames int `db:"away_form_games"`

	Label         int  `db:"label"`
	TargetHomeWin bool `db:"target_home_win"`
}
