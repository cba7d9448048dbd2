package usecase

import "time"

// External record shapes produced by ingestion connectors. Connectors map
// their wire formats into these before anything touches the engine; the
// normalizer is the only consumer.

// ExternalFixture is one fixture row from the fixtures API.
type ExternalFixture struct {
	Source      string
	Competition string
	Season      string
	Date        *time.Time
	HomeName    string
	AwayName    string
	HomeGoals   *int
	AwayGoals   *int
	Status      string
}

// ExternalMatchStat is a scraped per-match xG record, keyed only by the
// "home-name - away-name" composite since the scrape has no fixture ids.
type ExternalMatchStat struct {
	Source   string
	Date     time.Time
	HomeName string
	AwayName string
	HomeXG   *float64
	AwayXG   *float64
}

// ExternalTactic is a scraped per-team, per-match tactical record. Side says
// whether the team played "home" or "away" that day.
type ExternalTactic struct {
	Source   string
	Date     time.Time
	TeamName string
	Side     string
	PPDA     *float64
	Deep     *float64
}

// ConnectorGap records one source that exhausted its retries. The run
// proceeds with whatever landed; the gap is reported, not fatal.
type ConnectorGap struct {
	Source      string
	Competition string
	Reason      string
}
