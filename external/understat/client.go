package understat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"

	"github.com/pitchside/prediction-engine/internal/platform/cache"
	"github.com/pitchside/prediction-engine/internal/platform/logging"
	"github.com/pitchside/prediction-engine/internal/usecase"
)

const (
	defaultBaseURL = "https://understat.com"
	sourceName     = "understat"
	pageCacheTTL   = 5 * time.Minute
)

// League path segments understat serves. Overridable via ClientConfig.Leagues.
var defaultLeagues = map[string]string{
	"EPL":        "EPL",
	"LaLiga":     "La_liga",
	"Bundesliga": "Bundesliga",
	"SerieA":     "Serie_A",
	"Ligue1":     "Ligue_1",
}

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	Leagues    map[string]string
	Logger     *logging.Logger
}

// Client scrapes per-match expected goals and pressing metrics out of the
// JSON blobs understat embeds in its league pages. One page feeds both stats
// and tactics, so fetched pages are cached briefly.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxRetries int
	leagues    map[string]string
	logger     *logging.Logger
	pages      *cache.Store
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	leagues := cfg.Leagues
	if len(leagues) == 0 {
		leagues = defaultLeagues
	}

	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		maxRetries: retries,
		leagues:    leagues,
		logger:     logger,
		pages:      cache.NewStore(pageCacheTTL),
	}
}

func (c *Client) Name() string { return sourceName }

// MatchStats parses the page's datesData blob into per-match expected goals.
func (c *Client) MatchStats(ctx context.Context, competition, season string) ([]usecase.ExternalMatchStat, error) {
	page, err := c.leaguePage(ctx, competition, season)
	if err != nil {
		return nil, err
	}

	blob, err := extractScriptBlob(page, "datesData")
	if err != nil {
		return nil, fmt.Errorf("extract datesData: %w", err)
	}

	var items []datesItem
	if err := sonic.Unmarshal(blob, &items); err != nil {
		return nil, fmt.Errorf("decode datesData: %w", err)
	}

	out := make([]usecase.ExternalMatchStat, 0, len(items))
	for _, item := range items {
		if !item.IsResult {
			continue
		}
		date := parsePageDateTime(item.Datetime)
		if date == nil {
			continue
		}
		out = append(out, usecase.ExternalMatchStat{
			Source:   sourceName,
			Date:     *date,
			HomeName: strings.TrimSpace(item.Home.Title),
			AwayName: strings.TrimSpace(item.Away.Title),
			HomeXG:   item.XG.Home.ptr(),
			AwayXG:   item.XG.Away.ptr(),
		})
	}
	return out, nil
}

// Tactics parses the teamsData blob into per-side pressing metrics. PPDA is
// the att/def quotient; a zero defensive-action count leaves it nil instead
// of dividing.
func (c *Client) Tactics(ctx context.Context, competition, season string) ([]usecase.ExternalTactic, error) {
	page, err := c.leaguePage(ctx, competition, season)
	if err != nil {
		return nil, err
	}

	blob, err := extractScriptBlob(page, "teamsData")
	if err != nil {
		return nil, fmt.Errorf("extract teamsData: %w", err)
	}

	var teams map[string]teamsItem
	if err := sonic.Unmarshal(blob, &teams); err != nil {
		return nil, fmt.Errorf("decode teamsData: %w", err)
	}

	var out []usecase.ExternalTactic
	for _, team := range teams {
		name := strings.TrimSpace(team.Title)
		for _, entry := range team.History {
			date := parsePageDateTime(entry.Date)
			if date == nil {
				continue
			}
			side := "home"
			if entry.Venue == "a" {
				side = "away"
			}

			var ppda *float64
			if def := float64(entry.PPDA.Def); def > 0 {
				value := float64(entry.PPDA.Att) / def
				ppda = &value
			}

			out = append(out, usecase.ExternalTactic{
				Source:   sourceName,
				Date:     *date,
				TeamName: name,
				Side:     side,
				PPDA:     ppda,
				Deep:     entry.Deep.ptr(),
			})
		}
	}
	return out, nil
}

func (c *Client) leaguePage(ctx context.Context, competition, season string) ([]byte, error) {
	slug, ok := c.leagues[competition]
	if !ok {
		return nil, fmt.Errorf("%w: no understat league mapped for competition %q", usecase.ErrConnectorUnavailable, competition)
	}

	fullURL := fmt.Sprintf("%s/league/%s/%s", c.baseURL, slug, season)
	value, err := c.pages.GetOrLoad(ctx, fullURL, func(ctx context.Context) (any, error) {
		return c.fetch(ctx, fullURL)
	})
	if err != nil {
		return nil, err
	}
	page, ok := value.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected cached page type %T", value)
	}
	return page, nil
}

func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "text/html")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("send request: %w", err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 12<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("read response body: %w", readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else {
				lastErr = fmt.Errorf("understat status=%d", resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "understat request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

// extractScriptBlob pulls the JSON.parse('...') argument for one script
// variable and decodes its \xNN escapes into raw JSON.
func extractScriptBlob(page []byte, variable string) ([]byte, error) {
	marker := variable + " = JSON.parse('"
	start := strings.Index(string(page), marker)
	if start < 0 {
		return nil, fmt.Errorf("variable %s not found in page", variable)
	}
	rest := page[start+len(marker):]
	end := strings.Index(string(rest), "')")
	if end < 0 {
		return nil, fmt.Errorf("unterminated blob for %s", variable)
	}
	return unescapeHex(rest[:end]), nil
}

func unescapeHex(raw []byte) []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+3 < len(raw) && raw[i+1] == 'x' {
			if decoded, err := strconv.ParseUint(string(raw[i+2:i+4]), 16, 8); err == nil {
				_ = buf.WriteByte(byte(decoded))
				i += 3
				continue
			}
		}
		_ = buf.WriteByte(raw[i])
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

func parsePageDateTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		return nil
	}
	utc := parsed.UTC()
	return &utc
}

// floatString tolerates understat's habit of quoting numbers.
type floatString float64

func (f *floatString) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "" || text == "null" {
		return nil
	}
	text = strings.Trim(text, `"`)
	if text == "" {
		return nil
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", text, err)
	}
	*f = floatString(value)
	return nil
}

func (f *floatString) ptr() *float64 {
	if f == nil {
		return nil
	}
	value := float64(*f)
	return &value
}

type datesItem struct {
	IsResult bool `json:"isResult"`
	Home     struct {
		Title string `json:"title"`
	} `json:"h"`
	Away struct {
		Title string `json:"title"`
	} `json:"a"`
	XG struct {
		Home *floatString `json:"h"`
		Away *floatString `json:"a"`
	} `json:"xG"`
	Datetime string `json:"datetime"`
}

type teamsItem struct {
	Title   string `json:"title"`
	History []struct {
		Venue string `json:"h_a"`
		Date  string `json:"date"`
		PPDA  struct {
			Att floatString `json:"att"`
			Def floatString `json:"def"`
		} `json:"ppda"`
		Deep *floatString `json:"deep"`
	} `json:"history"`
}
