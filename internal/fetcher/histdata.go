package fetcher

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const histDataBaseURL = "https://www.football-data.co.uk/mmz4281"

// HistLeagues maps football-data.co.uk division codes to league names.
var HistLeagues = map[string]string{
	"E0":  "Premier League",
	"SP1": "La Liga",
	"I1":  "Serie A",
	"D1":  "Bundesliga",
	"F1":  "Ligue 1",
}

// HistSeasons are the season codes downloaded for training (2021-22 onwards).
var HistSeasons = []string{"2122", "2223", "2324"}

// HistoricalMatch is one row of a football-data.co.uk results CSV.
type HistoricalMatch struct {
	Date      time.Time
	League    string
	HomeTeam  string
	AwayTeam  string
	HomeGoals int
	AwayGoals int
}

// HistDataClient downloads and parses historical results CSVs for training.
type HistDataClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHistDataClient() *HistDataClient {
	return &HistDataClient{
		baseURL: histDataBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewHistDataClientWithBaseURL is used by tests to point the client at a fake server.
func NewHistDataClientWithBaseURL(baseURL string) *HistDataClient {
	c := NewHistDataClient()
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// DownloadAll fetches every league/season CSV into outputDir, skipping files
// that already exist. Individual failures are logged, not fatal.
func (c *HistDataClient) DownloadAll(ctx context.Context, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outputDir, err)
	}

	for _, season := range HistSeasons {
		for code, name := range HistLeagues {
			outputFile := filepath.Join(outputDir, fmt.Sprintf("%s_%s.csv", code, season))
			if _, err := os.Stat(outputFile); err == nil {
				slog.Info("Historical data already exists", "league", name, "season", season)
				continue
			}

			if err := c.downloadSeason(ctx, season, code, outputFile); err != nil {
				slog.Error("Failed to download historical data", "league", name, "season", season, "error", err)
				continue
			}
			slog.Info("Downloaded historical data", "league", name, "season", season)
		}
	}
	return nil
}

func (c *HistDataClient) downloadSeason(ctx context.Context, season, code, outputFile string) error {
	u := fmt.Sprintf("%s/%s/%s.csv", c.baseURL, season, code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, u)
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputFile, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputFile, err)
	}
	return nil
}

// ParseResultsCSV reads one results CSV, keeping rows with a valid date,
// both team names and both full-time goal counts.
func ParseResultsCSV(r io.Reader) ([]HistoricalMatch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Date", "HomeTeam", "AwayTeam", "FTHG", "FTAG"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("CSV missing required column %q", required)
		}
	}

	var matches []HistoricalMatch
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		get := func(name string) string {
			i := col[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		date, err := parseResultDate(get("Date"))
		if err != nil {
			continue
		}
		homeGoals, err := strconv.Atoi(get("FTHG"))
		if err != nil {
			continue
		}
		awayGoals, err := strconv.Atoi(get("FTAG"))
		if err != nil {
			continue
		}
		home, away := get("HomeTeam"), get("AwayTeam")
		if home == "" || away == "" {
			continue
		}

		matches = append(matches, HistoricalMatch{
			Date:      date,
			HomeTeam:  home,
			AwayTeam:  away,
			HomeGoals: homeGoals,
			AwayGoals: awayGoals,
		})
	}
	return matches, nil
}

// LoadResultsDir parses every CSV in dir and concatenates the rows.
func LoadResultsDir(dir string) ([]HistoricalMatch, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to list CSVs in %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CSV files found in %s, run download-historical first", dir)
	}

	var all []HistoricalMatch
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", file, err)
		}
		matches, err := ParseResultsCSV(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}

		// files are named <division>_<season>.csv, e.g. E0_2122.csv
		league := ""
		base := filepath.Base(file)
		if i := strings.IndexByte(base, '_'); i > 0 {
			league = HistLeagues[base[:i]]
		}
		for i := range matches {
			matches[i].League = league
		}
		all = append(all, matches...)
	}
	return all, nil
}

// parseResultDate accepts the two date layouts football-data.co.uk has used.
func parseResultDate(s string) (time.Time, error) {
	for _, layout := range []string{"02/01/2006", "02/01/06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
