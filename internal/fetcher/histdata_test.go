package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Div,Date,HomeTeam,AwayTeam,FTHG,FTAG,FTR
E0,13/08/2021,Brentford,Arsenal,2,0,H
E0,14/08/21,Man United,Leeds,5,1,H
E0,14/08/2021,Burnley,Brighton,1,
E0,,Chelsea,Palace,3,0,H
`

func TestParseResultsCSV(t *testing.T) {
	matches, err := ParseResultsCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	// rows with missing goals or date are skipped
	require.Len(t, matches, 2)

	assert.Equal(t, "Brentford", matches[0].HomeTeam)
	assert.Equal(t, "Arsenal", matches[0].AwayTeam)
	assert.Equal(t, 2, matches[0].HomeGoals)
	assert.Equal(t, 0, matches[0].AwayGoals)
	assert.Equal(t, time.Date(2021, 8, 13, 0, 0, 0, 0, time.UTC), matches[0].Date)

	// two-digit year layout also accepted
	assert.Equal(t, "Man United", matches[1].HomeTeam)
	assert.Equal(t, time.Date(2021, 8, 14, 0, 0, 0, 0, time.UTC), matches[1].Date)
}

func TestParseResultsCSVMissingColumn(t *testing.T) {
	_, err := ParseResultsCSV(strings.NewReader("Date,HomeTeam,AwayTeam\n01/01/2022,A,B\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FTHG")
}

func TestDownloadAllSkipsExisting(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, sampleCSV)
	}))
	defer server.Close()

	dir := t.TempDir()
	client := NewHistDataClientWithBaseURL(server.URL)

	require.NoError(t, client.DownloadAll(context.Background(), dir))
	want := len(HistLeagues) * len(HistSeasons)
	assert.Equal(t, want, requests)

	// second run downloads nothing
	require.NoError(t, client.DownloadAll(context.Background(), dir))
	assert.Equal(t, want, requests)
}

func TestLoadResultsDirTagsLeague(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "E0_2122.csv"), []byte(sampleCSV), 0o644))

	matches, err := LoadResultsDir(dir)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Premier League", matches[0].League)
}

func TestLoadResultsDirEmpty(t *testing.T) {
	_, err := LoadResultsDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CSV files")
}
