package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"flora-advisor/internal/auth"
	"flora-advisor/internal/export"
	"flora-advisor/internal/ui"
)

func TestMain(m *testing.M) {
	ui.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeSplit(t, stdin, args...)
	return out, err
}

// executeSplit runs the root command and returns stdout and stderr apart.
func executeSplit(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Cleanup(func() { ui.SetOutput(io.Discard) })

	cmd := rootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "flora version dev"))
}

func TestColorsCommandJSON(t *testing.T) {
	out, err := execute(t, "", "colors", "#000000", "--scheme", "analogous", "--json")
	require.NoError(t, err)

	var got struct {
		Base   string   `json:"base"`
		Scheme string   `json:"scheme"`
		Colors []string `json:"colors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "000000", got.Base)
	assert.Equal(t, "Analogous", got.Scheme)
	assert.Equal(t, []string{"1e1e1e", "e2e2e2"}, got.Colors)
}

func TestColorsCommandAllSchemes(t *testing.T) {
	out, err := execute(t, "", "colors", "ff0000", "--all", "--json")
	require.NoError(t, err)

	var got []struct {
		Scheme string   `json:"scheme"`
		Colors []string `json:"colors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)
	assert.Equal(t, []string{"ff0000"}, got[0].Colors)
	assert.Equal(t, []string{"00ffff"}, got[1].Colors)
}

func TestColorsCommandRejectsBadInput(t *testing.T) {
	_, err := execute(t, "", "colors", "#12345")
	assert.Error(t, err)

	_, err = execute(t, "", "colors", "123456", "--scheme", "triadic")
	assert.Error(t, err)
}

func TestHashPasswordCommand(t *testing.T) {
	out, err := execute(t, "", "hash-password", "hunter2")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")))
}

func TestHashPasswordCommandReadsStdin(t *testing.T) {
	out, err := execute(t, "alpha\n\nbeta\n", "hash-password")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(lines[0]), []byte("alpha")))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(lines[1]), []byte("beta")))
}

func TestUsersCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	_, err := execute(t, "", "users", "--file", path, "add", "gardener", "secret", "--rpm", "30")
	require.NoError(t, err)
	_, err = execute(t, "", "users", "--file", path, "add", "Gardener", "other")
	assert.Error(t, err)

	_, err = execute(t, "", "users", "--file", path, "disable", "gardener")
	require.NoError(t, err)

	cfg, err := auth.ReadUsersConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Users, 1)
	assert.Equal(t, 30, cfg.Users[0].RateLimitRPM)
	assert.False(t, cfg.Users[0].Enabled)

	out, err := execute(t, "", "users", "--file", path, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "gardener")
	assert.Contains(t, out, "30/min")

	_, err = execute(t, "", "users", "--file", path, "remove", "gardener")
	require.NoError(t, err)
	_, err = execute(t, "", "users", "--file", path, "remove", "gardener")
	assert.Error(t, err)
}

// catalogFixture serves two plants per species-list page and reports three
// pages in total.
func catalogFixture(t *testing.T) (configPath string, pages *int32) {
	t.Helper()
	pages = new(int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/species-list", r.URL.Path)
		assert.Equal(t, "sk-test", r.URL.Query().Get("key"))
		atomic.AddInt32(pages, 1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"data": [
				{"id": 1, "common_name": "Rose", "scientific_name": ["Rosa"], "cycle": "Perennial"},
				{"id": 2, "common_name": "Poppy", "scientific_name": ["Papaver"], "cycle": "Annual"}
			],
			"current_page": 1, "last_page": 3, "total": 6
		}`)
	}))
	t.Cleanup(srv.Close)

	t.Setenv("PERENUAL_API_KEY", "sk-test")
	t.Setenv("UNSPLASH_ACCESS_KEY", "")
	t.Setenv("AUTH_ENABLED", "false")

	configPath = filepath.Join(t.TempDir(), "flora.json")
	cfg := fmt.Sprintf(`{"catalog": {"base_url": %q, "rate_limit_rps": 100, "burst": 10}, "photos": {"enabled": false}}`, srv.URL)
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))
	return configPath, pages
}

func TestSearchCommandJSONKeepsStdoutClean(t *testing.T) {
	cfg, _ := catalogFixture(t)

	out, logs, err := executeSplit(t, "", "-c", cfg, "search", "--color", "#ff0000", "--format", "json")
	require.NoError(t, err)

	var got struct {
		BaseColor string   `json:"base_color"`
		Colors    []string `json:"colors"`
		Plants    []struct {
			CommonName string `json:"common_name"`
			QueryColor string `json:"query_color"`
		} `json:"plants"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), "stdout: %s", out)
	assert.Equal(t, []string{"ff0000"}, got.Colors)
	require.Len(t, got.Plants, 2)
	assert.Equal(t, "Rose", got.Plants[0].CommonName)

	assert.Contains(t, logs, "2 plants in")
	assert.NotContains(t, out, "plants in")
}

func TestSearchCommandCSV(t *testing.T) {
	cfg, pages := catalogFixture(t)

	out, _, err := executeSplit(t, "", "-q", "-c", cfg, "search", "--color", "000000", "--scheme", "analogous", "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(pages), "one query per derived color")

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err, "stdout: %s", out)
	require.Len(t, records, 5)
	assert.Equal(t, export.Header, records[0])
	assert.Equal(t, "Rose", records[1][0])
}

func TestSearchCommandXLSXNeedsOut(t *testing.T) {
	_, err := execute(t, "", "search", "--format", "xlsx")
	assert.Error(t, err)
}

func TestDownloadCommandStopsAtMaxPages(t *testing.T) {
	cfg, pages := catalogFixture(t)
	dest := filepath.Join(t.TempDir(), "plants.csv")

	out, _, err := executeSplit(t, "", "-q", "-c", cfg, "download", "--out", dest, "--max-pages", "1")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, int32(1), atomic.LoadInt32(pages))

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, export.Header, records[0])
	assert.Equal(t, "Poppy", records[2][0])
}

func TestColorsCommandPrintsEachHexOnce(t *testing.T) {
	out, err := execute(t, "", "colors", "ff0000", "--scheme", "complementary")
	require.NoError(t, err)

	plain := ui.StripAnsi(out)
	assert.Equal(t, 1, strings.Count(plain, "ff0000"), plain)
	assert.Equal(t, 1, strings.Count(plain, "00ffff"), plain)
}
