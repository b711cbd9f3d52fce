package cli

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/catalog/internal/client/config"
	"github.com/dmitrijs2005/catalog/internal/common"
	"github.com/dmitrijs2005/catalog/internal/logging"
	"github.com/dmitrijs2005/catalog/internal/server/httpapi"
	"github.com/dmitrijs2005/catalog/internal/server/models"
	"github.com/dmitrijs2005/catalog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/catalog/internal/server/search"
	"github.com/dmitrijs2005/catalog/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) string {
	t.Helper()
	t.Setenv(config.EnvServer, "")
	svc := services.NewCatalogService(nil, repomanager.NewMemoryRepositoryManager(), search.NewMemoryIndex(), logging.Nop())
	h := httpapi.NewHandler(svc, httpapi.Options{DefaultPageSize: 25, MaxPageSize: 100}, logging.Nop(), nil)
	srv := httptest.NewServer(h.Router(nil))
	t.Cleanup(srv.Close)
	return srv.URL
}

type result struct {
	out, errOut string
	err         error
}

func run(t *testing.T, server, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--server", server}, args...))
	err := cmd.Execute()
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func decodeRecord(t *testing.T, s string) models.Record {
	t.Helper()
	var r models.Record
	require.NoError(t, json.Unmarshal([]byte(s), &r))
	return r
}

func TestCLI_CreateGetUpdateDelete(t *testing.T) {
	url := startServer(t)

	res := run(t, url, "", "-o", "json", "create", "-t", "Dune", "-r", "1984-12-14",
		"-g", "Science Fiction", "--language", "en:English", "--country", "US:United States of America")
	require.NoError(t, res.err)
	rec := decodeRecord(t, res.out)
	assert.Equal(t, "Dune", rec.Title)
	require.Len(t, rec.SpokenLanguages, 1)
	assert.Equal(t, models.Language{Code: "en", Name: "English"}, rec.SpokenLanguages[0])

	res = run(t, url, "", "-o", "json", "create", "-t", "Dune", "-r", "1984-12-14")
	assert.ErrorIs(t, res.err, common.ErrConflict)

	res = run(t, url, "", "-o", "json", "get", rec.ID)
	require.NoError(t, res.err)
	assert.Equal(t, rec.ID, decodeRecord(t, res.out).ID)

	res = run(t, url, "", "-o", "json", "update", rec.ID, "--tagline", "Fear is the mind-killer.")
	require.NoError(t, res.err)
	updated := decodeRecord(t, res.out)
	require.NotNil(t, updated.Tagline)

	res = run(t, url, "", "-o", "json", "update", rec.ID, "--clear", "tagline")
	require.NoError(t, res.err)
	assert.Nil(t, decodeRecord(t, res.out).Tagline)

	res = run(t, url, "", "delete", rec.ID)
	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "deleted "+rec.ID)

	res = run(t, url, "", "get", rec.ID)
	assert.ErrorIs(t, res.err, common.ErrorNotFound)
}

func TestCLI_ListWalksPages(t *testing.T) {
	url := startServer(t)

	for _, title := range []string{"Casablanca", "Alien", "Brazil"} {
		require.NoError(t, run(t, url, "", "create", "-t", title).err)
	}

	res := run(t, url, "", "-o", "json", "list", "-n", "1")
	require.NoError(t, res.err)

	var rs []models.Record
	require.NoError(t, json.Unmarshal([]byte(res.out), &rs))
	require.Len(t, rs, 3)
	assert.Equal(t, "Alien", rs[0].Title)
	assert.Equal(t, "Casablanca", rs[2].Title)

	res = run(t, url, "", "-o", "table", "list", "--limit", "2")
	require.NoError(t, res.err)
	lines := strings.Split(strings.TrimSpace(res.out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "Alien")
}

func TestCLI_SearchEmpty(t *testing.T) {
	url := startServer(t)

	res := run(t, url, "", "-o", "json", "search", "nothing")
	require.NoError(t, res.err)
	assert.JSONEq(t, `[]`, res.out)
}

func TestCLI_CreateInteractive(t *testing.T) {
	url := startServer(t)

	res := run(t, url, "Alien\n1979-05-25\nA crew meets\nsomething else.\n\n", "-o", "json", "create")
	require.NoError(t, res.err)

	rec := decodeRecord(t, res.out)
	assert.Equal(t, "Alien", rec.Title)
	require.NotNil(t, rec.ReleaseDate)
	assert.Equal(t, "1979-05-25", rec.ReleaseDate.String())
	require.NotNil(t, rec.Overview)
	assert.Equal(t, "A crew meets\nsomething else.", *rec.Overview)
	assert.Contains(t, res.errOut, "Title")
}

func TestCLI_CreateFromFile(t *testing.T) {
	url := startServer(t)
	path := filepath.Join(t.TempDir(), "brazil.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"title":"Brazil","genres":[{"name":"Comedy"}]}`), 0o600))

	res := run(t, url, "", "-o", "json", "create", "-f", path)
	require.NoError(t, res.err)
	rec := decodeRecord(t, res.out)
	assert.Equal(t, "Brazil", rec.Title)
	require.Len(t, rec.Genres, 1)

	res = run(t, url, `{"title":"Alien"}`, "-o", "json", "create", "-f", "-")
	require.NoError(t, res.err)
	assert.Equal(t, "Alien", decodeRecord(t, res.out).Title)
}

func TestCLI_BadInput(t *testing.T) {
	url := startServer(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad output", []string{"-o", "xml", "list"}},
		{"bad date", []string{"create", "-t", "Dune", "-r", "14/12/1984"}},
		{"bad language", []string{"create", "-t", "Dune", "--language", "english"}},
		{"bad clear", []string{"update", models.RecordID("Dune", nil), "--clear", "title"}},
		{"missing arg", []string{"get"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, run(t, url, "", tt.args...).err)
		})
	}
}

func TestPrinter_AutoDetectsTerminal(t *testing.T) {
	orig := isTerminal
	t.Cleanup(func() { isTerminal = orig })

	a := &App{output: outputAuto, out: &bytes.Buffer{}}

	isTerminal = func() bool { return true }
	assert.IsType(t, tablePrinter{}, a.printer())

	isTerminal = func() bool { return false }
	assert.IsType(t, jsonPrinter{}, a.printer())
}
