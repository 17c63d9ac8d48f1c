package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/historycourt/internal/adapters/driven/audit"
	"github.com/custodia-labs/historycourt/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/historycourt/internal/core/domain"
	"github.com/custodia-labs/historycourt/internal/core/services"
)

// clearEnv keeps the developer's environment out of the settings.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		services.EnvAPIKey,
		services.EnvOpenRouterKey,
		services.EnvOpenAIKey,
		services.EnvAnthropicKey,
		services.EnvTypeMapPath,
		services.EnvDatabasePath,
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))
}

func newTestApp(t *testing.T, dir string) *app {
	t.Helper()
	a, err := newApp(dir)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })
	return a
}

func TestNewApp_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	a := newTestApp(t, dir)

	assert.NotNil(t, a.services.History)
	assert.NotNil(t, a.services.Game)
	assert.NotNil(t, a.services.Generator)
	assert.NotNil(t, a.services.Settings)
	assert.NotNil(t, a.services.Metrics)
	assert.NotNil(t, a.services.Prompts)
	assert.Equal(t, domain.DefaultServerAddr, a.services.ServerAddr)
	require.NotNil(t, a.services.Health)
	assert.NoError(t, a.services.Health(context.Background()))
	assert.FileExists(t, filepath.Join(dir, sqlite.DBFileName))
	assert.FileExists(t, filepath.Join(dir, audit.DefaultFileName))
}

func TestNewApp_ConfiguredPaths(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	dataDir := filepath.Join(t.TempDir(), "data")
	writeConfig(t, dir, `
[storage]
data_dir = "`+filepath.ToSlash(dataDir)+`"

[audit]
path = "off"

[server]
addr = "127.0.0.1:6000"
`)

	a := newTestApp(t, dir)

	assert.FileExists(t, filepath.Join(dataDir, sqlite.DBFileName))
	assert.NoFileExists(t, filepath.Join(dir, audit.DefaultFileName))
	assert.Equal(t, "127.0.0.1:6000", a.services.ServerAddr)
}

func TestNewApp_DatabaseFromEnv(t *testing.T) {
	clearEnv(t)
	dbPath := filepath.Join(t.TempDir(), "court.db")
	t.Setenv(services.EnvDatabasePath, dbPath)

	newTestApp(t, t.TempDir())

	assert.FileExists(t, dbPath)
}

func TestNewApp_UnknownCategoryOrder(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, `
[taxonomy]
order = ["news", "cooking"]
`)

	_, err := newApp(dir)

	assert.ErrorIs(t, err, domain.ErrUnknownTag)
}

func TestNewApp_TypeMap(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	typeMap := filepath.Join(dir, "types.csv")
	require.NoError(t, os.WriteFile(typeMap, []byte("url,type\nexample-news.test,news\n"), 0600))
	t.Setenv(services.EnvTypeMapPath, typeMap)

	a := newTestApp(t, dir)

	assert.Equal(t, "news", a.services.History.TypeMap().Hosts["example-news.test"])
}

func TestNewApp_LocalGameEndToEnd(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, `
[generation]
mode = "local"
`)
	a := newTestApp(t, dir)
	ctx := context.Background()

	history := []domain.HistoryEntry{
		{Host: "www.bbc.co.uk", Title: "Election results live"},
		{Host: "nytimes.com", Title: "Markets rally on rate cut"},
		{Host: "reddit.com", Title: "r/golang - generics tips"},
		{Host: "youtube.com", Title: "Lo-fi beats to code to"},
		{Host: "wikipedia.org", Title: "Byzantine Empire"},
		{Host: "amazon.com", Title: "Mechanical keyboard"},
	}
	up, err := a.services.History.Upload(ctx, history, 0)
	require.NoError(t, err)
	require.NotEmpty(t, up.SessionID)

	c, err := a.services.Game.CreateCase(ctx, up.SessionID, 2, nil)
	require.NoError(t, err)
	require.Len(t, c.Rounds, 2)

	round, err := a.services.Game.Round(ctx, c.ID, 0)
	require.NoError(t, err)
	assert.Len(t, round.Cards, domain.CardsPerRound)

	res, err := a.services.Game.Guess(ctx, c.ID, 0, c.Rounds[0].LieIndex)
	require.NoError(t, err)
	assert.True(t, res.Correct)
}

func TestApp_CloseTwice(t *testing.T) {
	clearEnv(t)
	a, err := newApp(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, a.Close())
	assert.NoError(t, a.Close())
}

func TestNewApp_InMemoryStorage(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv(services.EnvDatabasePath, domain.InMemoryDB)

	a := newTestApp(t, dir)

	assert.NoFileExists(t, filepath.Join(dir, sqlite.DBFileName))
	assert.Nil(t, a.services.Health)

	up, err := a.services.History.Upload(context.Background(), []domain.HistoryEntry{{Host: "a.com", Title: "A page"}}, 0)
	require.NoError(t, err)
	_, err = a.services.History.SessionTags(context.Background(), up.SessionID)
	assert.NoError(t, err)
}

func TestNewApp_UnwritableConfigDir(t *testing.T) {
	clearEnv(t)
	t.Setenv(services.EnvDatabasePath, domain.InMemoryDB)
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	// A regular file where the directory should be makes the config dir unusable.
	a, err := newApp(filepath.Join(blocker, "conf"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })

	settings, err := a.services.Settings.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultServerAddr, settings.Server.Addr)
}
