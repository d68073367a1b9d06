package ime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vietime/internal/config"
	"vietime/internal/oracle"
	"vietime/internal/shortcut"
	"vietime/internal/store"
)

func TestLoadSourcesAllOrigins(t *testing.T) {
	dir := t.TempDir()

	db, err := store.Open(filepath.Join(dir, "vietime.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.SaveShortcut(shortcut.New("hn", "Hà Nội")))
	_, err = db.AddForeignWords("test", "window", "update")
	require.NoError(t, err)

	file := filepath.Join(dir, "shortcuts.json")
	require.NoError(t, os.WriteFile(file, []byte(`[
		{"trigger":"hn","replacement":"duplicate"},
		{"trigger":"sg","replacement":"Sài Gòn"},
		{"trigger":"","replacement":"empty"}
	]`), 0600))

	words := filepath.Join(dir, "words.txt")
	require.NoError(t, os.WriteFile(words, []byte("# english\nbank\nwindow\n"), 0600))

	cfg := config.DefaultConfig()
	cfg.Shortcuts.LoadDefaults = true
	cfg.Shortcuts.File = file
	cfg.Shortcuts.Entries = map[string]string{"ko": "không thể"}
	cfg.Foreign.WordList = words
	cfg.Foreign.Words = []string{"text", "x1"}

	src, err := LoadSources(cfg, db)
	require.NoError(t, err)

	rep := src.Report
	assert.Equal(t, 1, rep.DBShortcuts)
	assert.Equal(t, 1, rep.FileShortcuts)
	assert.Equal(t, 1, rep.CfgShortcuts)
	assert.Positive(t, rep.Defaults)
	assert.Len(t, rep.Rejected, 2, "file duplicate and empty trigger")

	got, ok := src.Shortcuts.Get("hn")
	require.True(t, ok)
	assert.Equal(t, "Hà Nội", got.Replacement, "database entries win")
	got, ok = src.Shortcuts.Get("ko")
	require.True(t, ok)
	assert.Equal(t, "không thể", got.Replacement, "config entries win over defaults")

	assert.Equal(t, 2, rep.DBWords)
	assert.Equal(t, 1, rep.FileWords)
	assert.Equal(t, 1, rep.CfgWords)
	assert.Equal(t, 4, src.Words.Len())
}

func TestLoadSourcesWithoutDatabase(t *testing.T) {
	cfg := config.DefaultConfig()
	src, err := LoadSources(cfg, nil)
	require.NoError(t, err)
	assert.Zero(t, src.Shortcuts.Len())
	assert.Zero(t, src.Words.Len())
}

func TestLoadSourcesMissingFiles(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Shortcuts.File = filepath.Join(t.TempDir(), "missing.json")
	_, err := LoadSources(cfg, nil)
	assert.Error(t, err)

	cfg = config.DefaultConfig()
	cfg.Foreign.WordList = filepath.Join(t.TempDir(), "missing.txt")
	_, err = LoadSources(cfg, nil)
	assert.Error(t, err)
}

func TestSourcesSeed(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Shortcuts.Entries = map[string]string{"vn": "Việt Nam"}
	cfg.Foreign.Words = []string{"text"}
	src, err := LoadSources(cfg, nil)
	require.NoError(t, err)

	e := NewEngine()
	src.Seed(e)
	assert.Equal(t, 1, e.ShortcutCount())
	assert.Equal(t, "Việt Nam ", Transcribe(e, "vn "))
	assert.Equal(t, "text ", Transcribe(e, "text "))
}

func TestSourcesOracle(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Foreign.UseDatabase = false
	src, err := LoadSources(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, oracle.Phonotactic{}, src.Oracle())

	e := NewEngine()
	src.Seed(e)
	assert.Equal(t, "windows ", Transcribe(e, "windows "))

	cfg.Foreign.Phonotactic = false
	src, err = LoadSources(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, src.Oracle())
	src.Seed(e)
	assert.Equal(t, "ưindows ", Transcribe(e, "windows "))

	cfg.Foreign.Phonotactic = true
	cfg.Foreign.Words = []string{"text"}
	src, err = LoadSources(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, oracle.Chain{}, src.Oracle())
	assert.True(t, src.Oracle().IsForeign("wi"))
	assert.True(t, src.Oracle().IsForeign("text"))
}

func TestShortcutsFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "shortcuts.json")
	table := shortcut.NewTable()
	require.NoError(t, table.Add(shortcut.New("hcm", "Hồ Chí Minh")))
	require.NoError(t, table.Add(shortcut.New("dc", "được")))

	require.NoError(t, SaveShortcutsFile(table, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded := shortcut.NewTable()
	n, rejected, err := ImportShortcutsFile(loaded, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, rejected)

	assert.Error(t, SaveShortcutsFile(nil, path))
}
