package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vietime/internal/shortcut"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "vietime.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenMigrates(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, ValidateSchema(s.db))
	require.NoError(t, s.Verify())

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion(), st.SchemaVersion)
	assert.Zero(t, st.Shortcuts)
	assert.Zero(t, st.ForeignWords)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vietime.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveShortcut(shortcut.New("vn", "Việt Nam")))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.LoadShortcuts()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Việt Nam", got[0].Replacement)
}

func TestCloseNilDB(t *testing.T) {
	s := &Store{}
	assert.NoError(t, s.Close())
}

func TestShortcuts(t *testing.T) {
	s := openTemp(t)

	hn := shortcut.New("hn", "Hà Nội")
	hn.Method = shortcut.MethodVNI
	hn.Condition = shortcut.Immediate
	hn.CaseMode = shortcut.CaseExact
	hn.Enabled = false

	require.NoError(t, s.SaveShortcut(shortcut.New("vn", "Việt Nam")))
	require.NoError(t, s.SaveShortcut(hn))
	assert.ErrorIs(t, s.SaveShortcut(shortcut.New(" ", "x")), shortcut.ErrEmptyTrigger)

	got, err := s.LoadShortcuts()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, shortcut.New("vn", "Việt Nam"), got[0])
	assert.Equal(t, hn, got[1])

	// Saving the same trigger in another case replaces the entry.
	require.NoError(t, s.SaveShortcut(shortcut.New("VN", "VIỆT NAM")))
	got, err = s.LoadShortcuts()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "VN", got[0].Trigger)

	require.NoError(t, s.DeleteShortcut("vn"))
	assert.ErrorIs(t, s.DeleteShortcut("vn"), ErrNotFound)

	require.NoError(t, s.ClearShortcuts())
	got, err = s.LoadShortcuts()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFillTable(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.SaveShortcut(shortcut.New("vn", "Việt Nam")))
	require.NoError(t, s.SaveShortcut(shortcut.New("hn", "Hà Nội")))

	table := shortcut.NewTable()
	require.NoError(t, table.Add(shortcut.New("hn", "already here")))

	added, err := s.FillTable(table)
	assert.Equal(t, 1, added)
	assert.ErrorIs(t, err, shortcut.ErrDuplicate)
	assert.Equal(t, 2, table.Len())

	got, ok := table.Get("hn")
	require.True(t, ok)
	assert.Equal(t, "already here", got.Replacement)
}

func TestForeignWords(t *testing.T) {
	s := openTemp(t)

	added, err := s.AddForeignWords("test", "Bank", "test", "text", "a", "naïve", "with space", "bank")
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	added, err = s.AddForeignWords("again", "test", "windows")
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	n, err := s.ForeignWordCount()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	four, err := s.ForeignWordsByLength(4)
	require.NoError(t, err)
	assert.Equal(t, []string{"bank", "test", "text"}, four)

	none, err := s.ForeignWordsByLength(5)
	require.NoError(t, err)
	assert.Empty(t, none)

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, map[int]int{4: 3, 7: 1}, st.WordsByLength)
	assert.Equal(t, 4, st.ForeignWords)

	require.NoError(t, s.RemoveForeignWord("TEXT"))
	assert.ErrorIs(t, s.RemoveForeignWord("text"), ErrNotFound)
}

func TestLoadWordList(t *testing.T) {
	s := openTemp(t)
	_, err := s.AddForeignWords("test", "bank", "windows", "test")
	require.NoError(t, err)

	wl, err := s.LoadWordList()
	require.NoError(t, err)
	assert.Equal(t, 3, wl.Len())
	assert.True(t, wl.IsForeign("bank"))
	assert.True(t, wl.IsForeign("wind"))
	assert.False(t, wl.IsForeign("viet"))
	assert.Equal(t, []string{"bank", "test"}, wl.Words(4))
}

func TestVerifyDetectsMisfiledWord(t *testing.T) {
	s := openTemp(t)
	_, err := s.AddForeignWords("test", "bank")
	require.NoError(t, err)

	_, err = s.db.Exec("UPDATE foreign_words SET length = 9 WHERE word = 'bank'")
	require.NoError(t, err)
	assert.ErrorContains(t, s.Verify(), "wrong length")
}

func TestMigrateIdempotent(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, MigrateDB(s.db))

	var rows int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&rows))
	assert.Equal(t, len(migrations), rows)
}

func TestValidateSchemaMissingTable(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer db.Close()
	assert.ErrorContains(t, ValidateSchema(db), "missing required table")
}
