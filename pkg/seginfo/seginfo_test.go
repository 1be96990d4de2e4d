package seginfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateNameAndParseID(t *testing.T) {
	name := GenerateName(42)
	require.Equal(t, "42.log", name)

	id, ok := ParseID(name)
	require.True(t, ok)
	require.Equal(t, uint64(42), id)

	_, ok = ParseID("not-a-segment.txt")
	require.False(t, ok)
}

func TestDiscoverSortsAscending(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []uint64{5, 1, 3} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, GenerateName(id)), nil, 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "engine"), nil, 0644))

	ids, err := Discover(dir)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 3, 5}, ids)
}

func TestDiscoverMissingDir(t *testing.T) {
	ids, err := Discover(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	ok, err := Exists(dir, 1)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, os.WriteFile(Path(dir, 1), nil, 0644))
	ok, err = Exists(dir, 1)
	require.NoError(t, err)
	require.True(t, ok)
}
