package storage

import (
	"testing"

	"github.com/iamNilotpal/kvs/internal/index"
	"github.com/iamNilotpal/kvs/internal/record"
	"github.com/iamNilotpal/kvs/pkg/logger"
	"github.com/iamNilotpal/kvs/pkg/options"
	"github.com/stretchr/testify/require"
)

func testConfig(dir string) *Config {
	opts := options.NewDefaultOptions()
	return &Config{Dir: dir, Logger: logger.New("storage-test"), Opts: &opts}
}

func TestAppendAndRead(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(testConfig(dir))
	require.NoError(t, err)
	defer s.Close()

	ptr, err := s.Append(record.Set("foo", "bar"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), ptr.FileID)
	require.Equal(t, uint64(0), ptr.Offset)

	rec, err := s.Read(ptr)
	require.NoError(t, err)
	require.Equal(t, record.KindSet, rec.Kind)
	require.Equal(t, "foo", rec.Key)
	require.Equal(t, "bar", rec.Value)

	second, err := s.Append(record.Set("baz", "qux"))
	require.NoError(t, err)
	require.Equal(t, ptr.Offset+ptr.Length, second.Offset)
}

func TestReplayRebuildsIndex(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(testConfig(dir))
	require.NoError(t, err)

	_, err = s.Append(record.Set("a", "1"))
	require.NoError(t, err)
	_, err = s.Append(record.Set("a", "2"))
	require.NoError(t, err)
	_, err = s.Append(record.Set("b", "3"))
	require.NoError(t, err)
	removePtr, err := s.Append(record.Remove("a"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(testConfig(dir))
	require.NoError(t, err)
	defer s2.Close()

	idx := index.New(logger.New("replay-test"))
	deadBytes, err := s2.Replay(idx)
	require.NoError(t, err)

	_, ok := idx.Get("a")
	require.False(t, ok, "a was removed and must not be live")

	ptrB, ok := idx.Get("b")
	require.True(t, ok)
	rec, err := s2.Read(ptrB)
	require.NoError(t, err)
	require.Equal(t, "3", rec.Value)

	// Dead bytes: the first "a" Set (superseded), the second "a" Set
	// (removed), and the Remove record itself (never live).
	require.Greater(t, deadBytes, uint64(0))
	require.GreaterOrEqual(t, deadBytes, removePtr.Length)
}

func TestOpenAlwaysStartsFreshActiveSegment(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(testConfig(dir))
	require.NoError(t, err)
	require.Equal(t, uint64(1), s.ActiveID())

	_, err = s.Append(record.Set("k", "v"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening must never append to the segment left behind by the
	// previous session: a brand new, empty active segment is created at
	// max(ids)+1 every time (spec §4.D step 3), even though segment 1
	// still has room and is still a valid read target.
	s2, err := Open(testConfig(dir))
	require.NoError(t, err)
	defer s2.Close()

	require.Equal(t, uint64(2), s2.ActiveID())
	require.Equal(t, uint64(0), s2.ActiveBytes())
	require.ElementsMatch(t, []uint64{1, 2}, s2.SegmentIDs())

	// Segment 1's data is still readable even though it's no longer active.
	idx := index.New(logger.New("storage-test"))
	_, err = s2.Replay(idx)
	require.NoError(t, err)
	ptr, ok := idx.Get("k")
	require.True(t, ok)
	require.Equal(t, uint64(1), ptr.FileID)
}

func TestOpenOnEmptyDirStartsAtSegmentOne(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(testConfig(dir))
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, uint64(1), s.ActiveID())
	require.ElementsMatch(t, []uint64{1}, s.SegmentIDs())
}

func TestRotateCreatesNewSegment(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(testConfig(dir))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Append(record.Set("k", "v"))
	require.NoError(t, err)

	next, err := s.Rotate()
	require.NoError(t, err)
	require.Equal(t, uint64(2), next)
	require.Equal(t, uint64(0), s.ActiveBytes())
}

func TestRemoveSegments(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(testConfig(dir))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Append(record.Set("k", "v"))
	require.NoError(t, err)
	_, err = s.Rotate()
	require.NoError(t, err)

	require.NoError(t, s.RemoveSegments([]uint64{1}))
	require.ElementsMatch(t, []uint64{2}, s.SegmentIDs())
}
