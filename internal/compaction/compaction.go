// Package compaction implements the engine's inline compaction pass
// (spec §4.E): rewrite every live record into a fresh segment, point the
// index at the new locations, drop the segments that held only dead
// bytes, and hand the engine a clean active segment to keep writing to.
package compaction

import (
	"github.com/iamNilotpal/kvs/internal/index"
	"github.com/iamNilotpal/kvs/internal/storage"
	"go.uber.org/zap"
)

// Compactor performs compaction passes. It holds no storage/index state
// of its own; Compact is given the engine's storage and index for the
// duration of one pass, which the caller must run under its own
// exclusive lock (spec §5: compaction excludes concurrent reads/writes).
type Compactor struct {
	log *zap.SugaredLogger
}

// New creates a Compactor.
func New(log *zap.SugaredLogger) *Compactor {
	return &Compactor{log: log}
}

type liveEntry struct {
	key string
	ptr index.LogPointer
}

// Compact copies every record idx currently points at into a new
// segment, repoints idx at the copies, deletes the old segments, and
// opens a fresh empty active segment. Returns the id of the segment
// live data was compacted into and the id of the new active segment.
func (c *Compactor) Compact(s *storage.Storage, idx *index.Index) (compactID uint64, newActiveID uint64, err error) {
	oldIDs := s.SegmentIDs()
	if len(oldIDs) == 0 {
		return 0, 0, nil
	}

	highest := oldIDs[len(oldIDs)-1]
	compactID = highest + 1
	newActiveID = highest + 2

	writer, err := s.CreateSegment(compactID)
	if err != nil {
		return 0, 0, err
	}

	entries := make([]liveEntry, 0, idx.Len())
	idx.Range(func(key string, ptr index.LogPointer) {
		entries = append(entries, liveEntry{key: key, ptr: ptr})
	})

	updates := make([]liveEntry, 0, len(entries))
	for _, e := range entries {
		rec, readErr := s.Read(e.ptr)
		if readErr != nil {
			writer.Close()
			return 0, 0, readErr
		}

		newPtr, appendErr := writer.Append(rec)
		if appendErr != nil {
			writer.Close()
			return 0, 0, appendErr
		}
		updates = append(updates, liveEntry{key: e.key, ptr: newPtr})
	}

	if err := writer.Close(); err != nil {
		return 0, 0, err
	}

	for _, u := range updates {
		idx.Set(u.key, u.ptr)
	}

	if err := s.FinalizeCompaction(compactID, oldIDs, newActiveID); err != nil {
		return 0, 0, err
	}

	c.log.Infow(
		"compaction complete",
		"compactSegment", compactID,
		"newActiveSegment", newActiveID,
		"segmentsRemoved", len(oldIDs),
		"liveKeys", len(updates),
	)
	return compactID, newActiveID, nil
}
