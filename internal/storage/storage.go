// Package storage manages the engine's append-only segment files: the
// active segment new records are appended to, a read handle per live
// segment for point lookups, and the startup replay that rebuilds the
// index from whatever segments are found on disk (spec §4.A, §4.D).
//
// A segment is named "<id>.log" (pkg/seginfo) and holds a sequence of
// record.Record frames with no other structure; segment id order is
// record order across the whole log.
package storage

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/iamNilotpal/kvs/internal/index"
	"github.com/iamNilotpal/kvs/internal/record"
	"github.com/iamNilotpal/kvs/pkg/errors"
	"github.com/iamNilotpal/kvs/pkg/filesys"
	"github.com/iamNilotpal/kvs/pkg/options"
	"github.com/iamNilotpal/kvs/pkg/seginfo"
	"go.uber.org/zap"
)

// Storage owns every segment file for one engine instance: the active
// segment accepts new appends, and readers is a read-only handle per
// live segment id used to satisfy Get/compaction reads.
type Storage struct {
	mu sync.Mutex

	dir    string
	log    *zap.SugaredLogger
	opts   *options.Options
	active *os.File
	writer *bufio.Writer

	activeID     uint64
	activeOffset uint64

	readers map[uint64]*os.File
}

// Config holds the parameters needed to open a Storage.
type Config struct {
	Dir    string
	Logger *zap.SugaredLogger
	Opts   *options.Options
}

// Open discovers every "<id>.log" file under config.Dir, opens a read
// handle for each, and always starts a fresh active segment at
// max(ids)+1 (or 1 if the directory is empty), per spec §4.D step 3.
// It does not replay records into an index; call Replay for that.
func Open(config *Config) (*Storage, error) {
	if config == nil || config.Logger == nil || config.Opts == nil {
		return nil, fmt.Errorf("storage: invalid configuration")
	}

	if err := filesys.CreateDir(config.Dir, 0755, true); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create data directory").
			WithPath(config.Dir)
	}

	ids, err := seginfo.Discover(config.Dir)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to discover segments").
			WithPath(config.Dir)
	}

	s := &Storage{
		dir:     config.Dir,
		log:     config.Logger,
		opts:    config.Opts,
		readers: make(map[uint64]*os.File, len(ids)),
	}

	for _, id := range ids {
		f, err := os.Open(seginfo.Path(config.Dir, id))
		if err != nil {
			s.closeReaders()
			return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open segment for reading").
				WithSegmentID(id).WithPath(config.Dir)
		}
		s.readers[id] = f
	}

	activeID := uint64(1)
	if len(ids) > 0 {
		activeID = ids[len(ids)-1] + 1
	}

	if err := s.openActive(activeID); err != nil {
		s.closeReaders()
		return nil, err
	}

	s.log.Infow("storage opened", "dir", config.Dir, "segments", len(s.readers), "activeID", s.activeID)
	return s, nil
}

// openActive opens (creating if necessary) segment id for appends and
// positions the write cursor at its current end.
func (s *Storage) openActive(id uint64) error {
	path := seginfo.Path(s.dir, id)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open active segment").
			WithSegmentID(id).WithPath(path)
	}

	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek active segment").
			WithSegmentID(id).WithPath(path)
	}

	// The active segment is also its own reader: Get may target a key
	// most recently written to the segment we're still appending to.
	if _, exists := s.readers[id]; !exists {
		rf, err := os.Open(path)
		if err != nil {
			f.Close()
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open active segment for reading").
				WithSegmentID(id).WithPath(path)
		}
		s.readers[id] = rf
	}

	s.active = f
	s.writer = bufio.NewWriter(f)
	s.activeID = id
	s.activeOffset = uint64(offset)
	return nil
}

// Replay rebuilds idx and returns the total number of dead bytes found
// across every segment: bytes belonging to a record that is not the
// live pointer for its key (spec §4.D). Segments are walked in ascending
// id order, and records within a segment in ascending offset order, so
// later writes always win.
func (s *Storage) Replay(idx *index.Index) (uint64, error) {
	ids := s.segmentIDs()

	var deadBytes uint64
	for _, id := range ids {
		f := s.readers[id]
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek segment during replay").
				WithSegmentID(id)
		}

		br := bufio.NewReader(f)
		var offset uint64
		for {
			rec, n, err := record.Decode(br)
			if err == io.EOF {
				break
			}
			if err != nil {
				return 0, errors.NewStorageError(err, errors.ErrorCodeSegmentCorrupted, "corrupt record during replay").
					WithSegmentID(id).WithOffset(offset)
			}

			length := uint64(n)
			switch rec.Kind {
			case record.KindSet:
				ptr := index.LogPointer{FileID: id, Offset: offset, Length: length}
				old, existed := idx.Insert(rec.Key, ptr)
				if existed {
					deadBytes += old.Length
				}
			case record.KindRemove:
				old, existed := idx.Remove(rec.Key)
				if existed {
					deadBytes += old.Length
				}
				// The remove record itself never becomes live; it is dead
				// the instant it's replayed.
				deadBytes += length
			}

			offset += length
		}
	}

	return deadBytes, nil
}

// Append writes rec to the active segment, flushes it, and returns the
// LogPointer describing where it landed. The write is durable to the
// OS (not necessarily fsynced to disk) before this returns, satisfying
// the "flush before acknowledging" rule in spec §4.B.
func (s *Storage) Append(rec record.Record) (index.LogPointer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	offset := s.activeOffset
	n, err := record.Encode(s.writer, rec)
	if err != nil {
		return index.LogPointer{}, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to encode record").
			WithSegmentID(s.activeID).WithOffset(offset)
	}
	if err := s.writer.Flush(); err != nil {
		return index.LogPointer{}, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to flush segment").
			WithSegmentID(s.activeID).WithOffset(offset)
	}

	s.activeOffset += uint64(n)
	return index.LogPointer{FileID: s.activeID, Offset: offset, Length: uint64(n)}, nil
}

// Read returns the decoded record at ptr.
func (s *Storage) Read(ptr index.LogPointer) (record.Record, error) {
	s.mu.Lock()
	f, ok := s.readers[ptr.FileID]
	s.mu.Unlock()
	if !ok {
		return record.Record{}, errors.NewStorageError(nil, errors.ErrorCodeSegmentCorrupted, "segment not found").
			WithSegmentID(ptr.FileID)
	}

	buf := make([]byte, ptr.Length)
	if _, err := f.ReadAt(buf, int64(ptr.Offset)); err != nil {
		return record.Record{}, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read record").
			WithSegmentID(ptr.FileID).WithOffset(ptr.Offset)
	}

	rec, _, err := record.Decode(bufio.NewReader(bytes.NewReader(buf)))
	if err != nil {
		return record.Record{}, errors.NewStorageError(err, errors.ErrorCodeSegmentCorrupted, "corrupt record").
			WithSegmentID(ptr.FileID).WithOffset(ptr.Offset)
	}
	return rec, nil
}

// ActiveBytes returns the current size of the active segment. The
// engine does not consult it; compaction is triggered by dead bytes.
func (s *Storage) ActiveBytes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeOffset
}

// Rotate closes out the current active segment and opens a new one with
// the next id, returning the id that is now active. The old segment
// keeps its read handle. The compactor does not use Rotate; it switches
// active segments through FinalizeCompaction.
func (s *Storage) Rotate() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.activeID + 1
	if err := s.writer.Flush(); err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to flush segment before rotation").
			WithSegmentID(s.activeID)
	}
	if err := s.active.Close(); err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close segment before rotation").
			WithSegmentID(s.activeID)
	}
	if err := s.openActive(next); err != nil {
		return 0, err
	}
	return s.activeID, nil
}

// OpenReader opens a fresh read handle for segment id and registers it.
// It is a no-op if id already has one. FinalizeCompaction opens the
// compacted segment's reader itself rather than calling this.
func (s *Storage) OpenReader(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.readers[id]; exists {
		return nil
	}
	f, err := os.Open(seginfo.Path(s.dir, id))
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open segment for reading").
			WithSegmentID(id)
	}
	s.readers[id] = f
	return nil
}

// RemoveSegments closes and deletes every segment in ids. The compactor
// does not call it; FinalizeCompaction removes old segments itself.
func (s *Storage) RemoveSegments(ids []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if f, ok := s.readers[id]; ok {
			f.Close()
			delete(s.readers, id)
		}
		if err := os.Remove(seginfo.Path(s.dir, id)); err != nil && !os.IsNotExist(err) {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to remove segment").
				WithSegmentID(id)
		}
	}
	return nil
}

// ActiveID returns the id of the segment currently accepting appends.
func (s *Storage) ActiveID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// SegmentIDs returns every live segment id, ascending.
func (s *Storage) SegmentIDs() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.segmentIDs()
}

func (s *Storage) segmentIDs() []uint64 {
	ids := make([]uint64, 0, len(s.readers))
	for id := range s.readers {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// SegmentWriter is a write handle to a segment that is not (yet) the
// active segment, used by the compactor to build a fresh segment of
// live data alongside the still-open active segment (spec §4.E).
type SegmentWriter struct {
	id     uint64
	f      *os.File
	bw     *bufio.Writer
	offset uint64
}

// CreateSegment creates (or truncates) segment id for writing and
// returns a SegmentWriter positioned at offset 0.
func (s *Storage) CreateSegment(id uint64) (*SegmentWriter, error) {
	path := seginfo.Path(s.dir, id)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create segment").
			WithSegmentID(id).WithPath(path)
	}
	return &SegmentWriter{id: id, f: f, bw: bufio.NewWriter(f)}, nil
}

// Append writes rec to w and returns the LogPointer describing where it
// landed within this segment.
func (w *SegmentWriter) Append(rec record.Record) (index.LogPointer, error) {
	offset := w.offset
	n, err := record.Encode(w.bw, rec)
	if err != nil {
		return index.LogPointer{}, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to encode record").
			WithSegmentID(w.id).WithOffset(offset)
	}
	w.offset += uint64(n)
	return index.LogPointer{FileID: w.id, Offset: offset, Length: uint64(n)}, nil
}

// Close flushes and closes w.
func (w *SegmentWriter) Close() error {
	if err := w.bw.Flush(); err != nil {
		w.f.Close()
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to flush segment").WithSegmentID(w.id)
	}
	if err := w.f.Close(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close segment").WithSegmentID(w.id)
	}
	return nil
}

// FinalizeCompaction makes compactID's segment durable for reads,
// removes every segment in oldIDs (the segments compaction just
// rewrote away), and opens newActiveID as the fresh active segment for
// future appends. Called once the compactor has finished copying live
// records and updating the index (spec §4.E).
func (s *Storage) FinalizeCompaction(compactID uint64, oldIDs []uint64, newActiveID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rf, err := os.Open(seginfo.Path(s.dir, compactID))
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open compacted segment for reading").
			WithSegmentID(compactID)
	}
	s.readers[compactID] = rf

	if err := s.writer.Flush(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to flush active segment before compaction swap").
			WithSegmentID(s.activeID)
	}
	if err := s.active.Close(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close active segment before compaction swap").
			WithSegmentID(s.activeID)
	}

	for _, id := range oldIDs {
		if f, ok := s.readers[id]; ok {
			f.Close()
			delete(s.readers, id)
		}
		if err := os.Remove(seginfo.Path(s.dir, id)); err != nil && !os.IsNotExist(err) {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to remove compacted-away segment").
				WithSegmentID(id)
		}
	}

	if err := s.openActive(newActiveID); err != nil {
		return err
	}
	return nil
}

// Close flushes and closes the active writer and every read handle.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writer.Flush(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to flush segment on close").
			WithSegmentID(s.activeID)
	}
	if err := s.active.Close(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close active segment").
			WithSegmentID(s.activeID)
	}
	s.closeReaders()
	return nil
}

func (s *Storage) closeReaders() {
	for _, f := range s.readers {
		f.Close()
	}
}
