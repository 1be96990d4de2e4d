// Package seginfo names and discovers the engine's segment files.
//
// Filename format: "<id>.log", where <id> is a non-negative decimal u64
// (spec §3, §4.A). This is a deliberate simplification of the teacher's
// "prefix_NNNNN_timestamp.seg" naming: the spec requires a bare decimal
// id with no prefix or timestamp component, since segment ids alone
// determine replay order.
package seginfo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/iamNilotpal/kvs/pkg/filesys"
)

const extension = ".log"

// GenerateName returns the filename for segment id.
func GenerateName(id uint64) string {
	return fmt.Sprintf("%d%s", id, extension)
}

// ParseID extracts the segment id from a "<id>.log" filename. Anything
// else in the directory is ignored by the caller (spec §6).
func ParseID(filename string) (uint64, bool) {
	if !strings.HasSuffix(filename, extension) {
		return 0, false
	}
	idStr := strings.TrimSuffix(filename, extension)
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Discover enumerates every "<id>.log" file directly inside dir and
// returns their ids sorted ascending, matching spec §4.D's replay order:
// "segment id ascending."
func Discover(dir string) ([]uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []uint64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id, ok := ParseID(e.Name()); ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Path joins dir and the filename for segment id.
func Path(dir string, id uint64) string {
	return filepath.Join(dir, GenerateName(id))
}

// Exists reports whether segment id's file is present in dir.
func Exists(dir string, id uint64) (bool, error) {
	return filesys.Exists(Path(dir, id))
}
