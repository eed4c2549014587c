package archive

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// PruneSnapshots removes the oldest files in dir until at most keep
// <seq>.snap.zst files remain, returning the paths it deleted. Ordering is
// by sequence number, not mtime. keep <= 0 disables pruning; files that do
// not look like snapshots are never touched.
func PruneSnapshots(dir string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	type snapFile struct {
		seq  uint64
		name string
	}
	var snaps []snapFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		seq, ok := SnapshotSeq(e.Name())
		if !ok {
			continue
		}
		snaps = append(snaps, snapFile{seq: seq, name: e.Name()})
	}
	if len(snaps) <= keep {
		return nil, nil
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].seq > snaps[j].seq })

	var removed []string
	for _, s := range snaps[keep:] {
		p := filepath.Join(dir, s.name)
		if err := os.Remove(p); err != nil {
			return removed, err
		}
		removed = append(removed, p)
	}
	return removed, nil
}

// SnapshotSeq parses the sequence number out of a snapshot file name
// such as "12.snap.zst".
func SnapshotSeq(name string) (uint64, bool) {
	if !strings.HasSuffix(name, ".snap.zst") {
		return 0, false
	}
	seq, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}
