package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"voxelstore.dev/internal/service"
)

func readAuditEntries(t *testing.T, worldDir string) []service.AuditEntry {
	t.Helper()
	dir := filepath.Join(worldDir, "audit")
	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read audit dir: %v", err)
	}

	// ReadDir sorts by name and hour stamps sort chronologically, so
	// entries come back in write order even across a rotation.
	var got []service.AuditEntry
	for _, de := range files {
		name := de.Name()
		if !strings.HasPrefix(name, "audit-") || !strings.HasSuffix(name, ".jsonl.zst") {
			t.Fatalf("unexpected file %s", name)
		}
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		zr, err := zstd.NewReader(f)
		if err != nil {
			t.Fatalf("zstd reader: %v", err)
		}
		sc := bufio.NewScanner(zr)
		for sc.Scan() {
			var e service.AuditEntry
			if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
				t.Fatalf("unmarshal %q: %v", sc.Text(), err)
			}
			got = append(got, e)
		}
		if err := sc.Err(); err != nil {
			t.Fatalf("scan %s: %v", name, err)
		}
		zr.Close()
		_ = f.Close()
	}
	return got
}

func TestAuditLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	al := NewAuditLogger(dir)

	want := []service.AuditEntry{
		{UnixMs: 1000, Action: "SET_BLOCK", Pos: [3]int{1, 2, 3}, Block: "stone", From: 0, To: 1 << 6},
		{UnixMs: 2000, Action: "SET_BLOCK", Pos: [3]int{-4, 0, 9}, Block: "chest", From: 1 << 6, To: 1 << 15},
	}
	for _, e := range want {
		if err := al.WriteAudit(e); err != nil {
			t.Fatalf("WriteAudit: %v", err)
		}
	}
	if err := al.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got := readAuditEntries(t, dir)
	if len(got) != len(want) {
		t.Fatalf("entries = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestAuditLogger_AppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	al := NewAuditLogger(dir)
	if err := al.WriteAudit(service.AuditEntry{UnixMs: 1, Action: "SET_BLOCK", Block: "stone"}); err != nil {
		t.Fatalf("WriteAudit: %v", err)
	}
	if err := al.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A second logger in the same hour appends a new zstd frame to the
	// same segment; readers must see both.
	al = NewAuditLogger(dir)
	if err := al.WriteAudit(service.AuditEntry{UnixMs: 2, Action: "SET_BLOCK", Block: "grass"}); err != nil {
		t.Fatalf("WriteAudit: %v", err)
	}
	if err := al.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got := readAuditEntries(t, dir)
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if got[0].Block != "stone" || got[1].Block != "grass" {
		t.Fatalf("entries out of order: %+v", got)
	}
}
