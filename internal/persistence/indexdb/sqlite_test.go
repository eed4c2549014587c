package indexdb

import (
	"path/filepath"
	"testing"
)

func openTestIndex(t *testing.T) (*SQLiteIndex, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx, dbPath
}

func TestSQLiteIndex_RecordAndLatest(t *testing.T) {
	idx, _ := openTestIndex(t)

	if _, ok, err := idx.LatestSnapshot("w1"); err != nil || ok {
		t.Fatalf("empty index: ok=%v err=%v", ok, err)
	}
	seq, err := idx.NextSeq("w1")
	if err != nil || seq != 1 {
		t.Fatalf("NextSeq on empty = %d, %v", seq, err)
	}

	rows := []SnapshotRow{
		{WorldID: "w1", Seq: 1, Path: "a.zst", CreatedUnixMs: 100, Chunks: 2, Entities: 3, Digest: "d1"},
		{WorldID: "w1", Seq: 2, Path: "b.zst", CreatedUnixMs: 200, Chunks: 2, Entities: 5, Digest: "d2"},
		{WorldID: "w2", Seq: 7, Path: "c.zst", CreatedUnixMs: 300, Chunks: 1, Entities: 0, Digest: "d3"},
	}
	for _, r := range rows {
		if err := idx.RecordSnapshot(r); err != nil {
			t.Fatalf("record %+v: %v", r, err)
		}
	}

	got, ok, err := idx.LatestSnapshot("w1")
	if err != nil || !ok {
		t.Fatalf("latest w1: ok=%v err=%v", ok, err)
	}
	if got.Seq != 2 || got.Path != "b.zst" || got.Entities != 5 {
		t.Fatalf("latest w1 = %+v", got)
	}

	seq, err = idx.NextSeq("w1")
	if err != nil || seq != 3 {
		t.Fatalf("NextSeq = %d, %v want 3", seq, err)
	}
	seq, err = idx.NextSeq("w2")
	if err != nil || seq != 8 {
		t.Fatalf("NextSeq w2 = %d, %v want 8", seq, err)
	}
}

func TestSQLiteIndex_ListNewestFirst(t *testing.T) {
	idx, _ := openTestIndex(t)
	for i := uint64(1); i <= 4; i++ {
		err := idx.RecordSnapshot(SnapshotRow{
			WorldID: "w1", Seq: i, Path: "p", CreatedUnixMs: int64(i * 10), Digest: "d",
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	list, err := idx.ListSnapshots("w1", 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].Seq != 4 || list[2].Seq != 2 {
		t.Fatalf("list = %+v", list)
	}
	if more, _ := idx.ListSnapshots("w1", 0); len(more) != 4 {
		t.Fatalf("default limit list = %d rows", len(more))
	}
}

func TestSQLiteIndex_DeleteSnapshot(t *testing.T) {
	idx, _ := openTestIndex(t)
	for i := uint64(1); i <= 3; i++ {
		err := idx.RecordSnapshot(SnapshotRow{
			WorldID: "w1", Seq: i, Path: "p", CreatedUnixMs: int64(i), Digest: "d",
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	if err := idx.DeleteSnapshot("w1", 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := idx.DeleteSnapshot("w1", 99); err != nil {
		t.Fatalf("delete absent row: %v", err)
	}

	list, err := idx.ListSnapshots("w1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Seq != 3 || list[1].Seq != 2 {
		t.Fatalf("rows after delete = %+v", list)
	}
	// Seq allocation keeps counting past deleted rows.
	if seq, err := idx.NextSeq("w1"); err != nil || seq != 4 {
		t.Fatalf("NextSeq = %d, %v want 4", seq, err)
	}
}

func TestSQLiteIndex_Meta(t *testing.T) {
	idx, _ := openTestIndex(t)
	if _, ok, err := idx.GetMeta("palette"); err != nil || ok {
		t.Fatalf("missing meta: ok=%v err=%v", ok, err)
	}
	if err := idx.PutMeta("palette", "abc"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := idx.PutMeta("palette", "def"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := idx.GetMeta("palette")
	if err != nil || !ok || v != "def" {
		t.Fatalf("get = %q,%v,%v", v, ok, err)
	}
}

func TestSQLiteIndex_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := idx.RecordSnapshot(SnapshotRow{WorldID: "w1", Seq: 1, Path: "a.zst", Digest: "d"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	idx2, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx2.Close()
	got, ok, err := idx2.LatestSnapshot("w1")
	if err != nil || !ok || got.Path != "a.zst" {
		t.Fatalf("after reopen: %+v ok=%v err=%v", got, ok, err)
	}
}
