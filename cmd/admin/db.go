package main

import (
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"voxelstore.dev/internal/persistence/indexdb"
	"voxelstore.dev/internal/persistence/snapshot"
)

// openIndex opens an existing index db, never creating one: a read tool
// must not leave files behind.
func openIndex(dataDir, worldID, dbPath string) (*indexdb.SQLiteIndex, error) {
	path := strings.TrimSpace(dbPath)
	if path == "" {
		if strings.TrimSpace(worldID) == "" {
			return nil, fmt.Errorf("missing -world or -db")
		}
		path = filepath.Join(dataDir, "worlds", worldID, "index", "index.db")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return indexdb.OpenSQLite(path)
}

func snapshotsCmd(args []string) {
	fs := flag.NewFlagSet("snapshots", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id")
	dbPath := fs.String("db", "", "index db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	idx, err := openIndex(*dataDir, *worldID, *dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open index:", err)
		os.Exit(1)
	}
	defer idx.Close()

	rows, err := idx.ListSnapshots(*worldID, *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, r := range rows {
		printJSON(r)
	}
}

func latestCmd(args []string) {
	fs := flag.NewFlagSet("latest", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required)")
	dbPath := fs.String("db", "", "index db path (optional)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" {
		fmt.Fprintln(os.Stderr, "missing -world")
		os.Exit(2)
	}

	if idx, err := openIndex(*dataDir, *worldID, *dbPath); err == nil {
		defer idx.Close()
		row, ok, err := idx.LatestSnapshot(*worldID)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		if ok {
			printJSON(row)
			return
		}
	}

	// No index (or an empty one): fall back to scanning the snapshot dir.
	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	path := latestSnapshotFile(worldDir)
	if path == "" {
		fmt.Fprintln(os.Stderr, "no snapshots found")
		os.Exit(2)
	}
	h, err := snapshot.ReadHeader(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read header:", err)
		os.Exit(1)
	}
	printJSON(struct {
		Header snapshot.Header `json:"header"`
		Path   string          `json:"path"`
	}{h, path})
}

func verifyCmd(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id")
	dbPath := fs.String("db", "", "index db path (optional)")
	limit := fs.Int("limit", 0, "rows to verify (0: all recorded)")
	_ = fs.Parse(args)

	idx, err := openIndex(*dataDir, *worldID, *dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open index:", err)
		os.Exit(1)
	}
	defer idx.Close()

	lim := *limit
	if lim <= 0 {
		lim = 1 << 20
	}
	rows, err := idx.ListSnapshots(*worldID, lim)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}

	bad := 0
	for _, r := range rows {
		status := "ok"
		got, err := hashFile(r.Path)
		switch {
		case err != nil:
			status = "missing"
		case r.Digest == "":
			status = "unrecorded"
		case got != r.Digest:
			status = "mismatch"
		}
		if status != "ok" {
			bad++
		}
		printJSON(struct {
			Seq    uint64 `json:"seq"`
			Path   string `json:"path"`
			Status string `json:"status"`
		}{r.Seq, r.Path, status})
	}
	if bad > 0 {
		os.Exit(1)
	}
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
