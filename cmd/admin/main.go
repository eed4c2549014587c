package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"voxelstore.dev/internal/persistence/archive"
	"voxelstore.dev/internal/persistence/snapshot"

	// Gob-registers entity kinds so `show -full` can decode snapshots.
	_ "voxelstore.dev/internal/world/blocks"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "snapshots", "list":
			snapshotsCmd(os.Args[2:])
			return
		case "latest":
			latestCmd(os.Args[2:])
			return
		case "verify":
			verifyCmd(os.Args[2:])
			return
		case "show":
			showCmd(os.Args[2:])
			return
		case "audit":
			auditCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

func showCmd(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	full := fs.Bool("full", false, "decode the whole body, not just the header line")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: admin show [-full] <snapshot.snap.zst>")
		os.Exit(2)
	}
	path := fs.Arg(0)

	if !*full {
		h, err := snapshot.ReadHeader(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read header:", err)
			os.Exit(1)
		}
		printJSON(h)
		return
	}

	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	entities := 0
	for _, ch := range snap.Chunks {
		entities += len(ch.Entities)
	}
	printJSON(struct {
		Header   snapshot.Header `json:"header"`
		Dims     [3]int          `json:"dims"`
		Seed     int64           `json:"seed"`
		Radius   int             `json:"radius"`
		Fill     string          `json:"fill"`
		Palette  int             `json:"palette_count"`
		Chunks   int             `json:"chunks"`
		Entities int             `json:"entities"`
	}{snap.Header, snap.Dims, snap.Seed, snap.Radius, snap.Fill, len(snap.Palette), len(snap.Chunks), entities})
	for _, ch := range snap.Chunks {
		printJSON(struct {
			CX       int `json:"cx"`
			CY       int `json:"cy"`
			CZ       int `json:"cz"`
			Entities int `json:"entities"`
		}{ch.CX, ch.CY, ch.CZ, len(ch.Entities)})
	}
}

func latestSnapshotFile(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestSeq uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		seq, ok := archive.SnapshotSeq(e.Name())
		if !ok {
			continue
		}
		if best == "" || seq > bestSeq {
			bestSeq = seq
			best = filepath.Join(dir, e.Name())
		}
	}
	return best
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
