package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// auditCmd streams audit segments back out as plain JSONL. Segments are
// hour-stamped, so decoding them in directory order preserves write
// order.
func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "world_1", "world id")
	file := fs.String("file", "", "decode a single audit segment instead of the world's stream")
	_ = fs.Parse(args)

	var paths []string
	if *file != "" {
		paths = []string{*file}
	} else {
		dir := filepath.Join(*dataDir, "worlds", *worldID, "audit")
		ents, err := os.ReadDir(dir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read audit dir:", err)
			os.Exit(1)
		}
		for _, e := range ents {
			if strings.HasSuffix(e.Name(), ".jsonl.zst") {
				paths = append(paths, filepath.Join(dir, e.Name()))
			}
		}
	}

	for _, p := range paths {
		if err := dumpAudit(p); err != nil {
			fmt.Fprintln(os.Stderr, "decode:", err)
			os.Exit(1)
		}
	}
}

func dumpAudit(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer zr.Close()

	_, err = io.Copy(os.Stdout, zr)
	return err
}
