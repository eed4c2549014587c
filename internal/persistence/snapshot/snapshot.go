package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"voxelstore.dev/internal/world/block"
)

type Header struct {
	Version       int    `json:"version"`
	WorldID       string `json:"world_id"`
	Seq           uint64 `json:"seq"`
	CreatedUnixMs int64  `json:"created_unix_ms"`
}

// SnapshotV1 captures a whole store: dims and palette for validation on
// import, then per chunk the raw slot words together with the entity
// records those words point at. The two stores travel as one unit.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Dims      [3]int   `json:"dims"`
	Seed      int64    `json:"seed"`
	Radius    int      `json:"radius,omitempty"`
	Fill      string   `json:"fill"`
	FillState uint8    `json:"fill_state,omitempty"`
	Palette   []string `json:"palette"`

	Chunks []ChunkV1 `json:"chunks"`
}

type ChunkV1 struct {
	CX int `json:"cx"`
	CY int `json:"cy"`
	CZ int `json:"cz"`

	Words    []uint16   `json:"words"`
	Entities []EntityV1 `json:"entities,omitempty"`
}

// EntityV1 pins an instance to its exact arena address so addr slots stay
// valid across a round trip. Value is gob-encoded through the interface;
// entity kinds must be gob-registered.
type EntityV1 struct {
	Addr  int         `json:"addr"`
	Kind  string      `json:"kind"`
	Value block.Block `json:"-"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Read header line (ignore it for now, gob also contains header).
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

// ReadHeader decodes only the JSON header line, for listings that must not
// pay for the whole body.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("header line: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("header json: %w", err)
	}
	return h, nil
}
