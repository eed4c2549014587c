package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"testing"
)

func TestRLE_RoundTrip(t *testing.T) {
	in := make([]uint16, 0, 200)
	in = append(in, 1, 1, 1, 2, 2, 3)
	for i := 0; i < 50; i++ {
		in = append(in, 7)
	}
	in = append(in, 9, 10, 10, 10)

	enc := EncodeRLE(in)
	out, err := DecodeRLE(enc)
	if err != nil {
		t.Fatalf("DecodeRLE: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len mismatch: got %d want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("mismatch at %d: got %d want %d", i, out[i], in[i])
		}
	}
}

func TestRLE_Empty(t *testing.T) {
	out, err := DecodeRLE(EncodeRLE(nil))
	if err != nil {
		t.Fatalf("DecodeRLE: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("got %d words, want 0", len(out))
	}
}

func TestRLE_FullChunkRun(t *testing.T) {
	in := make([]uint16, MaxWords)
	for i := range in {
		in[i] = 0x40 // kind 1, state 0
	}
	enc := EncodeRLE(in)
	if len(enc) > 16 {
		t.Fatalf("uniform chunk encoded to %d chars, want a handful", len(enc))
	}
	out, err := DecodeRLE(enc)
	if err != nil {
		t.Fatalf("DecodeRLE: %v", err)
	}
	if len(out) != MaxWords {
		t.Fatalf("got %d words, want %d", len(out), MaxWords)
	}
	for i := range out {
		if out[i] != 0x40 {
			t.Fatalf("word %d = %#x, want 0x40", i, out[i])
		}
	}
}

func TestRLE_DecodeRejectsGarbage(t *testing.T) {
	if _, err := DecodeRLE("not base64!!!"); err == nil {
		t.Fatal("want error for bad base64")
	}

	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], 0)
	buf.Write(tmp[:n])
	n = binary.PutUvarint(tmp[:], uint64(MaxWords+1))
	buf.Write(tmp[:n])
	if _, err := DecodeRLE(base64.StdEncoding.EncodeToString(buf.Bytes())); err == nil {
		t.Fatal("want error for run past the cap")
	}
}
