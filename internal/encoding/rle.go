package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// MaxWords caps the decoded length. Chunk volumes never exceed 1<<15 slots,
// so any longer stream is corrupt.
const MaxWords = 1 << 15

// EncodeRLE encodes a sequence of packed slot words into base64(varint pairs).
// The pairs are (word, run_len) repeated.
func EncodeRLE(words []uint16) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	i := 0
	for i < len(words) {
		w := words[i]
		run := 1
		for j := i + 1; j < len(words) && words[j] == w && run < MaxWords; j++ {
			run++
		}

		n := binary.PutUvarint(tmp[:], uint64(w))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])

		i += run
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func DecodeRLE(b64 string) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []uint16
	for i := 0; i < len(raw); {
		w, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if w > 0xFFFF {
			return nil, fmt.Errorf("slot word too large: %d", w)
		}
		if int(run) > MaxWords || len(out)+int(run) > MaxWords {
			return nil, fmt.Errorf("run overflows %d words", MaxWords)
		}
		for k := 0; k < int(run); k++ {
			out = append(out, uint16(w))
		}
	}
	return out, nil
}
