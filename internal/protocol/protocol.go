package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello     = "HELLO"
	TypeWelcome   = "WELCOME"
	TypeGetBlock  = "GET_BLOCK"
	TypeBlockInfo = "BLOCK_INFO"
	TypeSetBlock  = "SET_BLOCK"
	TypeAck       = "ACK"
	TypeGetChunk  = "GET_CHUNK"
	TypeChunkData = "CHUNK_DATA"
	TypeError     = "ERROR"
)

// EncodingRLE is the only CHUNK_DATA encoding the server emits.
const EncodingRLE = "RLE"

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
