package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	WorldID         string      `json:"world_id"`
	WorldParams     WorldParams `json:"world_params"`
	Palette         DigestRef   `json:"palette"`
}

type WorldParams struct {
	ChunkDims   [3]int `json:"chunk_dims"`
	WorldRadius int    `json:"world_radius"`
	Seed        int64  `json:"seed"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// GET_BLOCK (client -> server)
type GetBlockMsg struct {
	Type  string `json:"type"`
	ReqID string `json:"req_id,omitempty"`
	Pos   [3]int `json:"pos"`
}

// BLOCK_INFO (server -> client). Addr is meaningful only when Entity is
// true; addr 0 is a valid address, so there is no omitempty on it.
type BlockInfoMsg struct {
	Type   string `json:"type"`
	ReqID  string `json:"req_id,omitempty"`
	Pos    [3]int `json:"pos"`
	Block  string `json:"block"`
	Name   string `json:"name"`
	Entity bool   `json:"entity"`
	State  uint16 `json:"state"`
	Addr   uint16 `json:"addr"`
}

// SET_BLOCK (client -> server). State applies to inline kinds only;
// entity kinds are placed as fresh zero-value instances.
type SetBlockMsg struct {
	Type  string `json:"type"`
	ReqID string `json:"req_id,omitempty"`
	Pos   [3]int `json:"pos"`
	Block string `json:"block"`
	State uint16 `json:"state,omitempty"`
}

// ACK (server -> client)
type AckMsg struct {
	Type     string `json:"type"`
	AckFor   string `json:"ack_for,omitempty"`
	Accepted bool   `json:"accepted"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
}

// GET_CHUNK (client -> server)
type GetChunkMsg struct {
	Type  string `json:"type"`
	ReqID string `json:"req_id,omitempty"`
	Chunk [3]int `json:"chunk"`
}

// CHUNK_DATA (server -> client). Data is base64(varint pairs) over the
// chunk's slot words in x-fastest order.
type ChunkDataMsg struct {
	Type     string        `json:"type"`
	ReqID    string        `json:"req_id,omitempty"`
	Chunk    [3]int        `json:"chunk"`
	Dims     [3]int        `json:"dims"`
	Encoding string        `json:"encoding"`
	Data     string        `json:"data"`
	Entities []ChunkEntity `json:"entities"`
	Digest   string        `json:"digest"`
}

type ChunkEntity struct {
	Addr  uint16 `json:"addr"`
	Block string `json:"block"`
	Name  string `json:"name,omitempty"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type    string `json:"type"`
	ReqID   string `json:"req_id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}
