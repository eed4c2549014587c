package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"voxelstore.dev/internal/encoding"
	"voxelstore.dev/internal/protocol"
)

func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name  = flag.String("name", "client", "client name")
		get   = flag.String("get", "", "read a block: x,y,z")
		set   = flag.String("set", "", "write a block: x,y,z:block[:state]")
		chunk = flag.String("chunk", "", "fetch a chunk: cx,cy,cz")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[client] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	var welcome protocol.WelcomeMsg
	readReply(conn, logger, protocol.TypeWelcome, &welcome)
	logger.Printf("WELCOME session=%s world=%s dims=%v radius=%d seed=%d palette=%d",
		welcome.SessionID, welcome.WorldID, welcome.WorldParams.ChunkDims,
		welcome.WorldParams.WorldRadius, welcome.WorldParams.Seed, welcome.Palette.Count)

	if *set != "" {
		pos, blockID, state := parseSet(logger, *set)
		msg := protocol.SetBlockMsg{Type: protocol.TypeSetBlock, ReqID: "set-1", Pos: pos, Block: blockID, State: state}
		if err := conn.WriteJSON(msg); err != nil {
			logger.Fatalf("send SET_BLOCK: %v", err)
		}
		var ack protocol.AckMsg
		readReply(conn, logger, protocol.TypeAck, &ack)
		if !ack.Accepted {
			logger.Fatalf("SET_BLOCK denied: %s %s", ack.Code, ack.Message)
		}
		logger.Printf("ACK set %v = %s", pos, blockID)
	}

	if *get != "" {
		pos := parseVec3(logger, *get)
		msg := protocol.GetBlockMsg{Type: protocol.TypeGetBlock, ReqID: "get-1", Pos: pos}
		if err := conn.WriteJSON(msg); err != nil {
			logger.Fatalf("send GET_BLOCK: %v", err)
		}
		var bi protocol.BlockInfoMsg
		readReply(conn, logger, protocol.TypeBlockInfo, &bi)
		if bi.Entity {
			logger.Printf("BLOCK_INFO %v = %s (%s) entity addr=%d", bi.Pos, bi.Block, bi.Name, bi.Addr)
		} else {
			logger.Printf("BLOCK_INFO %v = %s (%s) state=%d", bi.Pos, bi.Block, bi.Name, bi.State)
		}
	}

	if *chunk != "" {
		key := parseVec3(logger, *chunk)
		msg := protocol.GetChunkMsg{Type: protocol.TypeGetChunk, ReqID: "chunk-1", Chunk: key}
		if err := conn.WriteJSON(msg); err != nil {
			logger.Fatalf("send GET_CHUNK: %v", err)
		}
		var cd protocol.ChunkDataMsg
		readReply(conn, logger, protocol.TypeChunkData, &cd)
		words, err := encoding.DecodeRLE(cd.Data)
		if err != nil {
			logger.Fatalf("decode %s payload: %v", cd.Encoding, err)
		}
		nonZero := 0
		for _, w := range words {
			if w != 0 {
				nonZero++
			}
		}
		logger.Printf("CHUNK_DATA %v dims=%v words=%d non_air=%d entities=%d digest=%s",
			cd.Chunk, cd.Dims, len(words), nonZero, len(cd.Entities), cd.Digest)
	}
}

// readReply reads the next message, failing on ERROR or an unexpected
// type.
func readReply(conn *websocket.Conn, logger *log.Logger, want string, v any) {
	_, msg, err := conn.ReadMessage()
	if err != nil {
		logger.Fatalf("read: %v", err)
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		logger.Fatalf("decode: %v", err)
	}
	if base.Type == protocol.TypeError {
		var em protocol.ErrorMsg
		_ = json.Unmarshal(msg, &em)
		logger.Fatalf("server error: %s %s", em.Code, em.Message)
	}
	if base.Type != want {
		logger.Fatalf("got %s, want %s", base.Type, want)
	}
	if err := json.Unmarshal(msg, v); err != nil {
		logger.Fatalf("unmarshal %s: %v", want, err)
	}
}

func parseVec3(logger *log.Logger, s string) [3]int {
	var v [3]int
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		logger.Fatalf("bad position %q: expected x,y,z", s)
	}
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			logger.Fatalf("bad position %q: %v", s, err)
		}
		v[i] = n
	}
	return v
}

func parseSet(logger *log.Logger, s string) ([3]int, string, uint16) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		logger.Fatalf("bad -set %q: expected x,y,z:block[:state]", s)
	}
	pos := parseVec3(logger, parts[0])
	blockID := strings.TrimSpace(parts[1])
	var state uint16
	if len(parts) == 3 {
		n, err := strconv.ParseUint(strings.TrimSpace(parts[2]), 10, 16)
		if err != nil {
			logger.Fatalf("bad state %q: %v", parts[2], err)
		}
		state = uint16(n)
	}
	return pos, blockID, state
}
