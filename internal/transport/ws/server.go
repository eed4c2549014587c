package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"voxelstore.dev/internal/encoding"
	"voxelstore.dev/internal/metrics"
	"voxelstore.dev/internal/protocol"
	"voxelstore.dev/internal/service"
	"voxelstore.dev/internal/world"
	"voxelstore.dev/internal/world/block"
)

// WorldInfo is the static handshake payload: identity and geometry
// fixed at startup.
type WorldInfo struct {
	WorldID       string
	ChunkDims     [3]int
	WorldRadius   int
	Seed          int64
	PaletteDigest string
	PaletteCount  int
}

type Server struct {
	svc  *service.Service
	info WorldInfo
	log  *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(svc *service.Service, info WorldInfo, logger *log.Logger) *Server {
	return &Server{
		svc:  svc,
		info: info,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}
		metrics.Sessions.Inc()
		defer metrics.Sessions.Dec()
		s.log.Printf("session %s open from %s", sessionID, r.RemoteAddr)
		defer s.log.Printf("session %s closed", sessionID)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			resp := s.route(ctx, msg)
			if resp == nil {
				continue
			}
			b, err := json.Marshal(resp)
			if err != nil {
				continue
			}
			select {
			case out <- b:
			case <-ctx.Done():
			}
		}
	}
}

// route answers one client message. Responses are plain structs; nil
// means no reply.
func (s *Server) route(ctx context.Context, raw []byte) any {
	base, err := protocol.DecodeBase(raw)
	if err != nil {
		return protoErr("", protocol.ErrProtoBadRequest, "bad json")
	}
	switch base.Type {
	case protocol.TypeGetBlock:
		var m protocol.GetBlockMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return protoErr("", protocol.ErrProtoBadRequest, "bad GET_BLOCK")
		}
		return s.getBlock(ctx, m)
	case protocol.TypeSetBlock:
		var m protocol.SetBlockMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return protoErr("", protocol.ErrProtoBadRequest, "bad SET_BLOCK")
		}
		return s.setBlock(ctx, m)
	case protocol.TypeGetChunk:
		var m protocol.GetChunkMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			return protoErr("", protocol.ErrProtoBadRequest, "bad GET_CHUNK")
		}
		return s.getChunk(ctx, m)
	default:
		return protoErr("", protocol.ErrProtoBadRequest, "unexpected type "+base.Type)
	}
}

func (s *Server) getBlock(ctx context.Context, m protocol.GetBlockMsg) any {
	info, err := s.svc.Info(ctx, vec(m.Pos))
	if err != nil {
		return protoErr(m.ReqID, codeFor(err), err.Error())
	}
	return protocol.BlockInfoMsg{
		Type:   protocol.TypeBlockInfo,
		ReqID:  m.ReqID,
		Pos:    m.Pos,
		Block:  info.ID,
		Name:   info.Name,
		Entity: info.Entity,
		State:  uint16(info.State),
		Addr:   uint16(info.Addr),
	}
}

// setBlock always answers with an ACK; ERROR is reserved for protocol
// breakage.
func (s *Server) setBlock(ctx context.Context, m protocol.SetBlockMsg) any {
	if m.Block == "" {
		return nack(m.ReqID, protocol.ErrBadRequest, "missing block id")
	}
	if m.State > uint16(block.StateMask) {
		return nack(m.ReqID, protocol.ErrBadRequest, "state out of range")
	}
	if err := s.svc.Set(ctx, vec(m.Pos), m.Block, block.State(m.State)); err != nil {
		return nack(m.ReqID, codeFor(err), err.Error())
	}
	return protocol.AckMsg{Type: protocol.TypeAck, AckFor: m.ReqID, Accepted: true}
}

func (s *Server) getChunk(ctx context.Context, m protocol.GetChunkMsg) any {
	view, err := s.svc.ChunkData(ctx, world.ChunkKey{CX: m.Chunk[0], CY: m.Chunk[1], CZ: m.Chunk[2]})
	if err != nil {
		return protoErr(m.ReqID, codeFor(err), err.Error())
	}
	ents := make([]protocol.ChunkEntity, 0, len(view.Entities))
	for _, e := range view.Entities {
		ents = append(ents, protocol.ChunkEntity{Addr: e.Addr, Block: e.Block, Name: e.Name})
	}
	return protocol.ChunkDataMsg{
		Type:     protocol.TypeChunkData,
		ReqID:    m.ReqID,
		Chunk:    m.Chunk,
		Dims:     view.Dims,
		Encoding: protocol.EncodingRLE,
		Data:     encoding.EncodeRLE(view.Words),
		Entities: ents,
		Digest:   view.Digest,
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}

	sessionID = uuid.NewString()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		WorldID:         s.info.WorldID,
		WorldParams: protocol.WorldParams{
			ChunkDims:   s.info.ChunkDims,
			WorldRadius: s.info.WorldRadius,
			Seed:        s.info.Seed,
		},
		Palette: protocol.DigestRef{
			Digest: s.info.PaletteDigest,
			Count:  s.info.PaletteCount,
		},
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", nil
	}

	out = make(chan []byte, 32)
	return sessionID, out
}

func vec(p [3]int) world.Vec3i {
	return world.Vec3i{X: p[0], Y: p[1], Z: p[2]}
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, world.ErrOutOfBounds):
		return protocol.ErrOutOfBounds
	case errors.Is(err, world.ErrUnknownKind):
		return protocol.ErrUnknownKind
	case errors.Is(err, world.ErrNotInline):
		return protocol.ErrNotInline
	default:
		return protocol.ErrInternal
	}
}

func protoErr(reqID, code, msg string) protocol.ErrorMsg {
	return protocol.ErrorMsg{Type: protocol.TypeError, ReqID: reqID, Code: code, Message: msg}
}

func nack(reqID, code, msg string) protocol.AckMsg {
	return protocol.AckMsg{Type: protocol.TypeAck, AckFor: reqID, Accepted: false, Code: code, Message: msg}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
