package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"voxelstore.dev/internal/metrics"
	"voxelstore.dev/internal/persistence/snapshot"
	"voxelstore.dev/internal/world"
	"voxelstore.dev/internal/world/block"
)

type Config struct {
	WorldID string
	Seed    int64

	// SnapshotEvery spaces periodic exports. Zero disables the timer;
	// RequestSnapshot and the shutdown export still work.
	SnapshotEvery time.Duration

	// NextSeq numbers the next snapshot, normally indexdb.NextSeq at
	// startup. Zero means 1.
	NextSeq uint64
}

// Service owns a ChunkStore from a single loop goroutine. Everything
// else talks to it through request channels; the store itself is never
// shared.
type Service struct {
	cfg   Config
	store *world.ChunkStore
	log   *log.Logger

	info   chan infoRequest
	set    chan setRequest
	chunks chan chunkRequest
	snap   chan snapRequest

	snapshotSink chan<- snapshot.SnapshotV1
	audit        AuditLogger
	nextSeq      uint64
}

func New(cfg Config, store *world.ChunkStore, logger *log.Logger) *Service {
	if cfg.NextSeq == 0 {
		cfg.NextSeq = 1
	}
	return &Service{
		cfg:     cfg,
		store:   store,
		log:     logger,
		info:    make(chan infoRequest, 256),
		set:     make(chan setRequest, 256),
		chunks:  make(chan chunkRequest, 64),
		snap:    make(chan snapRequest, 8),
		nextSeq: cfg.NextSeq,
	}
}

// SetSnapshotSink installs the channel the loop hands exports to. The
// receiver must drain it until Run has returned; the shutdown export is
// a blocking send.
func (s *Service) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { s.snapshotSink = ch }

// Run serves requests until ctx ends. While Run is live, no other
// goroutine may touch the store.
func (s *Service) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if s.cfg.SnapshotEvery > 0 {
		ticker := time.NewTicker(s.cfg.SnapshotEvery)
		defer ticker.Stop()
		tick = ticker.C
	}
	s.syncGauges()

	for {
		select {
		case <-ctx.Done():
			if s.snapshotSink != nil {
				s.snapshotSink <- s.export()
			}
			return ctx.Err()
		case req := <-s.info:
			s.handleInfo(req)
		case req := <-s.set:
			s.handleSet(req)
		case req := <-s.chunks:
			s.handleChunk(req)
		case req := <-s.snap:
			s.handleSnap(req)
		case <-tick:
			if s.snapshotSink == nil {
				continue
			}
			if _, ok := s.emit(); !ok {
				s.log.Printf("snapshot sink full, skipping periodic export")
			}
		}
	}
}

func (s *Service) handleInfo(req infoRequest) {
	info, err := s.store.InfoAt(req.pos)
	if err == nil {
		metrics.GetsTotal.Inc()
	}
	s.syncGauges()
	select {
	case req.resp <- infoResponse{info: info, err: err}:
	default:
		// Caller gave up; don't block the loop.
	}
}

func (s *Service) handleSet(req setRequest) {
	err := s.applySet(req)
	if err == nil {
		metrics.SetsTotal.Inc()
	}
	s.syncGauges()
	select {
	case req.resp <- err:
	default:
	}
}

func (s *Service) applySet(req setRequest) error {
	reg := s.store.Registry()
	k, ok := reg.KindByID(req.blockID)
	if !ok {
		return fmt.Errorf("%w: %q", world.ErrUnknownKind, req.blockID)
	}
	if !reg.Inline(k) && req.state != 0 {
		return fmt.Errorf("state %d on entity kind %q: %w", req.state, req.blockID, world.ErrNotInline)
	}

	var from block.Packed
	if s.audit != nil {
		if prev, err := s.store.InfoAt(req.pos); err == nil {
			from = packedWord(prev)
		}
	}

	var err error
	if reg.Inline(k) {
		err = s.store.SetDataAt(req.pos, k, req.state)
	} else {
		err = s.store.PlaceAt(req.pos, k)
	}
	if err != nil {
		return err
	}
	s.auditSet(req.pos, req.blockID, from)
	return nil
}

func (s *Service) handleChunk(req chunkRequest) {
	view, err := s.chunkView(req.key)
	if err == nil {
		metrics.ChunksServedTotal.Inc()
	}
	s.syncGauges()
	select {
	case req.resp <- chunkResponse{view: view, err: err}:
	default:
	}
}

func (s *Service) chunkView(k world.ChunkKey) (ChunkView, error) {
	c, err := s.store.EnsureChunk(k)
	if err != nil {
		return ChunkView{}, err
	}
	d := c.Dims()
	view := ChunkView{
		Dims:  [3]int{d.X, d.Y, d.Z},
		Words: c.Words(),
	}
	for _, a := range c.EntityAddrs() {
		b, ok := c.Entity(a)
		if !ok {
			continue
		}
		view.Entities = append(view.Entities, ChunkEntity{
			Addr:  uint16(a),
			Block: b.ID(),
			Name:  b.Name(),
		})
	}
	dg := c.Digest()
	view.Digest = hex.EncodeToString(dg[:])
	return view, nil
}

func (s *Service) handleSnap(req snapRequest) {
	seq, ok := s.emit()
	resp := snapResponse{seq: seq}
	if !ok {
		resp.err = "snapshot sink unavailable"
	}
	select {
	case req.resp <- resp:
	default:
		// Client timed out; don't block the loop.
	}
}

func (s *Service) export() snapshot.SnapshotV1 {
	snap := s.store.ExportSnapshot(snapshot.Header{
		Version:       1,
		WorldID:       s.cfg.WorldID,
		Seq:           s.nextSeq,
		CreatedUnixMs: time.Now().UnixMilli(),
	})
	snap.Seed = s.cfg.Seed
	return snap
}

func (s *Service) emit() (uint64, bool) {
	if s.snapshotSink == nil {
		return 0, false
	}
	snap := s.export()
	select {
	case s.snapshotSink <- snap:
		seq := s.nextSeq
		s.nextSeq++
		return seq, true
	default:
		return 0, false
	}
}

func (s *Service) syncGauges() {
	metrics.ChunksLoaded.Set(float64(s.store.Len()))
	metrics.Entities.Set(float64(s.store.EntityTotal()))
}
