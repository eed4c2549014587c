package service

import (
	"context"
	"errors"

	"voxelstore.dev/internal/world"
	"voxelstore.dev/internal/world/block"
)

type infoRequest struct {
	pos  world.Vec3i
	resp chan infoResponse
}

type infoResponse struct {
	info world.BlockInfo
	err  error
}

type setRequest struct {
	pos     world.Vec3i
	blockID string
	state   block.State
	resp    chan error
}

type chunkRequest struct {
	key  world.ChunkKey
	resp chan chunkResponse
}

type chunkResponse struct {
	view ChunkView
	err  error
}

type snapRequest struct {
	resp chan snapResponse
}

type snapResponse struct {
	seq uint64
	err string
}

// ChunkView is a loop-owned chunk copied out for the wire: raw slot
// words plus the entity records the addr words point at.
type ChunkView struct {
	Dims     [3]int
	Words    []uint16
	Entities []ChunkEntity
	Digest   string
}

type ChunkEntity struct {
	Addr  uint16
	Block string
	Name  string
}

// Info resolves one global position. Safe to call from any goroutine.
func (s *Service) Info(ctx context.Context, pos world.Vec3i) (world.BlockInfo, error) {
	resp := make(chan infoResponse, 1)
	select {
	case s.info <- infoRequest{pos: pos, resp: resp}:
	case <-ctx.Done():
		return world.BlockInfo{}, ctx.Err()
	}
	select {
	case r := <-resp:
		return r.info, r.err
	case <-ctx.Done():
		return world.BlockInfo{}, ctx.Err()
	}
}

// Set writes a kind at a global position. Inline kinds take the given
// state; entity kinds are placed as fresh zero-value instances and
// reject a nonzero state. Safe to call from any goroutine.
func (s *Service) Set(ctx context.Context, pos world.Vec3i, blockID string, state block.State) error {
	resp := make(chan error, 1)
	select {
	case s.set <- setRequest{pos: pos, blockID: blockID, state: state, resp: resp}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ChunkData copies a whole chunk out of the loop, materializing it if
// needed. Safe to call from any goroutine.
func (s *Service) ChunkData(ctx context.Context, key world.ChunkKey) (ChunkView, error) {
	resp := make(chan chunkResponse, 1)
	select {
	case s.chunks <- chunkRequest{key: key, resp: resp}:
	case <-ctx.Done():
		return ChunkView{}, ctx.Err()
	}
	select {
	case r := <-resp:
		return r.view, r.err
	case <-ctx.Done():
		return ChunkView{}, ctx.Err()
	}
}

// RequestSnapshot asks the loop to enqueue a snapshot export and returns
// its sequence number. Safe to call from any goroutine.
func (s *Service) RequestSnapshot(ctx context.Context) (uint64, error) {
	resp := make(chan snapResponse, 1)
	select {
	case s.snap <- snapRequest{resp: resp}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case r := <-resp:
		if r.err != "" {
			return r.seq, errors.New(r.err)
		}
		return r.seq, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
