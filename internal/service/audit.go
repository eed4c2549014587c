package service

import (
	"time"

	"voxelstore.dev/internal/world"
	"voxelstore.dev/internal/world/block"
)

// AuditLogger receives one entry per accepted write.
type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

// AuditEntry records an accepted block write. From and To are the raw
// slot words before and after the write, so entity placements show the
// arena addr they took.
type AuditEntry struct {
	UnixMs int64  `json:"unix_ms"`
	Action string `json:"action"`
	Pos    [3]int `json:"pos"`
	Block  string `json:"block"`
	From   uint16 `json:"from"`
	To     uint16 `json:"to"`
}

// SetAuditLogger installs the audit sink. Install before Run; entries are
// written from the loop goroutine.
func (s *Service) SetAuditLogger(a AuditLogger) { s.audit = a }

func (s *Service) auditSet(pos world.Vec3i, blockID string, from block.Packed) {
	if s.audit == nil {
		return
	}
	var to block.Packed
	if now, err := s.store.InfoAt(pos); err == nil {
		to = packedWord(now)
	}
	_ = s.audit.WriteAudit(AuditEntry{
		UnixMs: time.Now().UnixMilli(),
		Action: "SET_BLOCK",
		Pos:    [3]int{pos.X, pos.Y, pos.Z},
		Block:  blockID,
		From:   uint16(from),
		To:     uint16(to),
	})
}

func packedWord(info world.BlockInfo) block.Packed {
	if info.Entity {
		return block.PackAddr(info.Addr)
	}
	return block.PackData(info.Kind, info.State)
}
