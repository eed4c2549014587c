package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ChunkDims   []int  `yaml:"chunk_dims"`
	DefaultFill string `yaml:"default_fill"`

	// WorldRadius bounds the chunk grid per axis, in chunks. 0 disables
	// the bound.
	WorldRadius int   `yaml:"world_radius"`
	Seed        int64 `yaml:"seed"`

	SnapshotEverySecs int `yaml:"snapshot_every_secs"`

	// SnapshotKeep caps how many snapshot files stay on disk. 0 keeps
	// everything.
	SnapshotKeep int `yaml:"snapshot_keep"`

	Gen Gen `yaml:"gen"`
}

type Gen struct {
	SurfaceLevel   int `yaml:"surface_level"`
	ReliefAmp      int `yaml:"relief_amp"`
	ChestPermille  int `yaml:"chest_permille"`
	StairsPermille int `yaml:"stairs_permille"`
}

func Default() Tuning {
	return Tuning{
		ChunkDims:         []int{32, 32, 32},
		DefaultFill:       "air",
		WorldRadius:       0,
		Seed:              1,
		SnapshotEverySecs: 60,
		SnapshotKeep:      0,
		Gen: Gen{
			SurfaceLevel:   12,
			ReliefAmp:      8,
			ChestPermille:  2,
			StairsPermille: 6,
		},
	}
}

func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if len(t.ChunkDims) != 3 {
		return fmt.Errorf("chunk_dims: want 3 values, got %d", len(t.ChunkDims))
	}
	for i, d := range t.ChunkDims {
		if d <= 0 {
			return fmt.Errorf("chunk_dims[%d]: %d is not positive", i, d)
		}
	}
	if v := t.ChunkDims[0] * t.ChunkDims[1] * t.ChunkDims[2]; v > 1<<15 {
		return fmt.Errorf("chunk_dims: volume %d exceeds %d", v, 1<<15)
	}
	if t.DefaultFill == "" {
		return fmt.Errorf("default_fill: empty")
	}
	if t.SnapshotEverySecs < 0 {
		return fmt.Errorf("snapshot_every_secs: %d is negative", t.SnapshotEverySecs)
	}
	if t.SnapshotKeep < 0 {
		return fmt.Errorf("snapshot_keep: %d is negative", t.SnapshotKeep)
	}
	return nil
}
