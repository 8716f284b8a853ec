package rtree

import (
	"fmt"

	"github.com/rtreedb/rtreedb/storage"
)

// Variant selects the tree's insertion/split strategy (spec.md §6.5).
type Variant int

const (
	VariantLinear Variant = iota
	VariantQuadratic
	VariantRStar
)

func (v Variant) String() string {
	switch v {
	case VariantLinear:
		return "linear"
	case VariantQuadratic:
		return "quadratic"
	case VariantRStar:
		return "rstar"
	default:
		return "unknown"
	}
}

// Config holds every tunable spec.md §6.5 enumerates, following the
// teacher's plain Config/DefaultConfig shape (btree.Config).
type Config struct {
	Variant                 Variant
	FillFactor              float64
	IndexCapacity           int
	LeafCapacity            int
	NearMinimumOverlapFactor int
	SplitDistributionFactor float64
	ReinsertFactor          float64
	TightMBRs               bool
	PageSize                uint32
	LRUCapacity             int
}

// DefaultConfig returns spec.md §6.5's defaults.
func DefaultConfig() Config {
	return Config{
		Variant:                 VariantRStar,
		FillFactor:              0.7,
		IndexCapacity:           10,
		LeafCapacity:            10,
		NearMinimumOverlapFactor: 32,
		SplitDistributionFactor: 0.4,
		ReinsertFactor:          0.3,
		TightMBRs:               true,
		PageSize:                storage.DefaultPageSize,
		LRUCapacity:             storage.DefaultLRUCapacity,
	}
}

// Validate reports IllegalArgument for any tunable outside its valid
// range (and NotSupported for an unknown Variant), generalizing the teacher's single ad hoc Order check into
// one pass over every R-tree knob.
func (c Config) Validate() error {
	if c.IndexCapacity <= 0 {
		return fmt.Errorf("%w: index capacity must be positive", storage.ErrIllegalArgument)
	}
	if c.LeafCapacity <= 0 {
		return fmt.Errorf("%w: leaf capacity must be positive", storage.ErrIllegalArgument)
	}
	if c.FillFactor <= 0 || c.FillFactor > 1 {
		return fmt.Errorf("%w: fill factor must be in (0,1]", storage.ErrIllegalArgument)
	}
	if c.SplitDistributionFactor <= 0 || c.SplitDistributionFactor > 0.5 {
		return fmt.Errorf("%w: split distribution factor must be in (0,0.5]", storage.ErrIllegalArgument)
	}
	if c.ReinsertFactor <= 0 || c.ReinsertFactor >= 1 {
		return fmt.Errorf("%w: reinsert factor must be in (0,1)", storage.ErrIllegalArgument)
	}
	if c.NearMinimumOverlapFactor <= 0 {
		return fmt.Errorf("%w: near-minimum-overlap factor must be positive", storage.ErrIllegalArgument)
	}
	if c.PageSize == 0 {
		return fmt.Errorf("%w: page size must be positive", storage.ErrIllegalArgument)
	}
	switch c.Variant {
	case VariantLinear, VariantQuadratic, VariantRStar:
	default:
		return fmt.Errorf("%w: unknown tree variant %d", storage.ErrNotSupported, c.Variant)
	}
	return nil
}

// minimumLoad returns floor(capacity * fill factor), the occupancy
// floor below which CondenseTree pulls a node's entries out for
// reinsertion.
func (c Config) minimumLoad(capacity int) int {
	return int(float64(capacity) * c.FillFactor)
}
