package budget

import (
	"fmt"
	"math"
	"sort"

	"github.com/danielpatrickdp/emotion-pcg/go-optimizer/internal/pattern"
)

// #region config

// Config controls how desired counts are fitted to room capacity.
type Config struct {
	MaxPatternsPerRoom  int  `json:"max_patterns_per_room"`  // per-room pattern cap
	ReferenceCap        int  `json:"reference_cap"`          // cap the desired tables were authored against
	ScaleToReferenceCap bool `json:"scale_to_reference_cap"` // rescale desired counts by MaxPatternsPerRoom/ReferenceCap first
}

// DefaultConfig returns the settings the desired tables were tuned with.
func DefaultConfig() Config {
	return Config{
		MaxPatternsPerRoom:  2,
		ReferenceCap:        2,
		ScaleToReferenceCap: false,
	}
}

// #endregion config

// #region allocation

// Allocation records how a desired table was fitted into capacity.
type Allocation struct {
	Desired   Table   `json:"desired"`
	Final     Table   `json:"final"`
	MaxUsable int     `json:"max_usable"`
	Rescaled  bool    `json:"rescaled"`
	Factor    float64 `json:"factor"`
}

// Allocate fits desired into roomCount × MaxPatternsPerRoom slots. When the
// desired total exceeds capacity every count is scaled proportionally: the
// floors are granted first and the leftover slots go to the largest
// fractional remainders, ties resolved in pattern declaration order.
func Allocate(desired Table, roomCount int, cfg Config) Allocation {
	for i, c := range desired {
		if c < 0 {
			desired[i] = 0
		}
	}

	// 1. Optional rescale to the configured per-room cap
	if cfg.ScaleToReferenceCap && cfg.ReferenceCap > 0 && cfg.MaxPatternsPerRoom != cfg.ReferenceCap {
		ratio := float64(cfg.MaxPatternsPerRoom) / float64(cfg.ReferenceCap)
		for i, c := range desired {
			desired[i] = int(math.Round(float64(c) * ratio))
		}
	}

	alloc := Allocation{
		Desired:   desired,
		Final:     desired,
		MaxUsable: roomCount * cfg.MaxPatternsPerRoom,
		Factor:    1,
	}

	// 2. No capacity at all: nothing can be placed
	if alloc.MaxUsable <= 0 {
		alloc.MaxUsable = 0
		alloc.Final = Table{}
		alloc.Rescaled = desired.Total() > 0
		alloc.Factor = 0
		return alloc
	}

	// 3. Fits already
	total := desired.Total()
	if total <= alloc.MaxUsable {
		return alloc
	}

	// 4. Floor + largest remainder, in exact integer arithmetic
	type share struct {
		p         pattern.Type
		remainder int
	}
	var final Table
	shares := make([]share, 0, pattern.Count)
	granted := 0
	for _, p := range pattern.All() {
		if desired[p] == 0 {
			continue
		}
		scaled := desired[p] * alloc.MaxUsable
		final[p] = scaled / total
		granted += final[p]
		shares = append(shares, share{p: p, remainder: scaled % total})
	}

	leftover := alloc.MaxUsable - granted
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].remainder > shares[j].remainder
	})
	for i := 0; leftover > 0 && i < len(shares); i++ {
		final[shares[i].p]++
		leftover--
	}

	if final.Total() > alloc.MaxUsable {
		panic(fmt.Sprintf("budget: allocation %d exceeds capacity %d", final.Total(), alloc.MaxUsable))
	}

	alloc.Final = final
	alloc.Rescaled = true
	alloc.Factor = float64(alloc.MaxUsable) / float64(total)
	return alloc
}

// #endregion allocation

// #region budget

// Budget tracks the remaining quota per pattern during a run.
type Budget struct {
	remaining Table
}

// NewBudget starts a budget at the given quotas.
func NewBudget(t Table) *Budget {
	return &Budget{remaining: t}
}

// Remaining returns how many more p may be placed.
func (b *Budget) Remaining(p pattern.Type) int {
	if !p.Valid() {
		return 0
	}
	return b.remaining[p]
}

// Take consumes one p. It reports false when none is left.
func (b *Budget) Take(p pattern.Type) bool {
	if b.Remaining(p) <= 0 {
		return false
	}
	b.remaining[p]--
	return true
}

// Total returns the sum of remaining quotas.
func (b *Budget) Total() int {
	return b.remaining.Total()
}

// Table returns a copy of the remaining quotas.
func (b *Budget) Table() Table {
	return b.remaining
}

// #endregion budget
