// Package rng derives independent, reproducible random streams per
// (seed, round, purpose) triple.
package rng

import (
	"encoding/binary"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
)

// Purpose tags an independent random stream within a round.
type Purpose string

const (
	PurposeStatusEffects Purpose = "STATUS_EFFECTS"
	PurposeActions       Purpose = "ACTIONS"
	PurposeEndTurn       Purpose = "END_TURN"
	PurposeQueueRound    Purpose = "QUEUE_ROUND"
)

// countingSource wraps a PCG and counts every 64-bit draw, so a stream
// can be restored to an exact position.
type countingSource struct {
	pcg   rand.PCG
	draws int64
}

func (c *countingSource) Uint64() uint64 {
	c.draws++
	return c.pcg.Uint64()
}

// RNG is a deterministic random stream with position tracking.
// Position counts raw source draws, enabling save/restore and cloning.
type RNG struct {
	seed    int64
	round   int
	purpose Purpose
	src     *countingSource
	rnd     *rand.Rand
}

// New creates a deterministic RNG from a bare seed (round 0, no purpose).
func New(seed int64) *RNG {
	return DeriveStream(seed, 0, "")
}

// DeriveStream returns the stream for (seed, round, purpose). The same
// triple always yields the same sequence, regardless of what was drawn
// from any other stream.
func DeriveStream(seed int64, round int, purpose Purpose) *RNG {
	hi, lo := streamSeeds(seed, round, purpose)
	src := &countingSource{pcg: *rand.NewPCG(hi, lo)}
	return &RNG{
		seed:    seed,
		round:   round,
		purpose: purpose,
		src:     src,
		rnd:     rand.New(src),
	}
}

// RestoreStream derives a stream and advances it to the given position.
func RestoreStream(seed int64, round int, purpose Purpose, position int64) *RNG {
	r := DeriveStream(seed, round, purpose)
	for r.src.draws < position {
		r.src.Uint64()
	}
	return r
}

func streamSeeds(seed int64, round int, purpose Purpose) (uint64, uint64) {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(seed))
	binary.LittleEndian.PutUint64(buf[8:], uint64(int64(round)))

	d := xxhash.New()
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(string(purpose))
	hi := d.Sum64()
	_, _ = d.WriteString("/lo")
	lo := d.Sum64()
	return hi, lo
}

// Clone returns an independent copy. Draws on the copy never affect r.
func (r *RNG) Clone() *RNG {
	src := &countingSource{pcg: r.src.pcg, draws: r.src.draws}
	return &RNG{
		seed:    r.seed,
		round:   r.round,
		purpose: r.purpose,
		src:     src,
		rnd:     rand.New(src),
	}
}

// Roll returns a random integer in [1, sides].
func (r *RNG) Roll(sides int) int {
	if sides <= 1 {
		r.src.Uint64()
		return 1
	}
	return r.rnd.IntN(sides) + 1
}

// Intn returns a random integer in [0, n). n <= 0 yields 0.
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return r.rnd.IntN(n)
}

// Chance returns true with the given percent probability. Always consumes
// one roll so stream positions don't depend on the percent value.
func (r *RNG) Chance(percent int) bool {
	return r.Roll(100) <= percent
}

// Variance scales base by a uniform factor in [100-pct, 100+pct] percent.
func (r *RNG) Variance(base, pct int) int {
	if pct <= 0 {
		r.src.Uint64()
		return base
	}
	factor := 100 - pct + r.Intn(2*pct+1)
	return base * factor / 100
}

// WeightedSelect returns an index chosen by weighted random selection.
// weights must be non-empty with all positive values.
func (r *RNG) WeightedSelect(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	roll := r.Intn(total)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if roll < cumulative {
			return i
		}
	}
	return len(weights) - 1
}

// Position returns the number of source draws made since derivation.
func (r *RNG) Position() int64 {
	return r.src.draws
}

// Purpose returns the stream's purpose tag.
func (r *RNG) Purpose() Purpose {
	return r.purpose
}
