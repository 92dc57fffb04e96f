package tictactoe

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/rocketscienceinc/tictactoe-match/internal/entity"
)

const (
	FirstMoverX      = "x"
	FirstMoverRandom = "random"
)

// FirstMover picks the symbol that opens a round.
type FirstMover func() string

func FixedFirstMover() FirstMover {
	return func() string {
		return entity.PlayerX
	}
}

// RandomFirstMover picks X or O uniformly using rng.
func RandomFirstMover(rng *rand.Rand) FirstMover {
	return func() string {
		if rng.IntN(2) == 0 {
			return entity.PlayerX
		}
		return entity.PlayerO
	}
}

// ParseFirstMover maps the configured policy name to a FirstMover.
func ParseFirstMover(policy string, seed uint64) (FirstMover, error) {
	switch strings.ToLower(policy) {
	case "", FirstMoverX:
		return FixedFirstMover(), nil
	case FirstMoverRandom:
		return RandomFirstMover(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))), nil //nolint: gosec // fairness only
	default:
		return nil, fmt.Errorf("unknown first mover policy %q", policy)
	}
}
