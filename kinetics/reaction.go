package kinetics

import "fmt"

// ReactionKind discriminates the two move types of the simulator.
type ReactionKind int

const (
	// AddPair forms a new base pair inside a loop.
	AddPair ReactionKind = iota
	// DelPair removes an existing base pair, merging its two adjacent
	// loops.
	DelPair
)

// Reaction is a single elementary move with its energy difference and
// precomputed log rate. Dispatch is by the Kind tag.
type Reaction struct {
	Kind    ReactionKind
	I, J    int
	DeltaE  int
	LogRate float64
}

// NewAddReaction builds an add-move reaction under the given kinetic
// model.
func NewAddReaction(model KineticModel, i, j, deltaE int) Reaction {
	return Reaction{Kind: AddPair, I: i, J: j, DeltaE: deltaE, LogRate: model.LogRate(deltaE)}
}

// NewDelReaction builds a delete-move reaction under the given kinetic
// model.
func NewDelReaction(model KineticModel, i, j, deltaE int) Reaction {
	return Reaction{Kind: DelPair, I: i, J: j, DeltaE: deltaE, LogRate: model.LogRate(deltaE)}
}

func (r Reaction) String() string {
	kind := "add"
	if r.Kind == DelPair {
		kind = "del"
	}
	return fmt.Sprintf("%s(%d,%d) dE=%d", kind, r.I, r.J, r.DeltaE)
}
