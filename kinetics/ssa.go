package kinetics

import (
	"math"
	"math/rand"

	"github.com/lunny/log"
	"golang.org/x/exp/slices"
)

// driftTolerance bounds the accepted disagreement between the
// incrementally maintained total flux and the sum of its two
// sub-fluxes before a full rebuild.
const driftTolerance = 1e-8

// Callback receives the state before each firing: the current time,
// the sampled waiting time, the total flux, and the folding state.
type Callback func(t, tinc, flux float64, ls *LoopStructure)

// LoopStructureSSA runs Gillespie's stochastic simulation algorithm
// over a LoopStructure. The rate aggregate is maintained incrementally
// in log-space: reactions are grouped into pair deletions (keyed by
// opening index) and per-loop additions, each group carrying its own
// log-flux so whole groups can be skipped during reaction selection.
type LoopStructureSSA struct {
	ls    *LoopStructure
	model KineticModel

	logFlux float64

	pairFlux    float64
	hasPairFlux bool
	loopFlux    float64
	hasLoopFlux bool

	perLoopFlux map[int]float64
	perLoopRxns map[int][]Reaction
	pairRxns    map[int]Reaction
}

// NewLoopStructureSSA initialises the simulator state from a folding
// state and a kinetic model: it enumerates add-move neighbours per
// loop and delete moves globally, and aggregates the group fluxes.
// Panics when the structure admits no reaction at all.
func NewLoopStructureSSA(ls *LoopStructure, model KineticModel) *LoopStructureSSA {
	ssa := &LoopStructureSSA{
		ls:          ls,
		model:       model,
		perLoopFlux: make(map[int]float64),
		perLoopRxns: make(map[int][]Reaction),
		pairRxns:    make(map[int]Reaction),
	}

	var loopLogs []float64
	for id, neighbors := range ls.LoopNeighbors() {
		var logs []float64
		rxns := make([]Reaction, 0, len(neighbors))
		for _, nb := range neighbors {
			rxn := NewAddReaction(model, nb.I, nb.J, nb.DeltaE)
			logs = append(logs, rxn.LogRate)
			rxns = append(rxns, rxn)
		}
		if len(rxns) > 0 {
			lflux := logSumExp(logs)
			ssa.perLoopFlux[id] = lflux
			loopLogs = append(loopLogs, lflux)
		}
		ssa.perLoopRxns[id] = rxns
	}

	var pairLogs []float64
	for _, nb := range ls.DelNeighbors() {
		rxn := NewDelReaction(model, nb.I, nb.J, nb.DeltaE)
		pairLogs = append(pairLogs, rxn.LogRate)
		ssa.pairRxns[nb.I] = rxn
	}

	if len(pairLogs) > 0 {
		ssa.pairFlux = logSumExp(pairLogs)
		ssa.hasPairFlux = true
	}
	if len(loopLogs) > 0 {
		ssa.loopFlux = logSumExp(loopLogs)
		ssa.hasLoopFlux = true
	}

	switch {
	case ssa.hasPairFlux && ssa.hasLoopFlux:
		ssa.logFlux = logAdd(ssa.pairFlux, ssa.loopFlux)
	case ssa.hasPairFlux:
		ssa.logFlux = ssa.pairFlux
	case ssa.hasLoopFlux:
		ssa.logFlux = ssa.loopFlux
	default:
		panic("no reactions available in the initial structure")
	}
	return ssa
}

// Structure returns the dot-bracket notation of the current state.
func (ssa *LoopStructureSSA) Structure() string {
	return ssa.ls.String()
}

// LogFlux returns the maintained log of the total flux.
func (ssa *LoopStructureSSA) LogFlux() float64 {
	return ssa.logFlux
}

// recomputeFlux rebuilds every aggregate from its contributors. It is
// the recovery path after the incremental bookkeeping detected drift
// or cleared a sub-flux.
func (ssa *LoopStructureSSA) recomputeFlux() {
	loops := make([]float64, 0, len(ssa.perLoopFlux))
	for _, f := range ssa.perLoopFlux {
		loops = append(loops, f)
	}
	pairs := make([]float64, 0, len(ssa.pairRxns))
	for _, rxn := range ssa.pairRxns {
		pairs = append(pairs, rxn.LogRate)
	}

	ssa.hasLoopFlux = len(loops) > 0
	if ssa.hasLoopFlux {
		ssa.loopFlux = logSumExp(loops)
	}
	ssa.hasPairFlux = len(pairs) > 0
	if ssa.hasPairFlux {
		ssa.pairFlux = logSumExp(pairs)
	}

	switch {
	case ssa.hasPairFlux && ssa.hasLoopFlux:
		ssa.logFlux = logAdd(ssa.pairFlux, ssa.loopFlux)
	case ssa.hasPairFlux:
		ssa.logFlux = ssa.pairFlux
	case ssa.hasLoopFlux:
		ssa.logFlux = ssa.loopFlux
	default:
		panic("no flux at all")
	}
}

// subLoopFlux removes a contribution from the loop flux and the total
// flux; on catastrophic cancellation the sub-flux is invalidated so
// the next drift check rebuilds everything.
func (ssa *LoopStructureSSA) subLoopFlux(lflux float64) {
	next, ok := logSub(ssa.loopFlux, lflux)
	if !ok {
		log.Warnf("loop flux cancellation, scheduling rebuild")
		ssa.hasLoopFlux = false
		return
	}
	ssa.loopFlux = next
	if total, ok := logSub(ssa.logFlux, lflux); ok {
		ssa.logFlux = total
	} else {
		ssa.hasLoopFlux = false
	}
}

func (ssa *LoopStructureSSA) subPairFlux(lrate float64) {
	next, ok := logSub(ssa.pairFlux, lrate)
	if !ok {
		log.Warnf("pair flux cancellation, scheduling rebuild")
		ssa.hasPairFlux = false
		return
	}
	ssa.pairFlux = next
	if total, ok := logSub(ssa.logFlux, lrate); ok {
		ssa.logFlux = total
	} else {
		ssa.hasPairFlux = false
	}
}

// removeLoopReaction drops a loop's reaction group and its flux
// contribution. Removing the last loop group clears the loop sub-flux
// and leaves the stale total to the next drift check.
func (ssa *LoopStructureSSA) removeLoopReaction(id int) {
	rxns, ok := ssa.perLoopRxns[id]
	if !ok {
		panic("loop reaction group must exist")
	}
	delete(ssa.perLoopRxns, id)
	if len(rxns) == 0 {
		return
	}
	lflux, ok := ssa.perLoopFlux[id]
	if !ok {
		panic("loop flux entry must exist")
	}
	delete(ssa.perLoopFlux, id)
	if len(ssa.perLoopFlux) > 0 {
		ssa.subLoopFlux(lflux)
	} else {
		ssa.hasLoopFlux = false
	}
}

// removePairReaction drops the delete move keyed by an opening index
// along with the reaction groups of the two loops the deletion merges.
func (ssa *LoopStructureSSA) removePairReaction(opening int) {
	oldRxn, ok := ssa.pairRxns[opening]
	if !ok {
		panic("pair reaction must exist")
	}
	delete(ssa.pairRxns, opening)
	if len(ssa.pairRxns) > 0 {
		ssa.subPairFlux(oldRxn.LogRate)
	} else {
		ssa.hasPairFlux = false
	}

	lookup := ssa.ls.LoopLookup()
	inner, ok := lookup[oldRxn.J]
	if !ok {
		panic("no inner loop for closing index")
	}
	outer, ok := lookup[oldRxn.I]
	if !ok {
		panic("no outer loop for opening index")
	}
	ssa.removeLoopReaction(inner)
	ssa.removeLoopReaction(outer)
}

// insertLoopReactions registers a fresh loop group and folds its flux
// into the aggregates.
func (ssa *LoopStructureSSA) insertLoopReactions(id int, neighbors []Neighbor) {
	var logs []float64
	rxns := make([]Reaction, 0, len(neighbors))
	for _, nb := range neighbors {
		rxn := NewAddReaction(ssa.model, nb.I, nb.J, nb.DeltaE)
		logs = append(logs, rxn.LogRate)
		rxns = append(rxns, rxn)
	}
	if len(rxns) > 0 {
		lflux := logSumExp(logs)
		ssa.perLoopFlux[id] = lflux
		if ssa.hasLoopFlux {
			ssa.loopFlux = logAdd(ssa.loopFlux, lflux)
		} else {
			ssa.loopFlux = lflux
			ssa.hasLoopFlux = true
		}
		ssa.logFlux = logAdd(ssa.logFlux, lflux)
	}
	ssa.perLoopRxns[id] = rxns
}

// updatePairReactions replaces or inserts delete moves after a
// structural change.
func (ssa *LoopStructureSSA) updatePairReactions(changes []Neighbor) {
	for _, nb := range changes {
		if old, ok := ssa.pairRxns[nb.I]; ok {
			delete(ssa.pairRxns, nb.I)
			if len(ssa.pairRxns) > 0 {
				ssa.subPairFlux(old.LogRate)
			} else {
				ssa.hasPairFlux = false
			}
		}
		rxn := NewDelReaction(ssa.model, nb.I, nb.J, nb.DeltaE)
		if ssa.hasPairFlux {
			ssa.pairFlux = logAdd(ssa.pairFlux, rxn.LogRate)
		} else {
			ssa.pairFlux = rxn.LogRate
			ssa.hasPairFlux = true
		}
		ssa.logFlux = logAdd(ssa.logFlux, rxn.LogRate)
		ssa.pairRxns[nb.I] = rxn
	}
}

// Simulate advances the state until tMax. The callback fires before
// each waiting time is applied, in strict time order. Given the same
// seeded random source, the trajectory is reproducible.
func (ssa *LoopStructureSSA) Simulate(rng *rand.Rand, tMax float64, callback Callback) {
	t := 0.0

	for t < tMax {
		// Drift check: the two sub-fluxes must still add up to the
		// maintained total; rebuild everything when they do not, or
		// when a sub-flux was invalidated.
		if ssa.hasPairFlux && ssa.hasLoopFlux {
			if math.Abs(logAdd(ssa.pairFlux, ssa.loopFlux)-ssa.logFlux) > driftTolerance {
				ssa.recomputeFlux()
			}
		} else {
			ssa.recomputeFlux()
		}

		flux := math.Exp(ssa.logFlux)
		// waiting time ~ Exp(flux), with U in (0, 1]
		tinc := -math.Log(1-rng.Float64()) / flux
		callback(t, tinc, flux, ssa.ls)
		t += tinc

		// Reaction selection by log-space inverse CDF. Pair deletions
		// are scanned first; loop groups are skipped wholesale while
		// their prefix sum stays below the threshold.
		logThresh := ssa.logFlux + math.Log(1-rng.Float64())
		acc := math.Inf(-1)
		chosen := false
		var chosenIdx int
		var chosenRxn Reaction

		if ssa.hasPairFlux {
			if ssa.pairFlux >= logThresh {
				for _, opening := range sortedKeys(ssa.pairRxns) {
					rxn := ssa.pairRxns[opening]
					acc = logAdd(acc, rxn.LogRate)
					if acc >= logThresh {
						chosen = true
						chosenIdx, chosenRxn = opening, rxn
						break
					}
				}
			} else {
				acc = ssa.pairFlux
			}
		}
		if !chosen {
		groups:
			for _, id := range sortedKeys(ssa.perLoopFlux) {
				lflux := ssa.perLoopFlux[id]
				nextAcc := logAdd(acc, lflux)
				if nextAcc > logThresh {
					for _, rxn := range ssa.perLoopRxns[id] {
						acc = logAdd(acc, rxn.LogRate)
						if acc >= logThresh {
							chosen = true
							chosenIdx, chosenRxn = id, rxn
							break groups
						}
					}
				} else {
					acc = nextAcc
				}
			}
		}
		if !chosen {
			panic("no reaction chosen despite positive flux")
		}

		switch chosenRxn.Kind {
		case AddPair:
			ssa.removeLoopReaction(chosenIdx)
			outer, inner, pairChanges := ssa.ls.ApplyAddMove(chosenRxn.I, chosenRxn.J)
			ssa.insertLoopReactions(outer.Loop, outer.Neighbors)
			ssa.insertLoopReactions(inner.Loop, inner.Neighbors)
			ssa.updatePairReactions(pairChanges)
		case DelPair:
			ssa.removePairReaction(chosenIdx)
			merged, pairChanges := ssa.ls.ApplyDelMove(chosenRxn.I, chosenRxn.J)
			ssa.insertLoopReactions(merged.Loop, merged.Neighbors)
			ssa.updatePairReactions(pairChanges)
		}
	}
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
