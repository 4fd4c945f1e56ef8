package kinetics

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/bad-ants-fleet/fuzzyfold/energy"
	"github.com/bad-ants-fleet/fuzzyfold/structure"
)

// Neighbor is a candidate move (i, j) with the energy difference its
// application would incur, in dcal/mol.
type Neighbor struct {
	I, J   int
	DeltaE int
}

// LoopUpdate carries the id of a loop created by a move together with
// its freshly enumerated add-move neighbours.
type LoopUpdate struct {
	Loop      int
	Neighbors []Neighbor
}

// LoopStructure is an energy-aware indexed representation of a folded
// sequence. Every loop carries a stable arena id: ids are allocated
// from a monotonically increasing counter, the exterior loop starts as
// id 0, and a split or merge always produces loops with fresh ids.
// Stale ids are never reused, so reaction bookkeeping keyed by loop id
// stays unambiguous across moves.
type LoopStructure struct {
	seq   string
	pt    structure.PairTable
	model energy.EnergyModel

	// loop id -> opening index of the loop's closing pair, -1 exterior
	loops map[int]int
	// loop id -> cached loop energy in dcal/mol
	energies map[int]int
	// position -> containing loop id for unpaired positions, else -1
	unpairedLoop []int
	// paired position -> loop id: opening index maps to the outer
	// loop, closing index to the inner loop
	lookup map[int]int
	// loop id -> add-move neighbours
	addNeighbors map[int][]Neighbor

	nextID int
}

// LoopStructureFrom indexes a sequence with its current pairing under
// the given energy model.
func LoopStructureFrom(seq string, pt structure.PairTable, model energy.EnergyModel) (*LoopStructure, error) {
	if len(seq) != pt.Len() {
		return nil, fmt.Errorf("sequence length %d does not match structure length %d", len(seq), pt.Len())
	}

	ls := &LoopStructure{
		seq:          seq,
		pt:           pt.Clone(),
		model:        model,
		loops:        make(map[int]int),
		energies:     make(map[int]int),
		unpairedLoop: make([]int, pt.Len()),
		lookup:       make(map[int]int),
		addNeighbors: make(map[int][]Neighbor),
		nextID:       1,
	}
	for i := range ls.unpairedLoop {
		ls.unpairedLoop[i] = -1
	}

	// One loop per closing pair plus the exterior; ids in pre-order.
	ls.loops[0] = -1
	for i, j := range ls.pt {
		if j > i {
			ls.loops[ls.nextID] = i
			ls.nextID++
		}
	}
	for _, id := range ls.loopIDs() {
		ls.relabel(id)
	}
	for _, id := range ls.loopIDs() {
		ls.addNeighbors[id] = ls.enumerateAddMoves(id)
	}
	return ls, nil
}

// Len returns the sequence length.
func (ls *LoopStructure) Len() int {
	return len(ls.seq)
}

// Sequence returns the folded sequence.
func (ls *LoopStructure) Sequence() string {
	return ls.seq
}

// String renders the current pairing in dot-bracket notation.
func (ls *LoopStructure) String() string {
	return ls.pt.String()
}

// PairTable returns a copy of the current pairing.
func (ls *LoopStructure) PairTable() structure.PairTable {
	return ls.pt.Clone()
}

// Energy returns the total energy of the current structure in
// dcal/mol.
func (ls *LoopStructure) Energy() int {
	total := 0
	for _, e := range ls.energies {
		total += e
	}
	return total
}

// LoopNeighbors exposes the add-move neighbours per loop id.
func (ls *LoopStructure) LoopNeighbors() map[int][]Neighbor {
	return ls.addNeighbors
}

// DelNeighbors enumerates the delete move of every existing pair with
// its current energy difference.
func (ls *LoopStructure) DelNeighbors() []Neighbor {
	var dels []Neighbor
	for i, j := range ls.pt {
		if j > i {
			dels = append(dels, Neighbor{I: i, J: j, DeltaE: ls.delDeltaE(i, j)})
		}
	}
	return dels
}

// LoopLookup maps every paired position to a loop id: the opening
// index of a pair to its outer loop, the closing index to its inner
// loop. These are the two loops a deletion of the pair merges.
func (ls *LoopStructure) LoopLookup() map[int]int {
	return ls.lookup
}

// ApplyAddMove forms the pair (i, j). Both positions must be unpaired
// members of the same loop, which splits into an outer and an inner
// loop. Returns the two new loops with their neighbour lists plus the
// delete-move updates of every pair adjacent to a changed loop.
func (ls *LoopStructure) ApplyAddMove(i, j int) (outer, inner LoopUpdate, pairChanges []Neighbor) {
	loop := ls.unpairedLoop[i]
	if loop < 0 || loop != ls.unpairedLoop[j] {
		panic(fmt.Sprintf("add move (%d, %d) endpoints are not unpaired in one loop", i, j))
	}
	closing := ls.loops[loop]

	ls.pt[i] = j
	ls.pt[j] = i
	ls.unpairedLoop[i] = -1
	ls.unpairedLoop[j] = -1
	delete(ls.loops, loop)
	delete(ls.energies, loop)
	delete(ls.addNeighbors, loop)

	outerID := ls.nextID
	innerID := ls.nextID + 1
	ls.nextID += 2
	ls.loops[outerID] = closing
	ls.loops[innerID] = i
	ls.relabel(outerID)
	ls.relabel(innerID)

	outerNbrs := ls.enumerateAddMoves(outerID)
	innerNbrs := ls.enumerateAddMoves(innerID)
	ls.addNeighbors[outerID] = outerNbrs
	ls.addNeighbors[innerID] = innerNbrs

	pairChanges = ls.adjacentDelMoves(outerID, innerID)
	return LoopUpdate{Loop: outerID, Neighbors: outerNbrs},
		LoopUpdate{Loop: innerID, Neighbors: innerNbrs},
		pairChanges
}

// ApplyDelMove removes the pair (i, j), merging its inner and outer
// loops into one fresh loop. Returns the merged loop with its
// neighbour list plus the delete-move updates of every remaining pair
// adjacent to it.
func (ls *LoopStructure) ApplyDelMove(i, j int) (merged LoopUpdate, pairChanges []Neighbor) {
	if ls.pt[i] != j {
		panic(fmt.Sprintf("del move (%d, %d) is not an existing pair", i, j))
	}
	outer, ok := ls.lookup[i]
	if !ok {
		panic(fmt.Sprintf("no outer loop for opening index %d", i))
	}
	inner := ls.lookup[j]
	closing := ls.loops[outer]

	ls.pt[i] = -1
	ls.pt[j] = -1
	delete(ls.lookup, i)
	delete(ls.lookup, j)
	for _, id := range []int{outer, inner} {
		delete(ls.loops, id)
		delete(ls.energies, id)
		delete(ls.addNeighbors, id)
	}

	mergedID := ls.nextID
	ls.nextID++
	ls.loops[mergedID] = closing
	ls.relabel(mergedID)

	nbrs := ls.enumerateAddMoves(mergedID)
	ls.addNeighbors[mergedID] = nbrs

	pairChanges = ls.adjacentDelMoves(mergedID)
	return LoopUpdate{Loop: mergedID, Neighbors: nbrs}, pairChanges
}

// loopIDs returns the live loop ids in ascending order.
func (ls *LoopStructure) loopIDs() []int {
	ids := make([]int, 0, len(ls.loops))
	for id := range ls.loops {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// loopMembers walks the loop closed by the pair opening at closing
// (-1 for the exterior) and returns its unpaired positions and the
// opening indices of its child pairs, both in 5'-to-3' order.
func (ls *LoopStructure) loopMembers(closing int) (unpaired, children []int) {
	start, end := 0, ls.pt.Len()
	if closing >= 0 {
		start, end = closing+1, ls.pt[closing]
	}
	for i := start; i < end; i++ {
		j := ls.pt[i]
		if j < 0 {
			unpaired = append(unpaired, i)
		} else {
			children = append(children, i)
			i = j // seek to end of the child pair
		}
	}
	return unpaired, children
}

// relabel reassigns the membership indices of a loop to its id and
// refreshes the cached loop energy.
func (ls *LoopStructure) relabel(id int) {
	closing := ls.loops[id]
	unpaired, children := ls.loopMembers(closing)
	for _, p := range unpaired {
		ls.unpairedLoop[p] = id
	}
	for _, o := range children {
		ls.lookup[o] = id
	}
	if closing >= 0 {
		ls.lookup[ls.pt[closing]] = id
	}
	ls.energies[id] = ls.model.LoopEnergy(ls.seq, ls.pt, closing)
}

// enumerateAddMoves lists every pair of unpaired loop members that the
// energy model admits, with the energy difference of forming it.
func (ls *LoopStructure) enumerateAddMoves(id int) []Neighbor {
	closing := ls.loops[id]
	unpaired, _ := ls.loopMembers(closing)
	minHairpin := ls.model.MinHairpin()

	var moves []Neighbor
	for a := 0; a < len(unpaired); a++ {
		for b := a + 1; b < len(unpaired); b++ {
			x, y := unpaired[a], unpaired[b]
			if y-x <= minHairpin {
				continue
			}
			if !ls.model.CanPair(ls.seq[x], ls.seq[y]) {
				continue
			}
			moves = append(moves, Neighbor{I: x, J: y, DeltaE: ls.addDeltaE(id, x, y)})
		}
	}
	return moves
}

// addDeltaE evaluates the energy difference of forming (x, y) inside
// the loop id by applying the pair to the table, scoring the two
// resulting loops, and reverting.
func (ls *LoopStructure) addDeltaE(id, x, y int) int {
	closing := ls.loops[id]
	before := ls.energies[id]

	ls.pt[x] = y
	ls.pt[y] = x
	after := ls.model.LoopEnergy(ls.seq, ls.pt, closing) + ls.model.LoopEnergy(ls.seq, ls.pt, x)
	ls.pt[x] = -1
	ls.pt[y] = -1

	return after - before
}

// delDeltaE evaluates the energy difference of removing the pair
// (i, j) by taking it out of the table, scoring the merged loop, and
// reverting.
func (ls *LoopStructure) delDeltaE(i, j int) int {
	outer := ls.lookup[i]
	inner := ls.lookup[j]
	closing := ls.loops[outer]
	before := ls.energies[outer] + ls.energies[inner]

	ls.pt[i] = -1
	ls.pt[j] = -1
	after := ls.model.LoopEnergy(ls.seq, ls.pt, closing)
	ls.pt[i] = j
	ls.pt[j] = i

	return after - before
}

// adjacentDelMoves collects the refreshed delete move of every pair
// adjacent to the given loops: their closing pairs and all their child
// pairs.
func (ls *LoopStructure) adjacentDelMoves(ids ...int) []Neighbor {
	openings := make(map[int]struct{})
	for _, id := range ids {
		closing := ls.loops[id]
		if closing >= 0 {
			openings[closing] = struct{}{}
		}
		_, children := ls.loopMembers(closing)
		for _, o := range children {
			openings[o] = struct{}{}
		}
	}

	sorted := make([]int, 0, len(openings))
	for o := range openings {
		sorted = append(sorted, o)
	}
	slices.Sort(sorted)

	changes := make([]Neighbor, 0, len(sorted))
	for _, o := range sorted {
		changes = append(changes, Neighbor{I: o, J: ls.pt[o], DeltaE: ls.delDeltaE(o, ls.pt[o])})
	}
	return changes
}
