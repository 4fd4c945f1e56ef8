/*
Package design provides the addressable-conformational-folding-path
(ACFP) machinery: an incremental engine that decides whether a sequence
of nested structures of increasing length is realisable as a chain of
single base-pair moves, and the partial order over pairs that such a
chain induces.
*/
package design

import (
	"fmt"

	"github.com/lunny/log"
	"golang.org/x/exp/slices"

	"github.com/bad-ants-fleet/fuzzyfold/structure"
)

type keySet map[structure.PairKey]struct{}

// PartialOrder accumulates the precedence constraints over base pairs
// induced by a chain of structures of strictly increasing length.
//
// The two relation maps are transposes of one another: a key b in
// gt[a] means a must form strictly before b; a key a in lt[b] records
// the same fact from b's side. gt is kept acyclic.
type PartialOrder struct {
	allPairs   keySet
	pairTables map[int]structure.PairTable // level -> pair table
	gt         map[structure.PairKey]keySet
	lt         map[structure.PairKey]keySet
}

// NewPartialOrder creates an empty engine.
func NewPartialOrder() *PartialOrder {
	return &PartialOrder{
		allPairs:   make(keySet),
		pairTables: make(map[int]structure.PairTable),
		gt:         make(map[structure.PairKey]keySet),
		lt:         make(map[structure.PairKey]keySet),
	}
}

// ExtendByPairTable tries to extend the recorded chain with a table
// one position longer than the last. It reports whether the extended
// chain remains realisable under a single consistent partial order.
// A rejected table is never committed; precedence edges discovered
// before the rejection are kept (downstream queries must not rely on
// rejected chains).
func (po *PartialOrder) ExtendByPairTable(pt structure.PairTable) bool {
	length := pt.Len()

	if _, ok := po.pairTables[length]; ok {
		log.Warnf("pair table of length %d already exists", length)
		return false
	}

	prev, ok := po.pairTables[length-1]
	if !ok {
		if len(po.pairTables) == 0 {
			po.pairTables[length] = pt.Clone()
			return true
		}
		log.Warnf("missing previous pair table of length %d", length-1)
		return false
	}

	pset := structure.PairSetFrom(pt)
	for _, key := range pset.Keys() {
		po.allPairs[key] = struct{}{}
	}

	// History check: none of the new pairs may change anything in the
	// recorded history of the path. Tables are visited in increasing
	// length so that recorded edges are deterministic.
	lengths := make([]int, 0, len(po.pairTables))
	for l := range po.pairTables {
		lengths = append(lengths, l)
	}
	slices.Sort(lengths)

	newPairs := pset.ToVec()
	for _, l := range lengths {
		for _, pair := range newPairs {
			if int(pair.J()) >= l {
				continue
			}
			scratch := po.pairTables[l].Clone()
			old, err := po.applyPair(scratch, pair)
			switch {
			case err != nil:
				// The pair does not apply at this point of the
				// history; not a problem here.
			case old != nil && *old == pair:
				// Already present back then.
			case old != nil:
				// The pair would have displaced old in the past, so
				// it must have formed before old took over.
				po.record(pair.Key(), old.Key())
			default:
				// The pair would have simply inserted in an earlier
				// table. Since it did not, the chain is inconsistent.
				return false
			}
		}
	}

	// Constructive check: rebuild the new table from the previous one
	// extended by a single unpaired position.
	current := prev.Clone()
	current.AppendUnpaired()
	if !po.resolveConflicts(newPairs, current) {
		return false
	}

	if !current.Equal(pt) {
		return false
	}

	if !po.dependenciesFormDAG() {
		return false
	}

	po.pairTables[length] = current
	return true
}

// record stores before < after in both relation maps.
func (po *PartialOrder) record(before, after structure.PairKey) {
	if po.gt[before] == nil {
		po.gt[before] = make(keySet)
	}
	po.gt[before][after] = struct{}{}
	if po.lt[after] == nil {
		po.lt[after] = make(keySet)
	}
	po.lt[after][before] = struct{}{}
}

// applyPair attempts the single-move transition towards pair on pt,
// honouring already-recorded precedences: a displacement of old by
// pair is refused when pair is known to form before old. On success
// the move is applied to pt and the displaced pair (if any) returned.
func (po *PartialOrder) applyPair(pt structure.PairTable, pair structure.Pair) (*structure.Pair, error) {
	old, err := pt.TryMove(pair)
	if err != nil {
		return nil, err
	}
	if old != nil && *old == pair {
		return old, nil
	}
	if old != nil {
		if succs, ok := po.gt[pair.Key()]; ok {
			if _, forbidden := succs[old.Key()]; forbidden {
				return nil, fmt.Errorf("precedence violation: %v < %v", pair, *old)
			}
		}
	}
	pt.ApplyMove(old, pair)
	return old, nil
}

// resolveConflicts drains the worklist of new pairs, applying each as
// a single move. Each applied displacement records that the displaced
// pair precedes the new one; inapplicable pairs are deferred to the
// next pass, and the drain stops when a full pass makes no progress.
func (po *PartialOrder) resolveConflicts(pairs []structure.Pair, pt structure.PairTable) bool {
	queue := append([]structure.Pair(nil), pairs...)
	progress := true

	for progress && len(queue) > 0 {
		progress = false
		var skipped []structure.Pair

		for _, pair := range queue {
			old, err := po.applyPair(pt, pair)
			switch {
			case err != nil:
				skipped = append(skipped, pair)
			case old != nil && *old == pair:
				progress = true
			case old != nil:
				// The displaced pair had to be there first.
				progress = true
				po.record(old.Key(), pair.Key())
			default:
				progress = true
			}
		}
		queue = skipped
	}

	return len(queue) == 0
}

// dependenciesFormDAG verifies that the gt relation is acyclic via a
// recursive DFS started from every recorded pair.
func (po *PartialOrder) dependenciesFormDAG() bool {
	visited := make(keySet)
	stack := make(keySet)

	var findCycle func(node structure.PairKey) bool
	findCycle = func(node structure.PairKey) bool {
		if _, onStack := stack[node]; onStack {
			return true
		}
		if _, done := visited[node]; done {
			return false
		}
		visited[node] = struct{}{}
		stack[node] = struct{}{}
		for child := range po.gt[node] {
			if findCycle(child) {
				return true
			}
		}
		delete(stack, node)
		return false
	}

	for key := range po.allPairs {
		if findCycle(key) {
			return false
		}
	}
	return true
}

// PairHierarchy assigns a topological level to every recorded pair.
// Pairs with no predecessor get level 1; every successor sits at least
// one level above its highest predecessor.
func (po *PartialOrder) PairHierarchy() map[structure.PairKey]int {
	levels := make(map[structure.PairKey]int)
	var queue []structure.PairKey

	roots := make([]structure.PairKey, 0, len(po.allPairs))
	for key := range po.allPairs {
		if len(po.lt[key]) == 0 {
			roots = append(roots, key)
		}
	}
	slices.Sort(roots)
	for _, root := range roots {
		levels[root] = 1
		queue = append(queue, root)
	}

	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		level := levels[key]
		children := make([]structure.PairKey, 0, len(po.gt[key]))
		for child := range po.gt[key] {
			children = append(children, child)
		}
		slices.Sort(children)
		for _, child := range children {
			if level+1 > levels[child] {
				levels[child] = level + 1
				queue = append(queue, child)
			}
		}
	}

	return levels
}

// AllTotalOrders enumerates every linear extension of the recorded
// partial order by backtracking over the currently available
// (in-degree zero) pairs. The enumeration is exponential in the width
// of the poset, which is acceptable for the small chains this engine
// targets.
func (po *PartialOrder) AllTotalOrders() [][]structure.PairKey {
	inDeg := make(map[structure.PairKey]int, len(po.allPairs))
	for key := range po.allPairs {
		inDeg[key] = 0
	}
	for _, targets := range po.gt {
		for target := range targets {
			inDeg[target]++
		}
	}

	available := make(keySet)
	for key, deg := range inDeg {
		if deg == 0 {
			available[key] = struct{}{}
		}
	}

	var all [][]structure.PairKey
	var current []structure.PairKey
	po.enumerateOrders(inDeg, available, &current, &all)
	return all
}

func (po *PartialOrder) enumerateOrders(
	inDeg map[structure.PairKey]int,
	available keySet,
	current *[]structure.PairKey,
	all *[][]structure.PairKey,
) {
	if len(available) == 0 {
		for _, deg := range inDeg {
			if deg != 0 {
				return
			}
		}
		*all = append(*all, append([]structure.PairKey(nil), *current...))
		return
	}

	options := make([]structure.PairKey, 0, len(available))
	for key := range available {
		options = append(options, key)
	}
	slices.Sort(options)

	for _, key := range options {
		delete(available, key)
		*current = append(*current, key)

		var unlocked []structure.PairKey
		for child := range po.gt[key] {
			inDeg[child]--
			if inDeg[child] == 0 {
				available[child] = struct{}{}
				unlocked = append(unlocked, child)
			}
		}

		po.enumerateOrders(inDeg, available, current, all)

		for _, child := range unlocked {
			delete(available, child)
		}
		for child := range po.gt[key] {
			inDeg[child]++
		}
		*current = (*current)[:len(*current)-1]
		available[key] = struct{}{}
	}
}

// Precedes reports whether before < after has been recorded.
func (po *PartialOrder) Precedes(before, after structure.Pair) bool {
	succs, ok := po.gt[before.Key()]
	if !ok {
		return false
	}
	_, ok = succs[after.Key()]
	return ok
}

// Constrained reports whether the pair participates in any recorded
// precedence.
func (po *PartialOrder) Constrained(pair structure.Pair) bool {
	return len(po.gt[pair.Key()]) > 0 || len(po.lt[pair.Key()]) > 0
}

// Pairs returns every recorded pair sorted by (i, j).
func (po *PartialOrder) Pairs() []structure.Pair {
	keys := make([]structure.PairKey, 0, len(po.allPairs))
	for key := range po.allPairs {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	pairs := make([]structure.Pair, len(keys))
	for i, key := range keys {
		pairs[i] = structure.PairFromKey(key)
	}
	return pairs
}
