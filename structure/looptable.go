package structure

import (
	"fmt"
	"strings"
)

// LoopKind discriminates the two variants of a LoopInfo entry.
type LoopKind int

const (
	// Unpaired positions belong to exactly one loop.
	Unpaired LoopKind = iota
	// Paired positions sit on the boundary between an outer and an
	// inner loop.
	Paired
)

// LoopInfo records the loop membership of a single position. Dispatch
// is by the Kind tag: Unpaired entries carry the id of the loop the
// position belongs to in Loop; Paired entries carry the enclosing loop
// id in Outer and the enclosed loop id in Inner.
type LoopInfo struct {
	Kind  LoopKind
	Loop  NAIDX
	Outer NAIDX
	Inner NAIDX
}

// LoopTable is the loop-membership index of a PairTable. Loop id 0 is
// the exterior loop; ids are assigned in pre-order: every opening
// bracket opens a new loop with the next unused id.
type LoopTable []LoopInfo

// LoopTableFrom derives the LoopTable of a well-formed PairTable in a
// single left-to-right scan. It panics on malformed tables (self pairs
// or unmatched pairing partners), which indicate a programming bug.
func LoopTableFrom(pt PairTable) LoopTable {
	n := pt.Len()
	table := make(LoopTable, n)

	var loopIndex NAIDX // loop id at the current position
	var mloop NAIDX     // highest loop id assigned so far

	// stack of (closing index, loop id) of open pairs
	type openPair struct {
		closingIdx int
		loopID     NAIDX
	}
	var stack []openPair

	for i := 0; i < n; i++ {
		j := pt[i]
		switch {
		case j == unpaired:
			table[i] = LoopInfo{Kind: Unpaired, Loop: loopIndex}
		case j > i:
			outerLoop := loopIndex
			mloop++
			loopIndex = mloop
			table[i] = LoopInfo{Kind: Paired, Outer: outerLoop, Inner: loopIndex}
			stack = append(stack, openPair{closingIdx: j, loopID: loopIndex})
		case j < i:
			if len(stack) == 0 {
				panic("expected well-formed PairTable, missing opening pair index")
			}
			innerLoop := stack[len(stack)-1].loopID
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				loopIndex = stack[len(stack)-1].loopID
			} else {
				loopIndex = 0
			}
			table[i] = LoopInfo{Kind: Paired, Outer: loopIndex, Inner: innerLoop}
		default:
			panic("self-pairing is undefined in PairTable construction")
		}
	}
	if len(stack) != 0 {
		panic("expected well-formed PairTable, missing closing pair index")
	}
	return table
}

// Len returns the number of positions in the table.
func (lt LoopTable) Len() int {
	return len(lt)
}

// String renders the table as "[0, 0/1, 1/2, 2, 1/2, 0/1]" with
// unpaired positions showing their loop id and paired positions
// showing outer/inner.
func (lt LoopTable) String() string {
	out := make([]string, len(lt))
	for i, info := range lt {
		if info.Kind == Unpaired {
			out[i] = fmt.Sprintf("%d", info.Loop)
		} else {
			out[i] = fmt.Sprintf("%d/%d", info.Outer, info.Inner)
		}
	}
	return "[" + strings.Join(out, ", ") + "]"
}
