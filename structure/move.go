package structure

import (
	"fmt"
)

// TryMove decides whether the candidate pair can be realised on the
// current table with a single base-pair move. It does not mutate the
// table. The return value distinguishes four outcomes:
//
//   - (&pair, nil): the pair is already present (a no-op move).
//   - (nil, nil): the pair can form without removing any pair; both
//     endpoints are unpaired and share a loop.
//   - (&old, nil): the pair can form by removing exactly the pair old;
//     one endpoint is unpaired, the other paired, and the unpaired
//     endpoint lies in one of the two loops adjacent to the paired one.
//   - (nil, err): no single-move transition realises the pair. A
//     multi-move path may still exist; that is outside the single-step
//     model.
func (pt PairTable) TryMove(pair Pair) (*Pair, error) {
	i, j := int(pair.I()), int(pair.J())
	if pt[i] == j && pt[j] == i {
		return &pair, nil
	}

	lt := LoopTableFrom(pt)
	li, lj := lt[i], lt[j]
	switch {
	case li.Kind == Unpaired && lj.Kind == Unpaired:
		if li.Loop != lj.Loop {
			return nil, fmt.Errorf("unpaired bases %d and %d are in different loops", i, j)
		}
		return nil, nil

	case li.Kind == Unpaired && lj.Kind == Paired:
		if li.Loop != lj.Inner && li.Loop != lj.Outer {
			return nil, fmt.Errorf("loop mismatch (%d unpaired, %d paired)", i, j)
		}
		old := orderedPair(NAIDX(pt[j]), pair.J())
		return &old, nil

	case li.Kind == Paired && lj.Kind == Unpaired:
		if lj.Loop != li.Inner && lj.Loop != li.Outer {
			return nil, fmt.Errorf("loop mismatch (%d paired, %d unpaired)", i, j)
		}
		old := orderedPair(NAIDX(pt[i]), pair.I())
		return &old, nil

	default:
		if li.Outer == lj.Outer || li.Outer == lj.Inner || lj.Outer == li.Inner {
			return nil, fmt.Errorf("both bases paired, but could work: %d %d", i, j)
		}
		return nil, fmt.Errorf("both bases paired and loop mismatch: %v", pair)
	}
}

// ApplyMove removes old (when non-nil) and installs new, keeping the
// table symmetric. Callers are responsible for having validated the
// transition with TryMove first.
func (pt PairTable) ApplyMove(old *Pair, new Pair) {
	if old != nil {
		pt[old.I()] = unpaired
		pt[old.J()] = unpaired
	}
	pt[new.I()] = int(new.J())
	pt[new.J()] = int(new.I())
}
