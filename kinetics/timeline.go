package kinetics

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bad-ants-fleet/fuzzyfold/structure"
)

// Macrostate is a labelled equivalence class of structures used for
// trajectory bucketing.
type Macrostate struct {
	Name       string   `yaml:"name"`
	Energy     *float64 `yaml:"energy,omitempty"`
	Structures []string `yaml:"structures"`
}

// MacrostateRegistry resolves observed structures to macrostates. The
// registry is immutable after construction and may be shared read-only
// across simulation workers.
type MacrostateRegistry struct {
	states []Macrostate
	index  map[string]int // dot-bracket -> state index
}

// NewMacrostateRegistry builds a registry from explicit macrostates.
// Every member structure must be valid dot-bracket; a structure may
// belong to at most one macrostate.
func NewMacrostateRegistry(states []Macrostate) (*MacrostateRegistry, error) {
	registry := &MacrostateRegistry{
		states: states,
		index:  make(map[string]int),
	}
	for i, state := range states {
		if state.Name == "" {
			return nil, fmt.Errorf("macrostate %d has no name", i)
		}
		for _, db := range state.Structures {
			if _, err := structure.FromDotBracket(db); err != nil {
				return nil, fmt.Errorf("macrostate %q: %w", state.Name, err)
			}
			if prev, ok := registry.index[db]; ok {
				return nil, fmt.Errorf("structure %q belongs to both %q and %q", db, states[prev].Name, state.Name)
			}
			registry.index[db] = i
		}
	}
	return registry, nil
}

// LoadMacrostates reads one macrostate definition per YAML file.
func LoadMacrostates(paths []string) (*MacrostateRegistry, error) {
	var states []Macrostate
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading macrostate file: %w", err)
		}
		var state Macrostate
		if err := yaml.Unmarshal(raw, &state); err != nil {
			return nil, fmt.Errorf("parsing macrostate file %s: %w", path, err)
		}
		states = append(states, state)
	}
	return NewMacrostateRegistry(states)
}

// Len returns the number of macrostates.
func (r *MacrostateRegistry) Len() int {
	return len(r.states)
}

// Name returns the name of macrostate i.
func (r *MacrostateRegistry) Name(i int) string {
	return r.states[i].Name
}

// Energy returns the declared energy of macrostate i, if any.
func (r *MacrostateRegistry) Energy(i int) (float64, bool) {
	if r.states[i].Energy == nil {
		return 0, false
	}
	return *r.states[i].Energy, true
}

// Assign resolves a dot-bracket structure to its macrostate index.
func (r *MacrostateRegistry) Assign(dotBracket string) (int, bool) {
	i, ok := r.index[dotBracket]
	return i, ok
}

// Timeline buckets the structures observed at simulation callbacks
// into time bins. Bins hold one occupancy counter per macrostate plus
// one for unassigned structures. Timelines over the same grid and
// registry merge by bin-wise summation, which is commutative, so
// trajectories can be collected in any order.
type Timeline struct {
	times      []float64
	registry   *MacrostateRegistry
	counts     [][]int // bin -> macrostate occupancy
	unassigned []int   // bin -> observations outside every macrostate
}

// NewTimeline creates an empty timeline over a monotonically
// increasing grid of output times and a shared macrostate registry.
func NewTimeline(times []float64, registry *MacrostateRegistry) *Timeline {
	counts := make([][]int, len(times))
	for i := range counts {
		counts[i] = make([]int, registry.Len())
	}
	return &Timeline{
		times:      times,
		registry:   registry,
		counts:     counts,
		unassigned: make([]int, len(times)),
	}
}

// Times returns the output time grid.
func (tl *Timeline) Times() []float64 {
	return tl.times
}

// AssignStructure records one observation of a structure in the given
// time bin.
func (tl *Timeline) AssignStructure(tIdx int, dotBracket string) {
	if state, ok := tl.registry.Assign(dotBracket); ok {
		tl.counts[tIdx][state]++
		return
	}
	tl.unassigned[tIdx]++
}

// Merge adds the bin occupancies of another timeline into this one.
// Both timelines must share the registry and the time grid.
func (tl *Timeline) Merge(other *Timeline) error {
	if tl.registry != other.registry {
		return fmt.Errorf("cannot merge timelines over different registries")
	}
	if len(tl.times) != len(other.times) {
		return fmt.Errorf("cannot merge timelines with %d and %d bins", len(tl.times), len(other.times))
	}
	for b := range tl.counts {
		for s := range tl.counts[b] {
			tl.counts[b][s] += other.counts[b][s]
		}
		tl.unassigned[b] += other.unassigned[b]
	}
	return nil
}

// Occupancy returns the fraction of observations of macrostate s in
// bin b, or 0 when the bin is empty.
func (tl *Timeline) Occupancy(b, s int) float64 {
	total := tl.unassigned[b]
	for _, c := range tl.counts[b] {
		total += c
	}
	if total == 0 {
		return 0
	}
	return float64(tl.counts[b][s]) / float64(total)
}

// String renders the timeline as a table of occupancy fractions, one
// row per time bin.
func (tl *Timeline) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%14s", "time")
	for s := 0; s < tl.registry.Len(); s++ {
		fmt.Fprintf(&sb, " %12s", tl.registry.Name(s))
	}
	fmt.Fprintf(&sb, " %12s\n", "other")
	for b, t := range tl.times {
		fmt.Fprintf(&sb, "%14.6e", t)
		total := tl.unassigned[b]
		for _, c := range tl.counts[b] {
			total += c
		}
		for s := range tl.counts[b] {
			fmt.Fprintf(&sb, " %12.6f", tl.Occupancy(b, s))
		}
		if total == 0 {
			fmt.Fprintf(&sb, " %12.6f\n", 0.0)
			continue
		}
		fmt.Fprintf(&sb, " %12.6f\n", float64(tl.unassigned[b])/float64(total))
	}
	return sb.String()
}
