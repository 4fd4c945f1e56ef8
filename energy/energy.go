/*
Package energy declares the energy-evaluation contract consumed by the
folding kinetics.

Due to inaccuracies when adding and subtracting float64 values, all
energies are integers in the unit deca-cal / mol (dcal/mol). To convert
to the standard unit of kcal/mol, divide by 100.

The package ships two deliberately simple models: Constant, which
assigns zero energy everywhere and drives deterministic tests, and
StackPairs, a toy model granting a fixed bonus per closing pair. A full
thermodynamic parameter set is an external collaborator and out of
scope here.
*/
package energy

import (
	"github.com/bad-ants-fleet/fuzzyfold/structure"
)

// DefaultTemperature is the default folding temperature in Celsius.
const DefaultTemperature = 37.0

// EnergyModel evaluates partial structures. LoopEnergy returns the
// free energy (in dcal/mol) of a single loop of pt: the loop enclosed
// by the pair opening at index closing, or the exterior loop when
// closing is -1.
type EnergyModel interface {
	// Temperature returns the model temperature in Celsius.
	Temperature() float64
	// MinHairpin returns the minimum number of unpaired positions a
	// closing pair must span.
	MinHairpin() int
	// CanPair reports whether two bases may bind.
	CanPair(a, b byte) bool
	// LoopEnergy returns the energy of one loop in dcal/mol.
	LoopEnergy(seq string, pt structure.PairTable, closing int) int
}

// Constant assigns zero energy to every loop and admits every base
// combination. Every move in a simulation driven by this model has
// a zero energy difference.
type Constant struct {
	Celsius float64
}

// NewConstant returns a Constant model at the default temperature.
func NewConstant() Constant {
	return Constant{Celsius: DefaultTemperature}
}

func (m Constant) Temperature() float64 {
	return m.Celsius
}

func (m Constant) MinHairpin() int {
	return 0
}

func (m Constant) CanPair(a, b byte) bool {
	return true
}

func (m Constant) LoopEnergy(seq string, pt structure.PairTable, closing int) int {
	return 0
}

// StackPairs grants a fixed stabilising bonus for every closing pair,
// making structures with more pairs lower in energy. Admissible pairs
// are the Watson-Crick pairs plus the G-U/G-T wobble.
type StackPairs struct {
	Celsius float64
	// Bonus is subtracted once per loop that is enclosed by a pair,
	// in dcal/mol.
	Bonus int
}

// NewStackPairs returns a StackPairs model with a 1 kcal/mol bonus per
// pair at the given temperature.
func NewStackPairs(celsius float64) StackPairs {
	return StackPairs{Celsius: celsius, Bonus: 100}
}

func (m StackPairs) Temperature() float64 {
	return m.Celsius
}

func (m StackPairs) MinHairpin() int {
	return 3
}

func (m StackPairs) CanPair(a, b byte) bool {
	if a > b {
		a, b = b, a
	}
	switch {
	case a == 'A' && (b == 'T' || b == 'U'):
		return true
	case a == 'C' && b == 'G':
		return true
	case a == 'G' && (b == 'T' || b == 'U'):
		return true
	default:
		return false
	}
}

func (m StackPairs) LoopEnergy(seq string, pt structure.PairTable, closing int) int {
	if closing < 0 {
		return 0
	}
	return -m.Bonus
}
