package kinetics

import (
	"fmt"
	"math"
)

// TimelineParameters describe the output time grid of a simulation:
// tLin evenly spaced points up to tExt, followed by tLog-1
// geometrically spaced points towards tEnd, and tEnd itself.
type TimelineParameters struct {
	TExt float64 // last time point of the linear scale
	TEnd float64 // simulation stop time
	TLin int     // number of points on the linear scale
	TLog int     // number of points on the logarithmic scale
}

// Validate checks that the parameters describe a usable grid.
func (p TimelineParameters) Validate() error {
	if p.TEnd <= p.TExt {
		return fmt.Errorf("t-end (%g) must be greater than t-ext (%g)", p.TEnd, p.TExt)
	}
	if p.TLin == 0 && p.TLog > 1 {
		return fmt.Errorf("t-lin must be > 0 if t-log > 1 (got t-lin=%d, t-log=%d)", p.TLin, p.TLog)
	}
	return nil
}

// OutputTimes materialises the grid: [0, tExt/tLin, ..., tExt]
// followed by tLog-1 points interpolated in log-space up to tEnd, and
// the final tEnd.
func (p TimelineParameters) OutputTimes() []float64 {
	times := []float64{0}

	start := times[len(times)-1]
	step := p.TExt / float64(p.TLin)
	for i := 1; i <= p.TLin; i++ {
		times = append(times, start+float64(i)*step)
	}

	start = times[len(times)-1]
	logStart := math.Log(start)
	logEnd := math.Log(p.TEnd)
	for i := 1; i < p.TLog; i++ {
		frac := float64(i) / float64(p.TLog)
		times = append(times, math.Exp(logStart+frac*(logEnd-logStart)))
	}
	times = append(times, p.TEnd)

	return times
}
