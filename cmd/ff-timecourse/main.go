/*
ff-timecourse runs stochastic folding simulations of a single sequence
and reports macrostate occupancies over a time grid.

The input is FASTA-like: an optional ">" header line, the sequence on
one line, and the initial dot-bracket structure on the next. Reading
from a file or from stdin ("-"):

	ff-timecourse --num-sims 100 --t-end 1.0 input.fa
	cat input.fa | ff-timecourse --macrostates native.yaml

Trajectories are independent and run on parallel workers; their
timelines merge by bin-wise summation.
*/
package main

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/urfave/cli/v2"
	"lukechampine.com/blake3"

	"github.com/bad-ants-fleet/fuzzyfold/energy"
	"github.com/bad-ants-fleet/fuzzyfold/kinetics"
	"github.com/bad-ants-fleet/fuzzyfold/structure"
)

func main() {
	app := &cli.App{
		Name:      "ff-timecourse",
		Usage:     "stochastic simulation algorithm for nucleic-acid folding",
		ArgsUsage: "[INPUT]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "num-sims",
				Aliases: []string{"n"},
				Value:   1,
				Usage:   "number of independent trajectories",
			},
			&cli.StringSliceFlag{
				Name:  "macrostates",
				Usage: "YAML macrostate definition `FILE` (repeatable)",
			},
			&cli.Float64Flag{
				Name:  "k0",
				Value: 1e6,
				Usage: "Metropolis rate constant (must be > 0)",
			},
			&cli.Float64Flag{
				Name:  "t-ext",
				Value: 1e-5,
				Usage: "last time point of the linear scale",
			},
			&cli.Float64Flag{
				Name:  "t-end",
				Value: 1.0,
				Usage: "simulation stop time",
			},
			&cli.IntFlag{
				Name:  "t-lin",
				Value: 1,
				Usage: "number of time points on the linear scale [0..t-ext]",
			},
			&cli.IntFlag{
				Name:  "t-log",
				Value: 20,
				Usage: "number of time points on the logarithmic scale [t-ext..t-end]",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Value: 0,
				Usage: "base PRNG seed (0 picks one from the clock)",
			},
		},
		Action: timecourse,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func timecourse(c *cli.Context) error {
	params := kinetics.TimelineParameters{
		TExt: c.Float64("t-ext"),
		TEnd: c.Float64("t-end"),
		TLin: c.Int("t-lin"),
		TLog: c.Int("t-log"),
	}
	if err := params.Validate(); err != nil {
		return err
	}

	emodel := energy.NewStackPairs(energy.DefaultTemperature)
	rmodel, err := kinetics.NewMetropolis(emodel.Temperature(), c.Float64("k0"))
	if err != nil {
		return err
	}

	header, sequence, dotBracket, err := readFastaLikeInput(c.Args().First())
	if err != nil {
		return err
	}
	pairings, err := structure.FromDotBracket(dotBracket)
	if err != nil {
		return err
	}
	if len(sequence) != pairings.Len() {
		return fmt.Errorf("sequence length %d does not match structure length %d", len(sequence), pairings.Len())
	}

	if header != "" {
		fmt.Println(header)
	}
	digest := blake3.Sum256([]byte(sequence))
	fmt.Printf("%s\n%s\nsequence id %x\n", sequence, dotBracket, digest[:8])

	registry, err := kinetics.LoadMacrostates(c.StringSlice("macrostates"))
	if err != nil {
		return err
	}
	for i := 0; i < registry.Len(); i++ {
		if e, ok := registry.Energy(i); ok {
			fmt.Printf(" - %s %6.2f\n", registry.Name(i), e)
		} else {
			fmt.Printf(" - %s\n", registry.Name(i))
		}
	}

	times := params.OutputTimes()
	numSims := c.Int("num-sims")
	seed := c.Int64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// One timeline per worker; the registry is shared read-only.
	timelines := make([]*kinetics.Timeline, numSims)
	var wg sync.WaitGroup
	for w := 0; w < numSims; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			timeline := kinetics.NewTimeline(times, registry)

			ls, err := kinetics.LoopStructureFrom(sequence, pairings, emodel)
			if err != nil {
				panic(err)
			}
			simulator := kinetics.NewLoopStructureSSA(ls, rmodel)
			rng := rand.New(rand.NewSource(seed + int64(w)))

			tIdx := 0
			simulator.Simulate(rng, params.TEnd, func(t, tinc, flux float64, state *kinetics.LoopStructure) {
				for tIdx < len(times) && t+tinc >= times[tIdx] {
					timeline.AssignStructure(tIdx, state.String())
					tIdx++
				}
			})
			timelines[w] = timeline
		}(w)
	}
	wg.Wait()

	master := kinetics.NewTimeline(times, registry)
	for _, timeline := range timelines {
		if err := master.Merge(timeline); err != nil {
			return err
		}
	}

	fmt.Printf("Occupancy after %d simulations:\n%s", numSims, master)
	return nil
}

// readFastaLikeInput reads an optional ">" header, a sequence line and
// a dot-bracket line from a file, or from stdin when the path is empty
// or "-".
func readFastaLikeInput(path string) (header, sequence, dotBracket string, err error) {
	var reader io.Reader
	if path == "" || path == "-" {
		reader = os.Stdin
	} else {
		file, ferr := os.Open(path)
		if ferr != nil {
			return "", "", "", ferr
		}
		defer file.Close()
		reader = file
	}

	var lines []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") && header == "" && len(lines) == 0 {
			header = line
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", "", "", err
	}
	if len(lines) < 2 {
		return "", "", "", fmt.Errorf("input requires a sequence line and a structure line")
	}
	return header, strings.ToUpper(lines[0]), lines[1], nil
}
