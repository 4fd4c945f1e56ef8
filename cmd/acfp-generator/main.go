/*
acfp-generator enumerates addressable conformational folding paths by
structure length: it counts the nested structures per length, grows
every valid path one position at a time, and reports how many paths
survive together with their linear-extension counts.

A handful of showcase paths are sampled per length, weighted by their
number of linear extensions (paths with more admissible folding orders
are the more designable ones).
*/
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	weightedRand "github.com/mroth/weightedrand"
	"github.com/urfave/cli/v2"

	"github.com/bad-ants-fleet/fuzzyfold/design"
	"github.com/bad-ants-fleet/fuzzyfold/structure"
)

func main() {
	app := &cli.App{
		Name:  "acfp-generator",
		Usage: "enumerate valid folding paths over nested structures",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "max-length",
				Aliases: []string{"l"},
				Value:   8,
				Usage:   "largest structure length to enumerate",
			},
			&cli.IntFlag{
				Name:  "showcase",
				Value: 3,
				Usage: "number of example paths sampled per length",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Value: 0,
				Usage: "PRNG seed for showcase sampling (0 picks one from the clock)",
			},
		},
		Action: generate,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func displayAcfp(acfp *design.Acfp) string {
	parts := make([]string, 0, acfp.Len())
	for _, pt := range acfp.Path() {
		parts = append(parts, pt.String())
	}
	return strings.Join(parts, " ")
}

func generate(c *cli.Context) error {
	maxLength := c.Int("max-length")
	if maxLength < 1 {
		return fmt.Errorf("max-length must be at least 1, got %d", maxLength)
	}
	seed := c.Int64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	counts := design.CountStructures(maxLength)
	for n := 1; n <= maxLength; n++ {
		fmt.Printf("Length %2d: %d structures.\n", n, counts[n-1])
	}
	fmt.Println("--")

	product := 1
	for n := 1; n <= maxLength; n++ {
		product *= counts[n-1]
		fmt.Printf("Length %2d: %d total paths.\n", n, product)
	}
	fmt.Println("--")

	root, err := design.AcfpFromString(".")
	if err != nil {
		return err
	}
	acfps := []*design.Acfp{root}

	for length := 2; length <= maxLength; length++ {
		structSet := design.GenerateStructures(length)

		var next []*design.Acfp
		var choices []weightedRand.Choice
		linExt := 0

		for _, acfp := range acfps {
			for _, db := range structSet {
				pt, err := structure.FromDotBracket(db)
				if err != nil {
					return err
				}
				candidate := acfp.Clone()
				candidate.ExtendByOne(pt)
				po, ok := candidate.Validate()
				if !ok {
					continue
				}
				orders := len(po.AllTotalOrders())
				next = append(next, candidate)
				linExt += orders
				if orders > 0 {
					choices = append(choices, weightedRand.Choice{Item: candidate, Weight: uint(orders)})
				}
			}
		}
		fmt.Printf("Length %2d: %d valid paths, %d linear extensions.\n", length, len(next), linExt)

		if showcase := c.Int("showcase"); showcase > 0 && len(choices) > 0 {
			chooser, err := weightedRand.NewChooser(choices...)
			if err != nil {
				return fmt.Errorf("weightedRand.NewChooser() error: %w", err)
			}
			for s := 0; s < showcase; s++ {
				sample := chooser.PickSource(rng).(*design.Acfp)
				fmt.Printf("  e.g. %q\n", displayAcfp(sample))
			}
		}
		acfps = next
	}
	fmt.Println("--")

	return nil
}
