// Command consensus-sweep runs the named scenario table from the
// protocol's design notes and prints a terminal summary per scenario,
// structure adapted from cmd/hierachain/main.go's minimal shape plus
// flag parsing for an optional randomized grid sweep.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Onyekachukwu-Nweke/consensus-systems/consensus"
	"github.com/Onyekachukwu-Nweke/consensus-systems/sweep"
)

const (
	name    = "consensus-sweep"
	version = "0.1.0"
)

func main() {
	grid := flag.Bool("grid", false, "run a BuildGrid sweep across node/fault counts instead of the named scenario table")
	flag.Parse()

	fmt.Printf("%s v%s\n", name, version)

	scenarios := namedScenarios()
	if *grid {
		scenarios = sweep.BuildGrid(
			[]int{4, 5, 7},
			[]int{1, 2},
			[]consensus.NetworkMode{consensus.ReliableOrdered, consensus.LossyUnordered},
			1, 20,
		)
	}

	exitCode := 0
	for _, cfg := range scenarios {
		engine, err := consensus.NewEngine(cfg.Opts)
		if err != nil {
			fmt.Printf("%-40s REJECTED  %v\n", cfg.Label, err)
			exitCode = 1
			continue
		}
		engine.Propose(cfg.Opts.InitialValue)
		for _, v := range cfg.Opts.ExtraProposals {
			engine.ProposeExtra(v)
		}

		report := consensus.NewDriver(cfg.Opts.MaxPhase).Run(engine)
		printReport(cfg.Label, report)
		if len(report.Violations) > 0 {
			exitCode = 1
		}
	}

	os.Exit(exitCode)
}

func printReport(label string, r consensus.RunReport) {
	status := "wedged"
	if r.Decided {
		status = "decided"
	}
	if len(r.Violations) > 0 {
		status = "VIOLATION"
	}
	fmt.Printf("%-40s %-10s states=%-6d depth=%-4d", label, status, r.StatesVisited, r.MaxDepthReached)
	if r.Wedged {
		fmt.Printf(" reason=%s", r.WedgeReason)
	}
	for _, v := range r.Violations {
		fmt.Printf(" violation=%s", v.Invariant)
	}
	fmt.Println()
}

// namedScenarios returns the S1-S6 table, grounded on SPEC_FULL §8's
// testable-properties scenarios.
func namedScenarios() []sweep.ScenarioConfig {
	return []sweep.ScenarioConfig{
		{Label: "S1 happy path no faults", Opts: consensus.Options{
			N: 5, F: 2, NetworkMode: consensus.ReliableOrdered,
			InitialProposer: 0, InitialValue: consensus.ValueV1, MaxPhase: 20,
		}},
		{Label: "S2 one silent byzantine quorum=n", Opts: consensus.Options{
			N: 5, F: 2, FaultyIDs: []consensus.NodeID{4}, NetworkMode: consensus.ReliableOrdered,
			InitialProposer: 0, InitialValue: consensus.ValueV1, MaxPhase: 20,
		}},
		{Label: "S3 smaller quorum sweet spot", Opts: consensus.Options{
			N: 4, F: 1, FaultyIDs: []consensus.NodeID{3}, NetworkMode: consensus.ReliableOrdered,
			InitialProposer: 0, InitialValue: consensus.ValueV1, MaxPhase: 20,
		}},
		{Label: "S4 non-zero proposer", Opts: consensus.Options{
			N: 4, F: 1, NetworkMode: consensus.ReliableOrdered,
			InitialProposer: 2, InitialValue: consensus.ValueV2, MaxPhase: 20,
		}},
		{Label: "S5 lossy unordered one drop", Opts: consensus.Options{
			N: 4, F: 1, NetworkMode: consensus.LossyUnordered, MaxDrops: 1,
			InitialProposer: 0, InitialValue: consensus.ValueV1, MaxPhase: 20,
		}},
		{Label: "S6 lossy with faulty quorum=n", Opts: consensus.Options{
			N: 5, F: 2, FaultyIDs: []consensus.NodeID{4}, NetworkMode: consensus.LossyUnordered, MaxDrops: 1,
			InitialProposer: 0, InitialValue: consensus.ValueV1, MaxPhase: 20,
		}},
	}
}
