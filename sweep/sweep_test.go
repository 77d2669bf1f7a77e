package sweep

import (
	"testing"
	"time"

	"github.com/Onyekachukwu-Nweke/consensus-systems/consensus"
)

func TestBuildGridSkipsInfeasibleCombinations(t *testing.T) {
	grid := BuildGrid([]int{4}, []int{1, 2}, []consensus.NetworkMode{consensus.ReliableOrdered}, 0, 32)
	// n=4,f=2 needs quorum 5 > n=4: must be skipped.
	for _, cfg := range grid {
		if cfg.Opts.F == 2 {
			t.Fatalf("expected infeasible n=4/f=2 to be skipped, got %+v", cfg)
		}
	}
	if len(grid) != 1 {
		t.Fatalf("expected exactly 1 feasible scenario, got %d", len(grid))
	}
}

func TestBuildGridKeepsProposerHonest(t *testing.T) {
	grid := BuildGrid([]int{5}, []int{2}, []consensus.NetworkMode{consensus.ReliableOrdered}, 0, 32)
	if len(grid) != 1 {
		t.Fatalf("expected 1 scenario, got %d", len(grid))
	}
	for _, id := range grid[0].Opts.FaultyIDs {
		if id == grid[0].Opts.InitialProposer {
			t.Fatalf("proposer must not be in faulty_ids: %+v", grid[0].Opts)
		}
	}
}

func TestServiceSubmitAndCollectBatch(t *testing.T) {
	svc := NewService(ServiceConfig{Workers: 2, BatchSize: 1, BatchTimeout: time.Second, MaxPending: 16})
	if err := svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Stop()

	cfg := ScenarioConfig{
		Label: "happy-path",
		Opts: consensus.Options{
			N: 4, F: 1, NetworkMode: consensus.ReliableOrdered,
			InitialProposer: 0, InitialValue: consensus.ValueV1, MaxPhase: 32,
		},
	}
	if err := svc.Submit(cfg); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case batch := <-svc.Batches():
		if len(batch) != 1 {
			t.Fatalf("expected batch of 1, got %d", len(batch))
		}
		if !batch[0].Report.Decided {
			t.Fatalf("expected scenario to decide, got %+v", batch[0].Report)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for batch")
	}
}

func TestServiceRejectsInvalidScenario(t *testing.T) {
	svc := NewService(ServiceConfig{Workers: 1, BatchSize: 1, BatchTimeout: time.Second})
	if err := svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Stop()

	cfg := ScenarioConfig{
		Label: "bad",
		Opts:  consensus.Options{N: 2, F: 1, InitialValue: consensus.ValueV1, MaxPhase: 8},
	}
	if err := svc.Submit(cfg); err == nil {
		t.Fatal("expected rejection for n < 2f+1")
	}
	stats := svc.GetStats()
	if stats.Rejected != 1 {
		t.Fatalf("expected 1 rejected, got %d", stats.Rejected)
	}
}
