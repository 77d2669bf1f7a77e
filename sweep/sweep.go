package sweep

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Onyekachukwu-Nweke/consensus-systems/consensus"
)

// Status mirrors the ordering service's lifecycle states, applied to a
// sweep run instead of an ordering pipeline.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Workers      int
	BatchSize    int
	BatchTimeout time.Duration
	MaxPending   int
}

// DefaultServiceConfig returns sensible defaults for a small local sweep.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Workers:      4,
		BatchSize:    8,
		BatchTimeout: 2 * time.Second,
		MaxPending:   256,
	}
}

// Service runs a set of ScenarioConfigs across a worker pool, certifying
// each before admission and batching finished reports, adapted from
// OrderingService: scenario submission replaces event submission,
// ScenarioReport batches replace block batches.
type Service struct {
	config    ServiceConfig
	status    Status
	certifier *Certifier
	batcher   *ReportBatcher
	pool      *WorkerPool

	batchChan chan []ScenarioReport

	mu      sync.RWMutex
	running bool

	submitted int64
	certified int64
	rejected  int64
	completed int64
}

// NewService constructs a Service ready to Start.
func NewService(config ServiceConfig) *Service {
	return &Service{
		config:    config,
		status:    StatusIdle,
		certifier: NewCertifier(),
		batcher:   NewReportBatcher(config.BatchSize, config.BatchTimeout),
		pool:      NewWorkerPool("sweep", config.Workers),
		batchChan: make(chan []ScenarioReport, 16),
	}
}

// Start begins consuming worker pool results into report batches. It
// returns an error if the service is already running.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("sweep service already running")
	}
	s.running = true
	s.status = StatusRunning
	s.mu.Unlock()

	go s.collectResults()
	return nil
}

// Stop drains any partial batch and shuts down the worker pool.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.status = StatusStopped
	s.mu.Unlock()

	s.pool.Shutdown()
	if batch := s.batcher.Flush(); batch != nil {
		s.batchChan <- batch
	}
	close(s.batchChan)
}

func (s *Service) collectResults() {
	for result := range s.pool.Results() {
		atomic.AddInt64(&s.completed, 1)
		sr, _ := result.Data.(ScenarioReport)
		if result.Error != nil {
			sr = ScenarioReport{Label: result.JobID, Report: consensus.RunReport{
				Wedged:      true,
				WedgeReason: consensus.WedgeUnknown,
			}}
		}
		if batch := s.batcher.Add(sr); batch != nil {
			s.batchChan <- batch
		}
	}
}

// Submit certifies cfg and, if valid, enqueues it onto the worker pool.
func (s *Service) Submit(cfg ScenarioConfig) error {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()
	if !running {
		return errors.New("sweep service not running")
	}

	atomic.AddInt64(&s.submitted, 1)
	cert := s.certifier.Validate(cfg)
	if !cert.Valid {
		atomic.AddInt64(&s.rejected, 1)
		return fmt.Errorf("scenario %q rejected: %v", cfg.Label, cert.Errors)
	}
	atomic.AddInt64(&s.certified, 1)

	job := NewJob(cfg.Label, cfg, runScenario)
	return s.pool.Submit(job)
}

func runScenario(data interface{}) (interface{}, error) {
	cfg := data.(ScenarioConfig)
	engine, err := consensus.NewEngine(cfg.Opts)
	if err != nil {
		return nil, err
	}
	engine.Propose(cfg.Opts.InitialValue)
	for _, v := range cfg.Opts.ExtraProposals {
		engine.ProposeExtra(v)
	}

	driver := consensus.NewDriver(cfg.Opts.MaxPhase)
	report := driver.Walk(engine)
	return ScenarioReport{Label: cfg.Label, Report: report}, nil
}

// Batches returns the channel of finished report batches.
func (s *Service) Batches() <-chan []ScenarioReport {
	return s.batchChan
}

// BuildGrid expands a num_nodes × faulty_count × network_kind sweep into
// concrete ScenarioConfigs, the domain-stack "scenario driver" sweep
// SPEC_FULL §11 describes. For each (n, f) pair, faulty_ids is the first
// f replica ids after the proposer (id 0), keeping the proposer honest
// as SPEC_FULL §7 requires.
func BuildGrid(nodeCounts, faultCounts []int, modes []consensus.NetworkMode, maxDrops, maxPhase int) []ScenarioConfig {
	var grid []ScenarioConfig
	for _, n := range nodeCounts {
		for _, f := range faultCounts {
			if n < 2*f+1 {
				continue
			}
			faultyIDs := make([]consensus.NodeID, 0, f)
			for id := 1; len(faultyIDs) < f && id < n; id++ {
				faultyIDs = append(faultyIDs, consensus.NodeID(id))
			}
			for _, mode := range modes {
				label := fmt.Sprintf("n=%d/f=%d/%s", n, f, mode)
				grid = append(grid, ScenarioConfig{
					Label: label,
					Opts: consensus.Options{
						N:               n,
						F:               f,
						FaultyIDs:       faultyIDs,
						NetworkMode:     mode,
						MaxDrops:        maxDrops,
						InitialProposer: 0,
						InitialValue:    consensus.ValueV1,
						MaxPhase:        maxPhase,
					},
				})
			}
		}
	}
	return grid
}

// Stats reports cumulative sweep activity.
type Stats struct {
	Status    string
	Submitted int64
	Certified int64
	Rejected  int64
	Completed int64
}

// GetStats returns a snapshot of cumulative counters.
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	status := s.status
	s.mu.RUnlock()
	return Stats{
		Status:    status.String(),
		Submitted: atomic.LoadInt64(&s.submitted),
		Certified: atomic.LoadInt64(&s.certified),
		Rejected:  atomic.LoadInt64(&s.rejected),
		Completed: atomic.LoadInt64(&s.completed),
	}
}
