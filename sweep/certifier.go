package sweep

import (
	"sync"
	"time"

	"github.com/Onyekachukwu-Nweke/consensus-systems/consensus"
)

// ScenarioConfig is a single sweep point: one consensus.Options tuple to
// run to completion, plus a human-readable label for reporting.
type ScenarioConfig struct {
	Label string
	Opts  consensus.Options
}

// Certification is the outcome of validating a ScenarioConfig before it
// is admitted to the worker pool, adapted from the ordering service's
// event certification record.
type Certification struct {
	Label  string
	Valid  bool
	Errors []string
	CertAt time.Time
}

// ValidationRule is a function that validates a scenario configuration
// beyond consensus.Options.Validate's own structural checks.
type ValidationRule func(ScenarioConfig) error

// Certifier validates sweep scenarios before they are submitted to the
// worker pool, adapted from EventCertifier: the required-fields check
// becomes consensus.Options.Validate, and custom rules layer sweep-level
// policy on top (e.g. rejecting a max_phase too small to ever terminate).
type Certifier struct {
	rules []ValidationRule
	certs map[string]*Certification
	mu    sync.RWMutex
}

// NewCertifier returns a Certifier with no custom rules registered.
func NewCertifier() *Certifier {
	return &Certifier{certs: make(map[string]*Certification)}
}

// AddRule registers an additional validation rule.
func (c *Certifier) AddRule(rule ValidationRule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = append(c.rules, rule)
}

// Validate checks cfg's structural validity and every registered rule,
// recording and returning the certification.
func (c *Certifier) Validate(cfg ScenarioConfig) *Certification {
	c.mu.Lock()
	defer c.mu.Unlock()

	cert := &Certification{Label: cfg.Label, Valid: true, CertAt: time.Now()}

	if err := cfg.Opts.Validate(); err != nil {
		cert.Valid = false
		cert.Errors = append(cert.Errors, err.Error())
	}
	if cfg.Opts.MaxPhase <= 0 {
		cert.Valid = false
		cert.Errors = append(cert.Errors, "max_phase must be positive")
	}

	for _, rule := range c.rules {
		if err := rule(cfg); err != nil {
			cert.Valid = false
			cert.Errors = append(cert.Errors, err.Error())
		}
	}

	c.certs[cfg.Label] = cert
	return cert
}

// Certification retrieves a previously recorded certification by label.
func (c *Certifier) Certification(label string) *Certification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.certs[label]
}
