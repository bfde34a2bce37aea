// Package stress overlays market-shock scenarios on deterministic
// projections and scores the plan's resilience. Scenarios are plain data so
// new ones can be added without touching simulation code.
package stress

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/wealthsim/wealthsim/internal/domain"
)

// builtinScenarios are the named historical shock shapes shipped with the
// engine. Magnitudes and durations approximate the referenced episodes.
var builtinScenarios = []domain.ShockScenario{
	{
		Name:           "severe_downturn",
		Description:    "Severe multi-year downturn: deep drawdown with a slow climb back",
		Magnitude:      decimal.NewFromFloat(-0.50),
		DurationMonths: 17,
		Recovery:       domain.RecoveryGradual,
		RecoveryMonths: 48,
	},
	{
		Name:           "sharp_crash",
		Description:    "Short sharp crash: single-quarter shock, fast rebound",
		Magnitude:      decimal.NewFromFloat(-0.34),
		DurationMonths: 2,
		Recovery:       domain.RecoveryImmediate,
	},
	{
		Name:           "stagflation",
		Description:    "Stagflationary period: prolonged decline, long flat stretch before recovery",
		Magnitude:      decimal.NewFromFloat(-0.40),
		DurationMonths: 21,
		Recovery:       domain.RecoveryDelayed,
		RecoveryMonths: 30,
	},
	{
		Name:           "lost_decade",
		Description:    "Partial recovery: markets return at half pace for years after the drop",
		Magnitude:      decimal.NewFromFloat(-0.45),
		DurationMonths: 24,
		Recovery:       domain.RecoveryPartial,
		RecoveryMonths: 72,
	},
}

// Catalog holds named scenarios. Built-ins are always present; files loaded
// with LoadFile may add to or override them.
type Catalog struct {
	mu        sync.RWMutex
	scenarios map[string]domain.ShockScenario
}

// NewCatalog returns a catalog seeded with the built-in scenarios.
func NewCatalog() *Catalog {
	c := &Catalog{scenarios: make(map[string]domain.ShockScenario, len(builtinScenarios))}
	for _, s := range builtinScenarios {
		c.scenarios[s.Name] = s
	}
	return c
}

// Get looks up a scenario by name.
func (c *Catalog) Get(name string) (domain.ShockScenario, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.scenarios[name]
	return s, ok
}

// Names returns the catalog's scenario names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.scenarios))
	for name := range c.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Add validates and registers a scenario, overriding any same-named entry.
func (c *Catalog) Add(s domain.ShockScenario) error {
	if err := Validate(&s); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scenarios[s.Name] = s
	return nil
}

// scenarioFile is the YAML document shape for custom scenario files.
type scenarioFile struct {
	Scenarios []domain.ShockScenario `yaml:"scenarios"`
}

// LoadFile merges scenarios from a YAML file into the catalog.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}
	var file scenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse scenario file %s: %w", path, err)
	}
	for _, s := range file.Scenarios {
		if err := c.Add(s); err != nil {
			return fmt.Errorf("scenario file %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks a scenario's parameters.
func Validate(s *domain.ShockScenario) error {
	if s.Name == "" {
		return domain.NewValidationError("name", "scenario name must not be empty")
	}
	if s.Magnitude.LessThanOrEqual(decimal.NewFromInt(-1)) || s.Magnitude.GreaterThanOrEqual(decimal.Zero) {
		return domain.NewValidationError("magnitude", "shock magnitude must be in (-1, 0), got %s", s.Magnitude)
	}
	if s.DurationMonths <= 0 {
		return domain.NewValidationError("durationMonths", "shock duration must be positive, got %d", s.DurationMonths)
	}
	switch s.Recovery {
	case domain.RecoveryImmediate:
	case domain.RecoveryGradual, domain.RecoveryDelayed, domain.RecoveryPartial:
		if s.RecoveryMonths <= 0 {
			return domain.NewValidationError("recoveryMonths", "recovery months must be positive for %s recovery", s.Recovery)
		}
	default:
		return domain.NewValidationError("recovery", "unknown recovery pattern %q", s.Recovery)
	}
	return nil
}
