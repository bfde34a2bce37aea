package stress

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/wealthsim/wealthsim/internal/domain"
)

func TestNewCatalog_Builtins(t *testing.T) {
	catalog := NewCatalog()
	for _, name := range []string{"severe_downturn", "sharp_crash", "stagflation", "lost_decade"} {
		if _, ok := catalog.Get(name); !ok {
			t.Errorf("Expected built-in scenario %q", name)
		}
	}

	names := catalog.Names()
	if len(names) != 4 {
		t.Fatalf("Expected 4 built-in scenarios, got %d: %v", len(names), names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("Expected sorted names, got %v", names)
		}
	}
}

func TestValidate_Rejections(t *testing.T) {
	valid := domain.ShockScenario{
		Name:           "probe",
		Magnitude:      decimal.NewFromFloat(-0.30),
		DurationMonths: 6,
		Recovery:       domain.RecoveryGradual,
		RecoveryMonths: 12,
	}

	tests := []struct {
		name   string
		mutate func(s *domain.ShockScenario)
		field  string
	}{
		{"empty name", func(s *domain.ShockScenario) { s.Name = "" }, "name"},
		{"positive magnitude", func(s *domain.ShockScenario) { s.Magnitude = decimal.NewFromFloat(0.10) }, "magnitude"},
		{"total wipeout", func(s *domain.ShockScenario) { s.Magnitude = decimal.NewFromInt(-1) }, "magnitude"},
		{"zero duration", func(s *domain.ShockScenario) { s.DurationMonths = 0 }, "durationMonths"},
		{"gradual without months", func(s *domain.ShockScenario) { s.RecoveryMonths = 0 }, "recoveryMonths"},
		{"unknown recovery", func(s *domain.ShockScenario) { s.Recovery = "sideways" }, "recovery"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			tc.mutate(&s)
			err := Validate(&s)
			if err == nil {
				t.Fatal("Expected validation to fail")
			}
			if !domain.IsKind(err, domain.ErrValidation) {
				t.Fatalf("Expected VALIDATION_ERROR, got %v", err)
			}
			var derr *domain.Error
			if !errors.As(err, &derr) || derr.Field != tc.field {
				t.Errorf("Expected field %q, got %v", tc.field, err)
			}
		})
	}
}

func TestCatalog_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	doc := `scenarios:
  - name: custom_dip
    description: Mild correction for testing
    magnitude: -0.15
    durationMonths: 4
    recovery: immediate
  - name: sharp_crash
    description: Overridden built-in
    magnitude: -0.20
    durationMonths: 3
    recovery: immediate
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	catalog := NewCatalog()
	if err := catalog.LoadFile(path); err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}

	added, ok := catalog.Get("custom_dip")
	if !ok {
		t.Fatal("Expected loaded scenario custom_dip")
	}
	if added.DurationMonths != 4 {
		t.Errorf("Expected duration 4, got %d", added.DurationMonths)
	}

	overridden, _ := catalog.Get("sharp_crash")
	if !overridden.Magnitude.Equal(decimal.NewFromFloat(-0.20)) {
		t.Errorf("Expected the file to override the built-in, got magnitude %s", overridden.Magnitude)
	}
}

func TestCatalog_LoadFileRejectsBadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	doc := `scenarios:
  - name: upward_shock
    magnitude: 0.25
    durationMonths: 2
    recovery: immediate
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewCatalog().LoadFile(path); err == nil {
		t.Fatal("Expected LoadFile to reject a positive-magnitude scenario")
	}
}
