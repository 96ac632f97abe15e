package scenario

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/roach88/acctree/internal/ledger"
)

// Scenario is one scripted session.
type Scenario struct {
	Name          string               `yaml:"name"`
	Description   string               `yaml:"description"`
	Clock         ClockSpec            `yaml:"clock,omitempty"`
	InterestBasis ledger.InterestBasis `yaml:"interest_basis,omitempty"`
	Steps         []Step               `yaml:"steps"`
	Expect        *Expect              `yaml:"expect,omitempty"`
}

// ClockSpec seeds the deterministic clock.
type ClockSpec struct {
	Start string        `yaml:"start,omitempty"` // RFC 3339
	Step  time.Duration `yaml:"step,omitempty"`
}

// Step is one ledger operation.
type Step struct {
	Op          string `yaml:"op"`
	ID          int64  `yaml:"id,omitempty"`
	To          int64  `yaml:"to,omitempty"`
	Name        string `yaml:"name,omitempty"`
	Amount      string `yaml:"amount,omitempty"`
	Rate        string `yaml:"rate,omitempty"`
	PIN         string `yaml:"pin,omitempty"`
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Expect describes the final ledger state. Unset fields are not checked.
type Expect struct {
	Count    *int             `yaml:"count,omitempty"`
	Total    string           `yaml:"total,omitempty"`
	Order    []int64          `yaml:"order,omitempty"`
	Balances map[int64]string `yaml:"balances,omitempty"`
}

// Operation names.
const (
	OpOpen     = "open"
	OpClose    = "close"
	OpAuth     = "auth"
	OpDeposit  = "deposit"
	OpWithdraw = "withdraw"
	OpTransfer = "transfer"
	OpInterest = "interest"
)

// DefaultStart is the clock origin when a scenario names none.
var DefaultStart = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// Load reads and validates a scenario file. Unknown fields are rejected.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validate(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validate(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.Clock.Start != "" {
		if _, err := time.Parse(time.RFC3339, s.Clock.Start); err != nil {
			return fmt.Errorf("clock.start: %w", err)
		}
	}
	switch s.InterestBasis {
	case "", ledger.BasisPost, ledger.BasisPre:
	default:
		return fmt.Errorf("interest_basis %q: must be %q or %q", s.InterestBasis, ledger.BasisPost, ledger.BasisPre)
	}

	for i, st := range s.Steps {
		if err := validateStep(st); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	if e := s.Expect; e != nil {
		if e.Total != "" {
			if _, err := decimal.NewFromString(e.Total); err != nil {
				return fmt.Errorf("expect.total: %w", err)
			}
		}
		for id, b := range e.Balances {
			if _, err := decimal.NewFromString(b); err != nil {
				return fmt.Errorf("expect.balances[%d]: %w", id, err)
			}
		}
	}
	return nil
}

func validateStep(st Step) error {
	needAmount := false
	switch st.Op {
	case OpOpen:
		if st.Name == "" {
			return fmt.Errorf("open: name is required")
		}
		needAmount = true
	case OpDeposit, OpWithdraw, OpTransfer:
		needAmount = true
	case OpClose, OpAuth:
	case OpInterest:
		if _, err := decimal.NewFromString(st.Rate); err != nil {
			return fmt.Errorf("interest: rate: %w", err)
		}
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
	if needAmount {
		if _, err := decimal.NewFromString(st.Amount); err != nil {
			return fmt.Errorf("%s: amount: %w", st.Op, err)
		}
	}
	return nil
}
