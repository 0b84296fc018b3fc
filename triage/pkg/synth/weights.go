// Package synth generates synthetic security events for demos and load
// testing.
package synth

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/telhawk-systems/telhawk-soc/triage/internal/models"
)

// Weight is the relative likelihood of one severity.
type Weight struct {
	Severity models.Severity
	Weight   int
}

// Table picks severities according to cumulative weights.
type Table struct {
	severities []models.Severity
	cumulative []int
}

// NewTable builds a table. Weights must be positive.
func NewTable(weights ...Weight) (*Table, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("weight table is empty")
	}
	t := &Table{
		severities: make([]models.Severity, 0, len(weights)),
		cumulative: make([]int, 0, len(weights)),
	}
	total := 0
	for _, w := range weights {
		if w.Weight <= 0 {
			return nil, fmt.Errorf("weight for %s must be positive, got %d", w.Severity, w.Weight)
		}
		total += w.Weight
		t.severities = append(t.severities, w.Severity)
		t.cumulative = append(t.cumulative, total)
	}
	return t, nil
}

// MustTable is NewTable for package-level presets.
func MustTable(weights ...Weight) *Table {
	t, err := NewTable(weights...)
	if err != nil {
		panic(err)
	}
	return t
}

// Total is the sum of all weights.
func (t *Table) Total() int {
	return t.cumulative[len(t.cumulative)-1]
}

// At maps n in [0, Total) onto a severity.
func (t *Table) At(n int) models.Severity {
	i := sort.SearchInts(t.cumulative, n+1)
	if i >= len(t.severities) {
		i = len(t.severities) - 1
	}
	return t.severities[i]
}

// Pick draws a severity.
func (t *Table) Pick(r *rand.Rand) models.Severity {
	return t.At(r.Intn(t.Total()))
}

var (
	// InProcessWeights drives the background feed.
	InProcessWeights = MustTable(
		Weight{models.SeverityCritical, 10},
		Weight{models.SeverityHigh, 20},
		Weight{models.SeverityMedium, 40},
		Weight{models.SeverityLow, 30},
	)

	// DriverWeights drives the out-of-process event driver.
	DriverWeights = MustTable(
		Weight{models.SeverityLow, 32},
		Weight{models.SeverityMedium, 40},
		Weight{models.SeverityHigh, 20},
		Weight{models.SeverityCritical, 8},
	)
)
