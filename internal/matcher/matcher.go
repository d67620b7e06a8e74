// Package matcher finds the enrolled signature nearest to a query.
package matcher

import (
	"fmt"
	"math"

	"github.com/dmitrijs2005/facegate/internal/common"
	"github.com/dmitrijs2005/facegate/internal/features"
)

// DefaultThreshold is the acceptance bound in normalized signature units.
// It is empirical; changing it silently changes accept/reject behaviour.
const DefaultThreshold = 11.0

var ErrDimensionMismatch = fmt.Errorf("%w: signature dimension mismatch", common.ErrStoreFault)

// Candidate is one enrolled identity considered by the matcher.
type Candidate struct {
	ID        int64
	Name      string
	Signature features.Signature
}

// Match is the candidate nearest to a query. Accepted is set when Distance
// is strictly below the matcher threshold.
type Match struct {
	Candidate
	Distance float64
	Accepted bool
}

type Matcher struct {
	Threshold float64
}

func New(threshold float64) *Matcher {
	return &Matcher{Threshold: threshold}
}

// Distance is the Euclidean distance between two signatures of equal length.
func Distance(a, b features.Signature) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Nearest scans every candidate and returns the closest one regardless of
// the threshold. Equal distances resolve to the lower ID so the result does
// not depend on candidate order. ok is false when there are no candidates.
func Nearest(query features.Signature, candidates []Candidate) (best Match, ok bool, err error) {
	for _, c := range candidates {
		d, err := Distance(query, c.Signature)
		if err != nil {
			return Match{}, false, fmt.Errorf("candidate %d: %w", c.ID, err)
		}
		if !ok || d < best.Distance || (d == best.Distance && c.ID < best.ID) {
			best = Match{Candidate: c, Distance: d}
			ok = true
		}
	}
	return best, ok, nil
}

// Accepts reports whether distance is strictly below the threshold.
func (m *Matcher) Accepts(distance float64) bool {
	return distance < m.Threshold
}

// FindNearest returns the nearest candidate with its acceptance decision,
// or nil when there are no candidates. A nil or unaccepted result is "no
// match".
func (m *Matcher) FindNearest(query features.Signature, candidates []Candidate) (*Match, error) {
	best, ok, err := Nearest(query, candidates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	best.Accepted = m.Accepts(best.Distance)
	return &best, nil
}
