package grading

import (
	"math"

	"github.com/google/uuid"
)

const (
	RemarkPassed  = "PASSED"
	RemarkFailed  = "FAILED"
	RemarkNoGrade = "NO GRADE"

	// FailingGrade is the equivalent of any percentage below passing.
	FailingGrade = 5.00
)

// equivalents maps the lower bound of a percentage band to its grade.
// Bands below 76 fall to the passing grade check.
var equivalents = []struct {
	min   float64
	grade float64
}{
	{97, 1.00},
	{94, 1.25},
	{91, 1.50},
	{88, 1.75},
	{85, 2.00},
	{82, 2.25},
	{79, 2.50},
	{76, 2.75},
}

// Result is a computed grade.
type Result struct {
	Percentage float64            `json:"percentage"`
	Grade      float64            `json:"grade"`
	Remarks    string             `json:"remarks"`
	ByKind     map[string]float64 `json:"by_kind,omitempty"`
	Midterm    *float64           `json:"midterm,omitempty"`
	Final      *float64           `json:"final,omitempty"`
}

// Equivalent converts a percentage to the 1.00 to 5.00 scale.
func Equivalent(pct, passing float64) float64 {
	if pct < passing {
		return FailingGrade
	}
	for _, e := range equivalents {
		if pct >= e.min {
			return e.grade
		}
	}
	return 3.00
}

// Compute grades one student. scores holds the student's score per
// assessment; a missing score counts as zero. weights holds the percent
// share per kind; kinds without a weight are ignored unless no weights are
// configured, in which case every kind present counts equally.
func Compute(assessments []Assessment, scores map[uuid.UUID]float64, weights map[string]float64, passing float64) Result {
	if len(assessments) == 0 {
		return Result{Remarks: RemarkNoGrade}
	}

	byKind := kindPercentages(assessments, scores)
	pct, ok := weighted(byKind, weights)
	if !ok {
		return Result{Remarks: RemarkNoGrade, ByKind: byKind}
	}

	r := Result{Percentage: pct, ByKind: byKind}
	r.Grade = Equivalent(pct, passing)
	r.Remarks = RemarkPassed
	if r.Grade == FailingGrade {
		r.Remarks = RemarkFailed
	}

	for _, period := range []string{PeriodMidterm, PeriodFinal} {
		var subset []Assessment
		for _, a := range assessments {
			if a.Period == period {
				subset = append(subset, a)
			}
		}
		if len(subset) == 0 {
			continue
		}
		if p, ok := weighted(kindPercentages(subset, scores), weights); ok {
			p := p
			if period == PeriodMidterm {
				r.Midterm = &p
			} else {
				r.Final = &p
			}
		}
	}
	return r
}

func kindPercentages(assessments []Assessment, scores map[uuid.UUID]float64) map[string]float64 {
	earned := map[string]float64{}
	possible := map[string]float64{}
	for _, a := range assessments {
		if a.MaxScore <= 0 {
			continue
		}
		earned[a.Kind] += math.Min(scores[a.ID], a.MaxScore)
		possible[a.Kind] += a.MaxScore
	}
	out := make(map[string]float64, len(possible))
	for kind, max := range possible {
		out[kind] = round2(earned[kind] / max * 100)
	}
	return out
}

// weighted combines kind percentages, renormalizing over the kinds present.
func weighted(byKind map[string]float64, weights map[string]float64) (float64, bool) {
	var sum, total float64
	for kind, pct := range byKind {
		w := 1.0
		if len(weights) > 0 {
			w = weights[kind]
		}
		if w <= 0 {
			continue
		}
		sum += pct * w
		total += w
	}
	if total == 0 {
		return 0, false
	}
	return round2(sum / total), true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
