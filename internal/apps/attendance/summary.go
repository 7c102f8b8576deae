package attendance

import "math"

// Summary tallies attendance records. Late counts as attended; excused
// absences are left out of the rate.
type Summary struct {
	Present int     `json:"present"`
	Late    int     `json:"late"`
	Absent  int     `json:"absent"`
	Excused int     `json:"excused"`
	Total   int     `json:"total"`
	Rate    float64 `json:"rate"`
}

// Summarize builds a Summary from per-status counts. Rate is a percentage
// rounded to two decimals, and 0 when nothing countable was recorded.
func Summarize(counts map[string]int) Summary {
	s := Summary{
		Present: counts[StatusPresent],
		Late:    counts[StatusLate],
		Absent:  counts[StatusAbsent],
		Excused: counts[StatusExcused],
	}
	s.Total = s.Present + s.Late + s.Absent + s.Excused
	if countable := s.Present + s.Late + s.Absent; countable > 0 {
		s.Rate = math.Round(float64(s.Present+s.Late)/float64(countable)*10000) / 100
	}
	return s
}
