package checker

import (
	"time"

	"github.com/dbsmedya/gounveil/internal/types"
)

// Report summarises a check pass.
type Report struct {
	Results     []types.CheckedURLEntry `json:"results"`
	OK          int                     `json:"ok"`
	Failed      int                     `json:"failed"`
	SuccessRate float64                 `json:"success_rate"` // percent
	Duration    time.Duration           `json:"duration"`
}

// NewReport derives counts and the success rate from results.
func NewReport(results []types.CheckedURLEntry, duration time.Duration) *Report {
	r := &Report{Results: results, Duration: duration}
	for _, res := range results {
		if res.Status.OK() {
			r.OK++
		} else {
			r.Failed++
		}
	}
	if len(results) > 0 {
		r.SuccessRate = float64(r.OK) / float64(len(results)) * 100
	}
	return r
}

// Total returns the number of probed URLs.
func (r *Report) Total() int {
	return len(r.Results)
}

// Failures returns the results that did not come back OK, in order.
func (r *Report) Failures() []types.CheckedURLEntry {
	var out []types.CheckedURLEntry
	for _, res := range r.Results {
		if !res.Status.OK() {
			out = append(out, res)
		}
	}
	return out
}
