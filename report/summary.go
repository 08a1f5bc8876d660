package report

import "math"

// Status is the overall verdict stamped on report badges, page labels and
// mail subjects.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusUnknown Status = "UNKNOWN"
)

// Metrics are the counters one parser contributes.  Each parser fills only
// the fields its tool reports; everything else stays zero.
type Metrics struct {
	Passed  int
	Failed  int
	Errors  int
	Skipped int

	BanditFindings  int
	DependencyVulns int
	TrivyHigh       int
	ZapHigh         int
}

// Summary is every parser's metrics folded together for one run.  It is
// derived, never persisted; each run rebuilds it from the artifacts.
type Summary struct {
	Metrics

	// HavePytestLog records whether a non-empty test log was seen.  All-zero
	// counters from a missing log should read as UNKNOWN, not as a vacuous
	// PASS, in contexts that care (mail subjects).
	HavePytestLog bool
}

// Total is the number of test outcomes of any kind.
func (s Summary) Total() int {
	return s.Passed + s.Failed + s.Errors + s.Skipped
}

// PassRate is passed over all outcomes as a percentage, rounded to one
// decimal.  A run with no outcomes rates 0, not NaN.
func (s Summary) PassRate() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return math.Round(float64(s.Passed)/float64(total)*1000) / 10
}

// Status is FAIL as soon as anything failed or errored, PASS otherwise.
// Skips alone never fail a run.
func (s Summary) Status() Status {
	if s.Failed > 0 || s.Errors > 0 {
		return StatusFail
	}
	return StatusPass
}

// DisplayStatus is Status, except a run with no test log at all reads as
// UNKNOWN instead of a zero-counter PASS.
func (s Summary) DisplayStatus() Status {
	if !s.HavePytestLog {
		return StatusUnknown
	}
	return s.Status()
}

func (s *Summary) add(m Metrics) {
	s.Passed += m.Passed
	s.Failed += m.Failed
	s.Errors += m.Errors
	s.Skipped += m.Skipped

	s.BanditFindings += m.BanditFindings
	s.DependencyVulns += m.DependencyVulns
	s.TrivyHigh += m.TrivyHigh
	s.ZapHigh += m.ZapHigh
}
