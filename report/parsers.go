package report

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// Parser extracts one tool's metrics from its raw artifact contents.
// Implementations treat unmatchable input as zero metrics; an error means
// the input was present but structurally unusable.
type Parser interface {
	// Tool names the producing tool, for log lines.
	Tool() string
	// Filename is the well-known artifact this parser consumes.
	Filename() string
	Parse(raw []byte) (Metrics, error)
}

// Parsers returns the full parser set, one per tool the pipeline reads.
func Parsers() []Parser {
	return []Parser{
		PytestParser{},
		BanditParser{},
		DependencyParser{},
		TrivyParser{},
		ZapParser{},
	}
}

var (
	rePassed  = regexp.MustCompile(`(\d+)\s+passed`)
	reFailed  = regexp.MustCompile(`(\d+)\s+failed`)
	reErrors  = regexp.MustCompile(`(\d+)\s+errors?`)
	reSkipped = regexp.MustCompile(`(\d+)\s+skipped`)
)

// PytestParser lifts the summary-line counters out of captured pytest
// terminal output ("12 passed, 1 failed, 2 skipped in 3.42s").
type PytestParser struct{}

func (PytestParser) Tool() string     { return "pytest" }
func (PytestParser) Filename() string { return PytestLog }

func (PytestParser) Parse(raw []byte) (Metrics, error) {
	return Metrics{
		Passed:  firstCount(rePassed, raw),
		Failed:  firstCount(reFailed, raw),
		Errors:  firstCount(reErrors, raw),
		Skipped: firstCount(reSkipped, raw),
	}, nil
}

// firstCount returns the first captured integer, or zero when the pattern
// never matches.
func firstCount(re *regexp.Regexp, raw []byte) int {
	m := re.FindSubmatch(raw)
	if m == nil {
		return 0
	}

	n, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0
	}
	return n
}

// BanditParser counts issue rows in bandit's HTML report.
type BanditParser struct{}

func (BanditParser) Tool() string     { return "bandit" }
func (BanditParser) Filename() string { return BanditReport }

func (BanditParser) Parse(raw []byte) (Metrics, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return Metrics{}, fmt.Errorf("report: couldn't parse bandit html: %w", err)
	}

	return Metrics{BanditFindings: doc.Find("tr.issue").Length()}, nil
}

// DependencyParser counts pipe characters in the dependency audit output.
// The audit prints one |-delimited table row per vulnerable package, so the
// pipe count tracks findings closely enough for a trend line.
type DependencyParser struct{}

func (DependencyParser) Tool() string     { return "dependency-check" }
func (DependencyParser) Filename() string { return DependencyReport }

func (DependencyParser) Parse(raw []byte) (Metrics, error) {
	return Metrics{DependencyVulns: bytes.Count(raw, []byte("|"))}, nil
}

// TrivyParser counts High severity mentions in trivy's table output.
// Case-sensitive on purpose: trivy prints severities capitalised, and HIGH
// in shouty log noise shouldn't count.
type TrivyParser struct{}

func (TrivyParser) Tool() string     { return "trivy" }
func (TrivyParser) Filename() string { return TrivyReport }

func (TrivyParser) Parse(raw []byte) (Metrics, error) {
	return Metrics{TrivyHigh: bytes.Count(raw, []byte("High"))}, nil
}

// ZapParser counts High risk alerts in the ZAP HTML report.
type ZapParser struct{}

func (ZapParser) Tool() string     { return "zap" }
func (ZapParser) Filename() string { return ZapReport }

func (ZapParser) Parse(raw []byte) (Metrics, error) {
	return Metrics{ZapHigh: bytes.Count(raw, []byte("High"))}, nil
}
