// Package report turns the raw tool output in an artifact directory into a
// typed run summary.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Well-known artifact filenames the pipeline stages exchange.
const (
	PytestLog        = "pytest_output.txt"
	BanditReport     = "bandit_report.html"
	DependencyReport = "dependency_vuln.txt"
	TrivyReport      = "trivy_report.txt"
	ZapReport        = "zap_dast_report.html"

	VersionFile = "version.txt"

	// BaseName prefixes the rendered summary files, suffixed _v<version>.
	BaseName = "test_result_report"
)

// attachPatterns is everything the publish and notify stages ship, in
// upload order.  report.html is produced upstream by the test runner
// itself, not by this tool, hence no constant for it.
var attachPatterns = []string{
	BanditReport,
	DependencyReport,
	"report.html",
	BaseName + "_v*.html",
	BaseName + "_v*.pdf",
	TrivyReport,
	VersionFile,
	ZapReport,
}

// HTMLName is the rendered report filename for a version.
func HTMLName(version int) string {
	return fmt.Sprintf("%s_v%d.html", BaseName, version)
}

// PDFName is the rendered PDF filename for a version.
func PDFName(version int) string {
	return fmt.Sprintf("%s_v%d.pdf", BaseName, version)
}

// Attachments globs the artifact directory for every file worth shipping.
// Patterns with no matches are skipped; anything that is not a regular file
// is ignored.  Order is stable so publish logs read the same run to run.
func Attachments(dir string) []string {
	var files []string
	for _, pattern := range attachPatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
				files = append(files, m)
			}
		}
	}
	return files
}

// Version reads the version stamp the generate stage wrote, or "N/A" when
// there is none.  Text, not a number, because it only feeds display
// surfaces (page bodies, mail subjects).
func Version(dir string) string {
	raw, err := os.ReadFile(filepath.Join(dir, VersionFile))
	if err != nil {
		return "N/A"
	}
	if v := strings.TrimSpace(string(raw)); v != "" {
		return v
	}
	return "N/A"
}

// safeRead returns an artifact's bytes, or nil when it is absent or
// unreadable.  Missing input degrades to zero metrics, never an error.
func safeRead(dir, name string) []byte {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil
	}
	return raw
}
