package report

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestScanFullDirectory(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, PytestLog, "===== 12 passed, 1 failed, 0 errors, 2 skipped in 4.21s =====")
	writeArtifact(t, dir, BanditReport, `<table><tr class="issue"></tr><tr class="issue"></tr></table>`)
	writeArtifact(t, dir, DependencyReport, "requests | CVE-2023-32681 | Moderate\n")
	writeArtifact(t, dir, TrivyReport, "High High Low")
	writeArtifact(t, dir, ZapReport, "<td>High</td>")

	sum := Scan(dir, discard())

	require.True(t, sum.HavePytestLog)
	require.Equal(t, 12, sum.Passed)
	require.Equal(t, 1, sum.Failed)
	require.Equal(t, 0, sum.Errors)
	require.Equal(t, 2, sum.Skipped)
	require.InDelta(t, 80.0, sum.PassRate(), 0.0001)
	require.Equal(t, StatusFail, sum.Status())

	require.Equal(t, 2, sum.BanditFindings)
	require.Equal(t, 2, sum.DependencyVulns)
	require.Equal(t, 2, sum.TrivyHigh)
	require.Equal(t, 1, sum.ZapHigh)
}

func TestScanEmptyDirectory(t *testing.T) {
	sum := Scan(t.TempDir(), discard())

	require.Equal(t, Summary{}, sum)
	require.Equal(t, 0.0, sum.PassRate())
	require.Equal(t, StatusPass, sum.Status())
	require.Equal(t, StatusUnknown, sum.DisplayStatus())
}

func TestScanUnreadableArtifactCountsZeros(t *testing.T) {
	dir := t.TempDir()
	// A directory squatting on the artifact name defeats os.ReadFile even
	// when running as root, standing in for an unreadable file.
	require.NoError(t, os.Mkdir(filepath.Join(dir, TrivyReport), 0o755))
	writeArtifact(t, dir, PytestLog, "3 passed in 0.10s")

	sum := Scan(dir, discard())

	require.Equal(t, 0, sum.TrivyHigh)
	require.Equal(t, 3, sum.Passed)
}

func TestAttachmentsOrderAndFiltering(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		ZapReport,
		VersionFile,
		TrivyReport,
		"test_result_report_v3.pdf",
		"test_result_report_v3.html",
		"report.html",
		DependencyReport,
		BanditReport,
		"unrelated.log",
	} {
		writeArtifact(t, dir, name, "x")
	}

	var names []string
	for _, f := range Attachments(dir) {
		names = append(names, filepath.Base(f))
	}

	require.Equal(t, []string{
		BanditReport,
		DependencyReport,
		"report.html",
		"test_result_report_v3.html",
		"test_result_report_v3.pdf",
		TrivyReport,
		VersionFile,
		ZapReport,
	}, names)
}

func TestAttachmentsSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, BanditReport), 0o755))
	writeArtifact(t, dir, VersionFile, "3")

	var names []string
	for _, f := range Attachments(dir) {
		names = append(names, filepath.Base(f))
	}

	require.Equal(t, []string{VersionFile}, names)
}
