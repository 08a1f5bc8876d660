package notify

import (
	"context"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/devopsuser8413/reportpipe/report"
)

func testNotifier() *Notifier {
	return &Notifier{
		Host: "smtp.example.com",
		Port: 587,
		User: "pipeline@example.com",
		Pass: "sekrit",

		From: "pipeline@example.com",
		To:   []string{"team@example.com"},

		WikiBase:  "https://example.atlassian.net/wiki",
		WikiSpace: "QA",
		WikiTitle: "DevSecOps Report",

		Logger: log.New(io.Discard, "", 0),
	}
}

func seedArtifacts(t *testing.T, dir string) {
	t.Helper()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write(report.PytestLog, "===== 4 passed, 1 failed in 1.20s =====")
	write(report.VersionFile, "5")
	write(report.TrivyReport, "CVE-2024-0001 High\n")
	write(report.BanditReport, `<table><tr class="issue"></tr></table>`)
}

func attachmentNames(msg *mail.Msg) []string {
	var names []string
	for _, f := range msg.GetAttachments() {
		names = append(names, f.Name)
	}
	return names
}

func TestComposeSubjectAndAttachments(t *testing.T) {
	dir := t.TempDir()
	seedArtifacts(t, dir)

	msg, err := testNotifier().Compose(dir)
	require.NoError(t, err)

	subject := msg.GetGenHeader(mail.HeaderSubject)
	require.Len(t, subject, 1)
	require.Equal(t, "📊 DevSecOps Test & Security Report v5 (FAIL)", subject[0])

	// The pytest log feeds the status but never ships as an attachment.
	require.Equal(t, []string{
		report.BanditReport,
		report.TrivyReport,
		report.VersionFile,
	}, attachmentNames(msg))
}

func TestComposeUnknownStatusWithoutTestLog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, report.VersionFile), []byte("9"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, report.TrivyReport), []byte("all clear"), 0o644))

	msg, err := testNotifier().Compose(dir)
	require.NoError(t, err)

	subject := msg.GetGenHeader(mail.HeaderSubject)
	require.Len(t, subject, 1)
	require.Equal(t, "📊 DevSecOps Test & Security Report v9 (UNKNOWN)", subject[0])
}

func TestComposeEmptyDirectory(t *testing.T) {
	_, err := testNotifier().Compose(t.TempDir())
	require.ErrorIs(t, err, ErrNoAttachments)
}

func TestComposeBadFromAddress(t *testing.T) {
	dir := t.TempDir()
	seedArtifacts(t, dir)

	n := testNotifier()
	n.From = "not an address"

	_, err := n.Compose(dir)
	require.Error(t, err)
}

func TestBuildBodyLinksTheWiki(t *testing.T) {
	n := testNotifier()
	body := n.buildBody("5", report.StatusFail, []string{"/tmp/report/version.txt"}, time.Date(2025, 11, 4, 9, 0, 0, 0, time.UTC))

	require.Contains(t, body, "DevSecOps Test &amp; Security Report v5 (FAIL)")
	require.Contains(t, body, "<li>version.txt</li>")
	require.Contains(t, body, `href="https://example.atlassian.net/wiki/spaces/QA/pages"`)
	require.Contains(t, body, ">DevSecOps Report</a>")
}

func TestBuildBodyWithoutWiki(t *testing.T) {
	n := testNotifier()
	n.WikiBase = ""
	body := n.buildBody("5", report.StatusPass, nil, time.Now())
	require.NotContains(t, body, "Confluence Page")
}

func TestSendConnectionRefused(t *testing.T) {
	// Grab a port that is guaranteed closed by listening and letting go.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	dir := t.TempDir()
	seedArtifacts(t, dir)

	n := testNotifier()
	n.Host = "127.0.0.1"
	n.Port = port

	msg, err := n.Compose(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.Error(t, n.Send(ctx, msg))
}
