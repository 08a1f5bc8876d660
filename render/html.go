// Package render turns a run summary into the HTML and PDF artifacts that
// the publish and notify stages ship.
package render

import (
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/devopsuser8413/reportpipe/report"
)

// Report is one run's worth of renderable state.
type Report struct {
	Version   int
	Summary   report.Summary
	Generated time.Time

	// RunID ties the rendered artifacts back to one pipeline run.  Optional;
	// the footer omits it when empty.
	RunID string
}

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Automated Test &amp; Security Report v{{.Version}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
h1, h2 { color: #007bff; }
.summary { background-color: #f8f9fa; padding: 15px; border-radius: 8px; }
.security { background-color: #eef7ff; border: 1px solid #007bff; padding: 15px; margin: 15px 0; }
.pass { color: green; }
.fail { color: red; }
</style>
</head>
<body>

<h1>🧪 Test &amp; Security Report v{{.Version}}</h1>
<p><b>Date:</b> {{.Date}}</p>

<div class="summary">
<h2>Test Summary</h2>
<ul>
<li>Passed: {{.Summary.Passed}}</li>
<li>Failed: {{.Summary.Failed}}</li>
<li>Errors: {{.Summary.Errors}}</li>
<li>Skipped: {{.Summary.Skipped}}</li>
<li>Pass Rate: {{printf "%.1f" .Rate}}%</li>
<li>Status: <b class="{{.StatusClass}}">{{.Emoji}} {{.Status}}</b></li>
</ul>
</div>

<div class="security">
<h2>🔐 DevSecOps Security Summary</h2>
<ul>
<li><b>SAST (Bandit):</b> {{.Summary.BanditFindings}} findings</li>
<li><b>Dependency Vulnerabilities:</b> {{.Summary.DependencyVulns}} issues</li>
<li><b>Container Scan (Trivy):</b> {{.Summary.TrivyHigh}} High vulnerabilities</li>
<li><b>DAST (OWASP ZAP):</b> {{.Summary.ZapHigh}} High alerts</li>
</ul>
</div>

<p><i>Generated automatically by the DevSecOps pipeline{{if .RunID}} (run {{.RunID}}){{end}}</i></p>

</body>
</html>
`

type htmlView struct {
	Version     int
	Date        string
	Summary     report.Summary
	Rate        float64
	Status      report.Status
	StatusClass string
	Emoji       string
	RunID       string
}

// WriteHTML renders the summary report to path.  Colours and emoji are
// cosmetic; the numbers come straight from the summary and nothing here may
// change them.
func WriteHTML(path string, rpt Report) error {
	status := rpt.Summary.Status()
	emoji := "✅"
	if status == report.StatusFail {
		emoji = "❌"
	}

	view := htmlView{
		Version:     rpt.Version,
		Date:        rpt.Generated.Format("2006-01-02 15:04:05"),
		Summary:     rpt.Summary,
		Rate:        rpt.Summary.PassRate(),
		Status:      status,
		StatusClass: strings.ToLower(string(status)),
		Emoji:       emoji,
		RunID:       rpt.RunID,
	}

	t, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("render: couldn't parse report template: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: couldn't create %s: %w", path, err)
	}
	defer f.Close()

	if err := t.Execute(f, view); err != nil {
		return fmt.Errorf("render: couldn't render %s: %w", path, err)
	}

	return nil
}
