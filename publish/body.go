package publish

import (
	"fmt"
	"html"
	"path/filepath"
	"strings"
	"time"

	"github.com/devopsuser8413/reportpipe/confluence"
	"github.com/devopsuser8413/reportpipe/report"
)

// ChildTitle is the stable title of the page holding the latest run.  Keeping
// it constant is what makes re-publishing an update instead of a pile of new
// pages.
func ChildTitle(parentTitle string) string {
	return parentTitle + " - Latest Run"
}

// childBody builds the storage-format body for the latest-run page.  All of
// it is presentation; the numbers come from the scanned summary.
func childBody(version string, sum report.Summary, files []string, now time.Time) string {
	var b strings.Builder

	b.WriteString("<h1>DevSecOps Test &amp; Security Reports</h1>")
	fmt.Fprintf(&b, "<p><b>Version:</b> %s</p>", html.EscapeString(version))
	fmt.Fprintf(&b, "<p><b>Status:</b> %s</p>", sum.Status())
	fmt.Fprintf(&b, "<p><b>Pass rate:</b> %.1f%%</p>", sum.PassRate())
	fmt.Fprintf(&b, "<p><b>Updated:</b> %s</p>", now.Format("2006-01-02 15:04:05"))
	b.WriteString("<p>This page is auto-updated by the CI pipeline with the latest reports.</p>")

	if len(files) > 0 {
		b.WriteString("<h2>Artifacts</h2><ul>")
		for _, f := range files {
			fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(filepath.Base(f)))
		}
		b.WriteString("</ul>")
	}

	b.WriteString("<p><i>Artifacts include test results, SAST, dependency scan, Trivy, and ZAP findings.</i></p>")

	return b.String()
}

// parentBody builds the storage-format body for the index page: one link
// per child page, via the storage link macro so the wiki keeps the links
// valid across renames by title.
func parentBody(version string, children []confluence.Content, now time.Time) string {
	var b strings.Builder

	b.WriteString("<h1>DevSecOps Test &amp; Security Reports</h1>")
	fmt.Fprintf(&b, "<p><b>Latest version:</b> %s</p>", html.EscapeString(version))
	b.WriteString("<p>This page indexes the report pages maintained by the pipeline.</p>")

	if len(children) > 0 {
		b.WriteString("<ul>")
		for _, c := range children {
			fmt.Fprintf(&b, `<li><ac:link><ri:page ri:content-title="%s" /></ac:link></li>`,
				html.EscapeString(c.Title))
		}
		b.WriteString("</ul>")
	}

	fmt.Fprintf(&b, "<p><i>Last rebuilt %s by the DevSecOps pipeline.</i></p>", now.Format("2006-01-02 15:04:05"))

	return b.String()
}
