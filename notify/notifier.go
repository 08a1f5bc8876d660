// Package notify mails one run's artifacts to the report audience.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/wneessen/go-mail"

	"github.com/devopsuser8413/reportpipe/report"
)

// ErrNoAttachments means the artifact directory had nothing to send.  An
// empty report directory is a misconfigured pipeline, not a quiet success.
var ErrNoAttachments = errors.New("notify: no report files found to attach")

// Notifier composes and sends the report mail.
type Notifier struct {
	Host string
	Port int
	User string
	Pass string

	From string
	To   []string

	// The wiki coordinates only feed the link line in the body; leaving
	// WikiBase empty drops the line.
	WikiBase  string
	WikiSpace string
	WikiTitle string

	Logger *log.Logger
}

// Compose builds the report mail from the artifact directory: subject with
// version and status, HTML body with a plain-text alternative, one
// attachment per report file.  An unreadable artifact is logged and
// skipped; an empty directory is ErrNoAttachments.
func (n *Notifier) Compose(dir string) (*mail.Msg, error) {
	files := report.Attachments(dir)
	if len(files) == 0 {
		return nil, ErrNoAttachments
	}

	version := report.Version(dir)
	sum := report.Scan(dir, n.Logger)
	status := sum.DisplayStatus()

	m := mail.NewMsg()
	if err := m.From(n.From); err != nil {
		return nil, fmt.Errorf("notify: bad from address %q: %w", n.From, err)
	}
	if err := m.To(n.To...); err != nil {
		return nil, fmt.Errorf("notify: bad to address %v: %w", n.To, err)
	}
	m.Subject(fmt.Sprintf("📊 DevSecOps Test & Security Report v%s (%s)", version, status))

	htmlBody := n.buildBody(version, status, files, time.Now())

	plain, err := md.NewConverter("", true, nil).ConvertString(htmlBody)
	if err != nil {
		// The HTML part is the one people read; a failed downgrade only
		// costs us the text alternative.
		n.Logger.Printf("Couldn't build plain-text alternative: %v\n", err)
		m.SetBodyString(mail.TypeTextHTML, htmlBody)
	} else {
		m.SetBodyString(mail.TypeTextPlain, plain)
		m.AddAlternativeString(mail.TypeTextHTML, htmlBody)
	}

	attached := 0
	for _, file := range files {
		name := filepath.Base(file)

		data, err := os.ReadFile(file)
		if err != nil {
			n.Logger.Printf("Skipping attachment %s: %v\n", name, err)
			continue
		}

		m.AttachReader(name, bytes.NewReader(data))
		n.Logger.Printf("Attached %s.\n", name)
		attached++
	}
	if attached == 0 {
		return nil, ErrNoAttachments
	}

	return m, nil
}

// Send delivers the message over SMTP, upgrading the connection with
// STARTTLS before authenticating.
func (n *Notifier) Send(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(n.Host,
		mail.WithPort(n.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.User),
		mail.WithPassword(n.Pass),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("notify: couldn't build smtp client: %w", err)
	}

	n.Logger.Printf("Sending report mail to %s via %s:%d...\n", strings.Join(n.To, ", "), n.Host, n.Port)

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("notify: couldn't send report mail: %w", err)
	}

	n.Logger.Println("Report mail sent.")
	return nil
}

func (n *Notifier) buildBody(version string, status report.Status, files []string, now time.Time) string {
	var b strings.Builder

	b.WriteString(`<html><body style="font-family: Arial, sans-serif;">`)
	fmt.Fprintf(&b, "<h2>DevSecOps Test &amp; Security Report v%s (%s)</h2>", html.EscapeString(version), status)
	fmt.Fprintf(&b, "<p><b>Generated:</b> %s</p>", now.Format("2006-01-02 15:04:05"))
	b.WriteString("<p>The latest test and security reports from the pipeline are attached.</p>")

	b.WriteString("<p>📎 <b>Attached files:</b></p><ul>")
	for _, f := range files {
		fmt.Fprintf(&b, "<li>%s</li>", html.EscapeString(filepath.Base(f)))
	}
	b.WriteString("</ul>")

	if n.WikiBase != "" {
		fmt.Fprintf(&b, `<p>🔗 <b>Confluence Page:</b> <a href="%s/spaces/%s/pages" target="_blank">%s</a></p>`,
			n.WikiBase, url.PathEscape(n.WikiSpace), html.EscapeString(n.WikiTitle))
	}

	b.WriteString("<p><i>This email was sent automatically by the DevSecOps pipeline.</i></p>")
	b.WriteString("</body></html>")

	return b.String()
}
