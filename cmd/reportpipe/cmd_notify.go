/*
Copyright © 2025 devopsuser8413 <devopsuser8413@gmail.com>
*/
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devopsuser8413/reportpipe/notify"
)

var notifyUsage = strings.TrimSpace(`
Mail the report: every report artifact found in the artifact directory goes out as an attachment,
with a link to the Confluence space in the body.  Finding no artifacts at all is an error.
`)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send the report mail",
	Long:  notifyUsage,
	Args:  cobra.ExactArgs(0),
	RunE:  notifyRun,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}

func notifyRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if SMTPHost == "" {
		return fmt.Errorf("notify: no SMTP relay set, use --smtp-host or SMTP_HOST")
	}
	if MailFrom == "" {
		return fmt.Errorf("notify: no sender set, use --mail-from or REPORT_FROM")
	}
	if len(MailTo) == 0 {
		return fmt.Errorf("notify: no recipients set, use --mail-to or REPORT_TO")
	}

	notifier := notify.Notifier{
		Host:      SMTPHost,
		Port:      SMTPPort,
		User:      os.Getenv("SMTP_USER"),
		Pass:      os.Getenv("SMTP_PASS"),
		From:      MailFrom,
		To:        MailTo,
		WikiBase:  ConfluenceBase,
		WikiSpace: ConfluenceSpace,
		WikiTitle: ConfluenceTitle,
		Logger:    log.New(os.Stderr, "", log.LstdFlags),
	}

	msg, err := notifier.Compose(ArtifactDir)
	if err != nil {
		return err
	}

	return notifier.Send(ctx, msg)
}
