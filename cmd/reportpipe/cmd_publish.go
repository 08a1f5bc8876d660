/*
Copyright © 2025 devopsuser8413 <devopsuser8413@gmail.com>
*/
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/dnaeon/go-vcr.v3/cassette"
	"gopkg.in/dnaeon/go-vcr.v3/recorder"

	"github.com/devopsuser8413/reportpipe/confluence"
	"github.com/devopsuser8413/reportpipe/publish"
)

var publishUsage = strings.TrimSpace(`
Publish the latest report run to Confluence: resolve or create the parent page, refresh the child
page carrying the artifacts, upload the attachments and rebuild the parent index.  Re-running with
the same artifacts updates the existing pages instead of creating new ones.
`)

var (
	WithVCR      bool
	ShowProgress bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish report artifacts to Confluence",
	Long:  publishUsage,
	Args:  cobra.ExactArgs(0),
	RunE:  publishRun,
}

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().BoolVar(&WithVCR, "with-vcr", false, "use go-vcr to cache responses")
	publishCmd.Flags().BoolVar(&ShowProgress, "show-progress", true, "render a progress bar during attachment upload")
}

func publishRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	debugLog("  with-vcr: %v\n", WithVCR)

	api, err := confluence.NewAPI(
		ConfluenceBase,
		os.Getenv("CONFLUENCE_USER"),
		os.Getenv("CONFLUENCE_TOKEN"))
	if err != nil {
		return fmt.Errorf("publish: couldn't instantiate Confluence API: %w", err)
	}

	if WithVCR {
		// set up VCR recordings.
		opts := &recorder.Options{
			CassetteName:       "fixtures/confluence-publish",
			Mode:               recorder.ModeReplayWithNewEpisodes,
			SkipRequestLatency: true,
			RealTransport:      http.DefaultTransport,
		}
		r, err := recorder.NewWithOptions(opts)
		if err != nil {
			return fmt.Errorf("publish: couldn't set up go-vcr recording: %w", err)
		}

		defer r.Stop() // Make sure recorder is stopped once done with it

		// Add a hook which removes Authorization headers from all requests
		hook := func(i *cassette.Interaction) error {
			delete(i.Request.Headers, "Authorization")
			return nil
		}
		r.AddHook(hook, recorder.AfterCaptureHook)
		r.SetReplayableInteractions(true)

		api.Client = r.GetDefaultClient()
	}

	publisher := publish.Publisher{
		API:          api,
		Space:        ConfluenceSpace,
		Title:        ConfluenceTitle,
		ArtifactDir:  ArtifactDir,
		ShowProgress: ShowProgress,
		Logger:       log.New(os.Stderr, "", log.LstdFlags),
	}

	return publisher.Run(ctx)
}
