/*
Copyright © 2025 devopsuser8413 <devopsuser8413@gmail.com>
*/
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/devopsuser8413/reportpipe/render"
	"github.com/devopsuser8413/reportpipe/report"
	"github.com/devopsuser8413/reportpipe/versionstore"
)

var generateUsage = strings.TrimSpace(`
Scan the artifact directory for test and security tool output, bump the report version and write
the versioned HTML and PDF report next to the artifacts.
`)

var KeepVersion bool

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render the versioned test and security report",
	Long:  generateUsage,
	Args:  cobra.ExactArgs(0),
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().BoolVar(&KeepVersion, "keep-version", false, "render with the current version instead of bumping it")
}

func generateRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := log.New(os.Stderr, "", log.LstdFlags)

	if err := os.MkdirAll(ArtifactDir, 0755); err != nil {
		return fmt.Errorf("generate: couldn't create artifact directory %s: %w", ArtifactDir, err)
	}

	store, err := openVersionStore()
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	defer store.Close()

	var version int
	if KeepVersion {
		version, err = store.Current(ctx)
	} else {
		version, err = store.Increment(ctx)
	}
	if err != nil {
		return fmt.Errorf("generate: couldn't advance report version: %w", err)
	}
	debugLog("  version: %d\n", version)

	// The stamp travels with the artifacts so publish and notify read the
	// same version back, whichever counter backend produced it.
	stamp := filepath.Join(ArtifactDir, report.VersionFile)
	if err := os.WriteFile(stamp, []byte(strconv.Itoa(version)+"\n"), 0644); err != nil {
		return fmt.Errorf("generate: couldn't write version stamp: %w", err)
	}

	sum := report.Scan(ArtifactDir, logger)

	rpt := render.Report{
		Version:   version,
		Summary:   sum,
		Generated: time.Now(),
		RunID:     buildRunID(),
	}

	htmlPath := filepath.Join(ArtifactDir, report.HTMLName(version))
	if err := render.WriteHTML(htmlPath, rpt); err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	fmt.Printf("✅ HTML report generated: %s\n", htmlPath)

	pdfPath := filepath.Join(ArtifactDir, report.PDFName(version))
	if err := render.WritePDF(htmlPath, pdfPath); err != nil {
		// The HTML is the canonical artifact, a failed PDF conversion
		// shouldn't fail the build.
		logger.Printf("PDF conversion failed: %v", err)
	} else {
		fmt.Printf("📄 PDF report generated: %s\n", pdfPath)
	}

	fmt.Printf("🆙 Version updated: %d\n", version)
	return nil
}

// openVersionStore picks the counter backend: a SQLite database when
// --version-db is set, otherwise the plain version.txt file.
func openVersionStore() (versionstore.Store, error) {
	if VersionDB != "" {
		store, err := versionstore.OpenSQLite(VersionDB)
		if err != nil {
			return nil, fmt.Errorf("couldn't open version database %s: %w", VersionDB, err)
		}
		return store, nil
	}

	path := VersionPath
	if path == "" {
		path = filepath.Join(ArtifactDir, report.VersionFile)
	}
	return &versionstore.FileStore{Path: path}, nil
}

// buildRunID tags the report footer with the CI run, falling back to a
// fresh UUID for local runs.
func buildRunID() string {
	if id := os.Getenv("BUILD_ID"); id != "" {
		return id
	}
	return uuid.NewString()
}
