/*
Copyright © 2025 devopsuser8413 <devopsuser8413@gmail.com>
*/
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Output current config",
	Long: `
Is something not working for you?  Have a look whether your config is as you expect.  Secrets stay
in the environment and are not shown here.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Note, you can only talk about persistent flags here.  Command-specific ones won't be
		// visible.
		resolved := struct {
			Debug           bool     `yaml:"debug"`
			ArtifactDir     string   `yaml:"artifact-dir"`
			VersionFile     string   `yaml:"version-file"`
			VersionDB       string   `yaml:"version-db"`
			ConfluenceBase  string   `yaml:"confluence-base"`
			ConfluenceSpace string   `yaml:"confluence-space"`
			ConfluenceTitle string   `yaml:"confluence-title"`
			SMTPHost        string   `yaml:"smtp-host"`
			SMTPPort        int      `yaml:"smtp-port"`
			MailFrom        string   `yaml:"mail-from"`
			MailTo          []string `yaml:"mail-to"`
		}{
			Debug:           Debug,
			ArtifactDir:     ArtifactDir,
			VersionFile:     VersionPath,
			VersionDB:       VersionDB,
			ConfluenceBase:  ConfluenceBase,
			ConfluenceSpace: ConfluenceSpace,
			ConfluenceTitle: ConfluenceTitle,
			SMTPHost:        SMTPHost,
			SMTPPort:        SMTPPort,
			MailFrom:        MailFrom,
			MailTo:          MailTo,
		}

		out, err := yaml.Marshal(resolved)
		if err != nil {
			return fmt.Errorf("config: couldn't render current config: %w", err)
		}

		fmt.Printf("Resolved config (file: %s):\n\n%s", ConfigActual, out)
		return nil
	},
}

func init() {
	configCmd.AddCommand(showCmd)
}
