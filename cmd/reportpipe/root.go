/*
Copyright © 2025 devopsuser8413 <devopsuser8413@gmail.com>
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/fatih/structs"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var (
	// Store the result of binding cobra flags
	Config string
	Debug  bool

	ArtifactDir     string
	VersionPath     string
	VersionDB       string
	ConfluenceBase  string
	ConfluenceSpace string
	ConfluenceTitle string
	SMTPHost        string
	SMTPPort        int
	MailFrom        string
	MailTo          []string

	// ConfigActual is the config file location after env fallback and
	// homedir expansion.
	ConfigActual string

	ParsedConfig YamlConfig
)

// Build the cobra command that handles our command line tool.
var rootCmd = &cobra.Command{
	Use:   "reportpipe",
	Short: "Version, publish and mail CI test and security reports",
	Long: `
Glue for the reporting tail of a CI pipeline: stamp each run with a monotonic version, render the
combined test and security report, push it to a Confluence page that updates in place, and mail the
result to whoever needs to see it.
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// You can bind cobra and viper in a few locations, but PersistentPreRunE on the root command works well
		if err := initializeConfig(cmd); err != nil {
			return fmt.Errorf("reportpipe: failed to initialise config: %w", err)
		}
		return nil
	},
}

func init() {
	// Define cobra flags, the default value has the lowest (least significant) precedence.
	// Non-secret settings fall back to the environment names the pipeline already exports.
	rootCmd.PersistentFlags().StringVar(&Config, "config", "", "config file location (default: ~/.config/reportpipe.yaml, respects REPORTPIPE_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "display debug output")
	rootCmd.PersistentFlags().StringVar(&ArtifactDir, "artifact-dir", "report", "directory holding the CI artifacts and rendered reports")
	rootCmd.PersistentFlags().StringVar(&VersionPath, "version-file", "", "path of the version counter file (default: <artifact-dir>/version.txt)")
	rootCmd.PersistentFlags().StringVar(&VersionDB, "version-db", "", "use a SQLite database at this path as the version counter instead of a file")
	rootCmd.PersistentFlags().StringVar(&ConfluenceBase, "confluence-base", os.Getenv("CONFLUENCE_BASE"), "wiki root URL incl. context path, e.g. https://ORG.atlassian.net/wiki")
	rootCmd.PersistentFlags().StringVar(&ConfluenceSpace, "confluence-space", envOr("CONFLUENCE_SPACE", "DEMO"), "Confluence space key to publish into")
	rootCmd.PersistentFlags().StringVar(&ConfluenceTitle, "confluence-title", envOr("CONFLUENCE_TITLE", "DevSecOps Report"), "title of the parent report page")
	rootCmd.PersistentFlags().StringVar(&SMTPHost, "smtp-host", os.Getenv("SMTP_HOST"), "SMTP relay hostname")
	rootCmd.PersistentFlags().IntVar(&SMTPPort, "smtp-port", envOrInt("SMTP_PORT", 587), "SMTP relay port")
	rootCmd.PersistentFlags().StringVar(&MailFrom, "mail-from", os.Getenv("REPORT_FROM"), "sender address for the report mail")
	rootCmd.PersistentFlags().StringSliceVar(&MailTo, "mail-to", splitRecipients(os.Getenv("REPORT_TO")), "recipient addresses for the report mail")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// splitRecipients turns the comma-separated REPORT_TO value into a list.
func splitRecipients(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func initializeConfig(cmd *cobra.Command) error {
	explicit := Config != ""
	if !explicit {
		// Did the user provide an ENV?
		if envConfig := os.Getenv("REPORTPIPE_CONFIG"); envConfig != "" {
			Config = envConfig
			explicit = true
		} else {
			// As fallback, search for config in home XDG-ish directory
			Config = "~/.config/reportpipe.yaml"
		}
	}

	expanded, err := homedir.Expand(Config)
	if err != nil {
		return fmt.Errorf("reportpipe: unable to expand homedir: %w", err)
	}
	ConfigActual = expanded

	if _, err := os.Stat(ConfigActual); errors.Is(err, os.ErrNotExist) {
		if explicit {
			return fmt.Errorf("reportpipe: specified config file does not exist: %w", err)
		}
		// No config file at the default location is fine, flags and
		// environment cover everything.
		return nil
	}

	yamlFile, err := os.ReadFile(ConfigActual)
	if err != nil {
		return fmt.Errorf("reportpipe: error reading config file: %w", err)
	}

	// I'd like to bark if a user sets a key we don't recognise:
	if err := yaml.UnmarshalStrict(yamlFile, &ParsedConfig); err != nil {
		return fmt.Errorf("reportpipe: issue parsing config file: %w", err)
	}

	if err := bindFlags(cmd, ParsedConfig); err != nil {
		return fmt.Errorf("reportpipe: failed to bind flags: %w", err)
	}

	return nil
}

type YamlConfig struct {
	Debug        *bool `yaml:"debug"`
	ShowProgress *bool `yaml:"show-progress"`

	ArtifactDir     string   `yaml:"artifact-dir"`
	VersionFile     string   `yaml:"version-file"`
	VersionDB       string   `yaml:"version-db"`
	ConfluenceBase  string   `yaml:"confluence-base"`
	ConfluenceSpace string   `yaml:"confluence-space"`
	ConfluenceTitle string   `yaml:"confluence-title"`
	SMTPHost        string   `yaml:"smtp-host"`
	SMTPPort        *int     `yaml:"smtp-port"`
	MailFrom        string   `yaml:"mail-from"`
	MailTo          []string `yaml:"mail-to"`
	ListenAddr      string   `yaml:"listen-addr"`
}

// Bind each cobra flag to its associated config file key.  Flags the user
// set on the command line win over the file.
func bindFlags(cmd *cobra.Command, v YamlConfig) error {
	for _, field := range structs.Fields(v) {
		key := field.Tag("yaml")
		if key == "" {
			return fmt.Errorf("reportpipe: could not retrieve struct tag 'yaml'")
		}
		if flag := cmd.Flag(key); flag == nil {
			// hmm... the flag is unknown.  but that can legitimately happen if you're running
			// e.g. `config show` which has no `listen-addr` flag but your YAML file does
			// define that flag...
			continue
		}
		if !cmd.Flags().Changed(key) {
			switch field.Kind() {
			case reflect.Ptr:
				// YamlConfig only uses pointers for bools and ints, so a nil
				// check plus a type switch covers it.
				switch p := field.Value().(type) {
				case *bool:
					if p != nil {
						cmd.Flags().Set(key, fmt.Sprintf("%v", *p))
					}
				case *int:
					if p != nil {
						cmd.Flags().Set(key, strconv.Itoa(*p))
					}
				default:
					return fmt.Errorf("reportpipe: found unrecognised field: %+v", field)
				}

			case reflect.String:
				s, ok := field.Value().(string)
				if !ok {
					return fmt.Errorf("reportpipe: found unrecognised field: %+v", field)
				}
				if s != "" {
					cmd.Flags().Set(key, s)
				}

			case reflect.Slice:
				ss, ok := field.Value().([]string)
				if !ok {
					return fmt.Errorf("reportpipe: found unrecognised field: %+v", field)
				}
				for _, s := range ss {
					// yes, repeatedly calling Set() appends to the slice...
					cmd.Flags().Set(key, s)
				}

			default:
				return fmt.Errorf("reportpipe: found unrecognised field: %+v", field)
			}
		}
	}

	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Flags are only available after (or inside, presumably) the .Execute() thing.
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("reportpipe: execution error: %w", err)
	}

	return nil
}
