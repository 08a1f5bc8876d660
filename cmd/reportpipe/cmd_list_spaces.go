/*
Copyright © 2025 devopsuser8413 <devopsuser8413@gmail.com>
*/
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devopsuser8413/reportpipe/confluence"
)

var listSpacesUsage = strings.TrimSpace(`
If you want to find out what spaces your Confluence wiki has, use this command.  Handy for picking
a value for --confluence-space.
`)

var IncludePersonal bool

var listSpacesCmd = &cobra.Command{
	Use:   "spaces",
	Short: "Print list of spaces",
	Long:  listSpacesUsage,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		api, err := confluence.NewAPI(
			ConfluenceBase,
			os.Getenv("CONFLUENCE_USER"),
			os.Getenv("CONFLUENCE_TOKEN"))
		if err != nil {
			return fmt.Errorf("list: couldn't instantiate Confluence API: %w", err)
		}

		// list all spaces:
		log.Printf("Listing Confluence spaces on %s...\n", ConfluenceBase)
		spacesRemote, err := api.ListAllSpaces(ctx, IncludePersonal)
		if err != nil {
			return fmt.Errorf("list: couldn't list Confluence spaces: %w", err)
		}

		log.Printf("Found %d spaces on '%s'.\n", len(spacesRemote), ConfluenceBase)

		spaceKeys := []string{}
		for _, space := range spacesRemote {
			spaceKeys = append(spaceKeys, space.Key)
		}
		sort.Strings(spaceKeys)

		fmt.Printf("spaces:\n")
		for _, spaceKey := range spaceKeys {
			if s, ok := spacesRemote[spaceKey]; ok {
				fmt.Printf("  - %s: %s\n", spaceKey, s.Name)
			}
		}

		return nil
	},
}

func init() {
	listCmd.AddCommand(listSpacesCmd)

	listSpacesCmd.Flags().BoolVar(&IncludePersonal, "include-personal-spaces", false, "list individuals' personal spaces")
}
