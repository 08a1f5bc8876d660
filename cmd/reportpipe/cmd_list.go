/*
Copyright © 2025 devopsuser8413 <devopsuser8413@gmail.com>
*/
package main

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Commands to list items",
	Long: `
Commands in this namespace are to help you explore the Confluence wiki the reports go to.
`,
}

func init() {
	rootCmd.AddCommand(listCmd)
}
