package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/psarda/drona/internal/tools"
	"github.com/psarda/drona/internal/ui"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the chat agent can call",
	Long: `List every tool in the default registry.

Tools marked sensitive require confirmation before they run in a chat
session. Use --verbose for parameter details.`,
	Run: func(cmd *cobra.Command, args []string) {
		registry := tools.NewDefaultRegistry()
		styles := ui.DefaultStyles()

		fmt.Println(styles.SystemMessage.Render("Available tools"))
		fmt.Println()

		for _, def := range registry.Definitions() {
			name := def.Function.Name
			marker := "  "
			if tools.IsSensitive(name) {
				marker = styles.WarningMessage.Render("! ")
			}
			fmt.Printf("%s%s\n", marker, styles.ToolName.Render(name))
			fmt.Printf("    %s\n", styles.StatusText.Render(def.Function.Description))

			if verbose && len(def.Function.Parameters.Properties) > 0 {
				required := make(map[string]bool, len(def.Function.Parameters.Required))
				for _, r := range def.Function.Parameters.Required {
					required[r] = true
				}
				names := make([]string, 0, len(def.Function.Parameters.Properties))
				for p := range def.Function.Parameters.Properties {
					names = append(names, p)
				}
				sort.Strings(names)
				for _, p := range names {
					prop := def.Function.Parameters.Properties[p]
					suffix := ""
					if required[p] {
						suffix = " (required)"
					}
					fmt.Printf("      %s %s%s - %s\n", p, prop.Type, suffix, prop.Description)
				}
			}
			fmt.Println()
		}

		if !verbose {
			fmt.Println(styles.StatusText.Render("Use --verbose for parameter details."))
		}
	},
}
