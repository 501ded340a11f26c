package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psarda/drona/internal/sbom"
	"github.com/psarda/drona/internal/ui"
)

var sbomJSON bool

var sbomCmd = &cobra.Command{
	Use:   "sbom [path]",
	Short: "Audit go.mod dependencies against actual imports",
	Long: `Audit the module at path (default ".").

Parses go.mod and walks the Go sources, mapping each declared
dependency to the files that import it. Declared-but-unused modules
show up with no files.

Examples:
  drona sbom
  drona sbom ./some/module --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}

		report, err := sbom.Scan(root)
		if err != nil {
			return err
		}

		if sbomJSON {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		printReport(report)
		return nil
	},
}

func init() {
	sbomCmd.Flags().BoolVar(&sbomJSON, "json", false, "Emit the report as JSON")
}

func printReport(report *sbom.Report) {
	styles := ui.DefaultStyles()

	fmt.Println(styles.SystemMessage.Render(fmt.Sprintf("Module %s (go %s)", report.ModulePath, report.GoVersion)))
	fmt.Println()

	for _, mod := range report.Modules {
		label := mod.Path + " " + mod.Version
		if mod.Indirect {
			label += " (indirect)"
		}
		if len(mod.Files) == 0 {
			fmt.Printf("  %s  %s\n", styles.WarningMessage.Render("unused"), label)
			continue
		}
		fmt.Printf("  %s  %s\n", styles.StatusText.Render(fmt.Sprintf("%3d ×", len(mod.Files))), label)
		for _, f := range mod.Files {
			fmt.Printf("        %s\n", f)
		}
	}

	fmt.Println()
	fmt.Printf("%d of %d declared modules are imported.\n", report.UsedCount(), len(report.Modules))
}
