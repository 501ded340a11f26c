package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psarda/drona/internal/ui"
)

// Version information, set at build time via -ldflags.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		styles := ui.DefaultStyles()
		fmt.Println(styles.BannerTitle.Render("drona"))
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit:  %s\n", GitCommit)
		fmt.Printf("Built:   %s\n", BuildDate)
	},
}
