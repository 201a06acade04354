// Package main implements the emberlink CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"emberlink/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "emberlink",
	Short: "Ember unit finalizer and export linker",
	Long:  `emberlink stamps compiled ember units with export metadata and ABI adapters`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(finalizeCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
