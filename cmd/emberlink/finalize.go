package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"emberlink/internal/backend"
	"emberlink/internal/driver"
)

const noEmberTomlMessage = "no ember.toml found\nplease specify the unit explicitly, e.g.:\n  emberlink finalize path/to/unit"

var finalizeCmd = &cobra.Command{
	Use:   "finalize [flags] [path]",
	Short: "Finalize compiled ember units",
	Long:  "Finalize compiled ember units by stamping export metadata and ABI adapters into their modules.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  finalizeExecution,
}

func finalizeExecution(cmd *cobra.Command, args []string) error {
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	manifestFlag, err := cmd.Flags().GetString("manifest")
	if err != nil {
		return err
	}
	reflectOut, err := cmd.Flags().GetString("reflect-out")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}

	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	timingsFlag, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}

	if verbose {
		backend.SetLogger(backend.NewStderrLogger(zapcore.DebugLevel))
	}

	target, targetIsDir, err := resolveFinalizeTarget(manifestFlag, args)
	if err != nil {
		return err
	}

	opts := driver.Options{
		OutPath:        outPath,
		ReflectOut:     reflectOut,
		Jobs:           jobs,
		MaxDiagnostics: maxDiagnostics,
		Timings:        timingsFlag,
	}

	labels, err := finalizeLabels(target, targetIsDir)
	if err != nil {
		return err
	}

	useTUI := shouldUseTUI(uiModeValue)

	var res *driver.Result
	if useTUI && len(labels) > 0 {
		res, err = runFinalizeWithUI(cmd.Context(), "emberlink finalize", labels, target, targetIsDir, opts)
	} else if targetIsDir {
		res, err = driver.FinalizeDir(cmd.Context(), target, opts)
	} else {
		res, err = driver.FinalizeUnit(cmd.Context(), target, opts)
	}
	if err != nil {
		if res != nil {
			printStageTimings(os.Stdout, res.Timings, false)
		}
		return err
	}

	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stderr))
	if colorFlag == "on" {
		color.NoColor = false
	}
	printUnitDiagnostics(os.Stderr, res, useColor, false)

	if timingsFlag {
		printStageTimings(os.Stdout, res.Timings, true)
	}

	if res.Failed() {
		return fmt.Errorf("finalize reported errors")
	}

	if !quiet {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			cwd = "."
		}
		for _, unit := range res.Units {
			if !unit.Wrote {
				continue
			}
			if _, printErr := fmt.Fprintf(os.Stdout, "linked %s\n", formatPathForOutput(cwd, unit.OutPath)); printErr != nil {
				return printErr
			}
		}
	}
	return nil
}

// resolveFinalizeTarget decides what a finalize invocation points at. The
// --manifest flag wins; otherwise a path argument is taken as a unit tree
// (or a manifest file when the path is one); with neither, the nearest
// ember.toml up from the working directory is used.
func resolveFinalizeTarget(manifestFlag string, args []string) (target string, targetIsDir bool, err error) {
	if manifestFlag != "" {
		return manifestFlag, false, nil
	}
	if len(args) > 0 && args[0] != "" {
		info, statErr := os.Stat(args[0])
		if statErr != nil {
			return "", false, fmt.Errorf("failed to stat %q: %w", args[0], statErr)
		}
		return args[0], info.IsDir(), nil
	}
	manifestPath, found, err := driver.FindManifest(".")
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, errors.New(noEmberTomlMessage)
	}
	return manifestPath, false, nil
}

// finalizeLabels precomputes the unit labels shown by the TUI so that its
// rows line up with the progress events the driver emits.
func finalizeLabels(target string, targetIsDir bool) ([]string, error) {
	if !targetIsDir {
		return []string{driver.UnitLabel(target)}, nil
	}
	manifests, err := driver.ListManifests(target)
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(manifests))
	for i, path := range manifests {
		labels[i] = driver.UnitLabel(path)
	}
	return labels, nil
}

func formatPathForOutput(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	if strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

func init() {
	finalizeCmd.Flags().StringP("out", "o", "", "write the linked module to this path (single unit only)")
	finalizeCmd.Flags().String("manifest", "", "finalize the unit described by this ember.toml")
	finalizeCmd.Flags().String("reflect-out", "", "write a reflection sidecar to this path (single unit only)")
	finalizeCmd.Flags().Int("jobs", 0, "parallel unit finalizations (0 = number of CPUs)")
	finalizeCmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
	finalizeCmd.Flags().Bool("verbose", false, "log finalization steps to stderr")
}
