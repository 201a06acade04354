package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/llir/llvm/asm"
	"github.com/spf13/cobra"

	"emberlink/internal/abi"
	"emberlink/internal/backend"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <module.ll>",
	Short: "Show the export channels of a linked module",
	Long:  "Show the metadata channels a finalized module carries: pragmas, exported variables, functions, kernels, and record layouts.",
	Args:  cobra.ExactArgs(1),
	RunE:  inspectExecution,
}

var channelHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

func inspectExecution(cmd *cobra.Command, args []string) error {
	module, err := asm.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to parse %q: %w", args[0], err)
	}

	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))

	channels := []string{
		abi.PragmaChannel,
		abi.VarChannel,
		abi.SlotChannel,
		abi.FuncChannel,
		abi.KernelChannel,
		abi.TypeChannel,
	}
	for _, rec := range backend.RecordChannels(module) {
		channels = append(channels, abi.RecordChannel(rec))
	}

	printed := false
	for _, name := range channels {
		rows := backend.ChannelRows(module, name)
		if rows == nil {
			continue
		}
		if printed {
			if _, printErr := fmt.Fprintln(os.Stdout); printErr != nil {
				return printErr
			}
		}
		if err := printChannel(os.Stdout, name, rows, useColor); err != nil {
			return err
		}
		printed = true
	}
	if !printed {
		if _, printErr := fmt.Fprintln(os.Stdout, "no export channels found"); printErr != nil {
			return printErr
		}
	}
	return nil
}

func printChannel(out io.Writer, name string, rows [][]string, useColor bool) error {
	header := name
	if useColor {
		header = channelHeader.Render(name)
	}
	if _, err := fmt.Fprintf(out, "%s (%d)\n", header, len(rows)); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(out, "  %s\n", strings.Join(row, "  ")); err != nil {
			return err
		}
	}
	return nil
}
