package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"emberlink/internal/driver"
	"emberlink/internal/linkpipeline"
	"emberlink/internal/ui"
)

type finalizeOutcome struct {
	result *driver.Result
	err    error
}

func runFinalizeWithUI(ctx context.Context, title string, labels []string, target string, targetIsDir bool, opts driver.Options) (*driver.Result, error) {
	events := make(chan linkpipeline.Event, 256)
	outcomeCh := make(chan finalizeOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Sink = linkpipeline.ChannelSink{Ch: events}
		var (
			res *driver.Result
			err error
		)
		if targetIsDir {
			res, err = driver.FinalizeDir(ctx, target, optsCopy)
		} else {
			res, err = driver.FinalizeUnit(ctx, target, optsCopy)
		}
		outcomeCh <- finalizeOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, labels, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
