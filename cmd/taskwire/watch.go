// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/taskwire/taskwire/cmd/taskwire/cli"
	"github.com/taskwire/taskwire/lib/client"
)

func watchCommand() *cli.Command {
	var conn connection
	return &cli.Command{
		Name:    "watch",
		Summary: "show the task list live",
		Usage:   "taskwire watch [flags]",
		Description: "watch subscribes to the realtime change feed and redraws the\n" +
			"task list whenever any of the user's sessions mutates it.\n" +
			"Press q to stop.",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("watch", pflag.ContinueOnError)
			conn.flags(flags)
			return flags
		},
		Run: func(args []string) error {
			c, err := conn.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			watcher, err := c.Watch(ctx)
			if err != nil {
				return err
			}

			program := tea.NewProgram(newWatchModel(watcher), tea.WithAltScreen())
			final, err := program.Run()
			if err != nil {
				return err
			}
			if model, ok := final.(watchModel); ok && model.err != nil {
				return model.err
			}
			return nil
		},
	}
}

// watchUpdateMsg signals that the watcher folded at least one change
// into its view since the last draw.
type watchUpdateMsg struct{}

// watchClosedMsg signals that the change stream ended.
type watchClosedMsg struct{}

type watchModel struct {
	watcher *client.Watcher
	err     error
}

func newWatchModel(watcher *client.Watcher) watchModel {
	return watchModel{watcher: watcher}
}

// listenForChange returns a tea.Cmd that blocks until the watcher
// reports a change or the stream ends.
func listenForChange(watcher *client.Watcher) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-watcher.Updates():
			return watchUpdateMsg{}
		case <-watcher.Done():
			return watchClosedMsg{}
		}
	}
}

func (model watchModel) Init() tea.Cmd {
	return listenForChange(model.watcher)
}

func (model watchModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		switch message.String() {
		case "q", "ctrl+c", "esc":
			return model, tea.Quit
		}
	case watchUpdateMsg:
		return model, listenForChange(model.watcher)
	case watchClosedMsg:
		model.err = fmt.Errorf("stream closed by server")
		return model, tea.Quit
	}
	return model, nil
}

func (model watchModel) View() string {
	return renderTasks(model.watcher.Tasks()) + "\n"
}
