// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/taskwire/taskwire/lib/task"
)

var (
	idStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	doneMarkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	openMarkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	doneTitleStyle = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	detailStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// renderTask formats one task as a single line (plus an indented
// description line when present).
func renderTask(t task.Task) string {
	mark := openMarkStyle.Render("[ ]")
	title := t.Title
	if t.Completed {
		mark = doneMarkStyle.Render("[x]")
		title = doneTitleStyle.Render(title)
	}

	line := fmt.Sprintf("%s %s  %s", mark, title, idStyle.Render(t.ID))
	if t.Description != "" {
		line += "\n    " + detailStyle.Render(t.Description)
	}
	return line
}

// renderTasks formats a task list, one task per entry, in the order
// given.
func renderTasks(tasks []task.Task) string {
	if len(tasks) == 0 {
		return detailStyle.Render("no tasks")
	}
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		lines = append(lines, renderTask(t))
	}
	return strings.Join(lines, "\n")
}
