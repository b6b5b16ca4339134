// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestWatchModelQuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
	} {
		model := newWatchModel(nil)
		_, command := model.Update(key)
		if command == nil {
			t.Fatalf("%s should return a command", key)
		}
		if _, isQuit := command().(tea.QuitMsg); !isQuit {
			t.Errorf("%s: expected QuitMsg, got %T", key, command())
		}
	}
}

func TestWatchModelRearmsAfterUpdate(t *testing.T) {
	model := newWatchModel(nil)
	_, command := model.Update(watchUpdateMsg{})
	if command == nil {
		t.Fatal("an update should re-arm the change listener")
	}
}

func TestWatchModelQuitsWithErrorWhenStreamCloses(t *testing.T) {
	model := newWatchModel(nil)
	updated, command := model.Update(watchClosedMsg{})
	if command == nil {
		t.Fatal("a closed stream should return a command")
	}
	if _, isQuit := command().(tea.QuitMsg); !isQuit {
		t.Fatalf("expected QuitMsg, got %T", command())
	}
	final := updated.(watchModel)
	if final.err == nil {
		t.Error("a closed stream should surface an error")
	}
}
