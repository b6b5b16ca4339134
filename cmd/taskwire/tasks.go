// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/taskwire/taskwire/cmd/taskwire/cli"
	"github.com/taskwire/taskwire/lib/task"
)

func addCommand() *cli.Command {
	var conn connection
	var description string
	return &cli.Command{
		Name:    "add",
		Summary: "add a task",
		Usage:   "taskwire add <title> [flags]",
		Examples: []cli.Example{
			{Description: "add a task with a description", Command: `taskwire add "buy milk" --description "2 liters"`},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("add", pflag.ContinueOnError)
			conn.flags(flags)
			flags.StringVar(&description, "description", "", "task description")
			return flags
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("title required")
			}
			title := strings.Join(args, " ")

			c, err := conn.client()
			if err != nil {
				return err
			}
			created, err := c.Create(context.Background(), title, description)
			if err != nil {
				return err
			}
			fmt.Println(renderTask(created))
			return nil
		},
	}
}

func listCommand() *cli.Command {
	var conn connection
	var all bool
	return &cli.Command{
		Name:    "list",
		Summary: "list tasks",
		Usage:   "taskwire list [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
			conn.flags(flags)
			flags.BoolVar(&all, "all", false, "include completed tasks")
			return flags
		},
		Run: func(args []string) error {
			c, err := conn.client()
			if err != nil {
				return err
			}
			tasks, err := c.List(context.Background())
			if err != nil {
				return err
			}
			if !all {
				open := tasks[:0]
				for _, t := range tasks {
					if !t.Completed {
						open = append(open, t)
					}
				}
				tasks = open
			}
			fmt.Println(renderTasks(tasks))
			return nil
		},
	}
}

func doneCommand() *cli.Command {
	var conn connection
	var reopen bool
	return &cli.Command{
		Name:    "done",
		Summary: "mark a task completed",
		Usage:   "taskwire done <id> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("done", pflag.ContinueOnError)
			conn.flags(flags)
			flags.BoolVar(&reopen, "undo", false, "mark the task open again")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("exactly one task id required")
			}
			c, err := conn.client()
			if err != nil {
				return err
			}
			completed := !reopen
			updated, err := c.Update(context.Background(), args[0], task.Patch{Completed: &completed})
			if err != nil {
				return err
			}
			fmt.Println(renderTask(updated))
			return nil
		},
	}
}

func editCommand() *cli.Command {
	var conn connection
	var title, description string
	return &cli.Command{
		Name:    "edit",
		Summary: "edit a task's title or description",
		Usage:   "taskwire edit <id> [flags]",
		Examples: []cli.Example{
			{Description: "retitle a task", Command: `taskwire edit 4c2f --title "buy oat milk"`},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("edit", pflag.ContinueOnError)
			conn.flags(flags)
			flags.StringVar(&title, "title", "", "new title")
			flags.StringVar(&description, "description", "", "new description")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("exactly one task id required")
			}

			var patch task.Patch
			if title != "" {
				patch.Title = &title
			}
			if description != "" {
				patch.Description = &description
			}
			if patch.IsZero() {
				return fmt.Errorf("nothing to change: pass --title or --description")
			}

			c, err := conn.client()
			if err != nil {
				return err
			}
			updated, err := c.Update(context.Background(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Println(renderTask(updated))
			return nil
		},
	}
}

func rmCommand() *cli.Command {
	var conn connection
	return &cli.Command{
		Name:    "rm",
		Summary: "remove a task",
		Usage:   "taskwire rm <id> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("rm", pflag.ContinueOnError)
			conn.flags(flags)
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("exactly one task id required")
			}
			c, err := conn.client()
			if err != nil {
				return err
			}
			id, err := c.Delete(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("removed %s\n", idStyle.Render(id))
			return nil
		},
	}
}
