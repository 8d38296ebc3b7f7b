package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/gtui/internal/errors"
	"github.com/Iron-Ham/gtui/internal/graph"
	"github.com/Iron-Ham/gtui/internal/taskfile"
)

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate a task file without running it",
	Long: `Load a task file and report problems: unknown task names in
waiting_for, duplicate names, and dependency cycles.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

var graphCmd = &cobra.Command{
	Use:   "graph [file]",
	Short: "Print tasks in the order they can run",
	Long: `Print the tasks of a task file in a valid execution order, each with
the tasks it waits for.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGraph,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(graphCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	path, err := taskFilePath(args)
	if err != nil {
		return err
	}
	_, g, err := loadGraph(path, 0)
	if err != nil {
		return err
	}
	if err := g.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: OK (%d tasks)\n", path, g.Len())
	return nil
}

func runGraph(cmd *cobra.Command, args []string) error {
	path, err := taskFilePath(args)
	if err != nil {
		return err
	}
	_, g, err := loadGraph(path, 0)
	if err != nil {
		return err
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range order {
		if deps := g.Dependencies(name); len(deps) > 0 {
			fmt.Fprintf(out, "%s <- %s\n", name, strings.Join(deps, ", "))
		} else {
			fmt.Fprintln(out, name)
		}
	}
	return nil
}

// taskFilePath returns the file named in args, or the default task file in
// the working directory.
func taskFilePath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return taskfile.Find(cwd)
}

func loadGraph(path string, outputLimit int) (*taskfile.File, *graph.TaskGraph, error) {
	f, err := taskfile.Load(path)
	if err != nil {
		return nil, nil, err
	}
	g, err := f.Graph(taskfile.BuildOptions{OutputLimit: outputLimit})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s", path)
	}
	return f, g, nil
}
