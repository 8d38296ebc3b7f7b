package taskfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Iron-Ham/gtui/internal/errors"
	"github.com/Iron-Ham/gtui/internal/graph"
)

// DefaultNames are the files Find looks for, in order.
var DefaultNames = []string{"gtui.yaml", "gtui.yml", "gtui.hcl"}

// TaskDef declares one shell-command task.
type TaskDef struct {
	Name       string            `yaml:"name"`
	Command    string            `yaml:"command"`
	WaitingFor []string          `yaml:"waiting_for"`
	Dir        string            `yaml:"dir"`
	Env        map[string]string `yaml:"env"`
}

// File is a parsed task file.
type File struct {
	// Path is where the file was read from. Empty for in-memory parses.
	Path  string
	Title string
	Tasks []TaskDef
}

// BuildOptions controls how a File becomes a graph.
type BuildOptions struct {
	// BaseDir resolves relative task dirs. Empty means the file's directory,
	// or the working directory for in-memory files.
	BaseDir string
	// OutputLimit bounds each task's retained output (0 keeps everything).
	OutputLimit int
	// Shell runs commands as Shell -c command. Empty means "sh".
	Shell string
	// WaitDelay bounds how long a finished shell's output is still read
	// while background children hold it open. Zero means DefaultWaitDelay.
	WaitDelay time.Duration
}

// Find returns the first of DefaultNames present in dir.
func Find(dir string) (string, error) {
	for _, name := range DefaultNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no task file (%s) in %s", errors.ErrInvalidInput, strings.Join(DefaultNames, ", "), dir)
}

// Load reads path and parses it according to its extension:
// .yaml and .yml as YAML, .hcl as HCL.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}

	var f *File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		f, err = ParseYAML(data, path)
	case ".hcl":
		f, err = ParseHCL(data, path, os.Environ())
	default:
		return nil, fmt.Errorf("%w: unsupported task file extension %q", errors.ErrInvalidInput, ext)
	}
	if err != nil {
		return nil, err
	}
	f.Path = path
	return f, nil
}

// validate checks what the graph cannot: every task has a name and a command.
func (f *File) validate(filename string) error {
	for i, t := range f.Tasks {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("%w: %s: task #%d has no name", errors.ErrInvalidInput, filename, i+1)
		}
		if strings.TrimSpace(t.Command) == "" {
			return fmt.Errorf("%w: %s: task %q has no command", errors.ErrInvalidInput, filename, t.Name)
		}
	}
	return nil
}

// Graph builds a TaskGraph from the file. Tasks may wait for tasks declared
// later in the file. A waiting_for entry naming no task yields an
// *errors.UnknownTaskError; duplicate names yield *errors.DuplicateNameError.
// Cycles are left for the scheduler to report.
func (f *File) Graph(opts BuildOptions) (*graph.TaskGraph, error) {
	if opts.BaseDir == "" && f.Path != "" {
		opts.BaseDir = filepath.Dir(f.Path)
	}

	var taskOpts []graph.TaskOption
	if opts.OutputLimit > 0 {
		taskOpts = append(taskOpts, graph.WithOutputLimit(opts.OutputLimit))
	}

	g := graph.New()
	tasks := make([]*graph.Task, len(f.Tasks))
	for i, def := range f.Tasks {
		tasks[i] = graph.NewTask(def.Name, Command(def, opts), taskOpts...)
	}
	if err := g.AddTasks(tasks...); err != nil {
		return nil, err
	}
	for _, def := range f.Tasks {
		if len(def.WaitingFor) == 0 {
			continue
		}
		if err := g.AddDependency(def.Name, def.WaitingFor...); err != nil {
			return nil, err
		}
	}
	return g, nil
}
