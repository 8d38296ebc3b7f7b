package taskfile

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/Iron-Ham/gtui/internal/errors"
)

// hclTaskFile is the top-level structure of an HCL task file for decoding.
type hclTaskFile struct {
	Title string     `hcl:"title,optional"`
	Tasks []*hclTask `hcl:"task,block"`
}

type hclTask struct {
	Name       string            `hcl:"name,label"`
	Command    string            `hcl:"command"`
	WaitingFor []string          `hcl:"waiting_for,optional"`
	Dir        string            `hcl:"dir,optional"`
	Env        map[string]string `hcl:"env,optional"`
}

// ParseHCL parses an HCL task file. environ, in os.Environ form, is
// exposed to expressions as the env object.
func ParseHCL(data []byte, filename string, environ []string) (*File, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to parse HCL file %s: %s", errors.ErrInvalidInput, filename, diags.Error())
	}

	var parsed hclTaskFile
	diags = gohcl.DecodeBody(file.Body, evalContext(environ), &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to decode HCL file %s: %s", errors.ErrInvalidInput, filename, diags.Error())
	}

	f := &File{Title: parsed.Title, Tasks: make([]TaskDef, 0, len(parsed.Tasks))}
	for _, t := range parsed.Tasks {
		f.Tasks = append(f.Tasks, TaskDef{
			Name:       t.Name,
			Command:    t.Command,
			WaitingFor: t.WaitingFor,
			Dir:        t.Dir,
			Env:        t.Env,
		})
	}
	if err := f.validate(filename); err != nil {
		return nil, err
	}
	return f, nil
}

func evalContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}
