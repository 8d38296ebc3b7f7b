package taskfile

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/gtui/internal/errors"
)

type yamlFile struct {
	Title string    `yaml:"title"`
	Tasks []TaskDef `yaml:"tasks"`
}

// ParseYAML parses a YAML task file. Unknown keys are rejected so typos
// such as "waitingfor" do not silently drop an edge.
func ParseYAML(data []byte, filename string) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var raw yamlFile
	if err := dec.Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", errors.ErrInvalidInput, filename, err)
	}

	f := &File{Title: raw.Title, Tasks: raw.Tasks}
	if err := f.validate(filename); err != nil {
		return nil, err
	}
	return f, nil
}
