package logging

import (
	"fmt"
	"log/slog"
	"strings"
	"text/template"
)

// DefaultFormat is the layout used when log.format is empty.
const DefaultFormat = "[{{.Time}}][{{.Logger}}][{{.Message}}]"

// DefaultTimeFormat is the time layout used when log.time_format is empty.
const DefaultTimeFormat = "2006-01-02 15:04:05"

// Formatter turns a Record into one display line.
type Formatter interface {
	Format(r Record) string
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(r Record) string

// Format calls f(r).
func (f FormatterFunc) Format(r Record) string { return f(r) }

// TemplateFormatter renders records through a text/template layout.
// The template sees .Time, .Level, .Logger and .Message as strings.
// Record attributes are appended as key=value pairs.
type TemplateFormatter struct {
	tmpl       *template.Template
	timeLayout string
}

// formatData is the value a layout template executes against.
type formatData struct {
	Time    string
	Level   string
	Logger  string
	Message string
}

// NewTemplateFormatter parses layout. Empty arguments select the defaults.
func NewTemplateFormatter(layout, timeLayout string) (*TemplateFormatter, error) {
	if layout == "" {
		layout = DefaultFormat
	}
	if timeLayout == "" {
		timeLayout = DefaultTimeFormat
	}
	tmpl, err := template.New("log").Option("missingkey=error").Parse(layout)
	if err != nil {
		return nil, fmt.Errorf("invalid log format %q: %w", layout, err)
	}
	// Render once so field typos fail at configuration time.
	if err := tmpl.Execute(&strings.Builder{}, formatData{}); err != nil {
		return nil, fmt.Errorf("invalid log format %q: %w", layout, err)
	}
	return &TemplateFormatter{tmpl: tmpl, timeLayout: timeLayout}, nil
}

// DefaultFormatter returns the formatter for DefaultFormat and DefaultTimeFormat.
func DefaultFormatter() Formatter {
	f, err := NewTemplateFormatter("", "")
	if err != nil {
		panic(err)
	}
	return f
}

// Format implements Formatter.
func (f *TemplateFormatter) Format(r Record) string {
	var sb strings.Builder
	err := f.tmpl.Execute(&sb, formatData{
		Time:    r.Time.Format(f.timeLayout),
		Level:   r.Level.String(),
		Logger:  r.Logger,
		Message: r.Message,
	})
	if err != nil {
		return r.Message
	}
	writeAttrs(&sb, r.Attrs)
	return sb.String()
}

func writeAttrs(sb *strings.Builder, attrs []slog.Attr) {
	for _, a := range attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.Key)
		sb.WriteByte('=')
		sb.WriteString(a.Value.Resolve().String())
	}
}

// FormatAll formats every record on its own line.
func FormatAll(f Formatter, records []Record) string {
	if f == nil {
		f = DefaultFormatter()
	}
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = f.Format(r)
	}
	return strings.Join(lines, "\n")
}
