// Package output renders analysis results in the supported formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	toon "github.com/toon-format/toon-go"
)

// Format is an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatCompact  Format = "compact"
	FormatTOON     Format = "toon"
)

// ParseFormat converts a string to Format, defaulting to table.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "markdown", "md":
		return FormatMarkdown
	case "compact":
		return FormatCompact
	case "toon":
		return FormatTOON
	default:
		return FormatTable
	}
}

// Renderable is data that can render itself in multiple formats.
type Renderable interface {
	RenderText(w io.Writer, colored bool) error
	RenderMarkdown(w io.Writer) error
	// RenderData returns the underlying data for JSON and TOON
	// serialization.
	RenderData() any
}

// CompactRenderer is implemented by Renderables with a one-line-per-item
// format suitable for grepping and editor quickfix lists.
type CompactRenderer interface {
	RenderCompact(w io.Writer) error
}

// Formatter writes render output to stdout or a file.
type Formatter struct {
	format  Format
	writer  io.Writer
	file    *os.File
	colored bool
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithWriter sets the output writer.
func WithWriter(w io.Writer) Option {
	return func(f *Formatter) {
		f.writer = w
	}
}

// WithColor enables or disables colored output.
func WithColor(enabled bool) Option {
	return func(f *Formatter) {
		f.colored = enabled
	}
}

// New creates a formatter. A non-empty path redirects output to that file
// and disables color.
func New(format Format, path string, opts ...Option) (*Formatter, error) {
	f := &Formatter{
		format:  format,
		writer:  os.Stdout,
		colored: true,
	}
	for _, opt := range opts {
		opt(f)
	}

	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		f.file = file
		f.writer = file
		f.colored = false
	}
	return f, nil
}

// Close closes the output file, if any.
func (f *Formatter) Close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}

// Writer returns the underlying writer.
func (f *Formatter) Writer() io.Writer {
	return f.writer
}

// Format returns the configured format.
func (f *Formatter) Format() Format {
	return f.format
}

// Colored reports whether colored output is enabled.
func (f *Formatter) Colored() bool {
	return f.colored
}

// Output writes data in the configured format.
func (f *Formatter) Output(data any) error {
	r, ok := data.(Renderable)
	if !ok {
		return f.marshal(data)
	}
	switch f.format {
	case FormatJSON, FormatTOON:
		return f.marshal(r.RenderData())
	case FormatMarkdown:
		return r.RenderMarkdown(f.writer)
	case FormatCompact:
		if c, ok := r.(CompactRenderer); ok {
			return c.RenderCompact(f.writer)
		}
		return r.RenderText(f.writer, false)
	default:
		return r.RenderText(f.writer, f.colored)
	}
}

func (f *Formatter) marshal(data any) error {
	if f.format == FormatTOON {
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(f.writer, string(out))
		return err
	}
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// Success prints a success message, green when colored.
func (f *Formatter) Success(format string, args ...any) {
	if f.colored {
		color.Green(format, args...)
	} else {
		fmt.Fprintf(f.writer, format+"\n", args...)
	}
}

// Warning prints a warning message, yellow when colored.
func (f *Formatter) Warning(format string, args ...any) {
	if f.colored {
		color.Yellow(format, args...)
	} else {
		fmt.Fprintf(f.writer, "WARNING: "+format+"\n", args...)
	}
}

// Error prints an error message, red when colored.
func (f *Formatter) Error(format string, args ...any) {
	if f.colored {
		color.Red(format, args...)
	} else {
		fmt.Fprintf(f.writer, "ERROR: "+format+"\n", args...)
	}
}

// ConfidenceColor colors a confidence label by band.
func ConfidenceColor(confidence, text string) string {
	switch strings.ToLower(confidence) {
	case "high":
		return color.RedString(text)
	case "medium":
		return color.YellowString(text)
	case "low":
		return color.HiBlackString(text)
	default:
		return text
	}
}

// Table is a Renderable table with headers, rows, and an optional footer.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Footer  []string
	Data    any
}

func (t *Table) RenderData() any {
	if t.Data != nil {
		return t.Data
	}
	result := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]string)
		for j, h := range t.Headers {
			if j < len(row) {
				m[h] = row[j]
			}
		}
		result[i] = m
	}
	return result
}

func (t *Table) RenderText(w io.Writer, colored bool) error {
	if t.Title != "" {
		if colored {
			color.New(color.Bold).Fprintln(w, t.Title)
		} else {
			fmt.Fprintln(w, t.Title)
		}
		fmt.Fprintln(w, strings.Repeat("=", len(t.Title)))
		fmt.Fprintln(w)
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
			},
			Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignLeft}},
			Footer: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignLeft}},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
			Settings: tw.Settings{
				Separators: tw.Separators{BetweenColumns: tw.Off},
			},
		}),
	)

	table.Header(t.Headers)
	for _, row := range t.Rows {
		table.Append(row)
	}
	if len(t.Footer) > 0 {
		footerArgs := make([]any, len(t.Footer))
		for i, cell := range t.Footer {
			footerArgs[i] = cell
		}
		table.Footer(footerArgs...)
	}
	table.Render()
	fmt.Fprintln(w)
	return nil
}

func (t *Table) RenderMarkdown(w io.Writer) error {
	if t.Title != "" {
		fmt.Fprintf(w, "## %s\n\n", t.Title)
	}

	fmt.Fprintf(w, "| %s |\n", strings.Join(t.Headers, " | "))
	seps := make([]string, len(t.Headers))
	for i := range seps {
		seps[i] = "---"
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))
	for _, row := range t.Rows {
		fmt.Fprintf(w, "| %s |\n", strings.Join(row, " | "))
	}
	if len(t.Footer) > 0 {
		fmt.Fprintf(w, "| %s |\n", strings.Join(t.Footer, " | "))
	}
	fmt.Fprintln(w)
	return nil
}
