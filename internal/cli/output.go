package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Render writes v in the context's output format. Text output is produced
// by the text callback.
func (c *Context) Render(v any, text func(w io.Writer) error) error {
	return Write(c.Out, c.Output, v, text)
}

// Write encodes v to w as JSON or YAML, or calls text for FormatText.
func Write(w io.Writer, format string, v any, text func(w io.Writer) error) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return text(w)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// Percent formats a 0..1 rate as a whole percentage.
func Percent(rate float64) string {
	return fmt.Sprintf("%.0f%%", rate*100)
}

// Bar draws a fixed-width progress bar for a 0..1 rate.
func Bar(rate float64, width int) string {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	filled := int(rate*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
