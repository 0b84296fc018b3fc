// Package output renders thawk-soc results as colored text, tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// Out and ErrOut are where rendered output goes.
var (
	Out    io.Writer = os.Stdout
	ErrOut io.Writer = os.Stderr
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
	headerColor  = color.New(color.FgWhite, color.Bold)
)

var severityColors = map[string]*color.Color{
	"CRITICAL": color.New(color.FgRed, color.Bold),
	"HIGH":     color.New(color.FgRed),
	"MEDIUM":   color.New(color.FgYellow),
	"LOW":      color.New(color.FgGreen),
}

func Success(format string, a ...interface{}) {
	successColor.Fprintf(Out, "✓ "+format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	errorColor.Fprintf(ErrOut, "✗ "+format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	infoColor.Fprintf(Out, format+"\n", a...)
}

func Warn(format string, a ...interface{}) {
	warnColor.Fprintf(Out, "⚠ "+format+"\n", a...)
}

// Severity colors a severity label. Unknown labels are returned unchanged.
func Severity(s string) string {
	if c, ok := severityColors[s]; ok {
		return c.Sprint(s)
	}
	return s
}

func JSON(v interface{}) error {
	enc := json.NewEncoder(Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func YAML(v interface{}) error {
	enc := yaml.NewEncoder(Out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

type Table struct {
	headers []string
	rows    [][]string
}

func NewTable(headers []string) *Table {
	return &Table{
		headers: headers,
		rows:    [][]string{},
	}
}

func (t *Table) AddRow(row []string) {
	t.rows = append(t.rows, row)
}

// Render writes the table with columns padded to their widest cell.
// Widths ignore color escape sequences.
func (t *Table) Render() {
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = len(header)
	}

	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && visibleLen(cell) > widths[i] {
				widths[i] = visibleLen(cell)
			}
		}
	}

	for i, header := range t.headers {
		headerColor.Fprint(Out, pad(header, widths[i]))
	}
	fmt.Fprintln(Out)

	for i := range t.headers {
		fmt.Fprint(Out, strings.Repeat("-", widths[i])+"  ")
	}
	fmt.Fprintln(Out)

	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprint(Out, pad(cell, widths[i]))
			}
		}
		fmt.Fprintln(Out)
	}
}

func pad(cell string, width int) string {
	return cell + strings.Repeat(" ", width-visibleLen(cell)) + "  "
}

// visibleLen is the printed width of s with ANSI escapes removed.
func visibleLen(s string) int {
	n := 0
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\033':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			n++
		}
	}
	return n
}
