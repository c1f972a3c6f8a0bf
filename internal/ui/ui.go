// Package ui formats flowviz terminal output.
package ui

import (
	"fmt"
	"hash/fnv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

var (
	Brand  = color.New(color.FgHiCyan, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn   = color.New(color.FgYellow)
	Info   = color.New(color.FgCyan)
	Good   = color.New(color.FgGreen)
	Bad    = color.New(color.FgRed)
)

const Mark = "⇄"

// categoryColors tint category names so the same category reads the same
// in every command.
var categoryColors = []*color.Color{
	color.New(color.FgCyan),
	color.New(color.FgMagenta),
	color.New(color.FgYellow),
	color.New(color.FgGreen),
	color.New(color.FgBlue),
	color.New(color.FgHiRed),
}

// Banner prints the flowviz banner.
func Banner(subtitle string) {
	fmt.Fprintf(color.Output, "%s %s: %s\n\n", Mark, Brand.Sprint("flowviz"), subtitle)
}

// Field is one line of a Fields block.
type Field struct {
	Key   string
	Value any
}

// Fields prints label/value pairs with the values lined up.
func Fields(fs ...Field) {
	WriteFields(color.Output, fs...)
}

func WriteFields(w io.Writer, fs ...Field) {
	width := 0
	for _, f := range fs {
		width = max(width, utf8.RuneCountInString(f.Key))
	}
	for _, f := range fs {
		fmt.Fprintf(w, "  %s  %v\n", Subtle.Sprint(pad(f.Key, width)), f.Value)
	}
}

// Table prints rows under a ruled header. Columns are sized in runes so
// node labels outside ASCII stay aligned.
func Table(headers []string, rows [][]string) {
	WriteTable(color.Output, headers, rows)
}

func WriteTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}

	var head, rule strings.Builder
	for i, h := range headers {
		head.WriteString(pad(h, widths[i]) + "  ")
		rule.WriteString(strings.Repeat("─", widths[i]) + "  ")
	}
	fmt.Fprintln(w, "  "+Subtle.Sprint(strings.TrimRight(head.String(), " ")))
	fmt.Fprintln(w, "  "+Subtle.Sprint(strings.TrimRight(rule.String(), " ")))

	for _, row := range rows {
		var line strings.Builder
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			line.WriteString(pad(cell, widths[i]) + "  ")
		}
		fmt.Fprintln(w, "  "+strings.TrimRight(line.String(), " "))
	}
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// Category returns name in its category color.
func Category(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return categoryColors[h.Sum32()%uint32(len(categoryColors))].Sprint(name)
}

// Categories joins names, each in its own color.
func Categories(names []string) string {
	if len(names) == 0 {
		return Subtle.Sprint("none")
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = Category(n)
	}
	return strings.Join(out, ", ")
}

// Coords formats a layout position. z is shown only when set.
func Coords(x, y float64, z *float64) string {
	if z == nil {
		return fmt.Sprintf("%.1f, %.1f", x, y)
	}
	return fmt.Sprintf("%.1f, %.1f, %.1f", x, y, *z)
}

// Plural renders a count with its noun, adding an s unless n is 1.
func Plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func StatusIcon(ok bool) string {
	if ok {
		return Good.Sprint("✓")
	}
	return Bad.Sprint("✗")
}

func WarnIcon() string {
	return Warn.Sprint("⚠")
}

// Truncate shortens s to max runes with an ellipsis.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max < 4 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
