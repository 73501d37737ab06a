package ui

import (
	"fmt"
	"strings"
)

// Align type for table column alignment
type Align int

const (
	AlignLeft Align = iota
	AlignRight
	AlignCenter
)

// TableColumn defines a column in a table
type TableColumn struct {
	Key      string
	Header   string
	Align    Align
	MinWidth int
	MaxWidth int // content width cap, 0 = unbounded
}

// TableBorder style for tables
type TableBorder int

const (
	BorderUnicode TableBorder = iota
	BorderASCII
	BorderNone
)

// RenderTableOptions configures table rendering
type RenderTableOptions struct {
	Columns []TableColumn
	Rows    []map[string]string
	Border  TableBorder
	Padding int
}

type boxChars struct {
	tl, tr, bl, br  string // corners
	h, v            string // horizontal, vertical
	t, ml, m, mr, b string // tees and crosses
}

var (
	unicodeBox = boxChars{
		tl: "┌", tr: "┐", bl: "└", br: "┘",
		h: "─", v: "│",
		t: "┬", ml: "├", m: "┼", mr: "┤", b: "┴",
	}
	asciiBox = boxChars{
		tl: "+", tr: "+", bl: "+", br: "+",
		h: "-", v: "|",
		t: "+", ml: "+", m: "+", mr: "+", b: "+",
	}
	noBox = boxChars{v: " "}
)

// RenderTable renders a formatted table. Cells wider than a column's
// MaxWidth are truncated with "...".
func RenderTable(opts RenderTableOptions) string {
	if opts.Padding == 0 {
		opts.Padding = 1
	}

	box := unicodeBox
	switch opts.Border {
	case BorderASCII:
		box = asciiBox
	case BorderNone:
		box = noBox
	}

	cell := func(col TableColumn, v string) string {
		if col.MaxWidth > 0 {
			return TruncateVisible(v, col.MaxWidth)
		}
		return v
	}

	// Content widths, without padding
	widths := make([]int, len(opts.Columns))
	for i, col := range opts.Columns {
		w := VisibleWidth(cell(col, col.Header))
		for _, row := range opts.Rows {
			if cw := VisibleWidth(cell(col, row[col.Key])); cw > w {
				w = cw
			}
		}
		if w < col.MinWidth {
			w = col.MinWidth
		}
		if w < 1 {
			w = 1
		}
		widths[i] = w
	}

	hLine := func(left, mid, right string) string {
		parts := make([]string, len(widths))
		for i, w := range widths {
			parts[i] = strings.Repeat(box.h, w+opts.Padding*2)
		}
		return left + strings.Join(parts, mid) + right
	}

	padCell := func(text string, width int, align Align) string {
		pad := width - VisibleWidth(text)
		if pad <= 0 {
			return text
		}
		switch align {
		case AlignRight:
			return spaces(pad) + text
		case AlignCenter:
			left := pad / 2
			return spaces(left) + text + spaces(pad-left)
		default:
			return text + spaces(pad)
		}
	}

	padStr := spaces(opts.Padding)

	renderRow := func(values []string) string {
		parts := make([]string, len(opts.Columns))
		for i, col := range opts.Columns {
			parts[i] = padStr + padCell(cell(col, values[i]), widths[i], col.Align) + padStr
		}
		line := box.v + strings.Join(parts, box.v) + box.v
		if opts.Border == BorderNone {
			line = strings.TrimRight(line, " ")
		}
		return line
	}

	var lines []string

	if opts.Border != BorderNone {
		lines = append(lines, hLine(box.tl, box.t, box.tr))
	}

	headers := make([]string, len(opts.Columns))
	for i, col := range opts.Columns {
		headers[i] = col.Header
	}
	lines = append(lines, renderRow(headers))

	if opts.Border != BorderNone {
		lines = append(lines, hLine(box.ml, box.m, box.mr))
	}

	for _, row := range opts.Rows {
		values := make([]string, len(opts.Columns))
		for i, col := range opts.Columns {
			values[i] = row[col.Key]
		}
		lines = append(lines, renderRow(values))
	}

	if opts.Border != BorderNone {
		lines = append(lines, hLine(box.bl, box.b, box.br))
	}

	return strings.Join(lines, "\n") + "\n"
}

// KV is one key/value line of a summary block.
type KV struct {
	Key   string
	Value string
}

// RenderSummary renders aligned "key: value" lines in the given order.
func RenderSummary(pairs []KV) string {
	maxKey := 0
	for _, p := range pairs {
		if w := VisibleWidth(p.Key); w > maxKey {
			maxKey = w
		}
	}

	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		lines = append(lines, fmt.Sprintf("  %s  %s",
			Muted("%s", PadRight(p.Key+":", maxKey+1)),
			p.Value))
	}
	return strings.Join(lines, "\n") + "\n"
}
