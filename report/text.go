package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/wippyai/wasm-stats/engine"
	"github.com/wippyai/wasm-stats/errors"
	"github.com/wippyai/wasm-stats/stats"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// row is a label and a count.
type row struct {
	label string
	value int
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		StyleFunc(func(r, _ int) lipgloss.Style {
			if r == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func countTable(title string, rows []row) string {
	t := newTable(title, "count")
	for _, r := range rows {
		t.Row(r.label, strconv.Itoa(r.value))
	}
	return t.Render()
}

// Text writes a human readable rendering of s. name labels the module,
// usually its path.
func Text(w io.Writer, name string, s *stats.Stats) error {
	if s == nil {
		return errors.InvalidInput(errors.PhaseRender, "nil stats")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(name))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %s   %s %s   %s %s\n\n",
		headingStyle.Render("language"), valueStyle.Render(s.Language.String()),
		headingStyle.Render("funcs"), valueStyle.Render(strconv.Itoa(s.Funcs)),
		headingStyle.Render("start"), valueStyle.Render(strconv.FormatBool(s.HasStart)))

	in := s.Instr
	cats := countTable("category", []row{
		{"load_store", in.Categories.LoadStore},
		{"local_var", in.Categories.LocalVar},
		{"global_var", in.Categories.GlobalVar},
		{"table", in.Categories.Table},
		{"memory", in.Categories.Memory},
		{"control_flow", in.Categories.ControlFlow},
		{"direct_calls", in.Categories.DirectCalls},
		{"indirect_calls", in.Categories.IndirectCalls},
		{"constants", in.Categories.Constants},
		{"wait_notify", in.Categories.WaitNotify},
		{"other", in.Categories.Other},
		{"total", in.Total},
	})
	props := countTable("proposal", []row{
		{"atomics", in.Proposals.Atomics},
		{"ref_types", in.Proposals.RefTypes},
		{"simd", in.Proposals.SIMD},
		{"tail_calls", in.Proposals.TailCalls},
		{"bulk", in.Proposals.Bulk},
		{"multi_value", in.Proposals.MultiValue},
		{"non_trapping_conv", in.Proposals.NonTrappingConv},
		{"sign_extend", in.Proposals.SignExtend},
		{"mutable_externals", in.Proposals.MutableExternals},
		{"bigint_externals", in.Proposals.BigintExternals},
	})
	sizes := countTable("section", []row{
		{"code", s.Size.Code},
		{"init", s.Size.Init},
		{"externals", s.Size.Externals},
		{"types", s.Size.Types},
		{"custom", s.Size.Custom},
		{"descriptors", s.Size.Descriptors},
		{"total", s.Size.Total},
	})
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cats, " ", props, " ", sizes))
	b.WriteString("\n\n")

	ext := newTable("kind", "imports", "exports")
	ext.Row("funcs", strconv.Itoa(s.Imports.Funcs), strconv.Itoa(s.Exports.Funcs))
	ext.Row("memories", strconv.Itoa(s.Imports.Memories), strconv.Itoa(s.Exports.Memories))
	ext.Row("globals", strconv.Itoa(s.Imports.Globals), strconv.Itoa(s.Exports.Globals))
	ext.Row("tables", strconv.Itoa(s.Imports.Tables), strconv.Itoa(s.Exports.Tables))
	b.WriteString(ext.Render())
	b.WriteString("\n\n")

	b.WriteString(headingStyle.Render("custom sections"))
	b.WriteString("\n")
	if len(s.CustomSections) == 0 {
		b.WriteString(dimStyle.Render("  (none)"))
		b.WriteString("\n")
	}
	for _, name := range s.CustomSections {
		fmt.Fprintf(&b, "  %s\n", name)
	}

	return write(w, b.String())
}

// EngineText writes the outcome of an engine cross-check.
func EngineText(w io.Writer, r *engine.Report) error {
	if r == nil {
		return errors.InvalidInput(errors.PhaseRender, "nil engine report")
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render("engine check"))
	b.WriteString("\n")
	switch {
	case !r.Compiled:
		fmt.Fprintf(&b, "  %s %s\n", errorStyle.Render("rejected:"), r.Error)
	case len(r.Mismatches) == 0:
		fmt.Fprintf(&b, "  %s\n", valueStyle.Render("ok"))
	default:
		t := newTable("field", "stats", "engine")
		for _, m := range r.Mismatches {
			t.Row(m.Field, strconv.Itoa(m.Stats), strconv.Itoa(m.Engine))
		}
		b.WriteString(t.Render())
		b.WriteString("\n")
	}
	return write(w, b.String())
}

func write(w io.Writer, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return errors.Wrap(errors.PhaseRender, errors.KindInvalidData, err, "write report")
	}
	return nil
}
