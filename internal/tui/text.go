package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"countryview/internal/view"
)

// TextSink renders each view as a bordered table on W. It backs the batch
// list command.
type TextSink struct {
	W io.Writer
}

var _ view.Sink = TextSink{}

// Render implements view.Sink.
func (s TextSink) Render(rows []view.Row) error {
	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		Headers(view.Columns()...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return labelStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, r := range rows {
		t.Row(r.Values()...)
	}
	if _, err := fmt.Fprintln(s.W, t.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(s.W, "%d rows\n", len(rows))
	return err
}

// Locale parses a BCP 47 tag, falling back to Spanish.
func Locale(raw string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(raw))
	if err != nil || raw == "" {
		return language.Spanish
	}
	return tag
}

// RenderStats writes st with numbers grouped for tag.
func RenderStats(w io.Writer, st view.Stats, tag language.Tag) error {
	p := message.NewPrinter(tag)
	var b strings.Builder
	line := func(label, value string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-24s", label)))
		b.WriteString(" ")
		b.WriteString(value)
		b.WriteString("\n")
	}
	line("Countries:", p.Sprint(number.Decimal(st.Total)))
	line("Most populous:", fmt.Sprintf("%s (%s)", st.MostPopulous.CommonName, p.Sprint(number.Decimal(st.MostPopulous.Population))))
	line("Least populous:", fmt.Sprintf("%s (%s)", st.LeastPopulous.CommonName, p.Sprint(number.Decimal(st.LeastPopulous.Population))))
	line("Mean population:", formatFixed(p, st.MeanPopulation, 0))
	line("Mean area:", formatFixed(p, st.MeanArea, 2)+" km²")
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Countries per group"))
	b.WriteString("\n")
	for _, g := range st.Groups {
		line(g.Group+":", p.Sprint(number.Decimal(g.Count)))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// formatFixed renders d rounded to places with p's grouping and decimal
// separator, keeping every digit of d. Means of int64 values fit in an int64.
func formatFixed(p *message.Printer, d decimal.Decimal, places int32) string {
	d = d.Round(places)
	out := p.Sprint(number.Decimal(d.Abs().IntPart()))
	if d.IsNegative() {
		out = "-" + out
	}
	_, frac, ok := strings.Cut(d.StringFixed(places), ".")
	if !ok {
		return out
	}
	return out + decimalSeparator(p) + frac
}

func decimalSeparator(p *message.Printer) string {
	half := p.Sprint(number.Decimal(0.5, number.MinFractionDigits(1)))
	return strings.Trim(half, "05")
}
