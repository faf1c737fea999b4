// Package theme holds the lipgloss styles used by the csverify CLI.
package theme

import "charm.land/lipgloss/v2"

type Theme struct {
	base    lipgloss.Style
	accent  lipgloss.Style
	dim     lipgloss.Style
	valid   lipgloss.Style
	invalid lipgloss.Style
	warn    lipgloss.Style
}

func New() Theme {
	base := lipgloss.NewStyle().Foreground(ColorWhite)
	return Theme{
		base:    base,
		accent:  base.Foreground(ColorAccent).Bold(true),
		dim:     base.Foreground(ColorDim),
		valid:   base.Foreground(ColorValid).Bold(true),
		invalid: base.Foreground(ColorInvalid).Bold(true),
		warn:    base.Foreground(ColorWarn).Bold(true),
	}
}

func (t Theme) Base() lipgloss.Style    { return t.base }
func (t Theme) Accent() lipgloss.Style  { return t.accent }
func (t Theme) Dim() lipgloss.Style     { return t.dim }
func (t Theme) Valid() lipgloss.Style   { return t.valid }
func (t Theme) Invalid() lipgloss.Style { return t.invalid }
func (t Theme) Warn() lipgloss.Style    { return t.warn }

// Header renders a table header cell.
func (t Theme) Header() lipgloss.Style {
	return t.accent.Padding(0, 1)
}

// Cell renders a table body cell.
func (t Theme) Cell() lipgloss.Style {
	return t.base.Padding(0, 1)
}
