package cli

import (
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/garrettladley/csverify/internal/cli/theme"
	"github.com/garrettladley/csverify/internal/storage"
	cswebhook "github.com/garrettladley/csverify/webhook"
)

const timeLayout = "2006-01-02 15:04:05"

func newTable(t theme.Theme, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(t.Dim()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return t.Header()
			}
			return t.Cell()
		})
}

// RenderRegions lists every supported region and its signing-key URL. The
// default region is marked.
func RenderRegions(t theme.Theme) string {
	tbl := newTable(t, "REGION", "SIGNING KEY URL", "")
	def := cswebhook.DefaultConfig().Region
	for _, r := range cswebhook.Regions() {
		mark := ""
		if r == def {
			mark = "default"
		}
		tbl.Row(r.String(), r.KeyURL(), mark)
	}
	return tbl.String()
}

// RenderHistory lists recorded receipts, newest first.
func RenderHistory(t theme.Theme, receipts []storage.Receipt) string {
	if len(receipts) == 0 {
		return t.Dim().Render("no receipts recorded")
	}

	tbl := newTable(t, "RECEIVED", "MODULE", "EVENT", "SUBJECT", "TRIGGERED", "ID")
	for _, r := range receipts {
		tbl.Row(
			r.ReceivedAt.Local().Format(timeLayout),
			r.Module,
			r.Event,
			r.EntryUID,
			formatTime(r.TriggeredAt),
			r.ID,
		)
	}
	return tbl.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

// RenderReceipt formats a single streamed receipt.
func RenderReceipt(t theme.Theme, r storage.Receipt) string {
	subject := r.EntryUID
	if subject == "" {
		subject = "-"
	}
	return t.Dim().Render(r.ReceivedAt.Local().Format(timeLayout)) + " " +
		t.Accent().Render(r.Module+"."+r.Event) + " " +
		t.Base().Render(subject) + " " +
		t.Dim().Render(r.ID)
}
