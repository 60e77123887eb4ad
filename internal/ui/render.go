package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/Mohsinsiddi/txdash/internal/chain"
	"github.com/Mohsinsiddi/txdash/internal/summary"
	"github.com/charmbracelet/lipgloss"
)

// RecentLimit caps the transactions table.
const RecentLimit = 100

// SummaryCards renders the headline totals side by side.
func SummaryCards(s summary.Summary, currency string) string {
	card := func(label, value string, style lipgloss.Style) string {
		return StyleBorder.Width(24).Render(StyleMeta.Render(label) + "\n" + style.Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total Transactions", FormatCount(s.Total), StyleValue),
		card(currency+" Received", FormatAmount(s.ReceivedEth)+" "+currency, StyleSuccess),
		card(currency+" Sent", FormatAmount(s.SentEth)+" "+currency, StyleWarning),
		card("Gas Spent", FormatAmount(s.GasFeeEth)+" "+currency, StyleValue),
		card("Avg Gas Price", formatGwei(s.AvgGasGwei)+" gwei", StyleInfo),
	)
}

// CounterpartyTable renders a ranked counterparty list.
func CounterpartyTable(title string, rows []summary.Counterparty, currency string) string {
	var sb strings.Builder
	sb.WriteString(StyleHeader.Render(title) + "\n")
	if len(rows) == 0 {
		sb.WriteString(StyleMeta.Render("  none") + "\n")
		return sb.String()
	}
	t := NewTable([]Column{
		{Title: "Address", Width: 14},
		{Title: "Txs", Width: 4, Right: true},
		{Title: "Value (" + currency + ")", Width: 16, Right: true},
	})
	for _, r := range rows {
		t.AddRow(Row{TruncateAddr(r.Address), FormatCount(r.Count), FormatAmount(r.ValueEth)})
	}
	sb.WriteString(t.Render())
	return sb.String()
}

// BarChart renders one horizontal bar per day, scaled to the largest value.
func BarChart(title string, points []summary.DayPoint, width int, format func(float64) string) string {
	var sb strings.Builder
	sb.WriteString(StyleHeader.Render(title) + "\n")
	if len(points) == 0 {
		sb.WriteString(StyleMeta.Render("  no data") + "\n")
		return sb.String()
	}
	if width < 4 {
		width = 4
	}
	peak := summary.Max(points)
	for _, p := range points {
		n := 0
		if peak > 0 {
			n = int(math.Round(p.Value / peak * float64(width)))
		}
		if n == 0 && p.Value > 0 {
			n = 1
		}
		bar := StyleBar.Render(strings.Repeat("█", n)) + strings.Repeat(" ", width-n)
		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			StyleMeta.Render(p.Day.Format("Jan 02")), bar, StyleValue.Render(format(p.Value))))
	}
	return sb.String()
}

// TxTable builds the recent-transactions table for at most limit rows,
// highlighting row sel.
func TxTable(txs []chain.Transaction, limit, sel int, currency string) *Table {
	if limit >= 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	t := NewTable([]Column{
		{Title: "Date", Width: 16},
		{Title: "Type", Width: 8},
		{Title: "Value (" + currency + ")", Width: 16, Right: true},
		{Title: "Gas (gwei)", Width: 10, Right: true},
		{Title: "From", Width: 12},
		{Title: "To", Width: 12},
		{Title: "Hash", Width: 12},
	})
	for _, tx := range txs {
		t.AddRow(Row{
			tx.Time().Format("2006-01-02 15:04"),
			string(tx.Direction),
			FormatAmount(tx.ValueEth),
			formatGwei(tx.GasPriceGwei),
			TruncateAddr(tx.From),
			TruncateAddr(tx.To),
			TruncateAddr(tx.Hash),
		})
	}
	t.SelIdx = sel
	t.CellStyle = func(row, col int) lipgloss.Style {
		switch col {
		case 1:
			if txs[row].Direction == chain.Incoming {
				return StyleSuccess
			}
			return StyleWarning
		case 2:
			return StyleValue
		case 4, 5, 6:
			return StyleAddress
		default:
			return StyleMeta
		}
	}
	return t
}

// Report renders the full static dashboard for one-shot output.
func Report(address string, network chain.Network, txs []chain.Transaction, limit int) string {
	s := summary.Compute(txs)
	cur := network.NativeCurrency

	var sb strings.Builder
	sb.WriteString(StyleTitle.Render(fmt.Sprintf("◆ %s  ·  %s", chain.ChecksumAddress(address), network.DisplayName)) + "\n")
	sb.WriteString(SummaryCards(s, cur) + "\n\n")
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		CounterpartyTable("Top Senders", s.TopSenders, cur),
		"    ",
		CounterpartyTable("Top Receivers", s.TopReceivers, cur),
	) + "\n")
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		BarChart("Daily Volume ("+cur+")", summary.Last(s.DailyVolume, 14), 24, FormatAmount),
		"    ",
		BarChart("Avg Gas Price (gwei)", summary.Last(s.DailyGas, 14), 16, formatGwei),
	) + "\n")
	sb.WriteString(StyleHeader.Render("Recent Transactions") + "\n")
	sb.WriteString(TxTable(txs, limit, -1, cur).Render())
	return sb.String()
}
