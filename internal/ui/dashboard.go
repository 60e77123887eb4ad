package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Mohsinsiddi/txdash/internal/chain"
	"github.com/Mohsinsiddi/txdash/internal/poller"
	"github.com/Mohsinsiddi/txdash/internal/session"
	"github.com/Mohsinsiddi/txdash/internal/summary"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Engine is the part of the poll engine the dashboard drives.
type Engine interface {
	Fetch(ctx context.Context, credential, address string) error
	SetLive(on bool)
	Live() bool
	Phase() poller.Phase
	State() *session.State
}

// NewTxMsg carries a poll event into the program.
type NewTxMsg struct {
	Event poller.Event
}

type fetchDoneMsg struct{ err error }

type dashTickMsg time.Time

const dashTickEvery = 120 * time.Millisecond

// DashboardOptions configures a Dashboard.
type DashboardOptions struct {
	Credential string
	Address    string
	Network    chain.Network
	// ToastFor is how long the new-transaction notice stays up.
	ToastFor time.Duration
	// AutoFetch starts the initial fetch as soon as the program runs.
	AutoFetch bool
}

// Dashboard is the Bubble Tea model for the live transaction dashboard. It
// never mutates session state itself: all changes go through the engine and
// the view redraws from a fresh snapshot.
type Dashboard struct {
	ctx    context.Context
	engine Engine
	opts   DashboardOptions

	snap    session.Snapshot
	sum     summary.Summary
	stamp   time.Time
	cursor  int
	offset  int
	width   int
	height  int
	frame   int
	busy    bool
	warning string
	flash   string
	toast   string
	toastAt time.Time

	Quitting bool
}

// NewDashboard builds the model. ctx bounds every fetch it starts.
func NewDashboard(ctx context.Context, engine Engine, opts DashboardOptions) Dashboard {
	if opts.ToastFor <= 0 {
		opts.ToastFor = poller.DefaultSettleDelay
	}
	if opts.Network.NativeCurrency == "" {
		opts.Network.NativeCurrency = "ETH"
	}
	return Dashboard{ctx: ctx, engine: engine, opts: opts, width: 120, height: 40}
}

func (m Dashboard) Init() tea.Cmd {
	if m.opts.AutoFetch {
		return tea.Batch(m.fetchCmd(), dashTick())
	}
	return dashTick()
}

func dashTick() tea.Cmd {
	return tea.Tick(dashTickEvery, func(t time.Time) tea.Msg { return dashTickMsg(t) })
}

func (m Dashboard) fetchCmd() tea.Cmd {
	ctx, engine := m.ctx, m.engine
	cred, addr := m.opts.Credential, m.opts.Address
	return func() tea.Msg {
		return fetchDoneMsg{err: engine.Fetch(ctx, cred, addr)}
	}
}

func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		m.flash = ""
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit

		case "l":
			m.engine.SetLive(!m.engine.Live())

		case "r":
			if !m.busy {
				m.busy = true
				m.warning = ""
				m.cursor, m.offset = 0, 0
				return m, m.fetchCmd()
			}

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < m.visibleCount()-1 {
				m.cursor++
			}

		case "o":
			if tx, ok := m.selected(); ok {
				if err := openBrowser(m.opts.Network.TxURL(tx.Hash)); err != nil {
					m.flash = "Could not open browser"
				} else {
					m.flash = "Opening in browser…"
				}
			}

		case "c":
			if tx, ok := m.selected(); ok {
				if err := copyToClipboard(tx.Hash); err == nil {
					m.flash = "Copied: " + TruncateAddr(tx.Hash)
				} else {
					m.flash = "Copy failed"
				}
			}
		}
		m.refresh()

	case fetchDoneMsg:
		m.busy = false
		switch {
		case errors.Is(msg.err, poller.ErrMissingCredential), errors.Is(msg.err, poller.ErrMissingAddress):
			m.warning = msg.err.Error()
		default:
			// Fetch errors are read back from session state.
		}
		m.refresh()

	case NewTxMsg:
		n := len(msg.Event.NewHashes)
		m.toast = fmt.Sprintf("🎉 %d new transaction(s) found!", n)
		m.toastAt = time.Now()
		m.refresh()

	case dashTickMsg:
		m.frame = (m.frame + 1) % len(spinFrames)
		if m.toast != "" && time.Since(m.toastAt) > m.opts.ToastFor {
			m.toast = ""
		}
		m.refresh()
		return m, dashTick()
	}
	return m, nil
}

// refresh re-reads session state; aggregates are recomputed only when the
// held set changed.
func (m *Dashboard) refresh() {
	m.snap = m.engine.State().Snapshot()
	if !m.snap.UpdatedAt.Equal(m.stamp) || m.sum.Total != len(m.snap.Transactions) {
		m.sum = summary.Compute(m.snap.Transactions)
		m.stamp = m.snap.UpdatedAt
	}
	if n := m.visibleCount(); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m Dashboard) visibleCount() int {
	return min(len(m.snap.Transactions), RecentLimit)
}

func (m Dashboard) selected() (chain.Transaction, bool) {
	if m.cursor < 0 || m.cursor >= m.visibleCount() {
		return chain.Transaction{}, false
	}
	return m.snap.Transactions[m.cursor], true
}

func (m Dashboard) View() string {
	if m.Quitting {
		return ""
	}
	var sb strings.Builder
	cur := m.opts.Network.NativeCurrency

	sb.WriteString(m.header() + "\n")

	if m.toast != "" {
		sb.WriteString(StyleToast.Render(m.toast) + "\n\n")
	}
	if m.warning != "" {
		sb.WriteString(Warn(m.warning) + "\n\n")
	}

	switch {
	case m.busy && !m.snap.FetchCompleted:
		sb.WriteString(StyleInfo.Render(fmt.Sprintf("%s Fetching transactions for '%s'…",
			spinFrames[m.frame], TruncateAddr(m.opts.Address))) + "\n")

	case m.snap.LastError != nil:
		sb.WriteString(StyleErrorBox.Render(ErrorText(m.snap.LastError)) + "\n")

	case !m.snap.FetchCompleted:
		sb.WriteString(Info("Enter an API key and a wallet address, then press r to fetch transactions.") + "\n")

	case len(m.snap.Transactions) == 0:
		sb.WriteString(Info("No transactions found for this address.") + "\n")

	default:
		sb.WriteString(SummaryCards(m.sum, cur) + "\n\n")
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			CounterpartyTable("Top Senders", m.sum.TopSenders, cur),
			"    ",
			CounterpartyTable("Top Receivers", m.sum.TopReceivers, cur),
		) + "\n")
		barWidth := max((m.width-70)/2, 8)
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			BarChart("Daily Volume ("+cur+")", summary.Last(m.sum.DailyVolume, 14), barWidth, FormatAmount),
			"    ",
			BarChart("Avg Gas Price (gwei)", summary.Last(m.sum.DailyGas, 14), barWidth, formatGwei),
		) + "\n")
		sb.WriteString(m.recent())
	}

	sb.WriteString("\n")
	if m.flash != "" {
		sb.WriteString(StyleSuccess.Render("  ✓ " + m.flash))
	} else {
		sb.WriteString(dashControls(m.engine.Live()))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (m Dashboard) header() string {
	addr := chain.ChecksumAddress(m.opts.Address)
	title := StyleTitle.Render(fmt.Sprintf("◆ txdash  ·  %s  ·  %s", addr, m.opts.Network.DisplayName))

	var live string
	if m.engine.Live() {
		live = StyleSuccess.Render("● LIVE") + StyleMeta.Render(" checking for new transactions")
	} else {
		live = StyleMeta.Render("○ live feed off")
	}
	status := live + StyleMeta.Render("  ·  "+m.engine.Phase().String())
	if !m.snap.UpdatedAt.IsZero() {
		status += StyleMeta.Render("  ·  updated " + m.snap.UpdatedAt.Format("15:04:05"))
	}
	return title + "\n" + status + "\n"
}

// recent renders the transactions table windowed around the cursor.
func (m *Dashboard) recent() string {
	rows := max(m.height-32, 5)
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	txs := m.snap.Transactions[:m.visibleCount()]
	end := min(m.offset+rows, len(txs))

	var sb strings.Builder
	sb.WriteString(StyleHeader.Render("Recent Transactions") + "\n")
	sb.WriteString(TxTable(txs[m.offset:end], -1, m.cursor-m.offset, m.opts.Network.NativeCurrency).Render())
	sb.WriteString(StyleMeta.Render(fmt.Sprintf("  %d–%d of %d shown (latest %d)",
		m.offset+1, end, len(m.snap.Transactions), len(txs))) + "\n")
	return sb.String()
}

func dashControls(live bool) string {
	liveLabel := " live on"
	if live {
		liveLabel = " live off"
	}
	sep := StyleMeta.Render("   ")
	var sb strings.Builder
	sb.WriteString(StyleMeta.Render("[ ↑↓ ]"))
	sb.WriteString(StyleMeta.Render(" navigate"))
	sb.WriteString(sep)
	sb.WriteString(StyleSuccess.Render("[ l ]"))
	sb.WriteString(StyleMeta.Render(liveLabel))
	sb.WriteString(sep)
	sb.WriteString(StyleInfo.Render("[ r ]"))
	sb.WriteString(StyleMeta.Render(" re-fetch"))
	sb.WriteString(sep)
	sb.WriteString(StyleInfo.Render("[ o ]"))
	sb.WriteString(StyleMeta.Render(" open in browser"))
	sb.WriteString(sep)
	sb.WriteString(StyleWarning.Render("[ c ]"))
	sb.WriteString(StyleMeta.Render(" copy hash"))
	sb.WriteString(sep)
	sb.WriteString(StyleMeta.Render("[ q ]"))
	sb.WriteString(StyleMeta.Render(" quit"))
	return sb.String()
}
