// papertrade is a terminal dashboard for a papertrade-server instance:
// portfolio table, pending orders, and a notification line, updated live
// from the server's event stream.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Open-Papertrade/papertrade/internal/fx"
	"github.com/Open-Papertrade/papertrade/pkg/papertrade"
)

// Styles.
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	symbolStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	gainStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	colHeader    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	noticeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3"))
	xpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	closedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	openStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// gainLoss styles v green when positive, red when negative, dim at zero.
func gainLoss(v float64, s string) string {
	switch {
	case v > 0:
		return gainStyle.Render(s)
	case v < 0:
		return lossStyle.Render(s)
	}
	return dimStyle.Render(s)
}

// Messages.
type tickMsg time.Time

type refreshedMsg struct {
	summary papertrade.PortfolioSummary
	err     error
}

type loadedMsg struct {
	summary papertrade.PortfolioSummary
	account papertrade.Account
	orders  []papertrade.Order
	status  papertrade.MarketStatus
	err     error
}

type streamEventMsg papertrade.Event
type streamDoneMsg struct{ err error }

func tickCmd() tea.Cmd {
	return tea.Tick(30*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type model struct {
	client *papertrade.Client
	logger *slog.Logger

	summary papertrade.PortfolioSummary
	account papertrade.Account
	orders  []papertrade.Order
	status  papertrade.MarketStatus
	notice  string

	events <-chan papertrade.Event

	viewport      viewport.Model
	ready         bool
	width, height int
	loadErr       error
	refreshing    bool
	streamCancel  context.CancelFunc
}

func initialModel(c *papertrade.Client, logger *slog.Logger, events <-chan papertrade.Event, cancel context.CancelFunc) model {
	return model{
		client:       c,
		logger:       logger,
		events:       events,
		streamCancel: cancel,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.waitForEvent(), tickCmd())
}

// loadCmd fetches the full dashboard state in one shot.
func (m model) loadCmd() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var msg loadedMsg
		if msg.summary, msg.err = c.Portfolio(ctx); msg.err != nil {
			return msg
		}
		if msg.account, msg.err = c.Account(ctx); msg.err != nil {
			return msg
		}
		if msg.orders, msg.err = c.Orders(ctx); msg.err != nil {
			return msg
		}
		msg.status, _ = c.MarketStatus(ctx, "", "")
		return msg
	}
}

func (m model) refreshCmd() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		summary, err := c.Refresh(ctx)
		return refreshedMsg{summary: summary, err: err}
	}
}

// waitForEvent blocks on the stream channel and surfaces the next event.
func (m model) waitForEvent() tea.Cmd {
	ch := m.events
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return streamDoneMsg{}
		}
		return streamEventMsg(ev)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.streamCancel()
			return m, tea.Quit
		case "r":
			if !m.refreshing {
				m.refreshing = true
				return m, m.refreshCmd()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.height - 2
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.loadCmd(), tickCmd())

	case loadedMsg:
		if msg.err != nil {
			m.loadErr = msg.err
			m.logger.Error("loading dashboard", "error", msg.err)
		} else {
			m.loadErr = nil
			m.summary = msg.summary
			m.account = msg.account
			m.orders = msg.orders
			m.status = msg.status
		}
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}
		return m, nil

	case refreshedMsg:
		m.refreshing = false
		if msg.err != nil {
			m.logger.Warn("manual refresh failed", "error", msg.err)
		} else {
			m.summary = msg.summary
		}
		// The summary alone is stale for orders and XP; reload the rest.
		return m, m.loadCmd()

	case streamEventMsg:
		m.applyEvent(papertrade.Event(msg))
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}
		return m, m.waitForEvent()

	case streamDoneMsg:
		return m, nil
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m *model) applyEvent(ev papertrade.Event) {
	switch ev.Type {
	case papertrade.EventSnapshot, papertrade.EventPortfolio:
		if ev.Summary != nil {
			m.summary = *ev.Summary
			m.account.BuyingPower = ev.Summary.BuyingPower
		}
	case papertrade.EventFill:
		if ev.Trade != nil {
			m.notice = fmt.Sprintf("Filled: %s %d %s @ %s",
				ev.Trade.Side, ev.Trade.Shares, ev.Trade.Symbol,
				fx.Format(ev.Trade.Price, ev.Trade.Currency))
			// Drop the filled order from the pending list.
			kept := m.orders[:0]
			for _, o := range m.orders {
				if o.ID != ev.Trade.OrderID {
					kept = append(kept, o)
				}
			}
			m.orders = kept
		}
	case papertrade.EventNotification:
		if ev.Notification != nil {
			m.notice = ev.Notification.Title
			if ev.Notification.XPDelta > 0 {
				m.account.XP += ev.Notification.XPDelta
			}
			if ev.Notification.Level > 0 {
				m.account.Level = ev.Notification.Level
			}
			if ev.Notification.Rank != "" {
				m.account.Rank = ev.Notification.Rank
			}
		}
	case papertrade.EventAlert:
		if ev.Alert != nil {
			m.notice = fmt.Sprintf("Alert: %s %s %s",
				ev.Alert.Symbol, ev.Alert.Condition,
				fx.Format(ev.Alert.TargetPrice, "USD"))
		}
	}
}

func (m model) View() string {
	if !m.ready {
		return "Connecting..."
	}

	marketLabel := closedStyle.Render("CLOSED")
	if m.status.Open {
		marketLabel = openStyle.Render("OPEN")
	}
	headerText := fmt.Sprintf(" papertrade    %s %s    %s    XP %d  Lv %d  %s ",
		m.status.Exchange, marketLabel,
		fx.Format(m.account.BuyingPower, m.summary.Currency),
		m.account.XP, m.account.Level, m.account.Rank)
	headerBar := headerStyle.Render(padOrTrunc(headerText, m.width))

	footerText := " q quit  r refresh  pgup/pgdn scroll"
	if m.refreshing {
		footerText = " refreshing..."
	}
	footerBar := footerStyle.Render(padOrTrunc(footerText, m.width))

	return headerBar + "\n" + m.viewport.View() + "\n" + footerBar
}

func (m model) renderContent() string {
	var b strings.Builder

	if m.loadErr != nil {
		b.WriteString(lossStyle.Render(fmt.Sprintf("  server unreachable: %v", m.loadErr)))
		b.WriteString("\n\n")
	}
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(" " + m.notice + " "))
		b.WriteString("\n\n")
	}

	cur := m.summary.Currency
	b.WriteString(sectionStyle.Render("  PORTFOLIO"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("    value %s    returns %s (%s)    day %s (%s)",
		fx.Format(m.summary.HoldingsValue, cur),
		fx.FormatSigned(m.summary.TotalReturns, cur), fx.Percent(m.summary.ReturnsPercent),
		fx.FormatSigned(m.summary.DayGain, cur), fx.Percent(m.summary.DayGainPercent))))
	b.WriteString("\n\n")

	if len(m.summary.Holdings) == 0 {
		b.WriteString(dimStyle.Render("  (no holdings)"))
		b.WriteString("\n")
	} else {
		b.WriteString(colHeader.Render(fmt.Sprintf("  %-8s %8s %10s %12s %12s %9s %12s",
			"Symbol", "Shares", "Price", "Value", "Returns", "Ret%", "Day")))
		b.WriteString("\n")
		for _, h := range m.summary.Holdings {
			b.WriteString(symbolStyle.Render(fmt.Sprintf("  %-8s", h.Symbol)))
			b.WriteString(fmt.Sprintf(" %8d", h.Shares))
			b.WriteString(fmt.Sprintf(" %10s", fx.Format(h.Price, cur)))
			b.WriteString(fmt.Sprintf(" %12s", fx.Format(h.Value, cur)))
			b.WriteString(gainLoss(h.Returns, fmt.Sprintf(" %12s", fx.FormatSigned(h.Returns, cur))))
			b.WriteString(gainLoss(h.Returns, fmt.Sprintf(" %9s", fx.Percent(h.ReturnsPercent))))
			b.WriteString(gainLoss(h.DayGain, fmt.Sprintf(" %12s", fx.FormatSigned(h.DayGain, cur))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("  PENDING ORDERS"))
	b.WriteString("\n")
	if len(m.orders) == 0 {
		b.WriteString(dimStyle.Render("  (none)"))
		b.WriteString("\n")
	} else {
		b.WriteString(colHeader.Render(fmt.Sprintf("  %-5s %-8s %8s %12s  %s",
			"Side", "Symbol", "Shares", "Limit", "Placed")))
		b.WriteString("\n")
		for _, o := range m.orders {
			side := gainStyle.Render(fmt.Sprintf("  %-5s", o.Side))
			if o.Side == papertrade.Sell {
				side = lossStyle.Render(fmt.Sprintf("  %-5s", o.Side))
			}
			b.WriteString(side)
			b.WriteString(symbolStyle.Render(fmt.Sprintf(" %-8s", o.Symbol)))
			b.WriteString(fmt.Sprintf(" %8d", o.Shares))
			b.WriteString(fmt.Sprintf(" %12s", fx.Format(o.LimitPrice, o.Currency)))
			b.WriteString(dimStyle.Render("  " + o.CreatedAt.Local().Format("Jan 2 15:04")))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(xpStyle.Render(fmt.Sprintf("  invested %s    buying power %s    as of %s",
		fx.Format(m.summary.TotalInvested, cur),
		fx.Format(m.summary.BuyingPower, cur),
		m.summary.AsOf.Local().Format("15:04:05"))))
	b.WriteString("\n")
	return b.String()
}

// padOrTrunc pads s with spaces to width, or truncates if longer.
func padOrTrunc(s string, width int) string {
	n := len(s)
	if n >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-n)
}

func main() {
	baseURL := "http://127.0.0.1:8650"
	if u := os.Getenv("PAPERTRADE_URL"); u != "" {
		baseURL = u
	}

	logPath := fmt.Sprintf("/tmp/papertrade-%s.log", time.Now().Format("2006-01-02"))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo}))

	client := papertrade.NewClient(baseURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge the stream into a channel the bubbletea loop can select on.
	events := make(chan papertrade.Event, 32)
	go func() {
		defer close(events)
		err := client.Stream(ctx, func(ev papertrade.Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		})
		if err != nil && ctx.Err() == nil {
			logger.Error("stream ended", "error", err)
		}
	}()

	p := tea.NewProgram(
		initialModel(client, logger, events, cancel),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
