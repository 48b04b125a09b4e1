package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/netspeed/internal/config"
	"github.com/Dicklesworthstone/netspeed/internal/model"
	"github.com/Dicklesworthstone/netspeed/internal/notify"
	"github.com/Dicklesworthstone/netspeed/internal/sampler"
	"github.com/Dicklesworthstone/netspeed/internal/units"
)

const recentAlerts = 5

// Controller is the part of the sampler the UI drives.
type Controller interface {
	Stream(ctx context.Context) <-chan model.Snapshot
	Do(cmd sampler.Command)
	Settings() config.Settings
}

// Model renders live snapshots from the sampler.
type Model struct {
	ctl       Controller
	dispatch  notify.Dispatcher
	latest    model.Snapshot
	recent    []model.Notification
	stream    <-chan model.Snapshot
	ctxCancel context.CancelFunc
	done      bool
	width     int
	height    int
}

// New starts the sampler stream. A nil dispatcher drops notifications
// after they are listed in the alerts card.
func New(ctl Controller, d notify.Dispatcher) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	return &Model{
		ctl:       ctl,
		dispatch:  d,
		latest:    model.Zero(),
		stream:    ctl.Stream(ctx),
		ctxCancel: cancel,
		width:     120,
		height:    40,
	}
}

// Messages
type (
	tickMsg     struct{}
	snapshotMsg model.Snapshot
)

func tickCmd() tea.Cmd { return tea.Tick(time.Second/5, func(time.Time) tea.Msg { return tickMsg{} }) }

func (m *Model) Init() tea.Cmd { return tickCmd() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.ctxCancel()
			return m, tea.Quit
		case "r":
			m.ctl.Do(sampler.Command{Kind: sampler.ResetSession})
		case "s":
			m.ctl.Do(sampler.Command{Kind: sampler.ToggleSnooze})
		case "c":
			m.ctl.Do(sampler.Command{Kind: sampler.ResetCooldowns})
		case "left", "h":
			m.ctl.Do(sampler.Command{Kind: sampler.CycleInterface, Direction: -1})
		case "right", "l":
			m.ctl.Do(sampler.Command{Kind: sampler.CycleInterface, Direction: 1})
		}
	case tickMsg:
		if m.done {
			return m, nil
		}
		select {
		case snap, ok := <-m.stream:
			if !ok {
				m.done = true
				return m, nil
			}
			return m.apply(snapshotMsg(snap))
		default:
		}
		return m, tickCmd()
	case snapshotMsg:
		return m.apply(msg)
	}
	return m, nil
}

func (m *Model) apply(msg snapshotMsg) (tea.Model, tea.Cmd) {
	m.latest = model.Snapshot(msg)
	if len(msg.Notifications) == 0 {
		return m, tickCmd()
	}
	m.recent = append(m.recent, msg.Notifications...)
	if len(m.recent) > recentAlerts {
		m.recent = m.recent[len(m.recent)-recentAlerts:]
	}
	return m, tea.Batch(tickCmd(), dispatchCmd(m.dispatch, msg.Notifications))
}

func dispatchCmd(d notify.Dispatcher, notes []model.Notification) tea.Cmd {
	if d == nil {
		return nil
	}
	return func() tea.Msg {
		for _, n := range notes {
			if err := d.Dispatch(context.Background(), n); err != nil {
				slog.Warn("notification failed", "type", n.Type, "err", err)
			}
		}
		return nil
	}
}

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dangerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	gaugeFill   = "█"
	gaugeEmpty  = "░"
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

var tierGlyph = map[model.SpeedTier]string{
	model.TierSnail:  "🐌",
	model.TierTurtle: "🐢",
	model.TierRabbit: "🐇",
}

func (m *Model) View() string {
	s := m.latest
	cfg := m.ctl.Settings()

	header := titleStyle.Render("netspeed") + "  " +
		subtleStyle.Render(s.Host.Hostname+"  "+s.Timestamp.Format("Mon Jan 2 15:04:05 MST 2006"))
	if !s.SnoozedUntil.IsZero() {
		header += "  " + warnStyle.Render("alerts snoozed until "+s.SnoozedUntil.Format("15:04"))
	}

	line1 := lipgloss.JoinHorizontal(lipgloss.Top,
		networkCard(s.Network, cfg.Levels),
		card("CPU", fmt.Sprintf("%s  load %.2f %.2f %.2f",
			gaugeBar(s.CPU.Total, 24), s.CPU.Load1, s.CPU.Load5, s.CPU.Load15)),
		card("Memory", gaugeBar(s.Memory.Percent, 24)),
	)
	line2 := lipgloss.JoinHorizontal(lipgloss.Top,
		temperatureCard(s.Temperature, cfg.Levels),
		diskCard(s.Disk, cfg.Levels),
	)
	rows := []string{header, line1, line2}
	if s.Stats != nil {
		rows = append(rows, statsCard(*s.Stats, s.SessionStart, s.QuotaPercent, cfg.Alerts.QuotaGB > 0))
	}
	rows = append(rows,
		alertsCard(m.recent),
		subtleStyle.Render("q quit · ←/→ interface · r reset session · s snooze · c reset cooldowns"),
	)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func networkCard(n model.NetworkRate, lv config.LevelSettings) string {
	name := n.Interface
	if name == "" {
		name = "no interface"
	}
	if !n.Valid {
		return card("Network "+truncate(name, 16), subtleStyle.Render("measuring…"))
	}
	tier := model.TierFor(n.Mbit, lv.TurtleMbit, lv.RabbitMbit)
	return card("Network "+truncate(name, 16),
		fmt.Sprintf("%s ↓ %-12s ↑ %-12s", tierGlyph[tier], units.Speed(n.RxBps), units.Speed(n.TxBps)))
}

func temperatureCard(t model.Temperature, lv config.LevelSettings) string {
	if !t.Valid {
		return card("Temperature", subtleStyle.Render("no sensor"))
	}
	level := model.TemperatureLevel(t, lv.TempWarm, lv.TempHot, lv.TempCritical)
	return card("Temperature", fmt.Sprintf("%s  %s  %s",
		truncate(t.Name, 24), levelStyle(level).Render(units.Celsius(t.Celsius)), level))
}

func diskCard(d model.DiskRate, lv config.LevelSettings) string {
	if d.Device == "" {
		return card("Disk", subtleStyle.Render("no device"))
	}
	level := model.DiskLevel(d.ReadSpeed, d.WriteSpeed, lv.DiskLowMB, lv.DiskMediumMB, lv.DiskHighMB)
	return card("Disk "+d.Device, fmt.Sprintf("R %-12s W %-12s %s",
		units.Speed(d.ReadSpeed), units.Speed(d.WriteSpeed), levelStyle(level).Render(level.String())))
}

func statsCard(st model.Stats, since time.Time, quotaPct float64, hasQuota bool) string {
	var b strings.Builder
	for _, row := range []struct {
		name string
		t    model.Totals
	}{
		{"Session", st.Session},
		{"Today", st.Daily},
		{"Week", st.Weekly},
		{"Month", st.Monthly},
	} {
		fmt.Fprintf(&b, "%-8s ↓ %-11s ↑ %-11s Σ %s\n",
			row.name, units.Bytes(row.t.Rx), units.Bytes(row.t.Tx), units.Bytes(row.t.Total))
	}
	if hasQuota {
		fmt.Fprintf(&b, "Quota    %s", gaugeBar(quotaPct, 24))
	}
	title := "Statistics"
	if !since.IsZero() {
		title += " (session since " + since.Format("Jan 2 15:04") + ")"
	}
	return card(title, strings.TrimRight(b.String(), "\n"))
}

func alertsCard(recent []model.Notification) string {
	if len(recent) == 0 {
		return card("Alerts", subtleStyle.Render("none"))
	}
	lines := make([]string, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		n := recent[i]
		style := warnStyle
		if n.Severity == model.SeverityDanger {
			style = dangerStyle
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			subtleStyle.Render(n.CreatedAt.Format("15:04:05")), style.Render(n.Title), truncate(n.Message, 60)))
	}
	return card("Alerts", strings.Join(lines, "\n"))
}

func levelStyle(l model.Level) lipgloss.Style {
	switch l {
	case model.LevelHigh:
		return dangerStyle
	case model.LevelMedium:
		return warnStyle
	default:
		return lipgloss.NewStyle()
	}
}

// Helpers
func gaugeBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int((pct / 100) * float64(width))
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %6s",
		strings.Repeat(gaugeFill, filled),
		strings.Repeat(gaugeEmpty, width-filled),
		units.Percent(pct))
}

func card(title, body string) string {
	titleStr := labelStyle.Render(title)
	content := titleStr + "\n" + body
	return cardStyle.Render(content)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// RunTUI starts the Bubble Tea program and blocks until the user quits
// and the sampler has flushed its statistics.
func RunTUI(ctl Controller, d notify.Dispatcher) error {
	m := New(ctl, d)
	prog := tea.NewProgram(m, tea.WithAltScreen())
	_, err := prog.Run()
	m.ctxCancel()
	for range m.stream {
	}
	return err
}
