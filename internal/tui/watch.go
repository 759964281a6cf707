package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrGreenBoutiqueOffices/go-netlink/netlink"
)

// Messages fed into the dashboard from outside via Program.Send.

// DeskMsg carries a desk state push
type DeskMsg struct {
	State *netlink.DeskState
}

// MonitorMsg carries a monitor state push
type MonitorMsg struct {
	State *netlink.MonitorState
}

// InfoMsg carries a device info push
type InfoMsg struct {
	Info *netlink.SystemInfo
}

// ConnectionMsg signals a connection state change
type ConnectionMsg struct {
	Connected bool
}

// WatchModel is the live dashboard shown by "netlink watch". It renders
// the latest pushed state and is driven entirely by messages; it performs
// no I/O of its own.
type WatchModel struct {
	deviceName string
	host       string

	spinner   spinner.Model
	connected bool
	desk      *netlink.DeskState
	monitors  map[netlink.BusID]*netlink.MonitorState
	info      *netlink.SystemInfo

	events    int
	lastEvent time.Time
	width     int
}

// NewWatch creates a dashboard for the named device
func NewWatch(deviceName, host string) WatchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	return WatchModel{
		deviceName: deviceName,
		host:       host,
		spinner:    sp,
		monitors:   make(map[netlink.BusID]*netlink.MonitorState),
		width:      72,
	}
}

// Init implements tea.Model
func (m WatchModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if m.width < 48 {
			m.width = 48
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ConnectionMsg:
		m.connected = msg.Connected

	case DeskMsg:
		m.desk = msg.State
		m.noteEvent()

	case MonitorMsg:
		if msg.State != nil {
			m.monitors[msg.State.Bus] = msg.State
			m.noteEvent()
		}

	case InfoMsg:
		m.info = msg.Info
		m.noteEvent()
	}

	return m, nil
}

func (m *WatchModel) noteEvent() {
	m.events++
	m.lastEvent = time.Now()
}

// View implements tea.Model
func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderDesk())
	b.WriteString("\n")
	b.WriteString(m.renderMonitors())
	b.WriteString("\n")
	b.WriteString(FooterStyle.Render(fmt.Sprintf("%d events received  •  q to quit", m.events)))

	return BoxStyle(m.width).Render(b.String()) + "\n"
}

func (m WatchModel) renderHeader() string {
	status := DisconnectedStyle.Render("● disconnected")
	if m.connected {
		status = ConnectedStyle.Render("● connected")
	}

	identity := m.host
	if m.info != nil {
		identity = fmt.Sprintf("%s  %s  v%s", m.host, m.info.Model, m.info.Version)
	}

	title := TitleStyle.Render(m.deviceName) + "  " + status
	if !m.connected {
		title += "  " + m.spinner.View() + SubtitleStyle.Render(" reconnecting")
	}
	return title + "\n" + SubtitleStyle.Render(identity)
}

func (m WatchModel) renderDesk() string {
	var b strings.Builder
	b.WriteString(SectionTitleStyle.Render("Desk"))
	b.WriteString("\n")

	if m.desk == nil {
		b.WriteString(SubtitleStyle.Render("  waiting for desk.state"))
		b.WriteString("\n")
		return b.String()
	}

	height := fmt.Sprintf("%.1f cm", m.desk.Height)
	if m.desk.Moving {
		height = MovingStyle.Render(height + "  (moving)")
		if m.desk.Target != nil {
			height += SubtitleStyle.Render(fmt.Sprintf("  → %.1f cm", *m.desk.Target))
		}
	} else {
		height = ValueStyle.Render(height)
	}

	b.WriteString(LabelStyle.Render("  Height") + height + "\n")
	b.WriteString(LabelStyle.Render("  Mode") + ValueStyle.Render(m.desk.Mode) + "\n")
	if m.desk.Error != nil && *m.desk.Error != "" {
		b.WriteString(LabelStyle.Render("  Error") +
			DisconnectedStyle.Render(*m.desk.Error) + "\n")
	}
	return b.String()
}

func (m WatchModel) renderMonitors() string {
	var b strings.Builder
	b.WriteString(SectionTitleStyle.Render("Monitors"))
	b.WriteString("\n")

	if len(m.monitors) == 0 {
		b.WriteString(SubtitleStyle.Render("  waiting for monitor.state"))
		b.WriteString("\n")
		return b.String()
	}

	buses := make([]netlink.BusID, 0, len(m.monitors))
	for bus := range m.monitors {
		buses = append(buses, bus)
	}
	sort.Slice(buses, func(i, j int) bool { return buses[i].Less(buses[j]) })

	for _, bus := range buses {
		state := m.monitors[bus]
		power := ValueStyle.Render(state.Power)
		switch state.Power {
		case "on":
			power = ConnectedStyle.Render(state.Power)
		case "standby":
			power = MovingStyle.Render(state.Power)
		case "off":
			power = SubtitleStyle.Render(state.Power)
		}

		line := LabelStyle.Render("  Bus "+bus.String()) + power
		if state.Source != nil {
			line += SubtitleStyle.Render("  " + *state.Source)
		}
		if state.Brightness != nil {
			line += SubtitleStyle.Render(fmt.Sprintf("  brightness %d%%", *state.Brightness))
		}
		if state.Volume != nil {
			line += SubtitleStyle.Render(fmt.Sprintf("  volume %d%%", *state.Volume))
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// Run starts the dashboard. attach is called with the running program so
// the caller can register client callbacks that feed it via Send; it runs
// before the first frame.
func Run(deviceName, host string, attach func(*tea.Program)) error {
	p := tea.NewProgram(NewWatch(deviceName, host))
	if attach != nil {
		attach(p)
	}
	_, err := p.Run()
	return err
}
