package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/explomap/explomap/pkg/config"
	"github.com/explomap/explomap/pkg/device"
	"github.com/explomap/explomap/pkg/graph"
	"github.com/explomap/explomap/pkg/logging"
	"github.com/explomap/explomap/pkg/metrics"
	"github.com/explomap/explomap/pkg/overlay"
	"github.com/explomap/explomap/pkg/session"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			MarginLeft(2).
			MarginTop(1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#333333")).
			Padding(0, 1)

	connectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	disconnectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF5555")).
				Bold(true)

	detailBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(1, 2).
			MarginLeft(2)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type keyMap struct {
	Search      key.Binding
	Select      key.Binding
	Clear       key.Binding
	Capture     key.Binding
	Delete      key.Binding
	ResetLayout key.Binding
	Reload      key.Binding
	Theme       key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "highlight path"),
	),
	Clear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "clear"),
	),
	Capture: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "capture screen"),
	),
	Delete: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "delete node"),
	),
	ResetLayout: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset layout"),
	),
	Reload: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "reload"),
	),
	Theme: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "theme"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Select, k.Capture, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.Select, k.Clear},
		{k.Capture, k.Delete, k.ResetLayout, k.Reload},
		{k.Theme, k.Quit},
	}
}

// nodeItem adapts a graph node for the list widget
type nodeItem struct {
	node  *graph.Node
	style overlay.NodeStyle
}

func (i nodeItem) Title() string {
	title := i.node.Label
	switch i.style.Border {
	case overlay.BorderSearchMatch:
		title = matchStyle.Render("● ") + title
	case overlay.BorderPath:
		title = connectedStyle.Render("◆ ") + title
	default:
		if i.style.Opacity < 1.0 {
			title = dimStyle.Render(title)
		}
	}
	return title
}

func (i nodeItem) Description() string {
	desc := fmt.Sprintf("(%.0f, %.0f)", i.node.Position.X, i.node.Position.Y)
	if len(i.node.Traffic) > 0 {
		desc += fmt.Sprintf(" · %d requests", len(i.node.Traffic))
	}
	if i.node.Parser != nil {
		desc += fmt.Sprintf(" · %d elements", len(i.node.Parser.Elements))
	}
	return desc
}

func (i nodeItem) FilterValue() string { return i.node.Label }

type graphMsg struct{ graph *graph.Graph }
type statusMsg struct{ status device.Status }
type noticeMsg struct {
	text  string
	isErr bool
}

func waitGraph(ch <-chan *graph.Graph) tea.Cmd {
	return func() tea.Msg {
		g, ok := <-ch
		if !ok {
			return nil
		}
		return graphMsg{graph: g}
	}
}

func waitStatus(ch <-chan device.Status) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return statusMsg{status: s}
	}
}

type model struct {
	sess     *session.Session
	graph    *graph.Graph
	overlay  *overlay.Overlay
	focalID  string
	query    string
	status   device.Status
	theme    string
	notice   string
	isErr    bool
	width    int
	height   int
	nodeList list.Model
	search   textinput.Model
	help     help.Model
	keys     keyMap

	graphCh  <-chan *graph.Graph
	statusCh <-chan device.Status
}

func initialModel(sess *session.Session, theme string) model {
	ti := textinput.New()
	ti.Placeholder = "label, URL or element text"
	ti.CharLimit = 120
	ti.Width = 48

	nl := list.New(nil, list.NewDefaultDelegate(), 60, 20)
	nl.Title = "Screens"
	nl.SetShowHelp(false)
	nl.SetFilteringEnabled(false)

	g := sess.Store().Snapshot()
	sub := sess.Store().Subscribe()
	statusCh, _ := sess.DeviceStatus().Subscribe()

	m := model{
		sess:     sess,
		graph:    g,
		overlay:  overlay.Neutral(g),
		status:   sess.DeviceStatus().Get(),
		theme:    theme,
		nodeList: nl,
		search:   ti,
		help:     help.New(),
		keys:     keys,
		graphCh:  sub.Channel(),
		statusCh: statusCh,
	}
	m.refreshItems()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitGraph(m.graphCh), waitStatus(m.statusCh))
}

// refreshOverlay recomputes the derived styles from the current
// interaction state. Path highlighting wins over search; clearing either
// goes back through the shared neutral reset.
func (m *model) refreshOverlay() {
	switch {
	case m.focalID != "":
		m.overlay = overlay.Path(m.graph, m.focalID)
	case strings.TrimSpace(m.query) != "":
		m.overlay = overlay.Search(m.graph, m.query)
	default:
		m.overlay = overlay.Neutral(m.graph)
	}
}

func (m *model) refreshItems() {
	m.refreshOverlay()
	items := make([]list.Item, 0, len(m.graph.NodeOrder))
	for _, id := range m.graph.NodeOrder {
		items = append(items, nodeItem{node: m.graph.Nodes[id], style: m.overlay.Nodes[id]})
	}
	m.nodeList.SetItems(items)
}

func (m model) selectedNode() *graph.Node {
	item, ok := m.nodeList.SelectedItem().(nodeItem)
	if !ok {
		return nil
	}
	return item.node
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.nodeList.SetSize(msg.Width/2, msg.Height-10)
		return m, nil

	case graphMsg:
		m.graph = msg.graph
		// Overlays are re-derived against the new graph; a focal node that
		// no longer exists clears the path highlight
		if m.focalID != "" {
			if _, ok := m.graph.Nodes[m.focalID]; !ok {
				m.focalID = ""
			}
		}
		m.refreshItems()
		return m, waitGraph(m.graphCh)

	case statusMsg:
		m.status = msg.status
		return m, waitStatus(m.statusCh)

	case noticeMsg:
		m.notice = msg.text
		m.isErr = msg.isErr
		return m, nil

	case tea.KeyMsg:
		if m.search.Focused() {
			switch msg.String() {
			case "enter", "esc":
				m.search.Blur()
				if msg.String() == "esc" {
					m.search.SetValue("")
					m.query = ""
				}
				m.refreshItems()
				return m, nil
			default:
				var cmd tea.Cmd
				m.search, cmd = m.search.Update(msg)
				m.query = m.search.Value()
				m.focalID = ""
				m.refreshItems()
				return m, cmd
			}
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Search):
			m.search.Focus()
			return m, textinput.Blink

		case key.Matches(msg, m.keys.Select):
			if n := m.selectedNode(); n != nil {
				m.focalID = n.ID
				m.refreshItems()
			}
			return m, nil

		case key.Matches(msg, m.keys.Clear):
			m.focalID = ""
			m.query = ""
			m.search.SetValue("")
			m.notice = ""
			m.refreshItems()
			return m, nil

		case key.Matches(msg, m.keys.Capture):
			return m, func() tea.Msg {
				if err := m.sess.Capture(context.Background()); err != nil {
					return noticeMsg{text: err.Error(), isErr: true}
				}
				return noticeMsg{text: "capture armed"}
			}

		case key.Matches(msg, m.keys.Delete):
			n := m.selectedNode()
			if n == nil {
				return m, nil
			}
			id := n.ID
			return m, func() tea.Msg {
				if err := m.sess.DeleteNode(context.Background(), id); err != nil {
					return noticeMsg{text: err.Error(), isErr: true}
				}
				return noticeMsg{text: "deleted " + id}
			}

		case key.Matches(msg, m.keys.ResetLayout):
			m.sess.ResetLayout()
			return m, nil

		case key.Matches(msg, m.keys.Reload):
			return m, func() tea.Msg {
				if err := m.sess.Load(context.Background()); err != nil {
					return noticeMsg{text: err.Error(), isErr: true}
				}
				return noticeMsg{text: "reloaded"}
			}

		case key.Matches(msg, m.keys.Theme):
			if m.theme == config.ThemeLight {
				m.theme = config.ThemeDark
			} else {
				m.theme = config.ThemeLight
			}
			prefs := &config.Prefs{Theme: m.theme}
			if err := config.SavePrefs(m.sess.PrefsPath(), prefs); err != nil {
				m.notice = err.Error()
				m.isErr = true
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.nodeList, cmd = m.nodeList.Update(msg)
	return m, cmd
}

func (m model) statusBar() string {
	var dev string
	if m.status.Connected() {
		dev = connectedStyle.Render("● " + string(m.status.State))
	} else {
		dev = disconnectedStyle.Render("● " + string(m.status.State))
	}
	if m.status.Device != "" {
		dev += " " + m.status.Device
	}

	parts := []string{
		dev,
		fmt.Sprintf("channel: %s", m.sess.Channel().State()),
		fmt.Sprintf("%d screens, %d transitions", m.graph.NodeCount(), m.graph.EdgeCount()),
		"theme: " + m.theme,
	}
	if strings.TrimSpace(m.query) != "" {
		parts = append(parts, fmt.Sprintf("%d matches", m.overlay.MatchCount()))
	}
	if m.sess.Coordinator().InFlight() {
		parts = append(parts, "capturing…")
	}
	return statusBarStyle.Render(strings.Join(parts, "  │  "))
}

func (m model) detailPane() string {
	n := m.selectedNode()
	if n == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", n.Label)
	if n.Description != "" {
		fmt.Fprintf(&b, "%s\n", n.Description)
	}
	fmt.Fprintf(&b, "id: %s\n", n.ID)
	if n.Screenshot != "" {
		fmt.Fprintf(&b, "screenshot: %s\n", n.Screenshot)
	}
	now := time.Now()
	for i, t := range n.Traffic {
		if i == 5 {
			fmt.Fprintf(&b, "… %d more requests\n", len(n.Traffic)-5)
			break
		}
		line := fmt.Sprintf("%s %s → %d", t.Method, t.URL, t.Status)
		if age := t.Age(now); age != "" {
			line += " " + dimStyle.Render("("+age+")")
		}
		b.WriteString(line + "\n")
	}
	return detailBoxStyle.Render(b.String())
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("ExploMap") + "\n")
	b.WriteString(m.statusBar() + "\n\n")

	if m.search.Focused() || m.search.Value() != "" {
		b.WriteString("  search: " + m.search.View() + "\n\n")
	}
	if m.notice != "" {
		if m.isErr {
			b.WriteString("  " + errorStyle.Render(m.notice) + "\n")
		} else {
			b.WriteString("  " + m.notice + "\n")
		}
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.nodeList.View(), m.detailPane()))
	b.WriteString("\n" + helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	serverURL := flag.String("server", "", "agent base URL (overrides config)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
	} else {
		cfg = config.Default()
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))
	reg := metrics.DefaultRegistry()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, reg.Handler()); err != nil {
				logger.Error("metrics listener failed", logging.Error(err))
			}
		}()
	}

	sess, err := session.New(cfg, logger, reg)
	if err != nil {
		log.Fatalf("session: %v", err)
	}
	defer sess.Teardown()

	if err := sess.Start(context.Background()); err != nil {
		// Keep running with an empty graph; the user can reload with R
		logger.Error("initial load failed", logging.Error(err))
	}

	prefs, err := config.LoadPrefs(sess.PrefsPath())
	if err != nil {
		logger.Warn("prefs unreadable, using defaults", logging.Error(err))
		prefs = &config.Prefs{Theme: config.ThemeLight}
	}

	p := tea.NewProgram(initialModel(sess, prefs.Theme), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("tui: %v", err)
	}
}
