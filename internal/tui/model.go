package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"feargreed-bot/internal/domain"
	"feargreed-bot/internal/service"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type DataSource interface {
	FetchStockIndex(ctx context.Context) (domain.SentimentReading, error)
	FetchCryptoIndex(ctx context.Context) (domain.SentimentReading, error)
	FetchMarketPrices(ctx context.Context) (domain.MarketPrices, error)
}

type section int

const (
	stockSection section = iota
	cryptoSection
	pricesSection
)

var sectionTitles = [...]string{
	stockSection:  service.StockSectionTitle,
	cryptoSection: service.CryptoSectionTitle,
	pricesSection: service.PricesSectionTitle,
}

type sectionMsg struct {
	section section
	text    string
	err     error
}

type sectionState struct {
	loading bool
	text    string
	err     error
}

type keyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	cardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Model is the SSH report dashboard. Each section loads independently.
type Model struct {
	src      DataSource
	username string
	spinner  spinner.Model
	keys     keyMap
	sections [3]sectionState
	width    int
	height   int
	updated  time.Time
	now      func() time.Time
}

func NewModel(src DataSource, username string) *Model {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	m := &Model{
		src:      src,
		username: username,
		spinner:  s,
		keys:     defaultKeys(),
		now:      time.Now,
	}
	for i := range m.sections {
		m.sections[i].loading = true
	}
	return m
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchAll())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			for i := range m.sections {
				m.sections[i].loading = true
			}
			return m, tea.Batch(m.spinner.Tick, m.fetchAll())
		}
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
	case sectionMsg:
		m.sections[msg.section] = sectionState{text: msg.text, err: msg.err}
		if !m.loading() {
			m.updated = m.now()
		}
	case spinner.TickMsg:
		if !m.loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder
	header := fmt.Sprintf("📊 Индекс страха и жадности (%s)", domain.ReportVersion)
	if m.username != "" {
		header += dimStyle.Render("  · " + m.username)
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	width := 0
	if m.width > 4 {
		width = m.width - 4
	}
	for i, st := range m.sections {
		b.WriteString(cardStyle.Width(width).Render(m.renderSection(section(i), st)))
		b.WriteString("\n")
	}

	footer := helpLine(m.keys.Refresh, m.keys.Quit)
	if !m.updated.IsZero() {
		footer = "updated " + m.updated.UTC().Format(domain.ObservedAtLayout) + " · " + footer
	}
	b.WriteString(dimStyle.Render(footer))
	return b.String()
}

func (m *Model) renderSection(s section, st sectionState) string {
	switch {
	case st.loading:
		return m.spinner.View() + " " + sectionTitles[s]
	case st.err != nil:
		return errStyle.Render(service.FormatSectionError(sectionTitles[s], st.err))
	default:
		return st.text
	}
}

func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}

func (m *Model) loading() bool {
	for _, st := range m.sections {
		if st.loading {
			return true
		}
	}
	return false
}

func (m *Model) fetchAll() tea.Cmd {
	return tea.Batch(m.fetch(stockSection), m.fetch(cryptoSection), m.fetch(pricesSection))
}

func (m *Model) fetch(s section) tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ctx := context.Background()
		switch s {
		case stockSection:
			r, err := src.FetchStockIndex(ctx)
			if err != nil {
				return sectionMsg{section: s, err: err}
			}
			return sectionMsg{section: s, text: service.FormatStockSection(r)}
		case cryptoSection:
			r, err := src.FetchCryptoIndex(ctx)
			if err != nil {
				return sectionMsg{section: s, err: err}
			}
			return sectionMsg{section: s, text: service.FormatCryptoSection(r)}
		default:
			p, err := src.FetchMarketPrices(ctx)
			if err != nil {
				return sectionMsg{section: s, err: err}
			}
			return sectionMsg{section: s, text: service.FormatPricesSection(p)}
		}
	}
}
