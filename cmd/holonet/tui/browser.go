// Package tui implements the interactive schema browser.
package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/marshallshelly/holonet/pkg/schema"
)

// BrowseMode is the pane that currently has focus.
type BrowseMode int

const (
	ModeList BrowseMode = iota
	ModeDetail
)

// BrowserModel lists the tables and shows one of them in detail.
type BrowserModel struct {
	mode   BrowseMode
	list   list.Model
	detail viewport.Model
	width  int
	height int
}

// NewBrowserModel creates a browser over tables, keeping their order.
func NewBrowserModel(tables []*schema.TableMetadata) BrowserModel {
	items := make([]list.Item, len(tables))
	for i, t := range tables {
		items[i] = TableItem{Table: t}
	}

	l := list.New(items, TableItemDelegate{}, 0, 0)
	l.Title = "HoloNet Tables"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return BrowserModel{
		mode:   ModeList,
		list:   l,
		detail: viewport.New(0, 0),
	}
}

// Mode reports which pane has focus.
func (m BrowserModel) Mode() BrowseMode {
	return m.mode
}

// Selected returns the highlighted table, or nil for an empty list.
func (m BrowserModel) Selected() *schema.TableMetadata {
	item, ok := m.list.SelectedItem().(TableItem)
	if !ok {
		return nil
	}
	return item.Table
}

// Init initializes the model
func (m BrowserModel) Init() tea.Cmd {
	return tea.EnterAltScreen
}

// Update handles messages
func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-4)
		m.detail.Width = msg.Width - 4
		m.detail.Height = msg.Height - 6
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.mode {
		case ModeList:
			if m.list.FilterState() == list.Filtering {
				break
			}
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "enter", "right", "l":
				if t := m.Selected(); t != nil {
					m.detail.SetContent(RenderTable(t))
					m.detail.GotoTop()
					m.mode = ModeDetail
				}
				return m, nil
			}

		case ModeDetail:
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "esc", "left", "h", "backspace":
				m.mode = ModeList
				return m, nil
			}
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the UI
func (m BrowserModel) View() string {
	if m.mode == ModeDetail {
		help := helpStyle.Render(
			FormatKey("↑/↓", "scroll") + " • " +
				FormatKey("esc", "back") + " • " +
				FormatKey("q", "quit"),
		)
		return lipgloss.JoinVertical(lipgloss.Left,
			boxStyle.Render(m.detail.View()),
			help,
		)
	}

	help := helpStyle.Render(
		FormatKey("↑/↓", "navigate") + " • " +
			FormatKey("enter", "details") + " • " +
			FormatKey("/", "filter") + " • " +
			FormatKey("q", "quit"),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.list.View(),
		help,
	)
}

// RunBrowser starts the interactive schema browser.
func RunBrowser(tables []*schema.TableMetadata) error {
	p := tea.NewProgram(NewBrowserModel(tables))
	_, err := p.Run()
	return err
}
