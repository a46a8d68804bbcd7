package tui

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/yjkwon/ccjanitor/internal/core/cleanup"
	"github.com/yjkwon/ccjanitor/internal/core/store"
)

type viewMode int

const (
	projectsView viewMode = iota
	sessionsView
)

type Model struct {
	st      *store.Store
	cleaner *cleanup.Cleaner
	mode    viewMode
	list    list.Model
	width   int
	height  int
	status  string
	err     error

	project  string // selected project dir name, set in sessionsView
	projects []store.Project
	sessions []store.SessionSummary
}

func New(st *store.Store, cleaner *cleanup.Cleaner) Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	return Model{
		st:      st,
		cleaner: cleaner,
		mode:    projectsView,
		list:    l,
	}
}

func (m Model) Init() tea.Cmd {
	return loadProjects(m.st)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-3)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q", "esc":
			if m.mode == sessionsView {
				m.mode = projectsView
				m.status = ""
				m.err = nil
				return m, loadProjects(m.st)
			}
			return m, tea.Quit

		case "enter":
			if m.mode == projectsView {
				if item, ok := m.list.SelectedItem().(projectItem); ok {
					return m, loadSessions(m.st, item.project.Name)
				}
			}
			return m, nil

		case "c":
			if m.mode == sessionsView {
				if item, ok := m.list.SelectedItem().(sessionItem); ok {
					if err := clipboard.WriteAll(item.session.SessionID); err != nil {
						m.err = err
					} else {
						m.status = "copied " + item.session.SessionID
					}
				}
				return m, nil
			}

		case "d":
			if m.mode == sessionsView {
				if item, ok := m.list.SelectedItem().(sessionItem); ok {
					return m, deleteSession(m.st, m.project, item.session.SessionID)
				}
				return m, nil
			}

		case "x":
			switch m.mode {
			case projectsView:
				return m, runCleanup(m.cleaner, "")
			case sessionsView:
				return m, runCleanup(m.cleaner, m.project)
			}
		}

	case projectsLoadedMsg:
		m.mode = projectsView
		m.projects = msg.projects
		m.list.SetItems(projectItems(msg.projects))
		m.list.SetSize(m.width, m.height-3)
		return m, nil

	case sessionsLoadedMsg:
		m.mode = sessionsView
		m.project = msg.project
		m.sessions = msg.sessions
		m.list.SetItems(sessionItems(msg.sessions))
		m.list.SetSize(m.width, m.height-3)
		return m, nil

	case sessionDeletedMsg:
		m.status = fmt.Sprintf("deleted %s (backup: %s)", msg.sessionID, msg.backupPath)
		return m, loadSessions(m.st, m.project)

	case cleanupDoneMsg:
		m.status = fmt.Sprintf("cleanup: %d deleted, %d failed",
			len(msg.result.Deleted), len(msg.result.Errors))
		if m.mode == sessionsView {
			return m, loadSessions(m.st, m.project)
		}
		return m, loadProjects(m.st)

	case errMsg:
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var header, help string
	switch m.mode {
	case projectsView:
		header = titleStyle.Render("Projects")
		help = helpStyle.Render("enter: open  x: cleanup all  q: quit")
	case sessionsView:
		header = titleStyle.Render(store.DecodeProjectName(m.project))
		help = helpStyle.Render("d: delete  c: copy id  x: cleanup project  esc: back")
	}

	footer := help
	if m.err != nil {
		footer = errorStyle.Render("Error: " + m.err.Error())
	} else if m.status != "" {
		footer = statusStyle.Render(m.status) + "  " + help
	}

	return header + "\n" + m.list.View() + "\n" + footer
}

type projectItem struct {
	project store.Project
}

func (i projectItem) FilterValue() string { return i.project.DisplayName }
func (i projectItem) Title() string       { return i.project.DisplayName }
func (i projectItem) Description() string {
	return fmt.Sprintf("%d sessions | %s",
		i.project.SessionCount, humanize.Bytes(uint64(i.project.TotalSize)))
}

func projectItems(projects []store.Project) []list.Item {
	items := make([]list.Item, len(projects))
	for i, p := range projects {
		items[i] = projectItem{project: p}
	}
	return items
}

type sessionItem struct {
	session store.SessionSummary
}

func (i sessionItem) FilterValue() string { return i.session.Title }

func (i sessionItem) Title() string {
	if i.session.MessageCount == 0 {
		return emptyBadgeStyle.Render("(empty) ") + i.session.Title
	}
	return i.session.Title
}

func (i sessionItem) Description() string {
	return fmt.Sprintf("%s | %d messages | %s",
		i.session.SessionID, i.session.MessageCount,
		humanize.Time(i.session.UpdatedAt))
}

func sessionItems(sessions []store.SessionSummary) []list.Item {
	items := make([]list.Item, len(sessions))
	for i, s := range sessions {
		items[i] = sessionItem{session: s}
	}
	return items
}
