package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yjkwon/ccjanitor/internal/core/cleanup"
	"github.com/yjkwon/ccjanitor/internal/core/store"
)

type projectsLoadedMsg struct {
	projects []store.Project
}

type sessionsLoadedMsg struct {
	project  string
	sessions []store.SessionSummary
}

type sessionDeletedMsg struct {
	sessionID  string
	backupPath string
}

type cleanupDoneMsg struct {
	result *cleanup.ClearResult
}

type errMsg struct {
	err error
}

func loadProjects(st *store.Store) tea.Cmd {
	return func() tea.Msg {
		projects, err := st.ListProjects()
		if err != nil {
			return errMsg{err}
		}
		return projectsLoadedMsg{projects: projects}
	}
}

func loadSessions(st *store.Store, project string) tea.Cmd {
	return func() tea.Msg {
		sessions, err := st.ListSessions(project)
		if err != nil {
			return errMsg{err}
		}
		return sessionsLoadedMsg{project: project, sessions: sessions}
	}
}

func deleteSession(st *store.Store, project, sessionID string) tea.Cmd {
	return func() tea.Msg {
		backupPath, err := st.DeleteSession(project, sessionID)
		if err != nil {
			return errMsg{err}
		}
		return sessionDeletedMsg{sessionID: sessionID, backupPath: backupPath}
	}
}

func runCleanup(cleaner *cleanup.Cleaner, project string) tea.Cmd {
	return func() tea.Msg {
		result, err := cleaner.Clear(cleanup.Options{Project: project})
		if err != nil {
			return errMsg{err}
		}
		return cleanupDoneMsg{result: result}
	}
}
