package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lecture-rag-backend/models"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	sourceStyle    = lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("244"))
	statusStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type chatEntry struct {
	role    string
	content string
	sources []string
}

// Model is the Bubble Tea model for the chat front end. Plain input is a
// question; slash commands drive upload and vector store administration.
type Model struct {
	client *APIClient

	input    textinput.Model
	viewport viewport.Model

	history []chatEntry
	status  string
	busy    bool
	ready   bool

	docCount      int
	countKnown    bool
	confirmDelete bool
	defaultK      int
}

type chatResultMsg struct {
	query string
	resp  *models.ChatResponse
	err   error
}

type uploadResult struct {
	path string
	resp *models.UploadResponse
	err  error
}

type uploadDoneMsg struct {
	results []uploadResult
}

type countMsg struct {
	count int
	err   error
}

type deleteMsg struct {
	resp *models.DeleteResponse
	err  error
}

type healthMsg struct{ err error }

// New creates the TUI model. defaultK is the number of chunks requested per
// chat turn.
func New(client *APIClient, defaultK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question, or /upload <file>, /count, /clear, /help"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)

	return Model{
		client:   client,
		input:    ti,
		viewport: vp,
		status:   "Connecting to API...",
		defaultK: defaultK,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.checkHealth(), m.fetchCount())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, frameH := chatBoxStyle.GetFrameSize()
		reserved := 4 + frameH // title, status, input, spacer
		height := msg.Height - reserved
		if height < 3 {
			height = 3
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = height
		m.viewport.SetContent(m.renderHistory())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.busy {
			return m.handleInput(strings.TrimSpace(m.input.Value()))
		}

	case healthMsg:
		if msg.err != nil {
			m.status = errorStyle.Render("API unreachable: " + msg.err.Error())
		} else {
			m.status = "Connected."
		}
		return m, nil

	case chatResultMsg:
		m.busy = false
		if msg.err != nil {
			m.status = errorStyle.Render("Error: " + msg.err.Error())
			return m, nil
		}
		m.history = append(m.history, chatEntry{
			role:    "assistant",
			content: msg.resp.Answer,
			sources: msg.resp.Sources,
		})
		m.status = fmt.Sprintf("Answered from %d source file(s).", len(msg.resp.Sources))
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil

	case uploadDoneMsg:
		m.busy = false
		var parts []string
		failed := false
		for _, r := range msg.results {
			if r.err != nil {
				failed = true
				parts = append(parts, fmt.Sprintf("%s: %v", filepath.Base(r.path), r.err))
				continue
			}
			parts = append(parts, fmt.Sprintf("%s: %d chunks", r.resp.File, r.resp.ChunksAdded))
		}
		line := strings.Join(parts, "  |  ")
		if failed {
			m.status = errorStyle.Render(line)
		} else {
			m.status = "Uploaded. " + line
		}
		return m, m.fetchCount()

	case countMsg:
		if msg.err == nil {
			m.docCount = msg.count
			m.countKnown = true
		}
		return m, nil

	case deleteMsg:
		m.busy = false
		if msg.err != nil {
			m.status = errorStyle.Render("Delete failed: " + msg.err.Error())
			return m, nil
		}
		m.status = msg.resp.Message
		return m, m.fetchCount()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleInput(value string) (tea.Model, tea.Cmd) {
	if value == "" {
		return m, nil
	}
	m.input.SetValue("")

	// Delete-all needs an explicit confirmation; any other input cancels.
	if m.confirmDelete {
		m.confirmDelete = false
		if value == "y" || value == "yes" {
			m.busy = true
			m.status = "Deleting all documents..."
			return m, m.deleteAll()
		}
		m.status = "Delete cancelled."
		return m, nil
	}

	switch {
	case value == "/help":
		m.status = "/upload <file>  /count  /clear  ctrl+c to quit; anything else is a question"
		return m, nil

	case value == "/count":
		m.status = "Fetching count..."
		return m, m.fetchCount()

	case value == "/clear":
		m.confirmDelete = true
		m.status = "Delete ALL stored documents? This cannot be undone. Type y to confirm."
		return m, nil

	case strings.HasPrefix(value, "/upload "):
		paths := strings.Fields(strings.TrimPrefix(value, "/upload "))
		if len(paths) == 0 {
			m.status = "Usage: /upload <file> [file...]"
			return m, nil
		}
		m.busy = true
		m.status = fmt.Sprintf("Uploading %d file(s)...", len(paths))
		return m, m.upload(paths)

	case strings.HasPrefix(value, "/"):
		m.status = "Unknown command. Try /help."
		return m, nil
	}

	m.history = append(m.history, chatEntry{role: "user", content: value})
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
	m.busy = true
	m.status = "Thinking..."
	return m, m.chat(value)
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := titleStyle.Render("Lecture RAG Chat")
	if m.countKnown {
		title += statusStyle.Render(fmt.Sprintf("  [%d chunks stored]", m.docCount))
	}

	return title + "\n" +
		chatBoxStyle.Render(m.viewport.View()) + "\n" +
		m.input.View() + "\n" +
		statusStyle.Render(m.status)
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return statusStyle.Render("Upload lecture materials with /upload, then ask away.")
	}

	var b strings.Builder
	for _, entry := range m.history {
		if entry.role == "user" {
			b.WriteString(userStyle.Render("You: ") + entry.content + "\n\n")
			continue
		}
		b.WriteString(assistantStyle.Render(entry.content) + "\n")
		if len(entry.sources) > 0 {
			b.WriteString(sourceStyle.Render("Sources: "+strings.Join(entry.sources, ", ")) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) checkHealth() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		return healthMsg{err: client.Health()}
	}
}

func (m Model) chat(query string) tea.Cmd {
	client, k := m.client, m.defaultK
	return func() tea.Msg {
		resp, err := client.Chat(query, k)
		return chatResultMsg{query: query, resp: resp, err: err}
	}
}

func (m Model) upload(paths []string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		results := make([]uploadResult, 0, len(paths))
		for _, path := range paths {
			resp, err := client.Upload(path)
			results = append(results, uploadResult{path: path, resp: resp, err: err})
		}
		return uploadDoneMsg{results: results}
	}
}

func (m Model) fetchCount() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		count, err := client.Count()
		return countMsg{count: count, err: err}
	}
}

func (m Model) deleteAll() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		resp, err := client.DeleteAll()
		return deleteMsg{resp: resp, err: err}
	}
}
