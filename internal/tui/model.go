package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"edulibrary/internal/assistant"
	"edulibrary/internal/domain"
)

// AssistantPort is the TUI-facing subset of the assistant service.
type AssistantPort interface {
	Answer(user domain.User, question string) assistant.Reply
}

type page int

const (
	pageLogin page = iota
	pageChat
)

type chatLine struct {
	fromUser bool
	text     string
}

// Model is the Bubble Tea model: a login page listing active users, then a
// chat page backed by the assistant service.
type Model struct {
	service AssistantPort
	users   []domain.User

	page     page
	cursor   int
	user     domain.User
	input    textinput.Model
	viewport viewport.Model
	history  []chatLine
	status   string
	ready    bool
}

// New creates the TUI model over the selectable users.
func New(service AssistantPort, users []domain.User) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type your question and press Enter"
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{service: service, users: users, input: ti, viewport: vp, status: "Select a user to sign in."}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-ch)
		m.viewport.SetContent(m.renderHistory())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if m.page == pageLogin {
			return m.updateLogin(msg)
		}
		return m.updateChat(msg)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "down":
		if len(m.users) > 0 {
			m.cursor = (m.cursor + 1) % len(m.users)
		}
	case "up":
		if len(m.users) > 0 {
			m.cursor = (m.cursor - 1 + len(m.users)) % len(m.users)
		}
	case "enter":
		if len(m.users) == 0 {
			m.status = "No active users in the catalog."
			return m, nil
		}
		m.user = m.users[m.cursor]
		m.page = pageChat
		m.history = []chatLine{{fromUser: false, text: greeting(m.user)}}
		m.status = fmt.Sprintf("Signed in as %s (%s). Esc returns to login.", m.user.Name, m.user.Role)
		m.input.Focus()
		m.viewport.SetContent(m.renderHistory())
	}
	return m, nil
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// back to login, session cleared
		m.page = pageLogin
		m.history = nil
		m.input.Reset()
		m.input.Blur()
		m.status = "Select a user to sign in."
		return m, nil
	case "enter":
		q := strings.TrimSpace(m.input.Value())
		if q == "" {
			return m, nil
		}
		reply := m.service.Answer(m.user, q)
		m.history = append(m.history,
			chatLine{fromUser: true, text: q},
			chatLine{fromUser: false, text: reply.Text},
		)
		m.status = fmt.Sprintf("Handled as %s", reply.Intent)
		m.input.Reset()
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.page == pageLogin {
		return m.viewLogin()
	}
	header := headerStyle.Render("Smart Library Assistant — Ministry of Education, Qatar")
	chat := chatBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + chat + "\n" + input + "\n" + status
}

func (m Model) viewLogin() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Smart Library Assistant — Sign in"))
	b.WriteString("\n\n")
	for i, u := range m.users {
		line := fmt.Sprintf("%s — %s, %s", u.Name, u.Role, u.Department)
		if i == m.cursor {
			line = selectedStyle.Render("» " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.status))
	return b.String()
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return ""
	}
	lines := make([]string, 0, len(m.history))
	for _, l := range m.history {
		prefix := "🤖 "
		if l.fromUser {
			prefix = "🧑‍💻 "
		}
		lines = append(lines, prefix+l.text)
	}
	return strings.Join(lines, "\n\n")
}

func greeting(u domain.User) string {
	if strings.Contains(strings.ToLower(u.PreferredLanguage), "arab") {
		return fmt.Sprintf("👋 مرحبًا %s! كيف يمكنني مساعدتك اليوم؟", u.Name)
	}
	return fmt.Sprintf("👋 Welcome %s! How can I help you today?", u.Name)
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	chatBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
