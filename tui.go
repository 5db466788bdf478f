package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lingo/auth"
	"lingo/waveform"
)

// TUI message types
type RecordingStartMsg struct{}
type RecordingStopMsg struct{}
type RecordingTickMsg struct{ Duration float64 }
type WaveformMsg struct{ Frame waveform.Frame }
type NoVoiceMsg struct{ Warn bool }
type AuthMsg struct {
	State auth.State
	Email string
}
type ResultMsg struct {
	Transcription string
	Translated    string
	Detected      string
	Metrics       []string
	Copied        bool
}
type StatusMsg struct{ Text string }  // transient activity ("translating...")
type ErrorMsg struct{ Text string }   // inline, cleared on next activity
type ModeLineMsg struct{ Text string }
type DeviceLineMsg struct{ Text string }
type tickMsg time.Time

// Intents flow from the TUI to the app loop.
type Intent any

type ToggleRecordingIntent struct{}
type SubmitTextIntent struct{ Text string }
type SignInIntent struct{ Email, Password string }
type SignOutIntent struct{}
type QuitIntent struct{}

type inputMode int

const (
	inputNone inputMode = iota
	inputText
	inputEmail
	inputPassword
)

type tuiModel struct {
	intents chan<- Intent

	authState auth.State
	authEmail string

	recording         bool
	recordingDuration float64
	levels            []float64
	noVoice           bool

	input       inputMode
	inputBuf    string
	signInEmail string

	modeLine   string
	deviceLine string
	status     string
	errText    string

	msgCount      int
	lastSource    string
	lastResult    string
	lastDetected  string
	lastMetrics   []string
	copied        bool
	width, height int
	frame         int
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	styleRec      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleStandby  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleWave     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styleWaveIdle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	styleWarn     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	styleErr      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleDim      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleFaint    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	styleText     = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleResult   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleTitle    = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	styleOK       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

func NewTUIProgram(intents chan<- Intent) *tea.Program {
	m := tuiModel{
		intents:   intents,
		authState: auth.StateUnknown,
		levels:    make([]float64, waveform.DefaultBars),
	}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) send(in Intent) {
	select {
	case m.intents <- in:
	default:
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case AuthMsg:
		m.authState = msg.State
		m.authEmail = msg.Email
		if msg.State != auth.StateAuthenticated {
			// Leaving the protected view drops its transient state.
			m.recording = false
			m.status = ""
			if m.input == inputText {
				m.input = inputNone
				m.inputBuf = ""
			}
		}

	case RecordingStartMsg:
		m.recording = true
		m.recordingDuration = 0
		m.noVoice = false
		m.errText = ""
		m.levels = make([]float64, waveform.DefaultBars)

	case RecordingStopMsg:
		m.recording = false
		m.noVoice = false

	case RecordingTickMsg:
		m.recordingDuration = msg.Duration

	case WaveformMsg:
		if m.recording {
			m.levels = msg.Frame.Levels
		}

	case NoVoiceMsg:
		m.noVoice = msg.Warn

	case ResultMsg:
		m.msgCount++
		m.lastSource = msg.Transcription
		m.lastResult = msg.Translated
		m.lastDetected = msg.Detected
		m.lastMetrics = msg.Metrics
		m.copied = msg.Copied
		m.status = ""
		m.errText = ""

	case StatusMsg:
		m.status = msg.Text
		m.errText = ""

	case ErrorMsg:
		m.errText = msg.Text
		m.status = ""

	case ModeLineMsg:
		m.modeLine = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.send(QuitIntent{})
		return m, tea.Quit
	}

	if m.input != inputNone {
		return m.handleInputKey(msg)
	}

	switch key {
	case "q":
		m.send(QuitIntent{})
		return m, tea.Quit
	case " ":
		if m.authState == auth.StateAuthenticated {
			m.send(ToggleRecordingIntent{})
		}
	case "t":
		if m.authState == auth.StateAuthenticated && !m.recording {
			m.input = inputText
			m.inputBuf = ""
		}
	case "s":
		if m.authState == auth.StateUnauthenticated {
			m.input = inputEmail
			m.inputBuf = ""
		}
	case "o":
		if m.authState == auth.StateAuthenticated && !m.recording {
			m.send(SignOutIntent{})
		}
	}
	return m, nil
}

func (m tuiModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input = inputNone
		m.inputBuf = ""
		m.signInEmail = ""
	case "enter":
		switch m.input {
		case inputText:
			text := strings.TrimSpace(m.inputBuf)
			m.input = inputNone
			m.inputBuf = ""
			if text != "" {
				m.send(SubmitTextIntent{Text: text})
			}
		case inputEmail:
			if strings.TrimSpace(m.inputBuf) != "" {
				m.signInEmail = strings.TrimSpace(m.inputBuf)
				m.input = inputPassword
				m.inputBuf = ""
			}
		case inputPassword:
			email, password := m.signInEmail, m.inputBuf
			m.input = inputNone
			m.inputBuf = ""
			m.signInEmail = ""
			m.send(SignInIntent{Email: email, Password: password})
		}
	case "backspace":
		if len(m.inputBuf) > 0 {
			runes := []rune(m.inputBuf)
			m.inputBuf = string(runes[:len(runes)-1])
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.inputBuf += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			m.inputBuf += " "
		}
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render("lingo - speech and text translator") + "\n\n")

	switch m.authState {
	case auth.StateUnknown:
		b.WriteString(styleDim.Render("checking session...") + "\n")
		return b.String()
	case auth.StateUnauthenticated:
		b.WriteString(m.viewSignIn())
		return b.String()
	}

	b.WriteString(styleDim.Render("signed in as "+m.authEmail) + "\n\n")

	// Status + waveform
	if m.recording {
		b.WriteString(styleRec.Render(fmt.Sprintf("● REC %.1fs", m.recordingDuration)) + "\n")
		b.WriteString(styleWave.Render(waveform.Sparkline(m.levels, m.waveWidth())) + "\n")
		if m.noVoice {
			b.WriteString(styleWarn.Render("  ⚠ no voice detected") + "\n")
		}
	} else {
		b.WriteString(styleStandby.Render("○ STANDBY") + "\n")
		b.WriteString(styleWaveIdle.Render(strings.Repeat("▁", m.waveWidth())) + "\n")
	}
	b.WriteString("\n")

	if m.modeLine != "" {
		b.WriteString(styleDim.Render(m.modeLine) + "\n")
	}
	if m.deviceLine != "" {
		b.WriteString(styleDim.Render(m.deviceLine) + "\n")
	}

	if m.status != "" {
		b.WriteString("\n" + styleWarn.Render(m.status) + "\n")
	}
	if m.errText != "" {
		b.WriteString("\n" + styleErr.Render("✗ "+m.errText) + "\n")
	}

	if m.input == inputText {
		b.WriteString("\n" + styleTitle.Render("text to translate:") + "\n")
		b.WriteString("> " + m.inputBuf + "▌\n")
	}

	b.WriteString(m.viewResult())

	b.WriteString("\n")
	help := styleFaint.Bold(true).Render("space") + styleFaint.Render(" record  ") +
		styleFaint.Bold(true).Render("t") + styleFaint.Render(" text  ") +
		styleFaint.Bold(true).Render("o") + styleFaint.Render(" sign out  ") +
		styleFaint.Bold(true).Render("q") + styleFaint.Render(" quit")
	b.WriteString(help + "\n")
	b.WriteString(styleFaint.Render("lingo "+version) + "\n")

	return b.String()
}

func (m tuiModel) viewSignIn() string {
	var b strings.Builder
	b.WriteString(styleWarn.Render("sign-in required") + "\n\n")
	switch m.input {
	case inputEmail:
		b.WriteString("email: " + m.inputBuf + "▌\n")
	case inputPassword:
		b.WriteString("email: " + m.signInEmail + "\n")
		b.WriteString("access code: " + strings.Repeat("*", len(m.inputBuf)) + "▌\n")
	default:
		b.WriteString(styleFaint.Bold(true).Render("s") + styleFaint.Render(" sign in  ") +
			styleFaint.Bold(true).Render("q") + styleFaint.Render(" quit") + "\n")
	}
	if m.errText != "" {
		b.WriteString("\n" + styleErr.Render("✗ "+m.errText) + "\n")
	}
	return b.String()
}

func (m tuiModel) viewResult() string {
	if m.lastResult == "" {
		return "\n" + styleDim.Render("no translations yet") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n" + styleTitle.Render(fmt.Sprintf("last translation (#%d)", m.msgCount)) + "\n\n")

	wrapWidth := m.width - 4
	if wrapWidth < 10 {
		wrapWidth = 10
	}
	if m.lastSource != "" {
		src := m.lastSource
		if m.lastDetected != "" {
			src = fmt.Sprintf("[%s] %s", m.lastDetected, src)
		}
		for _, line := range wrapText(src, wrapWidth) {
			b.WriteString(styleText.Render(line) + "\n")
		}
	}
	lines := wrapText(m.lastResult, wrapWidth)
	for i, line := range lines {
		b.WriteString(styleResult.Render(line))
		if i == len(lines)-1 && m.copied {
			b.WriteString(" " + styleOK.Render("[✓ copied]"))
		}
		b.WriteString("\n")
	}

	if len(m.lastMetrics) > 0 {
		b.WriteString("\n")
		metricsStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
		for _, metric := range m.lastMetrics {
			b.WriteString(metricsStyle.Render(metric) + "\n")
		}
	}
	return b.String()
}

func (m tuiModel) waveWidth() int {
	w := m.width - 4
	if w > waveform.DefaultBars {
		w = waveform.DefaultBars
	}
	if w < 10 {
		w = 10
	}
	return w
}

// wrapText wraps on rune count, splitting at a space when one falls
// inside the width. Translations are often spaceless CJK text, so a
// split must never land inside a multi-byte rune.
func wrapText(text string, width int) []string {
	if text == "" {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	runes := []rune(text)
	var lines []string
	for len(runes) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if runes[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, string(runes[:splitAt]))
		runes = []rune(strings.TrimLeft(string(runes[splitAt:]), " "))
	}
	if len(runes) > 0 {
		lines = append(lines, string(runes))
	}
	return lines
}
