package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"roleplaychat/pkg/worldstate"
)

const PlaceHolderText = "Type your message here..."

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	conversation *conversationInfo
	messages     []messageInfo
	world        worldstate.Document
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Last assistant or narrator reply, for /copy.
	lastReply string

	// Character selection state
	showCharacterModal bool
	characters         []characterSummary
	selectedCharacter  int
	loadingCharacters  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type chatResponseMsg struct {
	reply *generationReply
	err   error
}

type narrateResponseMsg struct {
	reply *generationReply
	err   error
}

type impersonateResponseMsg struct {
	reply *generationReply
	err   error
}

type worldStateMsg struct {
	doc worldstate.Document
	err error
}

type charactersLoadedMsg struct {
	characters []characterSummary
	err        error
}

type conversationCreatedMsg struct {
	conversation *conversationInfo
	messages     []messageInfo
	err          error
}

type copiedMsg struct {
	err error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // green
			Italic(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 2000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:             cfg,
		client:             client,
		textarea:           ta,
		chatViewport:       chatVp,
		metaViewport:       metaVp,
		ready:              false,
		showCharacterModal: true,
		loadingCharacters:  true,
		selectedCharacter:  0,
	}
}

func (m *ConsoleUI) characterName() string {
	if m.conversation == nil {
		return "Character"
	}
	for _, c := range m.characters {
		if c.ID == m.conversation.CharacterID {
			return c.Name
		}
	}
	return "Character"
}

func (m *ConsoleUI) writeInitialContent(chatWidth int) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("ROLEPLAY CHAT") + "\n\n")
	content.WriteString(fmt.Sprintf("You are chatting with %s.\n", m.characterName()))
	content.WriteString("Type your messages below, or /help for commands.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 1))) + "\n\n")
	return content.String()
}

func entityLabel(key, characterName string) string {
	switch key {
	case worldstate.EntityCharacter:
		return characterName
	case worldstate.EntityUser:
		return "You"
	}
	return key
}

func (m *ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("WORLD STATE") + "\n\n")

	if m.conversation != nil {
		content.WriteString("Conversation:\n")
		content.WriteString(fmt.Sprintf("#%d with %s\n\n", m.conversation.ID, m.characterName()))
	}

	content.WriteString("Messages:\n")
	content.WriteString(fmt.Sprintf("%d total\n\n", len(m.messages)))

	charName := m.characterName()
	for _, key := range m.world.Keys() {
		entity := m.world[key]
		if !entity.HasContent() {
			continue
		}
		content.WriteString(speakerStyle.Render(entityLabel(key, charName)) + "\n")
		for _, attr := range entity.Attributes {
			if !attr.HasContent() {
				continue
			}
			if attr.Type == worldstate.TypeList {
				content.WriteString(fmt.Sprintf("• %s:\n", attr.Name))
				for _, item := range attr.Items {
					content.WriteString(fmt.Sprintf("  - %s: %s\n", item.Name, item.Description))
				}
			} else {
				content.WriteString(fmt.Sprintf("• %s: %s\n", attr.Name, attr.Text))
			}
		}
		content.WriteString("\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /look: Describe scene\n")
	content.WriteString("• /refresh: World state\n")

	return content.String()
}

// writeChatContent rebuilds the chat viewport from the message history for
// the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6

	var content strings.Builder
	content.WriteString(m.writeInitialContent(chatWidth))

	charName := m.characterName()
	for _, msg := range m.messages {
		switch msg.Role {
		case "assistant":
			speaker := msg.SenderName
			if speaker == "" {
				speaker = charName
			}
			content.WriteString(formatSpeakerResponse(speaker, msg.Content, chatWidth) + "\n\n")
		case "narrator":
			content.WriteString(narratorStyle.Render(wordwrap.String(msg.Content, chatWidth)) + "\n\n")
		case "user":
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(msg.Content, chatWidth-6) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showCharacterModal {
		return m.loadCharacters()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle character modal first
	if m.showCharacterModal {
		return m.updateCharacterModal(msg)
	}

	// Handle quit modal second
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		// Pass mouse events to all components; each ignores events
		// outside its bounds.
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0

			m.messages = append(m.messages, messageInfo{Role: "user", Content: input})
			m.writeChatContent()

			return m, tea.Batch(m.sendChatCmd(input), progressTick())
		}

	case chatResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.appendError(msg.err)
		} else {
			m.lastReply = msg.reply.Content
			m.messages = append(m.messages, messageInfo{
				ID:         msg.reply.MessageID,
				Role:       "assistant",
				Content:    msg.reply.Content,
				SenderName: m.characterName(),
			})
			m.writeChatContent()
		}
		m.chatViewport.GotoBottom()
		return m, m.refreshWorldCmd()

	case narrateResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.appendError(msg.err)
		} else {
			m.lastReply = msg.reply.Content
			m.messages = append(m.messages, messageInfo{
				ID:      msg.reply.MessageID,
				Role:    "narrator",
				Content: msg.reply.Content,
			})
			m.writeChatContent()
		}
		m.chatViewport.GotoBottom()
		return m, m.refreshWorldCmd()

	case impersonateResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.appendError(msg.err)
		} else {
			// The draft lands in the textarea so it can be edited
			// before sending.
			m.textarea.SetValue(msg.reply.Content)
			m.writeChatContent()
		}
		return m, textarea.Blink

	case worldStateMsg:
		if msg.err == nil && msg.doc != nil {
			m.world = msg.doc
			m.metaViewport.SetContent(m.writeMetadata())
		}

	case copiedMsg:
		current := m.chatViewport.View()
		if msg.err != nil {
			m.chatViewport.SetContent(current + errorStyle.Render("Copy failed: "+msg.err.Error()) + "\n\n")
		} else {
			m.chatViewport.SetContent(current + promptStyle.Render("Last reply copied to clipboard.") + "\n\n")
		}
		m.chatViewport.GotoBottom()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) appendError(err error) {
	m.err = err
	m.writeChatContent()
	currentContent := m.chatViewport.View()
	m.chatViewport.SetContent(currentContent + errorStyle.Render("Error: "+err.Error()) + "\n\n")
}

// formatSpeakerResponse wraps a reply and highlights speaker prefixes on
// dialogue lines.
func formatSpeakerResponse(speaker, response string, width int) string {
	hasPrefix := false
	if idx := strings.Index(response, ":"); idx > 0 && idx <= 20 {
		if len(strings.Fields(response[:idx])) <= 2 {
			hasPrefix = true
		}
	}

	wrapWidth := width
	if !hasPrefix {
		wrapWidth = width - len(speaker) - 2
	}

	wrapped := wordwrap.String(response, wrapWidth)
	lines := strings.Split(wrapped, "\n")
	var formattedLines []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			formattedLines = append(formattedLines, "")
			continue
		}

		if idx := strings.Index(trimmed, ":"); idx > 0 && idx <= 20 {
			name := trimmed[:idx]
			rest := trimmed[idx+1:]
			if len(strings.Fields(name)) <= 2 {
				formattedLines = append(formattedLines, speakerStyle.Render(name+":")+rest)
				continue
			}
		}

		formattedLines = append(formattedLines, line)
	}

	result := strings.Join(formattedLines, "\n")
	if !hasPrefix {
		result = speakerStyle.Render(speaker+": ") + result
	}
	return result
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))
	m.textarea.Reset()

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /look - Ask the narrator to describe the scene
• /narrate - Advance the scene with narration
• /impersonate - Draft your next message in your voice
• /refresh - Request a world state refresh
• /copy - Copy the last reply to the clipboard
• Ctrl+C - Quit

How to play:
• Type your messages and press Enter
• The character responds in-character
• The sidebar tracks mood, position and clothing
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()
		return m, nil

	case "/look":
		m.loading = true
		m.progressTick = 0
		m.writeChatContent()
		return m, tea.Batch(m.narrateCmd("look_scene"), progressTick())

	case "/narrate":
		m.loading = true
		m.progressTick = 0
		m.writeChatContent()
		return m, tea.Batch(m.narrateCmd("narrate"), progressTick())

	case "/impersonate":
		m.loading = true
		m.progressTick = 0
		m.writeChatContent()
		return m, tea.Batch(m.impersonateCmd(), progressTick())

	case "/refresh":
		return m, m.requestRefreshCmd()

	case "/copy":
		if m.lastReply == "" {
			currentContent := m.chatViewport.View()
			m.chatViewport.SetContent(currentContent + promptStyle.Render("Nothing to copy yet.") + "\n\n")
			m.chatViewport.GotoBottom()
			return m, nil
		}
		reply := m.lastReply
		return m, func() tea.Msg {
			return copiedMsg{err: clipboard.WriteAll(reply)}
		}

	default:
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + promptStyle.Render("Unknown command. Try /help.") + "\n\n")
		m.chatViewport.GotoBottom()
		return m, nil
	}
}

func (m ConsoleUI) sendChatCmd(message string) tea.Cmd {
	return func() tea.Msg {
		reply, err := sendChat(m.client, m.config.APIBaseURL, m.conversation.ID, message)
		return chatResponseMsg{reply, err}
	}
}

func (m ConsoleUI) narrateCmd(narrationType string) tea.Cmd {
	return func() tea.Msg {
		reply, err := sendNarrate(m.client, m.config.APIBaseURL, m.conversation.ID, narrationType)
		return narrateResponseMsg{reply, err}
	}
}

func (m ConsoleUI) impersonateCmd() tea.Cmd {
	return func() tea.Msg {
		reply, err := sendImpersonate(m.client, m.config.APIBaseURL, m.conversation.ID, "")
		return impersonateResponseMsg{reply, err}
	}
}

func (m ConsoleUI) refreshWorldCmd() tea.Cmd {
	return func() tea.Msg {
		doc, err := getWorldState(m.client, m.config.APIBaseURL, m.conversation.ID)
		return worldStateMsg{doc, err}
	}
}

// requestRefreshCmd enqueues a regeneration, waits briefly for the worker,
// then refetches the document.
func (m ConsoleUI) requestRefreshCmd() tea.Cmd {
	return func() tea.Msg {
		if err := refreshWorldState(m.client, m.config.APIBaseURL, m.conversation.ID); err != nil {
			return worldStateMsg{nil, err}
		}
		time.Sleep(2 * time.Second)
		doc, err := getWorldState(m.client, m.config.APIBaseURL, m.conversation.ID)
		return worldStateMsg{doc, err}
	}
}

func (m ConsoleUI) loadCharacters() tea.Cmd {
	return func() tea.Msg {
		chars, err := listCharacters(m.client, m.config.APIBaseURL)
		return charactersLoadedMsg{chars, err}
	}
}

func (m ConsoleUI) startConversation(characterID int64) tea.Cmd {
	return func() tea.Msg {
		conv, err := createConversation(m.client, m.config.APIBaseURL, characterID)
		if err != nil {
			return conversationCreatedMsg{nil, nil, err}
		}
		messages, err := listMessages(m.client, m.config.APIBaseURL, conv.ID)
		if err != nil {
			return conversationCreatedMsg{nil, nil, err}
		}
		return conversationCreatedMsg{conv, messages, nil}
	}
}

func (m ConsoleUI) updateCharacterModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case charactersLoadedMsg:
		m.loadingCharacters = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.characters = msg.characters
		}

	case conversationCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.conversation = msg.conversation
			m.messages = msg.messages
			m.showCharacterModal = false
			if m.width > 0 && m.height > 0 {
				chatWidth := int(float64(m.width)*0.75) - 4
				metaWidth := m.width - chatWidth - 6
				m.chatViewport.Width = chatWidth - 2
				m.chatViewport.Height = m.height - 7
				m.metaViewport.Width = metaWidth - 2
				m.metaViewport.Height = m.height - 4
				m.textarea.SetWidth(chatWidth - 4)
			}
			m.writeChatContent()
			m.metaViewport.SetContent(m.writeMetadata())
			m.textarea.Focus()
			m.ready = true
			return m, tea.Batch(textarea.Blink, m.refreshWorldCmd())
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingCharacters {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		if m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				m.showQuitModal = true
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedCharacter > 0 {
				m.selectedCharacter--
			}
		case tea.KeyDown:
			if m.selectedCharacter < len(m.characters)-1 {
				m.selectedCharacter++
			}
		case tea.KeyEnter:
			if len(m.characters) > 0 {
				m.loading = true
				return m, m.startConversation(m.characters[m.selectedCharacter].ID)
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if !m.showCharacterModal {
					m.textarea.Focus()
					return m, textarea.Blink
				}
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to leave the conversation?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderCharacterModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	switch {
	case m.loadingCharacters:
		content.WriteString(modalTitleStyle.Render("Loading Characters..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Fetching available characters..."))
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load characters: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Starting Conversation..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Setting things up..."))
	case len(m.characters) == 0:
		content.WriteString(modalTitleStyle.Render("No Characters"))
		content.WriteString("\n\n")
		content.WriteString("No characters exist yet. Create one through the API first.")
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	default:
		content.WriteString(modalTitleStyle.Render("Select a Character"))
		content.WriteString("\n\n")

		for i, c := range m.characters {
			label := c.Name
			if c.Description != "" {
				label = fmt.Sprintf("%s - %s", c.Name, c.Description)
			}
			if i == m.selectedCharacter {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", label)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", label)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showCharacterModal {
		return m.renderCharacterModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states.
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		switch {
		case i < filled:
			bar.WriteString("█")
		case i == filled && frame%4 < 2:
			bar.WriteString("▓")
		default:
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
