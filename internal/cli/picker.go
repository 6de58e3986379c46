package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/geospice/internal/model"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// PickerKeyMap defines the category picker's key bindings.
type PickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Accept key.Binding
	Quit   key.Binding
}

// DefaultPickerKeyMap returns the default picker bindings.
func DefaultPickerKeyMap() PickerKeyMap {
	return PickerKeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Choose: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "choose"),
		),
		Accept: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "accept suggestion"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "q", "ctrl+c"),
			key.WithHelp("esc/q", "cancel"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k PickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Choose, k.Accept, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k PickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// CategoryPicker lets the user confirm or override a suggested category.
// The cursor starts on the suggestion.
type CategoryPicker struct {
	help       help.Model
	keys       PickerKeyMap
	suggestion model.Suggestion
	outcome    model.Outcome
	categories []model.Category
	chosen     model.Category
	cursor     int
	done       bool
	canceled   bool
}

// NewCategoryPicker creates a picker preselected on s.Category.
func NewCategoryPicker(s model.Suggestion, outcome model.Outcome) CategoryPicker {
	categories := model.Categories()
	cursor := 0
	for i, c := range categories {
		if c == s.Category {
			cursor = i
			break
		}
	}
	return CategoryPicker{
		help:       help.New(),
		keys:       DefaultPickerKeyMap(),
		suggestion: s,
		outcome:    outcome,
		categories: categories,
		cursor:     cursor,
	}
}

// Init implements tea.Model.
func (m CategoryPicker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m CategoryPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.done {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Up):
		m.cursor = (m.cursor + len(m.categories) - 1) % len(m.categories)
	case key.Matches(keyMsg, m.keys.Down):
		m.cursor = (m.cursor + 1) % len(m.categories)
	case key.Matches(keyMsg, m.keys.Choose):
		return m.finish(m.categories[m.cursor])
	case key.Matches(keyMsg, m.keys.Accept):
		return m.finish(m.suggestion.Category)
	case key.Matches(keyMsg, m.keys.Quit):
		m.done = true
		m.canceled = true
		return m, tea.Quit
	default:
		if idx, ok := shortcutIndex(keyMsg.String(), len(m.categories)); ok {
			m.cursor = idx
			return m.finish(m.categories[idx])
		}
	}
	return m, nil
}

func (m CategoryPicker) finish(c model.Category) (tea.Model, tea.Cmd) {
	m.chosen = c
	m.done = true
	return m, tea.Quit
}

// shortcutIndex maps "1".."9" to the first nine entries and "0" to the tenth.
func shortcutIndex(s string, n int) (int, bool) {
	if len(s) != 1 || s[0] < '0' || s[0] > '9' {
		return 0, false
	}
	idx := int(s[0] - '1')
	if s[0] == '0' {
		idx = 9
	}
	if idx >= n {
		return 0, false
	}
	return idx, true
}

// View implements tea.Model.
func (m CategoryPicker) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(RenderSuggestion(m.suggestion, m.outcome))
	b.WriteString("\n\n")
	b.WriteString(TitleStyle.Render("Choose a category"))
	b.WriteString("\n")

	for i, c := range m.categories {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		shortcut := (i + 1) % 10
		line := fmt.Sprintf("%s%d. %s", cursor, shortcut, c)
		if c == m.suggestion.Category {
			line += SubtleStyle.Render("  (suggested)")
		}
		if i == m.cursor {
			line = BoldStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

// Chosen returns the selected category, or false if the picker was canceled.
func (m CategoryPicker) Chosen() (model.Category, bool) {
	if !m.done || m.canceled {
		return "", false
	}
	return m.chosen, true
}

// PickCategory runs the picker on the given terminal streams.
func PickCategory(in io.Reader, out io.Writer, s model.Suggestion, outcome model.Outcome) (model.Category, bool, error) {
	p := tea.NewProgram(NewCategoryPicker(s, outcome), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return "", false, fmt.Errorf("category picker failed: %w", err)
	}
	picker, ok := final.(CategoryPicker)
	if !ok {
		return "", false, fmt.Errorf("category picker returned unexpected model %T", final)
	}
	c, chosen := picker.Chosen()
	return c, chosen, nil
}
