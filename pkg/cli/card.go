package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colors of a card.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme is a leaf-green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#3fb950"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds the styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Section is a labeled block of text inside a card.
type Section struct {
	Label string
	Text  string
}

// Card is a bordered block with a title, an optional status and sections.
type Card struct {
	Styles   Styles
	Title    string
	Status   string
	Sections []Section
	Footer   string
}

// Render renders the card at the given width. Section text is word-wrapped
// and sections with empty text are skipped.
func (c Card) Render(width int) string {
	width = max(width, 20)
	bc := c.Styles.Border
	inner := width - 4

	var lines []string
	lines = append(lines, bc.Render("╭"+strings.Repeat("─", width-2)+"╮"))

	title := c.Styles.Title.Render(truncate(c.Title, inner-2))
	head := title
	if c.Status != "" {
		head += " " + c.Styles.Help.Render("["+c.Status+"]")
	}
	lines = append(lines, c.row(bc, head, inner))

	for _, sec := range c.Sections {
		if strings.TrimSpace(sec.Text) == "" {
			continue
		}
		label := c.Styles.Label.Render(sec.Label)
		pad := max(0, width-3-lipgloss.Width(label))
		lines = append(lines, bc.Render("├─")+label+bc.Render(strings.Repeat("─", pad)+"┤"))
		for _, l := range wrap(sec.Text, inner) {
			lines = append(lines, c.row(bc, l, inner))
		}
	}

	lines = append(lines, bc.Render("╰"+strings.Repeat("─", width-2)+"╯"))
	if c.Footer != "" {
		lines = append(lines, c.Styles.Help.Render(c.Footer))
	}
	return strings.Join(lines, "\n")
}

func (c Card) row(bc lipgloss.Style, text string, inner int) string {
	pad := max(0, inner-lipgloss.Width(text))
	return bc.Render("│") + " " + text + strings.Repeat(" ", pad) + " " + bc.Render("│")
}

// wrap breaks text into lines of at most width cells on word boundaries.
// Words longer than width are cut.
func wrap(text string, width int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		var cur string
		for _, w := range strings.Fields(para) {
			w = truncate(w, width)
			switch {
			case cur == "":
				cur = w
			case lipgloss.Width(cur)+1+lipgloss.Width(w) <= width:
				cur += " " + w
			default:
				lines = append(lines, cur)
				cur = w
			}
		}
		lines = append(lines, cur)
	}
	return lines
}

// truncate cuts s to width cells, handling multi-byte characters.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	cur := 0
	for i, r := range runes {
		w := lipgloss.Width(string(r))
		if cur+w > width-1 {
			return string(runes[:i]) + "…"
		}
		cur += w
	}
	return s
}
