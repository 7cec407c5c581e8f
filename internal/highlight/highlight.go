// Package highlight colours SQL for terminal output.
package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the styles applied to each token class.
type Theme struct {
	Keyword  lipgloss.Style
	Type     lipgloss.Style
	Function lipgloss.Style
	String   lipgloss.Style
	Number   lipgloss.Style
	Comment  lipgloss.Style
	Operator lipgloss.Style
}

// DefaultTheme returns a dark-terminal palette.
func DefaultTheme() *Theme {
	return &Theme{
		Keyword:  lipgloss.NewStyle().Foreground(lipgloss.Color("#569CD6")).Bold(true),
		Type:     lipgloss.NewStyle().Foreground(lipgloss.Color("#4EC9B0")),
		Function: lipgloss.NewStyle().Foreground(lipgloss.Color("#DCDCAA")),
		String:   lipgloss.NewStyle().Foreground(lipgloss.Color("#CE9178")),
		Number:   lipgloss.NewStyle().Foreground(lipgloss.Color("#B5CEA8")),
		Comment:  lipgloss.NewStyle().Foreground(lipgloss.Color("#6A9955")).Italic(true),
		Operator: lipgloss.NewStyle().Foreground(lipgloss.Color("#D4D4D4")),
	}
}

// Highlighter tokenises SQL with chroma and renders tokens with lipgloss.
type Highlighter struct {
	lexer chroma.Lexer
	theme *Theme
}

// New creates a Highlighter using the PostgreSQL lexer, falling back to the
// generic SQL lexer. A nil theme disables styling.
func New(th *Theme) *Highlighter {
	l := lexers.Get("PostgreSQL")
	if l == nil {
		l = lexers.Get("SQL")
	}
	if l == nil {
		l = lexers.Fallback
	}
	return &Highlighter{lexer: chroma.Coalesce(l), theme: th}
}

// Highlight returns sql with every recognised token styled. Newlines are
// emitted unstyled so line structure survives. Unstyled text is returned
// unchanged when tokenising fails.
func (h *Highlighter) Highlight(sql string) string {
	if h.theme == nil {
		return sql
	}
	iter, err := h.lexer.Tokenise(nil, sql)
	if err != nil {
		return sql
	}

	var b strings.Builder
	b.Grow(len(sql) * 2)
	for _, tok := range iter.Tokens() {
		if tok.Value == "" {
			continue
		}
		style, ok := h.styleFor(tok.Type)
		if !ok {
			b.WriteString(tok.Value)
			continue
		}
		lines := strings.Split(tok.Value, "\n")
		for i, line := range lines {
			if line != "" {
				b.WriteString(style.Render(line))
			}
			if i < len(lines)-1 {
				b.WriteByte('\n')
			}
		}
	}
	out := b.String()
	// Lexers configured with EnsureNL append a newline.
	if !strings.HasSuffix(sql, "\n") {
		out = strings.TrimSuffix(out, "\n")
	}
	return out
}

func (h *Highlighter) styleFor(tt chroma.TokenType) (lipgloss.Style, bool) {
	switch {
	// KeywordType sits inside the Keyword category, so it goes first.
	case tt == chroma.KeywordType:
		return h.theme.Type, true
	case tt == chroma.NameFunction || tt == chroma.NameBuiltin:
		return h.theme.Function, true
	case tt.InCategory(chroma.Keyword):
		return h.theme.Keyword, true
	case tt.InSubCategory(chroma.LiteralString):
		return h.theme.String, true
	case tt.InSubCategory(chroma.LiteralNumber):
		return h.theme.Number, true
	case tt.InCategory(chroma.Comment):
		return h.theme.Comment, true
	case tt == chroma.Operator || tt == chroma.OperatorWord:
		return h.theme.Operator, true
	default:
		return lipgloss.Style{}, false
	}
}
