package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Logo is the banner shown beside the clock and in help
const Logo = ` █████╗ ████████╗████████╗███████╗███╗   ██╗██████╗ ██████╗
██╔══██╗╚══██╔══╝╚══██╔══╝██╔════╝████╗  ██║██╔══██╗██╔══██╗
███████║   ██║      ██║   █████╗  ██╔██╗ ██║██║  ██║██████╔╝
██╔══██║   ██║      ██║   ██╔══╝  ██║╚██╗██║██║  ██║██╔══██╗
██║  ██║   ██║      ██║   ███████╗██║ ╚████║██████╔╝██║  ██║
╚═╝  ╚═╝   ╚═╝      ╚═╝   ╚══════╝╚═╝  ╚═══╝╚═════╝ ╚═╝  ╚═╝`

// 5x5 glyphs
var glyphs = map[rune][5]string{
	'0': {" ███ ", "█   █", "█   █", "█   █", " ███ "},
	'1': {"  █  ", " ██  ", "  █  ", "  █  ", "█████"},
	'2': {" ███ ", "█   █", "   █ ", "  █  ", "█████"},
	'3': {" ███ ", "█   █", "  ██ ", "█   █", " ███ "},
	'4': {"█   █", "█   █", "█████", "    █", "    █"},
	'5': {"█████", "█    ", "████ ", "    █", "████ "},
	'6': {" ███ ", "█    ", "████ ", "█   █", " ███ "},
	'7': {"█████", "    █", "   █ ", "  █  ", " █   "},
	'8': {" ███ ", "█   █", " ███ ", "█   █", " ███ "},
	'9': {" ███ ", "█   █", " ████", "    █", " ███ "},
	':': {"     ", "  █  ", "     ", "  █  ", "     "},
}

// RenderBigClock draws text (digits and colons) five rows tall. Other runes are skipped.
func RenderBigClock(text, color string) string {
	var rows [5]strings.Builder
	for _, r := range text {
		g, ok := glyphs[r]
		if !ok {
			continue
		}
		for i := range rows {
			rows[i].WriteString(g[i])
			rows[i].WriteString(" ")
		}
	}

	style := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
	out := make([]string, len(rows))
	for i := range rows {
		out[i] = style.Render(strings.TrimRight(rows[i].String(), " "))
	}
	return strings.Join(out, "\n")
}
