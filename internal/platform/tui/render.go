package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/OpenBrickProtocolFoundation/client/internal/netplay"
	"github.com/OpenBrickProtocolFoundation/client/internal/tetrion"
)

// visibleHeight hides the spawn rows above the play field.
const visibleHeight = 20

// pieceStyles maps piece types to their conventional colors.
var pieceStyles = map[tetrion.TetrominoType]lipgloss.Style{
	tetrion.TypeI: lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	tetrion.TypeJ: lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	tetrion.TypeL: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	tetrion.TypeO: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	tetrion.TypeS: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	tetrion.TypeT: lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	tetrion.TypeZ: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
}

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	ghostStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	flashStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	overStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

const (
	cellFilled = "██"
	cellGhost  = "░░"
	cellEmpty  = "  "
)

// RenderBoard renders one player's board with borders, the active piece, its
// ghost, and a line-clear flash.
func RenderBoard(view netplay.PlayerView) string {
	type overlay struct {
		typ   tetrion.TetrominoType
		ghost bool
	}
	cells := make(map[tetrion.Vec2]overlay)
	if view.Ghost != nil {
		for _, pos := range view.Ghost.MinoPositions {
			cells[pos] = overlay{typ: view.Ghost.Type, ghost: true}
		}
	}
	if view.Active != nil {
		for _, pos := range view.Active.MinoPositions {
			cells[pos] = overlay{typ: view.Active.Type}
		}
	}
	clearing := make(map[int]bool, len(view.Clearing))
	for _, row := range view.Clearing {
		clearing[row] = true
	}

	var sb strings.Builder
	sb.WriteString(borderStyle.Render("┌" + strings.Repeat("──", tetrion.Width) + "┐"))
	sb.WriteByte('\n')

	for y := tetrion.Height - visibleHeight; y < tetrion.Height; y++ {
		sb.WriteString(borderStyle.Render("│"))
		for x := 0; x < tetrion.Width; x++ {
			switch {
			case clearing[y]:
				sb.WriteString(flashStyle.Render(cellFilled))
			case view.Board[y][x] != tetrion.TypeEmpty:
				sb.WriteString(styleFor(view.Board[y][x]).Render(cellFilled))
			default:
				if ov, ok := cells[tetrion.Vec2{X: x, Y: y}]; ok {
					if ov.ghost {
						sb.WriteString(ghostStyle.Render(cellGhost))
					} else {
						sb.WriteString(styleFor(ov.typ).Render(cellFilled))
					}
				} else {
					sb.WriteString(cellEmpty)
				}
			}
		}
		sb.WriteString(borderStyle.Render("│"))
		sb.WriteByte('\n')
	}

	sb.WriteString(borderStyle.Render("└" + strings.Repeat("──", tetrion.Width) + "┘"))
	return sb.String()
}

// RenderSidebar renders the hold slot, the preview queue, and the score next
// to a board.
func RenderSidebar(view netplay.PlayerView) string {
	var sb strings.Builder

	sb.WriteString(labelStyle.Render("hold"))
	sb.WriteByte('\n')
	sb.WriteString(renderPieceName(view.Held))
	sb.WriteString("\n\n")

	sb.WriteString(labelStyle.Render("next"))
	sb.WriteByte('\n')
	for _, typ := range view.Preview {
		sb.WriteString(renderPieceName(typ))
		sb.WriteByte('\n')
	}

	sb.WriteByte('\n')
	sb.WriteString(labelStyle.Render("score"))
	sb.WriteByte('\n')
	sb.WriteString(fmt.Sprintf("%d", view.Score))
	sb.WriteByte('\n')
	sb.WriteString(labelStyle.Render("lines"))
	sb.WriteByte('\n')
	sb.WriteString(fmt.Sprintf("%d", view.Lines))

	if view.GameOver {
		sb.WriteString("\n\n")
		sb.WriteString(overStyle.Render("TOP OUT"))
	}

	return sb.String()
}

// RenderMatch lays out both players side by side.
func RenderMatch(localName, remoteName string, local, remote netplay.PlayerView) string {
	localPane := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(localName),
		lipgloss.JoinHorizontal(lipgloss.Top, RenderBoard(local), " ", RenderSidebar(local)),
	)
	remotePane := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(remoteName),
		lipgloss.JoinHorizontal(lipgloss.Top, RenderBoard(remote), " ", RenderSidebar(remote)),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, localPane, "    ", remotePane)
}

func styleFor(typ tetrion.TetrominoType) lipgloss.Style {
	if style, ok := pieceStyles[typ]; ok {
		return style
	}
	return lipgloss.NewStyle()
}

func renderPieceName(typ tetrion.TetrominoType) string {
	if typ == tetrion.TypeEmpty {
		return labelStyle.Render("-")
	}
	return styleFor(typ).Render(typ.String())
}
