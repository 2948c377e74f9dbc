package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vovakirdan/invaders/internal/protocol"
)

// Cell colors used on the field.
const (
	colorDefault = ""
	colorShip    = "ship"
	colorBullet  = "bullet"
	colorDead    = "dead"
	colorGround  = "ground"
)

// colorStyles maps avatar colors and field elements to lipgloss styles.
var colorStyles = map[string]lipgloss.Style{
	colorDefault: lipgloss.NewStyle(),
	"green":      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	"cyan":       lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	"yellow":     lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	colorShip:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	colorBullet:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	colorDead:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	colorGround:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
}

// avatarRunes draws each sprite family as a single glyph.
var avatarRunes = map[string]rune{"A": 'W', "B": 'M', "C": 'Y'}

type cell struct {
	r     rune
	color string
}

// Field is a character grid onto which canvas coordinates are projected.
type Field struct {
	width, height    int
	canvasW, canvasH float64
	cells            [][]cell
}

// NewField creates a width x height grid covering a canvasW x canvasH canvas.
func NewField(width, height int, canvasW, canvasH float64) *Field {
	f := &Field{
		width:   max(width, 1),
		height:  max(height, 1),
		canvasW: canvasW,
		canvasH: canvasH,
	}
	f.cells = make([][]cell, f.height)
	for y := range f.cells {
		f.cells[y] = make([]cell, f.width)
	}
	f.Clear()
	return f
}

// Clear fills the grid with spaces.
func (f *Field) Clear() {
	for y := range f.cells {
		for x := range f.cells[y] {
			f.cells[y][x] = cell{r: ' '}
		}
	}
}

// project maps canvas coordinates to a grid cell, clamped to the grid.
func (f *Field) project(x, y float64) (int, int) {
	cx := int(math.Floor(x / f.canvasW * float64(f.width)))
	cy := int(math.Floor(y / f.canvasH * float64(f.height)))
	return min(max(cx, 0), f.width-1), min(max(cy, 0), f.height-1)
}

// Plot draws r at canvas position (x, y).
func (f *Field) Plot(x, y float64, r rune, color string) {
	cx, cy := f.project(x, y)
	f.cells[cy][cx] = cell{r: r, color: color}
}

// HLine draws a full-width line at canvas height y.
func (f *Field) HLine(y float64, r rune, color string) {
	_, cy := f.project(0, y)
	for x := range f.cells[cy] {
		f.cells[cy][x] = cell{r: r, color: color}
	}
}

// Get returns the rune at a grid cell, or a space outside the grid.
func (f *Field) Get(x, y int) rune {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return ' '
	}
	return f.cells[y][x].r
}

// Render converts the grid to a styled string.
// Adjacent cells with the same color share one style run.
func (f *Field) Render() string {
	var sb strings.Builder
	sb.Grow(f.width*f.height*2 + f.height)

	for y := range f.height {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < f.width {
			startColor := f.cells[y][x].color

			var run strings.Builder
			for x < f.width && f.cells[y][x].color == startColor {
				run.WriteRune(f.cells[y][x].r)
				x++
			}

			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[colorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// DrawGameState paints players, the ship, a fresh bullet and the platform.
func (f *Field) DrawGameState(s *protocol.GameStateMsg, platformY float64) {
	f.Clear()
	f.HLine(platformY, '─', colorGround)
	if s == nil {
		return
	}

	if s.ShipBody != nil {
		f.Plot(s.ShipBody[0], s.ShipBody[1], '^', colorShip)
		if s.BulletOrBlank != nil {
			cx, cy := f.project(s.ShipBody[0], s.ShipBody[1])
			if cy > 0 {
				f.cells[cy-1][cx] = cell{r: '|', color: colorBullet}
			}
		}
	}

	for _, p := range s.Players {
		r, ok := avatarRunes[p.InvaderAvatarType]
		if !ok {
			r = '?'
		}
		color := p.InvaderAvatarColor
		if !p.IsAlive {
			r, color = 'x', colorDead
		}
		f.Plot(p.X, p.Y, r, color)
	}
}
