package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/dyntrace/internal/geom"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a grid of braille cells with one colour per cell.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Colours       [][]geom.Colour
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:   w,
		Height:  h,
		Grid:    make([][]rune, h),
		Colours: make([][]geom.Colour, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Colours[i] = make([]geom.Colour, w)
	}
	c.Clear()
	return c
}

// SubWidth and SubHeight are the canvas size in sub-pixels.
func (c *Canvas) SubWidth() int  { return c.Width * 2 }
func (c *Canvas) SubHeight() int { return c.Height * 4 }

// Set sets a pixel at (x, y) in sub-pixel coordinates and paints its cell.
func (c *Canvas) Set(x, y int, col geom.Colour) {
	if x < 0 || y < 0 {
		return
	}

	cx := x / 2
	row := y / 4
	if cx >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][cx] |= rune(pixelMap[y%4][x%2])
	c.Colours[row][cx] = col
}

// Lit reports whether the sub-pixel at (x, y) is set.
func (c *Canvas) Lit(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.Colours[i][j] = geom.Colour{}
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, col geom.Colour) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// String renders the canvas without colour.
func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render renders the canvas with each cell in its colour, alpha applied
// against the theme backdrop. Runs of equal colour share one style.
func (c *Canvas) Render() string {
	var b strings.Builder
	for i, row := range c.Grid {
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && c.Colours[i][j] == c.Colours[i][start] {
				continue
			}
			run := string(row[start:j])
			col := c.Colours[i][start]
			if col == (geom.Colour{}) {
				b.WriteString(run)
			} else {
				b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(shade(col).Hex())).Render(run))
			}
			start = j
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// shade blends c over the current theme backdrop by its alpha.
func shade(c geom.Colour) geom.Colour {
	bg, err := colorful.Hex(CurrentTheme.Backdrop)
	if err != nil {
		bg = colorful.Color{}
	}
	fg := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	r, g, b := bg.BlendRgb(fg, c.Opacity()).Clamped().RGB255()
	return geom.Colour{R: r, G: g, B: b, A: 255}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
