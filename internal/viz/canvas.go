package viz

import (
	"strings"
)

// Each cell is a 2x4 braille dot matrix starting at U+2800:
// 1 4
// 2 5
// 3 6
// 7 8
const brailleBlank = 0x2800

var dotMask = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of braille cells addressed in dots: Width*2 dots across
// and Height*4 dots down, y growing downwards.
type Canvas struct {
	Width, Height int
	cells         [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) Clear() {
	for _, row := range c.cells {
		for j := range row {
			row[j] = brailleBlank
		}
	}
}

// Set lights the dot at (x, y). Dots off the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.cells[row][col] |= dotMask[y%4][x%2]
}

// Line draws from (x0, y0) to (x1, y1) with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
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

// Profile clears the canvas and draws values as a polyline spread evenly
// across the full width, lo at the bottom and hi at the top.
func (c *Canvas) Profile(values []float64, lo, hi float64) {
	c.Clear()
	if len(values) == 0 {
		return
	}
	w, h := c.Width*2-1, c.Height*4-1
	px := func(i int) int {
		if len(values) == 1 {
			return 0
		}
		return i * w / (len(values) - 1)
	}
	py := func(v float64) int {
		if hi <= lo {
			return h / 2
		}
		return h - int((v-lo)/(hi-lo)*float64(h))
	}

	x0, y0 := px(0), py(values[0])
	c.Set(x0, y0)
	for i := 1; i < len(values); i++ {
		x1, y1 := px(i), py(values[i])
		c.Line(x0, y0, x1, y1)
		x0, y0 = x1, y1
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.cells {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
