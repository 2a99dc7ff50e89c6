// Package gamepiece provides the tile and color value objects shared by the
// networking layer and the game rules.
package gamepiece

import "fmt"

// Color is one of the six side colors a tile can have.
type Color int

const (
	Red Color = iota
	Blue
	Green
	Yellow
	Purple
	White
)

// Colors lists every valid color in declaration order.
var Colors = []Color{Red, Blue, Green, Yellow, Purple, White}

// String returns the string representation of Color
func (c Color) String() string {
	switch c {
	case Red:
		return "RED"
	case Blue:
		return "BLUE"
	case Green:
		return "GREEN"
	case Yellow:
		return "YELLOW"
	case Purple:
		return "PURPLE"
	case White:
		return "WHITE"
	default:
		return fmt.Sprintf("Color(%d)", int(c))
	}
}

// Valid reports whether c is one of the declared colors.
func (c Color) Valid() bool {
	return c >= Red && c <= White
}

// Tile is an immutable triangle with three colored sides and a point value.
// Sides are ordered flat side first, then clockwise.
type Tile struct {
	flat       Color
	clockwise1 Color
	clockwise2 Color
	points     int
}

// NewTile creates a new Tile.
func NewTile(flat, clockwise1, clockwise2 Color, points int) Tile {
	return Tile{
		flat:       flat,
		clockwise1: clockwise1,
		clockwise2: clockwise2,
		points:     points,
	}
}

func (t Tile) FlatSide() Color   { return t.flat }
func (t Tile) Clockwise1() Color { return t.clockwise1 }
func (t Tile) Clockwise2() Color { return t.clockwise2 }
func (t Tile) Points() int       { return t.points }

// Rotate120 returns the tile rotated a third of a turn clockwise.
// The receiver is left unchanged.
func (t Tile) Rotate120() Tile {
	return NewTile(t.clockwise2, t.flat, t.clockwise1, t.points)
}

// Rotate240 returns the tile rotated two thirds of a turn clockwise.
func (t Tile) Rotate240() Tile {
	return t.Rotate120().Rotate120()
}

// String returns a human readable form, e.g. "BLUE/RED/PURPLE:2".
func (t Tile) String() string {
	return fmt.Sprintf("%s/%s/%s:%d", t.flat, t.clockwise1, t.clockwise2, t.points)
}
