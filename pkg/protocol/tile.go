package protocol

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/omochice/spectrangle-net/pkg/gamepiece"
)

// ErrInvalidTile is returned when a tile token cannot be decoded.
var ErrInvalidTile = errors.New("invalid tile")

// EncodeColor returns the single letter used for c on the wire.
// It panics if c is not a declared color; that is a programming error.
func EncodeColor(c gamepiece.Color) byte {
	switch c {
	case gamepiece.Red:
		return 'R'
	case gamepiece.Blue:
		return 'B'
	case gamepiece.Green:
		return 'G'
	case gamepiece.Yellow:
		return 'Y'
	case gamepiece.Purple:
		return 'P'
	case gamepiece.White:
		return 'W'
	default:
		panic(fmt.Sprintf("protocol: no wire letter for %s", c))
	}
}

// DecodeColor maps a wire letter back to its color.
func DecodeColor(letter byte) (gamepiece.Color, error) {
	switch letter {
	case 'R':
		return gamepiece.Red, nil
	case 'B':
		return gamepiece.Blue, nil
	case 'G':
		return gamepiece.Green, nil
	case 'Y':
		return gamepiece.Yellow, nil
	case 'P':
		return gamepiece.Purple, nil
	case 'W':
		return gamepiece.White, nil
	default:
		return 0, fmt.Errorf("%w: unknown color letter %q", ErrInvalidTile, letter)
	}
}

// EncodeTile returns the wire token for a tile: the flat side, first
// clockwise and second clockwise colors followed by the point value,
// e.g. "BRP2".
func EncodeTile(t gamepiece.Tile) string {
	buf := make([]byte, 0, 6)
	buf = append(buf,
		EncodeColor(t.FlatSide()),
		EncodeColor(t.Clockwise1()),
		EncodeColor(t.Clockwise2()),
	)
	return string(strconv.AppendInt(buf, int64(t.Points()), 10))
}

// DecodeTile parses a token produced by EncodeTile.
func DecodeTile(token string) (gamepiece.Tile, error) {
	if len(token) < 4 {
		return gamepiece.Tile{}, fmt.Errorf("%w: %q is too short", ErrInvalidTile, token)
	}

	var sides [3]gamepiece.Color
	for i := range sides {
		c, err := DecodeColor(token[i])
		if err != nil {
			return gamepiece.Tile{}, err
		}
		sides[i] = c
	}

	digits := token[3:]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return gamepiece.Tile{}, fmt.Errorf("%w: bad point value in %q", ErrInvalidTile, token)
		}
	}
	points, err := strconv.Atoi(digits)
	if err != nil {
		return gamepiece.Tile{}, fmt.Errorf("%w: %v", ErrInvalidTile, err)
	}

	return gamepiece.NewTile(sides[0], sides[1], sides[2], points), nil
}
