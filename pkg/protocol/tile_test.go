package protocol_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omochice/spectrangle-net/pkg/gamepiece"
	"github.com/omochice/spectrangle-net/pkg/protocol"
)

func TestEncodeTile(t *testing.T) {
	tests := []struct {
		name string
		tile gamepiece.Tile
		want string
	}{
		{
			name: "blue red purple",
			tile: gamepiece.NewTile(gamepiece.Blue, gamepiece.Red, gamepiece.Purple, 2),
			want: "BRP2",
		},
		{
			name: "red green yellow",
			tile: gamepiece.NewTile(gamepiece.Red, gamepiece.Green, gamepiece.Yellow, 5),
			want: "RGY5",
		},
		{
			name: "joker with two digit points",
			tile: gamepiece.NewTile(gamepiece.White, gamepiece.White, gamepiece.White, 10),
			want: "WWW10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, protocol.EncodeTile(tt.tile))
		})
	}
}

func TestEncodeTile_Deterministic(t *testing.T) {
	tile := gamepiece.NewTile(gamepiece.Red, gamepiece.Green, gamepiece.Yellow, 5)

	for i := 0; i < 100; i++ {
		require.Equal(t, "RGY5", protocol.EncodeTile(tile))
	}
}

func TestEncodeColor_EveryColor(t *testing.T) {
	want := map[gamepiece.Color]byte{
		gamepiece.Red:    'R',
		gamepiece.Blue:   'B',
		gamepiece.Green:  'G',
		gamepiece.Yellow: 'Y',
		gamepiece.Purple: 'P',
		gamepiece.White:  'W',
	}

	for _, c := range gamepiece.Colors {
		assert.Equal(t, want[c], protocol.EncodeColor(c), c.String())
	}
}

func TestEncodeColor_UndeclaredPanics(t *testing.T) {
	assert.Panics(t, func() {
		protocol.EncodeColor(gamepiece.Color(99))
	})
}

func TestDecodeTile(t *testing.T) {
	tile, err := protocol.DecodeTile("BRP2")
	require.NoError(t, err)
	assert.Equal(t, gamepiece.NewTile(gamepiece.Blue, gamepiece.Red, gamepiece.Purple, 2), tile)

	tile, err = protocol.DecodeTile("PGG6")
	require.NoError(t, err)
	assert.Equal(t, protocol.EncodeTile(tile), "PGG6")
}

func TestDecodeTile_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "too short", token: "BRP"},
		{name: "unknown color", token: "BXP2"},
		{name: "lower case", token: "brp2"},
		{name: "negative points", token: "BRP-2"},
		{name: "non numeric points", token: "BRPx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := protocol.DecodeTile(tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, protocol.ErrInvalidTile))
		})
	}
}
