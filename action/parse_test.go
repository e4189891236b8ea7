package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Action
	}{
		{"BlasterPlace 5 5", BlasterPlace(5, 5)},
		{"laserplace 0 23", LaserPlace(0, 23)},
		{"  SellTurret   1 2 ", SellTurret(1, 2)},
		{"GamePause", GamePause()},
		{"gamespeedinc", GameSpeedInc()},
		{"CheatCredits", CheatCredits()},
		{"Empty", Empty},
	}

	for _, tt := range tests {
		got, err := Parse(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestParseRejects(t *testing.T) {
	_, err := Parse("Teleport 1 1")
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = Parse("")
	assert.ErrorIs(t, err, ErrUnknownAction)

	for _, input := range []string{
		"BlasterPlace 5",
		"BlasterPlace 5 256",
		"BlasterPlace a b",
		"GamePause 1",
	} {
		_, err := Parse(input)
		assert.Error(t, err, input)
	}
}

func TestParseStringRoundTrip(t *testing.T) {
	for _, a := range canonicalActions() {
		got, err := Parse(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
}
