package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashJSONIsDeterministic(t *testing.T) {
	a, err := HashJSON(map[string]any{"b": 2, "a": 1, "c": []int{1, 2}})
	require.NoError(t, err)
	b, err := HashJSON(map[string]any{"c": []int{1, 2}, "a": 1, "b": 2})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestHashJSONRejectsUnencodable(t *testing.T) {
	_, err := HashJSON(map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	f := NewFingerprinter(0)

	loc := struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}{48.85, 2.35}

	p1 := f.Of("Salah", map[string]any{"customTitle": "Salah", "location": loc})
	p2 := f.Of("Salah", map[string]any{"location": loc, "customTitle": "Salah"})
	assert.Equal(t, p1, p2)
	assert.Len(t, string(p1), 16)

	changed := f.Of("Salah", map[string]any{"customTitle": "Prayer", "location": loc})
	assert.NotEqual(t, p1, changed)

	otherWidget := f.Of("Chart", map[string]any{"customTitle": "Salah", "location": loc})
	assert.NotEqual(t, p1, otherWidget)

	assert.Len(t, string(NewFingerprinter(8).Of("Clock", nil)), 8)
}
