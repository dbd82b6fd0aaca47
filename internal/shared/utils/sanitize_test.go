package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Chart", "My Chart"},
		{"  Salah  ", "Salah"},
		{"<b>Revenue</b>", "Revenue"},
		{`<script>alert(1)</script>Sales`, "Sales"},
		{"Salah & Co", "Salah & Co"},
		{`<img src=x onerror=alert(1)>`, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeText(tt.in), tt.in)
	}
}
