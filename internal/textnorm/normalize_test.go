package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"accents folded", "São Paulo", "sao paulo"},
		{"already ascii", "Sao Paulo", "sao paulo"},
		{"case and padding", "  NEW York ", "new york"},
		{"cedilla and umlaut", "Curaçao Zürich", "curacao zurich"},
		{"non ascii script dropped", "Москва", ""},
		{"nil", nil, ""},
		{"number", 42.0, ""},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalize_SameKeyForSpellingVariants(t *testing.T) {
	assert.Equal(t, Normalize("São Paulo"), Normalize("Sao Paulo"))
	assert.Equal(t, Normalize("Bogotá"), Normalize("BOGOTA"))
}

func TestCountryCode(t *testing.T) {
	assert.Equal(t, "GB", CountryCode(" gb "))
	assert.Equal(t, "", CountryCode(""))
}
