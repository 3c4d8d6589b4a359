package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("  ALICE@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "(555) 123-4567", want: "5551234567"},
		{in: "+1 555.123.4567", want: "15551234567"},
		{in: "no digits", want: ""},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.in))
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "John  Smith Jr.", want: "john smith"},
		{in: "MARIA   GARCIA", want: "maria garcia"},
		{in: "O'Brien, Patrick", want: "obrien patrick"},
		{in: "Jane Doe PhD", want: "jane doe"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in))
	}
}

func TestApplyChain(t *testing.T) {
	got := ApplyChain("  ALICE@Example.COM ", "trim", "lowercase")
	assert.Equal(t, "alice@example.com", got)
}

func TestApply_UnknownNormalizerPassesThrough(t *testing.T) {
	assert.Equal(t, "value", Apply("value", "does-not-exist"))
}
