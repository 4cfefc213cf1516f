package tui

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short ascii", "abc", 10, "abc"},
		{"exact length", "abcde", 5, "abcde"},
		{"long ascii", "abcdef", 4, "abc…"},
		{"tiny limit", "abcdef", 1, "…"},
		{"multi-byte url", "https://例え.jp/アーカイブ.zip", 12, "https://例え.…"},
		{"multi-byte exact", "日本語", 3, "日本語"},
		{"multi-byte cut", "日本語テスト", 4, "日本語…"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := truncate(tc.in, tc.n)
			require.Equal(t, tc.want, got)
			require.True(t, utf8.ValidString(got))
		})
	}
}
