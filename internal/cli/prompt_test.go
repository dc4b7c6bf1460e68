package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirmLargeBatch(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{"  YES \n", true},
		{"y\n", false},
		{"no\n", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			got := ConfirmLargeBatch(&out, strings.NewReader(tt.input), 1500)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "About to reboot 1500 APs. Are you sure? (yes/no): ")
		})
	}
}

func TestPromptConfirmer(t *testing.T) {
	t.Run("yes flag skips prompt", func(t *testing.T) {
		var out bytes.Buffer
		c := &promptConfirmer{out: &out, in: strings.NewReader(""), yes: true}
		assert.True(t, c.Confirm(context.Background(), 2000))
		assert.Empty(t, out.String())
	})

	t.Run("non terminal declines", func(t *testing.T) {
		var out bytes.Buffer
		c := &promptConfirmer{out: &out, in: strings.NewReader("yes\n"), isTTY: func() bool { return false }}
		assert.False(t, c.Confirm(context.Background(), 2000))
		assert.Contains(t, out.String(), "--yes")
	})

	t.Run("terminal prompts", func(t *testing.T) {
		var out bytes.Buffer
		c := &promptConfirmer{out: &out, in: strings.NewReader("yes\n"), isTTY: func() bool { return true }}
		assert.True(t, c.Confirm(context.Background(), 2000))
	})
}
