package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeFor(t *testing.T) {
	base := errors.New("refused")
	wrapped := fmt.Errorf("run: %w", exitError(ExitConfigError, base))

	assert.Equal(t, ExitSuccess, ExitCodeFor(nil))
	assert.Equal(t, ExitConfigError, ExitCodeFor(wrapped))
	assert.Equal(t, ExitFailure, ExitCodeFor(base))
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, "refused", exitError(ExitFailure, base).Error())
}
