package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstallSignalHandlers_ReturnsSameContext(t *testing.T) {
	first := InstallSignalHandlers()
	second := InstallSignalHandlers()
	assert.Equal(t, first, second)
}
