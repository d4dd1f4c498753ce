//go:build !arm

package irq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisableEnableNesting(t *testing.T) {
	require.False(t, Masked())
	Disable()
	require.True(t, Masked())
	Disable()
	require.True(t, Masked())
	Enable()
	require.True(t, Masked())
	Enable()
	require.False(t, Masked())
}
