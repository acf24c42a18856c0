package logview

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAutoScrollFollows(t *testing.T) {
	a := NewAutoScroll()
	require.True(t, a.Grew(5))
	require.False(t, a.Grew(5), "no growth, no pin")
	require.True(t, a.Grew(6))
}

func TestAutoScrollUserScroll(t *testing.T) {
	a := NewAutoScroll()
	a.Grew(10)

	a.UserScrolled(false)
	require.False(t, a.Grew(20))
	require.True(t, a.Enabled())

	a.UserScrolled(true)
	require.True(t, a.Grew(30))
}

func TestAutoScrollDisabled(t *testing.T) {
	a := NewAutoScroll()
	a.SetEnabled(false, true)
	require.False(t, a.Grew(10))

	// enabling while scrolled up does not jump
	a.SetEnabled(true, false)
	require.False(t, a.Grew(20))

	a.UserScrolled(true)
	require.True(t, a.Grew(30))

	a.Toggle(true)
	require.False(t, a.Enabled())
	a.Toggle(true)
	require.True(t, a.Following())
}
