package logview

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWindowRange(t *testing.T) {
	tests := []struct {
		name       string
		w          Window
		total      int
		start, end int
	}{
		{"empty", Window{Height: 10, Overscan: 5}, 0, 0, 0},
		{"fewer rows than height", Window{Height: 10, Overscan: 5}, 4, 0, 4},
		{"top", Window{Height: 10, Overscan: 5}, 100, 0, 15},
		{"middle", Window{Height: 10, Overscan: 5, Offset: 50}, 100, 45, 65},
		{"bottom", Window{Height: 10, Overscan: 5, Offset: 90}, 100, 85, 100},
		{"offset past end", Window{Height: 10, Overscan: 2, Offset: 500}, 100, 88, 100},
		{"negative offset", Window{Height: 10, Overscan: 2, Offset: -3}, 100, 0, 12},
		{"zero height", Window{Overscan: 3, Offset: 10}, 100, 7, 13},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			start, end := test.w.Range(test.total)
			require.Equal(t, test.start, start)
			require.Equal(t, test.end, end)
		})
	}
}

func TestWindowRangeBounds(t *testing.T) {
	for total := 0; total < 40; total++ {
		for offset := -5; offset < 50; offset += 3 {
			w := Window{Height: 7, Overscan: 4, Offset: offset}
			start, end := w.Range(total)
			if start < 0 || start > end || end > total {
				t.Fatalf("bad range [%v,%v) for total %v offset %v", start, end, total, offset)
			}
		}
	}
}

func TestWindowScroll(t *testing.T) {
	w := Window{Height: 10}
	require.Equal(t, 90, w.ScrollToBottom(100).Offset)
	require.True(t, w.ScrollToBottom(100).AtBottom(100))
	require.False(t, w.AtBottom(100))
	require.True(t, w.AtBottom(5))

	w = w.ScrollBy(95, 100)
	require.Equal(t, 90, w.Offset)
	w = w.ScrollBy(-200, 100)
	require.Equal(t, 0, w.Offset)
}
