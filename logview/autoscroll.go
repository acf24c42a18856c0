package logview

// AutoScroll decides when the viewport follows new rows. Pinning happens only
// while enabled and while the user has not scrolled away from the bottom.
type AutoScroll struct {
	enabled   bool
	following bool
	lastLen   int
}

// NewAutoScroll returns an enabled controller that is following
func NewAutoScroll() *AutoScroll {
	return &AutoScroll{enabled: true, following: true}
}

// Enabled reports whether auto-scroll is switched on
func (a *AutoScroll) Enabled() bool {
	return a.enabled
}

// Following reports whether the viewport is pinned to the bottom
func (a *AutoScroll) Following() bool {
	return a.enabled && a.following
}

// SetEnabled switches auto-scroll on or off. It never moves the viewport.
// Turning it on resumes following only if the user is already at the bottom.
func (a *AutoScroll) SetEnabled(on bool, atBottom bool) {
	a.enabled = on
	if on {
		a.following = atBottom
	}
}

// Toggle flips the enabled flag
func (a *AutoScroll) Toggle(atBottom bool) {
	a.SetEnabled(!a.enabled, atBottom)
}

// UserScrolled records a manual scroll. Leaving the bottom suspends pinning,
// returning to it resumes pinning.
func (a *AutoScroll) UserScrolled(atBottom bool) {
	a.following = atBottom
}

// Grew records the new length of the filtered list and reports whether the
// viewport should be pinned to the last row.
func (a *AutoScroll) Grew(newLen int) bool {
	grew := newLen > a.lastLen
	a.lastLen = newLen
	return grew && a.Following()
}

// Reset forgets the last observed length, used when the list is rebuilt
func (a *AutoScroll) Reset(newLen int) {
	a.lastLen = newLen
}
