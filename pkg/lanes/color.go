package lanes

// colorAllocator hands out lane color ids and recycles the ids of
// retired lanes. Recycled ids are preferred over fresh ones so a short
// history never burns through the palette.
//
// With a palette size configured, fresh ids are folded modulo the
// palette; many concurrently live lanes then repeat hues, which is a
// rendering artifact, never an error. A palette size of zero keeps ids
// unbounded and leaves hue folding to the renderer.
type colorAllocator struct {
	free    []int
	counter int
	palette int
}

func newColorAllocator(paletteSize int) *colorAllocator {
	return &colorAllocator{palette: paletteSize}
}

// allocate returns the next color id: the most recently released id if
// any are free, otherwise a fresh one from the monotonic counter.
func (a *colorAllocator) allocate() int {
	if n := len(a.free); n > 0 {
		c := a.free[n-1]
		a.free = a.free[:n-1]
		return c
	}
	c := a.counter
	if a.palette > 0 {
		c %= a.palette
	}
	a.counter++
	return c
}

// release returns a color id to the free list. Rows already emitted
// keep their color values, so reuse only ever affects later rows.
func (a *colorAllocator) release(c int) {
	a.free = append(a.free, c)
}
