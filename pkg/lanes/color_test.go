package lanes

import "testing"

func TestColorAllocator(t *testing.T) {
	a := newColorAllocator(0)

	if got := a.allocate(); got != 0 {
		t.Errorf("allocate() = %d, want 0", got)
	}
	if got := a.allocate(); got != 1 {
		t.Errorf("allocate() = %d, want 1", got)
	}

	a.release(0)
	if got := a.allocate(); got != 0 {
		t.Errorf("allocate() after release = %d, want recycled 0", got)
	}
	if got := a.allocate(); got != 2 {
		t.Errorf("allocate() = %d, want fresh 2", got)
	}
}

func TestColorAllocatorPalette(t *testing.T) {
	a := newColorAllocator(3)

	got := []int{a.allocate(), a.allocate(), a.allocate(), a.allocate()}
	want := []int{0, 1, 2, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("allocate() #%d = %d, want %d", i, got[i], want[i])
		}
	}
}
