// Package host embeds the avatar in a window: a container that composites
// the mounted backend surfaces onto the screen, and the game loop that feeds
// commands and keys into the controller.
package host

import (
	"slices"
	"sync"

	"chosenoffset.com/avatarstage/internal/render"
)

// Window is the render.Container backed by the host screen.
type Window struct {
	mu      sync.Mutex
	w, h    int
	mounted []render.Image
}

// NewWindow returns a window of the given logical size.
func NewWindow(w, h int) *Window {
	return &Window{w: w, h: h}
}

// Bounds implements render.Container.
func (win *Window) Bounds() (int, int) {
	win.mu.Lock()
	defer win.mu.Unlock()
	return win.w, win.h
}

// SetBounds records a new size. It reports whether the size changed.
func (win *Window) SetBounds(w, h int) bool {
	win.mu.Lock()
	defer win.mu.Unlock()
	if win.w == w && win.h == h {
		return false
	}
	win.w, win.h = w, h
	return true
}

// Mount implements render.Container. Mounting twice is a no-op.
func (win *Window) Mount(surface render.Image) {
	win.mu.Lock()
	defer win.mu.Unlock()
	if slices.Contains(win.mounted, surface) {
		return
	}
	win.mounted = append(win.mounted, surface)
}

// Unmount implements render.Container.
func (win *Window) Unmount(surface render.Image) {
	win.mu.Lock()
	defer win.mu.Unlock()
	win.mounted = slices.DeleteFunc(win.mounted, func(s render.Image) bool { return s == surface })
}

// Mounted returns the surfaces in mount order.
func (win *Window) Mounted() []render.Image {
	win.mu.Lock()
	defer win.mu.Unlock()
	return slices.Clone(win.mounted)
}

// Composite draws every mounted surface onto screen at the origin.
func (win *Window) Composite(screen render.Image) {
	for _, s := range win.Mounted() {
		screen.DrawImage(s, nil)
	}
}
