// Package backend defines the narrow contract a concrete rendering
// target (a raylib window, a terminal grid) must satisfy to host a
// resolved, laid-out document. It is the one seam that knows about
// pixels/cells and an actual display surface; krb, resolve, layout,
// registry, and resource never import it.
package backend

import (
	"github.com/kryonlabs/kryon-runtime/krb"
	"github.com/kryonlabs/kryon-runtime/resolve"
)

// Config mirrors the resolve.WindowConfig fields a backend needs to open
// and clear its surface during Init, so a backend reads one small struct
// instead of the whole resolved WindowConfig.
type Config struct {
	Width       int
	Height      int
	Title       string
	Resizable   bool
	ScaleFactor float32

	// ClearColor is the resolved WindowConfig.DefaultBg (the App element's
	// own BG_COLOR if it set one, else the spec's black default) — the
	// color a backend clears its surface to before drawing any element.
	ClearColor resolve.Color
}

// Backend is the full set of operations internal/app.Run drives the
// frame loop through: open/close the surface, poll input, draw one
// resolved+laid-out tree, measure text for layout.TextMeasurer, and
// load a decoded resource image into a backend-native texture handle.
type Backend interface {
	Init(cfg Config) error
	ShouldClose() bool
	PollEvents()
	BeginFrame()
	Draw(roots []*resolve.RenderElement)
	EndFrame()
	Cleanup()

	// MeasureText satisfies layout.TextMeasurer so the same backend
	// instance can be passed straight into layout.Layout.
	MeasureText(text string, fontSize uint8) float32

	// LoadTexture hands the backend decoded pixel data (from
	// resource.Loader) and returns an opaque handle it can later draw
	// by resource index; a nil/zero handle on error is a draw-skip,
	// never a fatal condition for the caller.
	LoadTexture(resourceIndex uint8, pixelsRGBA []byte, width, height int) (TextureHandle, error)
}

// TextureHandle is an opaque backend-native texture reference. Concrete
// backends define their own underlying type (e.g. raylibbackend wraps
// rl.Texture2D) and satisfy this via a type alias or thin wrapper;
// package backend never inspects the value itself.
type TextureHandle interface {
	Valid() bool
}

// EventDispatcher is satisfied by any backend that resolves pointer
// input against resolved element rectangles and fires registered event
// handlers — raylibbackend implements it, driving the
// Idle->Hover->Pressed->Idle interaction state machine internally;
// termbackend does not (it handles keyboard focus in PollEvents).
type EventDispatcher interface {
	DispatchEvents(roots []*resolve.RenderElement, doc *krb.Document)
}
