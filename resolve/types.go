// Package resolve turns a decoded krb.Document into a styled element tree:
// child links made authoritative, styles and direct properties cascaded,
// component templates expanded, and color/text/visibility inheritance
// applied. It has no notion of pixels or a window system — that is
// package layout's job, and is not backend-specific — that is package
// backend's.
package resolve

import "github.com/kryonlabs/kryon-runtime/krb"

const (
	InvalidResourceIndex = 0xFF
	BaseFontSize         = 18.0
)

// Color is tri-state: Set distinguishes "never specified, inherit/default"
// from "explicitly set to a value" — including explicitly transparent
// (A=0, Set=true), which an alpha-only sentinel cannot represent.
type Color struct {
	R, G, B, A uint8
	Set        bool
}

func (c Color) Opaque() bool { return c.Set && c.A == 255 }

// EventBinding is a resolved (not file-relative) event-to-handler mapping.
type EventBinding struct {
	EventType   krb.EventType
	HandlerName string
}

// RenderElement is one node of the resolved tree: cascade-applied visual
// properties plus the geometry fields package layout fills in. It carries
// no backend handle (no texture, no font) — resource.Loader and the
// backend own that binding, keyed by ResourceIndex.
type RenderElement struct {
	Kind          krb.ElementType
	ID            uint8
	Name          string // resolved from the element's name-index custom prop, if any
	OriginalIndex int
	Parent        *RenderElement
	Children      []*RenderElement

	BgColor     Color
	FgColor     Color
	BorderColor Color

	BorderWidths [4]uint8 // top, right, bottom, left
	Padding      [4]uint8

	TextAlignment uint8
	Text          string
	FontSize      uint8
	ImageSource   string
	ResourceIndex uint8

	LayoutByte    uint8
	PosX, PosY    int16
	ExplicitW     uint16 // 0 means "not explicitly sized"
	ExplicitH     uint16
	MaxW, MaxH    uint16
	MinW, MinH    uint16

	IsVisible     bool
	IsInteractive bool
	IsActive      bool

	// ComponentName is the resolved custom-component identifier for this
	// element, read from its "_componentName" custom property convention.
	// Empty for ordinary elements.
	ComponentName string

	// CustomProps holds every string-valued custom property
	// (key -> resolved string), so a registered LayoutAdjuster can read
	// component-specific configuration like "position"/"orientation"
	// without reaching back into the krb.Document itself.
	CustomProps map[string]string

	EventHandlers []EventBinding

	// Geometry, filled in by package layout; zero before Layout runs.
	RenderX, RenderY, RenderW, RenderH float32

	DocRef *krb.Document
}

// WindowConfig holds the App element's resolved window-level properties —
// the spec's equivalent of top-level document metadata.
type WindowConfig struct {
	Width       int
	Height      int
	Title       string
	Resizable   bool
	ScaleFactor float32

	DefaultBg          Color
	DefaultFg          Color
	DefaultBorderColor Color
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Width:              800,
		Height:             600,
		Title:              "Kryon Application",
		Resizable:          false,
		ScaleFactor:        1.0,
		DefaultBg:          Color{0, 0, 0, 255, true},
		DefaultFg:          Color{230, 230, 230, 255, true},
		DefaultBorderColor: Color{100, 100, 100, 255, true},
	}
}

// Result is the output of Resolve: the roots of the resolved tree, the
// window configuration, and any non-fatal warnings accumulated along the
// way (missing style references, unresolved component names, and the
// like) — collected rather than only logged, same rationale as
// krb.Document.Warnings.
type Result struct {
	Roots    []*RenderElement
	Config   WindowConfig
	Warnings []error
}
