// Package raylibbackend implements backend.Backend on top of
// github.com/gen2brain/raylib-go/raylib — the teacher's own windowed
// raster target, generalized to draw a resolve.RenderElement tree
// (tri-state Color, resource-index textures) instead of the teacher's
// krb.Document-bound RenderElement.
package raylibbackend

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"github.com/kryonlabs/kryon-runtime/backend"
	"github.com/kryonlabs/kryon-runtime/krb"
	"github.com/kryonlabs/kryon-runtime/registry"
	"github.com/kryonlabs/kryon-runtime/resolve"
)

// Texture wraps rl.Texture2D to satisfy backend.TextureHandle.
type Texture struct{ rl.Texture2D }

func (t Texture) Valid() bool { return t.ID > 0 }

// Backend is the raylib-backed backend.Backend implementation.
type Backend struct {
	log      *zap.Logger
	reg      *registry.Registry
	config   backend.Config
	textures map[uint8]Texture

	// pressedElement is the one element currently in the Pressed state of
	// the Idle->Hover->Pressed->Idle machine; nil when nothing is pressed.
	// Click fires on release only if the pointer is still hovering this
	// same element, matching "Click fires on release while still hovered".
	pressedElement *resolve.RenderElement
	warnedMissing  map[string]bool // debounces the "handler not registered" log per name
}

// New constructs a raylib backend wired to reg for event-handler and
// custom-component-adjuster lookups; log may be nil, in which case a
// no-op logger is used.
func New(reg *registry.Registry, log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{
		log:           log,
		reg:           reg,
		textures:      make(map[uint8]Texture),
		warnedMissing: make(map[string]bool),
	}
}

func (b *Backend) Init(cfg backend.Config) error {
	b.config = cfg
	rl.InitWindow(int32(cfg.Width), int32(cfg.Height), cfg.Title)
	if cfg.Resizable {
		rl.SetWindowState(rl.FlagWindowResizable)
	} else {
		rl.ClearWindowState(rl.FlagWindowResizable)
		rl.SetWindowSize(cfg.Width, cfg.Height)
	}
	rl.SetTargetFPS(60)
	if !rl.IsWindowReady() {
		return fmt.Errorf("raylibbackend: InitWindow failed or window not ready")
	}
	b.log.Info("window ready", zap.Int("width", cfg.Width), zap.Int("height", cfg.Height), zap.String("title", cfg.Title))
	return nil
}

func (b *Backend) ShouldClose() bool {
	return rl.IsWindowReady() && rl.WindowShouldClose()
}

func (b *Backend) BeginFrame() { rl.BeginDrawing() }
func (b *Backend) EndFrame()   { rl.EndDrawing() }

func (b *Backend) PollEvents() {
	// raylib polls input implicitly via BeginDrawing/window state; the
	// actual hit-testing and dispatch happens in DispatchEvents once the
	// current frame's resolved tree is available.
}

func topMostInteractive(roots []*resolve.RenderElement, pos rl.Vector2) *resolve.RenderElement {
	var found *resolve.RenderElement
	var walk func(el *resolve.RenderElement)
	walk = func(el *resolve.RenderElement) {
		if el == nil || !el.IsVisible {
			return
		}
		// children drawn after their parent are visually on top; walk
		// children first so the topmost hit wins.
		for _, c := range el.Children {
			walk(c)
		}
		if found != nil {
			return
		}
		if el.IsInteractive && el.RenderW > 0 && el.RenderH > 0 {
			rect := rl.NewRectangle(el.RenderX, el.RenderY, el.RenderW, el.RenderH)
			if rl.CheckCollisionPointRec(pos, rect) {
				found = el
			}
		}
	}
	for _, r := range roots {
		walk(r)
		if found != nil {
			break
		}
	}
	return found
}

// DispatchEvents implements the pointer interaction state machine:
// Idle -> Hover (pointer enters an interactive element) -> Pressed
// (press while hovered) -> Idle (release or leave), firing Click on
// release only while still hovering the element that was pressed.
func (b *Backend) DispatchEvents(roots []*resolve.RenderElement, doc *krb.Document) {
	pos := rl.GetMousePosition()
	hovered := topMostInteractive(roots, pos)

	cursor := rl.MouseCursorDefault
	if hovered != nil {
		cursor = rl.MouseCursorPointingHand
	}
	rl.SetMouseCursor(cursor)

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) && hovered != nil {
		b.pressedElement = hovered
	}

	if rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
		if b.pressedElement != nil && b.pressedElement == hovered {
			b.fireClick(b.pressedElement)
		}
		b.pressedElement = nil
	}
}

func (b *Backend) fireClick(el *resolve.RenderElement) {
	if b.reg != nil && el.ComponentName != "" {
		if adj, ok := b.reg.LookupCustomComponent(el.ComponentName); ok {
			if drawer, ok := adj.(interface {
				HandleEvent(el *resolve.RenderElement, eventType krb.EventType) (bool, error)
			}); ok {
				if handled, err := drawer.HandleEvent(el, krb.EventTypeClick); err != nil {
					b.log.Warn("custom component click handler failed", zap.String("component", el.ComponentName), zap.Error(err))
					return
				} else if handled {
					return
				}
			}
		}
	}
	for _, eb := range el.EventHandlers {
		if eb.EventType != krb.EventTypeClick {
			continue
		}
		fn, ok := b.reg.LookupEventHandler(eb.HandlerName)
		if !ok {
			if !b.warnedMissing[eb.HandlerName] {
				b.log.Warn("click handler not registered", zap.String("handler", eb.HandlerName))
				b.warnedMissing[eb.HandlerName] = true
			}
			continue
		}
		fn()
	}
}

func (b *Backend) Cleanup() {
	for idx, tex := range b.textures {
		if tex.Valid() {
			rl.UnloadTexture(tex.Texture2D)
		}
		delete(b.textures, idx)
	}
	if rl.IsWindowReady() {
		rl.CloseWindow()
	}
}

func (b *Backend) MeasureText(text string, fontSize uint8) float32 {
	return rl.MeasureTextEx(rl.GetFontDefault(), text, float32(fontSize), 1.0).X
}

func (b *Backend) LoadTexture(resourceIndex uint8, pixelsRGBA []byte, width, height int) (backend.TextureHandle, error) {
	if existing, ok := b.textures[resourceIndex]; ok {
		return existing, nil
	}
	img := rl.NewImage(pixelsRGBA, int32(width), int32(height), 1, rl.UncompressedR8g8b8a8)
	tex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	if tex.ID == 0 {
		return Texture{}, fmt.Errorf("raylibbackend: failed to upload texture for resource %d", resourceIndex)
	}
	wrapped := Texture{tex}
	b.textures[resourceIndex] = wrapped
	return wrapped, nil
}

func toRlColor(c resolve.Color) rl.Color {
	return rl.NewColor(c.R, c.G, c.B, c.A)
}

func clampOpposingBorders(a, bb, total int32) (int32, int32) {
	if total <= 0 {
		return 0, 0
	}
	if a < 0 {
		a = 0
	}
	if bb < 0 {
		bb = 0
	}
	if a+bb > total {
		a = total / 2
		bb = total - a
	}
	return a, bb
}

func drawBorders(x, y, w, h, top, right, bottom, left int32, color rl.Color) {
	if color.A == 0 {
		return
	}
	if top > 0 {
		rl.DrawRectangle(x, y, w, top, color)
	}
	if bottom > 0 {
		rl.DrawRectangle(x, y+h-bottom, w, bottom, color)
	}
	sideY, sideH := y+top, h-top-bottom
	if sideH > 0 {
		if left > 0 {
			rl.DrawRectangle(x, sideY, left, sideH, color)
		}
		if right > 0 {
			rl.DrawRectangle(x+w-right, sideY, right, sideH, color)
		}
	}
}

// Draw renders every root's resolved, laid-out subtree. Background
// skipped for Text elements (so a text node drawn over a styled parent
// never obscures it with its own bg), borders clamped per axis before
// drawing so opposing widths can never overlap, content (text/image)
// drawn inside a scissor rect matching the padding-inset content box.
func (b *Backend) Draw(roots []*resolve.RenderElement) {
	rl.ClearBackground(toRlColor(b.config.ClearColor))
	for _, root := range roots {
		b.drawRecursive(root)
	}
}

func (b *Backend) drawRecursive(el *resolve.RenderElement) {
	if el == nil || !el.IsVisible {
		return
	}
	if el.RenderW <= 0 || el.RenderH <= 0 {
		for _, c := range el.Children {
			b.drawRecursive(c)
		}
		return
	}

	x, y := int32(el.RenderX), int32(el.RenderY)
	w, h := int32(el.RenderW), int32(el.RenderH)

	if el.Kind != krb.ElemTypeText && el.Kind != krb.ElemTypeApp && el.BgColor.Set && el.BgColor.A > 0 {
		rl.DrawRectangle(x, y, w, h, toRlColor(el.BgColor))
	}

	top, right, bottom, left := int32(el.BorderWidths[0]), int32(el.BorderWidths[1]), int32(el.BorderWidths[2]), int32(el.BorderWidths[3])
	top, bottom = clampOpposingBorders(top, bottom, h)
	left, right = clampOpposingBorders(left, right, w)
	drawBorders(x, y, w, h, top, right, bottom, left, toRlColor(el.BorderColor))

	padTop, padRight := int32(el.Padding[0]), int32(el.Padding[1])
	padBottom, padLeft := int32(el.Padding[2]), int32(el.Padding[3])
	cx := x + left + padLeft
	cy := y + top + padTop
	cw := w - left - right - padLeft - padRight
	ch := h - top - bottom - padBottom - padTop
	if cw < 0 {
		cw = 0
	}
	if ch < 0 {
		ch = 0
	}

	if cw > 0 && ch > 0 {
		rl.BeginScissorMode(cx, cy, cw, ch)
		b.drawContent(el, cx, cy, cw, ch)
		rl.EndScissorMode()
	}

	for _, c := range el.Children {
		b.drawRecursive(c)
	}
}

func (b *Backend) drawContent(el *resolve.RenderElement, cx, cy, cw, ch int32) {
	fg := toRlColor(el.FgColor)
	if (el.Kind == krb.ElemTypeText || el.Kind == krb.ElemTypeButton) && el.Text != "" {
		fontSize := int32(math.Max(1, float64(el.FontSize)))
		if fontSize <= 1 {
			fontSize = int32(resolve.BaseFontSize)
		}
		textW := rl.MeasureText(el.Text, fontSize)
		drawX := cx
		switch el.TextAlignment {
		case krb.LayoutAlignCenter:
			drawX = cx + (cw-textW)/2
		case krb.LayoutAlignEnd:
			drawX = cx + cw - textW
		}
		drawY := cy + (ch-fontSize)/2
		rl.DrawText(el.Text, drawX, drawY, fontSize, fg)
	}

	if (el.Kind == krb.ElemTypeImage || el.Kind == krb.ElemTypeButton) && el.ResourceIndex != resolve.InvalidResourceIndex {
		if tex, ok := b.textures[el.ResourceIndex]; ok && tex.Valid() {
			src := rl.NewRectangle(0, 0, float32(tex.Width), float32(tex.Height))
			dst := rl.NewRectangle(float32(cx), float32(cy), float32(cw), float32(ch))
			rl.DrawTexturePro(tex.Texture2D, src, dst, rl.NewVector2(0, 0), 0, rl.White)
		}
	}
}
