// Package layout implements the two-pass flow layout engine: an
// intrinsic-sizing pass (post-order: explicit size, else measured content,
// else content-hugging, else a 1x1 floor) followed by a placement pass
// (pre-order: content-box computation, absolute-vs-flow partitioning,
// main-axis alignment, cross-axis alignment, grow distribution), finished
// by one dispatch pass into any registered custom-component layout
// adjusters.
package layout

import (
	"go.uber.org/multierr"

	"github.com/kryonlabs/kryon-runtime/krb"
	"github.com/kryonlabs/kryon-runtime/registry"
	"github.com/kryonlabs/kryon-runtime/resolve"
)

// TextMeasurer is the narrow surface layout needs from a backend to size
// text content — the layout engine never imports package backend itself,
// so a test can supply a trivial stub.
type TextMeasurer interface {
	MeasureText(text string, fontSize uint8) float32
}

// ImageSizer reports a loaded image resource's natural pixel dimensions,
// or false if the resource hasn't been loaded (or failed to load) — in
// which case layout still reserves space via the 1x1 floor rather than
// aborting, matching the "failed texture still lays out" edge case.
type ImageSizer interface {
	NaturalSize(resourceIndex uint8) (w, h float32, ok bool)
}

type size struct{ w, h float32 }

// Layout lays out every root (typically a single App element) to fill
// cfg's window dimensions, then walks the whole resulting tree invoking
// any custom-component layout adjuster registered for an element's
// resolved component name. Adjuster errors are aggregated and returned;
// they never prevent the rest of the tree from being placed or adjusted.
func Layout(roots []*resolve.RenderElement, cfg resolve.WindowConfig, measurer TextMeasurer, images ImageSizer, reg *registry.Registry, doc *krb.Document) error {
	sizes := make(map[*resolve.RenderElement]size)
	for _, root := range roots {
		measureIntrinsic(root, measurer, images, sizes)
		placeRoot(root, float32(cfg.Width), float32(cfg.Height), sizes)
	}
	var errs error
	for _, root := range roots {
		errs = multierr.Append(errs, applyCustomComponentAdjustments(root, reg, doc))
	}
	return errs
}

func fontSizeOrDefault(el *resolve.RenderElement) uint8 {
	if el.FontSize > 0 {
		return el.FontSize
	}
	return resolve.BaseFontSize
}

// measureIntrinsic is Pass 1, visited post-order so a container's
// content-hugging size can be computed from its already-sized children.
func measureIntrinsic(el *resolve.RenderElement, measurer TextMeasurer, images ImageSizer, sizes map[*resolve.RenderElement]size) size {
	for _, c := range el.Children {
		measureIntrinsic(c, measurer, images, sizes)
	}

	var s size
	switch {
	case el.ExplicitW > 0 && el.ExplicitH > 0:
		s = size{float32(el.ExplicitW), float32(el.ExplicitH)}
	case el.Kind == krb.ElemTypeText:
		fs := fontSizeOrDefault(el)
		s = size{measurer.MeasureText(el.Text, fs), float32(fs) * 1.2}
	case el.Kind == krb.ElemTypeImage:
		if w, h, ok := images.NaturalSize(el.ResourceIndex); ok {
			s = size{w, h}
		} else {
			s = size{1, 1}
		}
	default:
		s = hugChildren(el, sizes)
	}

	if el.ExplicitW > 0 {
		s.w = float32(el.ExplicitW)
	}
	if el.ExplicitH > 0 {
		s.h = float32(el.ExplicitH)
	}
	if el.MaxW > 0 && s.w > float32(el.MaxW) {
		s.w = float32(el.MaxW)
	}
	if el.MaxH > 0 && s.h > float32(el.MaxH) {
		s.h = float32(el.MaxH)
	}
	if el.MinW > 0 && s.w < float32(el.MinW) {
		s.w = float32(el.MinW)
	}
	if el.MinH > 0 && s.h < float32(el.MinH) {
		s.h = float32(el.MinH)
	}
	if s.w < 1 {
		s.w = 1
	}
	if s.h < 1 {
		s.h = 1
	}
	sizes[el] = s
	return s
}

// hugChildren sums flow (non-absolute) children's main-axis intrinsic
// size (plus padding/border) and takes the max of their cross-axis size,
// matching the teacher's vertical-flow-sum-vs-horizontal-flow-max-extent
// content-hugging branch.
func hugChildren(el *resolve.RenderElement, sizes map[*resolve.RenderElement]size) size {
	isRow := isRowDirection(el.LayoutByte)
	var mainSum, crossMax float32
	for _, c := range el.Children {
		if isAbsolute(c) {
			continue
		}
		cs := sizes[c]
		var main, cross float32
		if isRow {
			main, cross = cs.w, cs.h
		} else {
			main, cross = cs.h, cs.w
		}
		mainSum += main
		if cross > crossMax {
			crossMax = cross
		}
	}
	padH := float32(el.Padding[1]) + float32(el.Padding[3]) + float32(el.BorderWidths[1]) + float32(el.BorderWidths[3])
	padV := float32(el.Padding[0]) + float32(el.Padding[2]) + float32(el.BorderWidths[0]) + float32(el.BorderWidths[2])
	if isRow {
		return size{mainSum + padH, crossMax + padV}
	}
	return size{crossMax + padH, mainSum + padV}
}

func isRowDirection(layout uint8) bool {
	dir := layout & krb.LayoutDirectionMask
	return dir == krb.LayoutDirRow || dir == krb.LayoutDirRowReverse
}

func isReversedDirection(layout uint8) bool {
	dir := layout & krb.LayoutDirectionMask
	return dir == krb.LayoutDirRowReverse || dir == krb.LayoutDirColumnReverse
}

func layoutAlignment(layout uint8) uint8 {
	return (layout & krb.LayoutAlignmentMask) >> 2
}

// layoutCrossAlignment mirrors krb.ElementHeader.LayoutCrossAlignment's
// SpaceBetween-on-cross-axis-resolves-to-Start rule.
func layoutCrossAlignment(layout uint8) uint8 {
	a := layoutAlignment(layout)
	if a == krb.LayoutAlignSpaceBetween {
		return krb.LayoutAlignStart
	}
	return a
}

func layoutGrow(layout uint8) bool {
	return layout&krb.LayoutGrowBit != 0
}

// isAbsolute replicates the dual trigger from krb.ElementHeader.LayoutAbsolute
// at the resolved-element level: either the layout byte's absolute bit or a
// non-zero position marks an element absolute, carried over as-is even
// though the spec flags this pairing as a suspicious, possibly-accidental
// overlap of two independent signals.
func isAbsolute(el *resolve.RenderElement) bool {
	return el.LayoutByte&krb.LayoutAbsoluteBit != 0 || el.PosX != 0 || el.PosY != 0
}

// placeRoot assigns the window-filling rectangle to a top-level element
// and recurses into its children; a root is never absolute and never
// content-hugs, matching "App/root fills the window" regardless of what
// its own declared size might otherwise hug to.
func placeRoot(el *resolve.RenderElement, availW, availH float32, sizes map[*resolve.RenderElement]size) {
	el.RenderX, el.RenderY = 0, 0
	el.RenderW, el.RenderH = availW, availH
	placeChildren(el, sizes)
}

// contentBox returns the parent's content-area origin and size after
// insetting for padding and border, clamping to zero when opposing
// border widths meet or exceed the available dimension (the "border
// clamping when top+bottom >= height" edge case).
func contentBox(el *resolve.RenderElement) (x, y, w, h float32) {
	left := float32(el.Padding[3]) + float32(el.BorderWidths[3])
	right := float32(el.Padding[1]) + float32(el.BorderWidths[1])
	top := float32(el.Padding[0]) + float32(el.BorderWidths[0])
	bottom := float32(el.Padding[2]) + float32(el.BorderWidths[2])

	w = el.RenderW - left - right
	h = el.RenderH - top - bottom
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return el.RenderX + left, el.RenderY + top, w, h
}

// placeChildren is Pass 2's per-parent step: partition absolute vs flow
// children, place absolute children directly against the content origin,
// then distribute the flow children along the main axis (grow space with
// residue to the earliest grow child, gaps per calculateAlignmentOffsetsF)
// and across the cross axis (calculateCrossAxisOffsetF), recursing into
// each child's own subtree afterward.
func placeChildren(parent *resolve.RenderElement, sizes map[*resolve.RenderElement]size) {
	contentX, contentY, contentW, contentH := contentBox(parent)

	var flow, absolute []*resolve.RenderElement
	for _, c := range parent.Children {
		if isAbsolute(c) {
			absolute = append(absolute, c)
		} else {
			flow = append(flow, c)
		}
	}

	for _, c := range absolute {
		s := sizes[c]
		c.RenderX = contentX + float32(c.PosX)
		c.RenderY = contentY + float32(c.PosY)
		c.RenderW, c.RenderH = s.w, s.h
		placeChildren(c, sizes)
	}

	if len(flow) == 0 {
		return
	}

	isRow := isRowDirection(parent.LayoutByte)
	reversed := isReversedDirection(parent.LayoutByte)
	alignment := layoutAlignment(parent.LayoutByte)
	crossAlignment := layoutCrossAlignment(parent.LayoutByte)

	mainAvail, crossAvail := contentW, contentH
	if !isRow {
		mainAvail, crossAvail = contentH, contentW
	}

	growCount := 0
	var fixedMainTotal float32
	for _, c := range flow {
		s := sizes[c]
		main := s.w
		if !isRow {
			main = s.h
		}
		if layoutGrow(c.LayoutByte) {
			growCount++
		} else {
			fixedMainTotal += main
		}
	}

	availableForGrow := mainAvail - fixedMainTotal
	if availableForGrow < 0 {
		availableForGrow = 0
	}
	var perGrow, growResidue float32
	if growCount > 0 {
		share := availableForGrow / float32(growCount)
		perGrow = share
		growResidue = availableForGrow - share*float32(growCount)
	} else {
		availableForGrow = 0
	}

	totalUsed := fixedMainTotal + availableForGrow
	startOffset, spacing := calculateAlignmentOffsetsF(alignment, mainAvail, totalUsed, len(flow), reversed, 0)

	order := flow
	if reversed {
		order = make([]*resolve.RenderElement, len(flow))
		for i, c := range flow {
			order[len(flow)-1-i] = c
		}
	}

	cursor := startOffset
	firstGrowSeen := false
	for _, c := range order {
		s := sizes[c]
		main, cross := s.w, s.h
		if !isRow {
			main, cross = s.h, s.w
		}
		if layoutGrow(c.LayoutByte) {
			main = perGrow
			if !firstGrowSeen {
				main += growResidue
				firstGrowSeen = true
			}
		}
		crossOffset := calculateCrossAxisOffsetF(crossAlignment, crossAvail, cross)

		if isRow {
			c.RenderX = contentX + cursor
			c.RenderY = contentY + crossOffset
			c.RenderW, c.RenderH = main, cross
		} else {
			c.RenderX = contentX + crossOffset
			c.RenderY = contentY + cursor
			c.RenderW, c.RenderH = cross, main
		}
		placeChildren(c, sizes)
		cursor += main + spacing
	}
}
