package raylibbackend

import (
	"fmt"
	"strings"

	"github.com/kryonlabs/kryon-runtime/krb"
	"github.com/kryonlabs/kryon-runtime/resolve"
)

// TabBarHandler is a registry.LayoutAdjuster for a "TabBar" custom
// component: it pins itself to one edge of its parent (via the
// "position" custom property: top/bottom/left/right, default bottom)
// and shrinks the first sibling it finds to make room, the same
// edge-docking behavior as the teacher's TabBar adjustment.
type TabBarHandler struct{}

func (TabBarHandler) HandleLayoutAdjustment(el *resolve.RenderElement, doc *krb.Document) error {
	if el.Parent == nil {
		return fmt.Errorf("tabbar: element %d has no parent to dock against", el.OriginalIndex)
	}
	position := strings.ToLower(el.CustomProps["position"])
	if position == "" {
		position = "bottom"
	}
	orientation := el.CustomProps["orientation"]
	stretchWidth := orientation == "" || orientation == "row"
	stretchHeight := orientation == "column"

	parent := el.Parent
	initialW, initialH := el.RenderW, el.RenderH
	newX, newY, newW, newH := el.RenderX, el.RenderY, initialW, initialH

	switch position {
	case "top":
		newY, newX = parent.RenderY, parent.RenderX
		if stretchWidth {
			newW = parent.RenderW
		}
	case "bottom":
		newY = parent.RenderY + parent.RenderH - initialH
		newX = parent.RenderX
		if stretchWidth {
			newW = parent.RenderW
		}
	case "left":
		newX, newY = parent.RenderX, parent.RenderY
		if stretchHeight {
			newH = parent.RenderH
		}
	case "right":
		newX = parent.RenderX + parent.RenderW - initialW
		newY = parent.RenderY
		if stretchHeight {
			newH = parent.RenderH
		}
	default:
		newY = parent.RenderY + parent.RenderH - initialH
		newX = parent.RenderX
		if stretchWidth {
			newW = parent.RenderW
		}
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	el.RenderX, el.RenderY, el.RenderW, el.RenderH = newX, newY, newW, newH

	var sibling *resolve.RenderElement
	for _, s := range parent.Children {
		if s != el {
			sibling = s
			break
		}
	}
	if sibling == nil {
		return nil
	}

	switch position {
	case "bottom":
		sibling.RenderH = maxF(1, el.RenderY-sibling.RenderY)
	case "top":
		originalBottom := sibling.RenderY + sibling.RenderH
		sibling.RenderY = el.RenderY + el.RenderH
		sibling.RenderH = maxF(1, originalBottom-sibling.RenderY)
	case "left":
		originalRight := sibling.RenderX + sibling.RenderW
		sibling.RenderX = el.RenderX + el.RenderW
		sibling.RenderW = maxF(1, originalRight-sibling.RenderX)
	case "right":
		sibling.RenderW = maxF(1, el.RenderX-sibling.RenderX)
	}
	return nil
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
