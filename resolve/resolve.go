package resolve

import (
	"fmt"

	"github.com/kryonlabs/kryon-runtime/krb"
)

func newRenderElement(doc *krb.Document, eh krb.ElementHeader, originalIndex int) *RenderElement {
	return &RenderElement{
		Kind:          eh.Type,
		ID:            eh.ID,
		OriginalIndex: originalIndex,
		LayoutByte:    eh.Layout,
		PosX:          int16(eh.PosX),
		PosY:          int16(eh.PosY),
		ExplicitW:     eh.Width,
		ExplicitH:     eh.Height,
		IsVisible:     true,
		ResourceIndex: InvalidResourceIndex,
		DocRef:        doc,
	}
}

// Resolve builds the styled element tree from a decoded document: the
// App element (if any) seeds WindowConfig, every element gets its
// defaults→style→direct cascade applied, component usages are expanded
// from their templates, and the resulting forest's roots are returned
// alongside accumulated non-fatal warnings.
func Resolve(doc *krb.Document, baseDir string) (*Result, error) {
	res := &Result{Config: DefaultWindowConfig()}

	if len(doc.Elements) == 0 {
		return res, nil
	}

	elements := make([]*RenderElement, len(doc.Elements))
	for i, eh := range doc.Elements {
		elements[i] = newRenderElement(doc, eh, i)
		if eh.StyleID != 0 && int(eh.StyleID) > len(doc.Styles) {
			res.Warnings = append(res.Warnings, fmt.Errorf(
				"resolve: element %d references missing style id %d", i, eh.StyleID))
		}
		applyElementCascade(doc, elements[i], i, &res.Config)
	}

	linkByOffset(doc, elements, res)

	expandComponents(doc, elements, res)

	finalizeRoots(elements, res)

	// Contextual defaults (the border-width/border-color pairing) must run
	// before inheritance: it reads BorderColor.Set as "this element's own
	// cascade set a color", a signal inheritance would otherwise destroy by
	// making BorderColor.Set true everywhere via root fallback.
	for _, root := range res.Roots {
		applyContextualDefaultsRecursive(root, res.Config)
		applyInheritanceRecursive(root, res.Config.DefaultBg, res.Config.DefaultFg, res.Config.DefaultBorderColor, BaseFontSize, 0)
	}

	return res, nil
}

// applyElementCascade applies the referenced style's properties, then the
// element's own direct properties, to a single element; a property set by
// both ends with the direct value. App-level default colors reach the
// element afterwards, through applyInheritanceRecursive, for fields still
// unset. An App element instead feeds its properties into the
// WindowConfig and onto itself.
func applyElementCascade(doc *krb.Document, el *RenderElement, idx int, cfg *WindowConfig) {
	if el.Kind == krb.ElemTypeApp {
		for _, p := range doc.Properties[idx] {
			applyPropertyToWindowConfig(doc, cfg, p)
		}
		applyDirectVisualPropertiesToAppElement(doc, el, idx)
		return
	}

	if el.Kind != krb.ElemTypeApp {
		el.FgColor = Color{} // unset; inheritance fills this in later
	}

	if eh := &doc.Elements[idx]; eh.StyleID != 0 {
		styleIdx := int(eh.StyleID) - 1
		if styleIdx >= 0 && styleIdx < len(doc.Styles) {
			for _, p := range doc.Styles[styleIdx].Properties {
				applyPropertyToElement(doc, el, p)
			}
		}
	}
	for _, p := range doc.Properties[idx] {
		applyPropertyToElement(doc, el, p)
	}

	resolveComponentName(doc, el, doc.CustomProperties[idx])
	el.CustomProps = resolveCustomPropsAsStrings(doc, doc.CustomProperties[idx])

	switch el.Kind {
	case krb.ElemTypeButton, krb.ElemTypeInput:
		el.IsInteractive = true
	default:
		el.IsInteractive = len(doc.Events[idx]) > 0
	}

	keyIdx := findStringIndex(doc, "id")
	if keyIdx >= 0 {
		for _, cp := range doc.CustomProperties[idx] {
			if int(cp.KeyIndex) == keyIdx && len(cp.Value) == 1 && int(cp.Value[0]) < len(doc.Strings) {
				el.Name = doc.Strings[cp.Value[0]]
			}
		}
	}

	for _, ev := range doc.Events[idx] {
		name := ""
		if int(ev.CallbackID) < len(doc.Strings) {
			name = doc.Strings[ev.CallbackID]
		}
		el.EventHandlers = append(el.EventHandlers, EventBinding{EventType: ev.EventType, HandlerName: name})
	}
}

// resolveCustomPropsAsStrings decodes every custom property whose value
// looks like a single string-table index into a name->string map, the
// same convention used for "id" and "_componentName" but generalized so
// any component-specific key (e.g. a tab bar's "position") is available
// to a registered LayoutAdjuster without it reaching back into the raw
// krb.Document.
func resolveCustomPropsAsStrings(doc *krb.Document, props []krb.CustomProperty) map[string]string {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]string, len(props))
	for _, cp := range props {
		if int(cp.KeyIndex) >= len(doc.Strings) || len(cp.Value) != 1 || int(cp.Value[0]) >= len(doc.Strings) {
			continue
		}
		key := doc.Strings[cp.KeyIndex]
		out[key] = doc.Strings[cp.Value[0]]
	}
	return out
}

func applyDirectVisualPropertiesToAppElement(doc *krb.Document, el *RenderElement, idx int) {
	// The App element is itself a RenderElement (it can have a border,
	// background, padding) distinct from the WindowConfig it also feeds —
	// a direct property on App sets both where applicable.
	for _, p := range doc.Properties[idx] {
		applyPropertyToElement(doc, el, p)
	}
}

// linkByOffset is the authoritative child-linking pass: each ChildRef's
// offset is relative to its parent's own element header, so absolute file
// offsets (ElementStartOffsets) are used to resolve it to the child's
// index via a reverse lookup map. This is preferred over any
// pre-order/linear-stack walk, which silently mislinks documents whose
// elements aren't stored in strict pre-order.
func linkByOffset(doc *krb.Document, elements []*RenderElement, res *Result) {
	offsetToIndex := make(map[uint32]int, len(doc.ElementStartOffsets))
	for i, off := range doc.ElementStartOffsets {
		offsetToIndex[off] = i
	}

	for i, refs := range doc.ChildRefs {
		parentOffset := doc.ElementStartOffsets[i]
		for _, ref := range refs {
			childOffset := parentOffset + uint32(ref.ChildOffset)
			childIdx, ok := offsetToIndex[childOffset]
			if !ok {
				res.Warnings = append(res.Warnings, fmt.Errorf(
					"resolve: element %d references child at unresolvable offset %d", i, childOffset))
				continue
			}
			elements[i].Children = append(elements[i].Children, elements[childIdx])
			elements[childIdx].Parent = elements[i]
		}
	}
}

// expandComponents replaces every element whose ComponentName resolves to
// a known component definition with an instantiated copy of that
// definition's template, the usage-site element's own properties/children
// merged in as overrides. Only usage elements in the document's own
// element section are expanded; a component usage nested inside a
// template is not.
func expandComponents(doc *krb.Document, elements []*RenderElement, res *Result) {
	lookup := docComponentResolver{doc: doc}
	for i, el := range elements {
		if el.ComponentName == "" {
			continue
		}
		cd, ok := lookup.lookupComponent(el.ComponentName)
		if !ok {
			res.Warnings = append(res.Warnings, fmt.Errorf(
				"resolve: element %d names unknown component %q", i, el.ComponentName))
			continue
		}
		tr := &templateReader{data: cd.RootElementTemplateData, doc: doc}
		expanded, _, err := tr.instantiate(0, el, lookup)
		if err != nil {
			res.Warnings = append(res.Warnings, err)
			continue
		}
		expanded.Parent = el.Parent
		if el.Parent != nil {
			for ci, c := range el.Parent.Children {
				if c == el {
					el.Parent.Children[ci] = expanded
					break
				}
			}
		}
		elements[i] = expanded
	}
}

type docComponentResolver struct{ doc *krb.Document }

func (d docComponentResolver) lookupComponent(name string) (*krb.KrbComponentDefinition, bool) {
	return findComponentDefinition(d.doc, name)
}

// finalizeRoots collects every element with no parent as a root of the
// resolved forest, in original document order.
func finalizeRoots(elements []*RenderElement, res *Result) {
	for _, el := range elements {
		if el.Parent == nil {
			res.Roots = append(res.Roots, el)
		}
	}
}

func applyContextualDefaultsRecursive(el *RenderElement, cfg WindowConfig) {
	applyContextualDefaults(el, cfg)
	for _, c := range el.Children {
		applyContextualDefaultsRecursive(c, cfg)
	}
}
