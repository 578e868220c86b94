package resolve

import (
	"fmt"

	"github.com/kryonlabs/kryon-runtime/krb"
)

// childrenSlotName is the element-ID convention a component template uses
// to mark where usage-site children should be re-parented. A component
// author names one element in their template this id; expandComponent
// reparents the instance's own children onto it instead of appending them
// to the template root.
const childrenSlotName = "_children_host"

// componentNameKey is the custom-property key convention that marks an
// element as an instance of a named custom component, read back later by
// package layout to dispatch the post-layout adjustment hook.
const componentNameKey = "_componentName"

func findComponentDefinition(doc *krb.Document, name string) (*krb.KrbComponentDefinition, bool) {
	for i := range doc.ComponentDefinitions {
		cd := &doc.ComponentDefinitions[i]
		if int(cd.NameIndex) < len(doc.Strings) && doc.Strings[cd.NameIndex] == name {
			return cd, true
		}
	}
	return nil, false
}

// templateReader walks a component definition's captured template bytes
// exactly the way krb.ReadDocument walks the main element section, just
// against an in-memory slice instead of the file stream, rebuilding
// RenderElements (not raw krb.ElementHeader) directly since a template's
// only purpose here is instantiation.
type templateReader struct {
	data []byte
	doc  *krb.Document
}

// instantiate builds one RenderElement (and its subtree) from a template's
// byte range starting at relOffset: the template's own direct properties
// first, then the instance's fields merged over the expansion root. The
// definition's property-definition defaults are not applied, and a
// template element that names another component keeps its ComponentName
// but is not expanded from that component's template; reg is unused.
func (tr *templateReader) instantiate(relOffset uint32, instanceRoot *RenderElement, reg componentResolver) (*RenderElement, uint32, error) {
	if int(relOffset)+krb.ElementHeaderSize > len(tr.data) {
		return nil, 0, fmt.Errorf("resolve: component template truncated at offset %d", relOffset)
	}
	h := tr.data[relOffset:]
	eh := krb.ElementHeader{
		Type:            krb.ElementType(h[0]),
		ID:              h[1],
		PosX:            krb.ReadU16LE(h[2:4]),
		PosY:            krb.ReadU16LE(h[4:6]),
		Width:           krb.ReadU16LE(h[6:8]),
		Height:          krb.ReadU16LE(h[8:10]),
		Layout:          h[10],
		StyleID:         h[11],
		PropertyCount:   h[12],
		ChildCount:      h[13],
		EventCount:      h[14],
		AnimationCount:  h[15],
		CustomPropCount: h[16],
	}
	cursor := relOffset + krb.ElementHeaderSize

	el := newRenderElement(tr.doc, eh, -1)
	for i := uint8(0); i < eh.PropertyCount; i++ {
		p, n := readTemplateProperty(tr.data, cursor)
		applyPropertyToElement(tr.doc, el, p)
		cursor += n
	}
	var customProps []krb.CustomProperty
	for i := uint8(0); i < eh.CustomPropCount; i++ {
		p, n := readTemplateProperty(tr.data, cursor)
		customProps = append(customProps, krb.CustomProperty{KeyIndex: uint8(p.ID), ValueType: p.ValueType, Size: p.Size, Value: p.Value})
		cursor += n
	}
	resolveComponentName(tr.doc, el, customProps)
	if keyIdx := findStringIndex(tr.doc, "id"); keyIdx >= 0 {
		for _, cp := range customProps {
			if int(cp.KeyIndex) == keyIdx && len(cp.Value) == 1 && int(cp.Value[0]) < len(tr.doc.Strings) {
				el.Name = tr.doc.Strings[cp.Value[0]]
			}
		}
	}

	cursor += uint32(eh.EventCount) * krb.EventFileEntrySize
	cursor += uint32(eh.AnimationCount) * krb.AnimationRefSize

	for i := uint8(0); i < eh.ChildCount; i++ {
		childRelOffsetFromHere := krb.ReadU16LE(tr.data[cursor : cursor+krb.ChildRefSize])
		cursor += krb.ChildRefSize
		child, _, err := tr.instantiate(relOffset+uint32(childRelOffsetFromHere), nil, reg)
		if err != nil {
			return nil, 0, err
		}
		child.Parent = el
		el.Children = append(el.Children, child)
	}

	// The instance root (usage-site element) overrides the template
	// root's geometry/style/direct properties and adopts the usage
	// site's own children via the slot convention, never the reverse.
	if instanceRoot != nil {
		mergeInstanceIntoTemplateRoot(el, instanceRoot)
	}

	return el, cursor - relOffset, nil
}

func readTemplateProperty(data []byte, off uint32) (krb.Property, uint32) {
	id, vt, size := data[off], krb.ValueType(data[off+1]), data[off+2]
	val := append([]byte(nil), data[off+3:off+3+uint32(size)]...)
	return krb.Property{ID: krb.PropertyID(id), ValueType: vt, Size: size, Value: val}, 3 + uint32(size)
}

func resolveComponentName(doc *krb.Document, el *RenderElement, customProps []krb.CustomProperty) {
	keyIdx := findStringIndex(doc, componentNameKey)
	if keyIdx < 0 {
		return
	}
	for _, cp := range customProps {
		if int(cp.KeyIndex) == keyIdx && (cp.ValueType == krb.ValTypeString || cp.ValueType == krb.ValTypeResource) && len(cp.Value) == 1 {
			idx := int(cp.Value[0])
			if idx < len(doc.Strings) {
				el.ComponentName = doc.Strings[idx]
			}
		}
	}
}

func findStringIndex(doc *krb.Document, s string) int {
	for i, str := range doc.Strings {
		if str == s {
			return i
		}
	}
	return -1
}

func mergeInstanceIntoTemplateRoot(templateRoot, instance *RenderElement) {
	templateRoot.ID = instance.ID
	templateRoot.ExplicitW = instance.ExplicitW
	templateRoot.ExplicitH = instance.ExplicitH
	templateRoot.PosX = instance.PosX
	templateRoot.PosY = instance.PosY
	templateRoot.LayoutByte = instance.LayoutByte
	if instance.BgColor.Set {
		templateRoot.BgColor = instance.BgColor
	}
	if instance.FgColor.Set {
		templateRoot.FgColor = instance.FgColor
	}
	if instance.BorderColor.Set {
		templateRoot.BorderColor = instance.BorderColor
	}
	if instance.Text != "" {
		templateRoot.Text = instance.Text
	}
	if instance.ComponentName != "" {
		templateRoot.ComponentName = instance.ComponentName
	}

	// Usage-site children are slotted into the template element whose Name
	// matches childrenSlotName, or — if no such slot exists — appended to
	// the template root (no warning is recorded), matching the teacher's
	// fallback rather than dropping them.
	slot := findByIDName(templateRoot, childrenSlotName)
	if slot == nil {
		slot = templateRoot
	}
	for _, c := range instance.Children {
		c.Parent = slot
		slot.Children = append(slot.Children, c)
	}
}

func findByIDName(root *RenderElement, name string) *RenderElement {
	if root.Name == name {
		return root
	}
	for _, c := range root.Children {
		if found := findByIDName(c, name); found != nil {
			return found
		}
	}
	return nil
}

// componentResolver is the minimal surface expandComponents needs from
// the enclosing resolve pass to look up component definitions by name —
// kept as an interface so component.go has no dependency on resolve.go's
// internal state beyond this.
type componentResolver interface {
	lookupComponent(name string) (*krb.KrbComponentDefinition, bool)
}
