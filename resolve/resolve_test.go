package resolve

import (
	"testing"

	"github.com/kryonlabs/kryon-runtime/krb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildDoc constructs an in-memory krb.Document without going through the
// byte-level decoder, matching how a test would hand-build a small tree
// to exercise the resolver in isolation.
func buildDoc(elements []krb.ElementHeader, childRefs [][]krb.ChildRef) *krb.Document {
	n := len(elements)
	doc := &krb.Document{
		Elements:            elements,
		ElementStartOffsets: make([]uint32, n),
		Properties:          make([][]krb.Property, n),
		CustomProperties:    make([][]krb.CustomProperty, n),
		Events:              make([][]krb.EventFileEntry, n),
		ChildRefs:            childRefs,
	}
	for i := range doc.ElementStartOffsets {
		doc.ElementStartOffsets[i] = uint32(i) * 100 // arbitrary, distinct
	}
	return doc
}

func TestResolve_MinimalApp(t *testing.T) {
	doc := buildDoc([]krb.ElementHeader{{Type: krb.ElemTypeApp}}, [][]krb.ChildRef{nil})
	res, err := Resolve(doc, "")
	require.NoError(t, err)
	require.Len(t, res.Roots, 1)
	assert.Equal(t, 800, res.Config.Width)
	assert.Equal(t, 600, res.Config.Height)
}

func TestResolve_DirectPropertyOverridesStyle(t *testing.T) {
	styleColor := []byte{10, 10, 10, 255}
	directColor := []byte{200, 0, 0, 255}
	doc := buildDoc(
		[]krb.ElementHeader{{Type: krb.ElemTypeContainer, StyleID: 1}},
		[][]krb.ChildRef{nil},
	)
	doc.Styles = []krb.Style{{ID: 1, Properties: []krb.Property{
		{ID: krb.PropIDBgColor, ValueType: krb.ValTypeColor, Size: 4, Value: styleColor},
	}}}
	doc.Properties[0] = []krb.Property{
		{ID: krb.PropIDBgColor, ValueType: krb.ValTypeColor, Size: 4, Value: directColor},
	}

	res, err := Resolve(doc, "")
	require.NoError(t, err)
	require.Len(t, res.Roots, 1)
	assert.Equal(t, Color{200, 0, 0, 255, true}, res.Roots[0].BgColor)
}

func TestResolve_BorderDefaultFill(t *testing.T) {
	doc := buildDoc([]krb.ElementHeader{{Type: krb.ElemTypeContainer}}, [][]krb.ChildRef{nil})
	doc.Properties[0] = []krb.Property{
		{ID: krb.PropIDBorderColor, ValueType: krb.ValTypeColor, Size: 4, Value: []byte{1, 2, 3, 255}},
	}
	res, err := Resolve(doc, "")
	require.NoError(t, err)
	assert.Equal(t, [4]uint8{1, 1, 1, 1}, res.Roots[0].BorderWidths)
}

func TestResolve_ChildLinkingByOffset(t *testing.T) {
	elements := []krb.ElementHeader{
		{Type: krb.ElemTypeContainer, ChildCount: 1},
		{Type: krb.ElemTypeText},
	}
	// Child offset relative to parent header start: parent at offset 0,
	// child at offset 100 (set by buildDoc), so relative offset is 100.
	refs := [][]krb.ChildRef{{{ChildOffset: 100}}, nil}
	doc := buildDoc(elements, refs)

	res, err := Resolve(doc, "")
	require.NoError(t, err)
	require.Len(t, res.Roots, 1)
	require.Len(t, res.Roots[0].Children, 1)
	assert.Equal(t, krb.ElemTypeText, res.Roots[0].Children[0].Kind)
}

func TestResolve_CustomPropsResolvedAsStrings(t *testing.T) {
	doc := buildDoc([]krb.ElementHeader{{Type: krb.ElemTypeContainer}}, [][]krb.ChildRef{nil})
	doc.Strings = []string{"position", "bottom"}
	doc.CustomProperties[0] = []krb.CustomProperty{
		{KeyIndex: 0, Value: []byte{1}},
	}

	res, err := Resolve(doc, "")
	require.NoError(t, err)
	assert.Equal(t, "bottom", res.Roots[0].CustomProps["position"])
}

func TestResolve_FgColorInheritance(t *testing.T) {
	elements := []krb.ElementHeader{
		{Type: krb.ElemTypeContainer, ChildCount: 1},
		{Type: krb.ElemTypeText},
	}
	refs := [][]krb.ChildRef{{{ChildOffset: 100}}, nil}
	doc := buildDoc(elements, refs)
	doc.Properties[0] = []krb.Property{
		{ID: krb.PropIDFgColor, ValueType: krb.ValTypeColor, Size: 4, Value: []byte{9, 9, 9, 255}},
	}

	res, err := Resolve(doc, "")
	require.NoError(t, err)
	child := res.Roots[0].Children[0]
	assert.Equal(t, Color{9, 9, 9, 255, true}, child.FgColor)
}

func TestResolve_BgColorInheritance(t *testing.T) {
	elements := []krb.ElementHeader{
		{Type: krb.ElemTypeContainer, ChildCount: 1},
		{Type: krb.ElemTypeContainer},
	}
	refs := [][]krb.ChildRef{{{ChildOffset: 100}}, nil}
	doc := buildDoc(elements, refs)
	doc.Properties[0] = []krb.Property{
		{ID: krb.PropIDBgColor, ValueType: krb.ValTypeColor, Size: 4, Value: []byte{5, 6, 7, 255}},
	}

	res, err := Resolve(doc, "")
	require.NoError(t, err)
	child := res.Roots[0].Children[0]
	assert.Equal(t, Color{5, 6, 7, 255, true}, child.BgColor, "a Container with no own BG_COLOR inherits its ancestor's")
}

func TestResolve_BorderColorInheritance(t *testing.T) {
	elements := []krb.ElementHeader{
		{Type: krb.ElemTypeContainer, ChildCount: 1},
		{Type: krb.ElemTypeContainer},
	}
	refs := [][]krb.ChildRef{{{ChildOffset: 100}}, nil}
	doc := buildDoc(elements, refs)
	doc.Properties[0] = []krb.Property{
		{ID: krb.PropIDBorderColor, ValueType: krb.ValTypeColor, Size: 4, Value: []byte{1, 2, 3, 255}},
	}

	res, err := Resolve(doc, "")
	require.NoError(t, err)
	child := res.Roots[0].Children[0]
	assert.Equal(t, Color{1, 2, 3, 255, true}, child.BorderColor)
}

func TestResolve_RootFallsBackToWindowDefaultColors(t *testing.T) {
	doc := buildDoc([]krb.ElementHeader{{Type: krb.ElemTypeContainer}}, [][]krb.ChildRef{nil})

	res, err := Resolve(doc, "")
	require.NoError(t, err)
	root := res.Roots[0]
	assert.Equal(t, res.Config.DefaultBg, root.BgColor, "an element with no ancestor that set bg falls back to the window default")
	assert.Equal(t, res.Config.DefaultBorderColor, root.BorderColor)
	assert.Equal(t, Color{0, 0, 0, 255, true}, res.Config.DefaultBg, "spec default clear color is black")
}
