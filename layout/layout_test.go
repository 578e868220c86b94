package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryonlabs/kryon-runtime/krb"
	"github.com/kryonlabs/kryon-runtime/registry"
	"github.com/kryonlabs/kryon-runtime/resolve"
)

type stubMeasurer struct{ perChar float32 }

func (s stubMeasurer) MeasureText(text string, fontSize uint8) float32 {
	return float32(len(text)) * s.perChar
}

type stubSizer struct{}

func (stubSizer) NaturalSize(resourceIndex uint8) (float32, float32, bool) { return 0, 0, false }

func row(children ...*resolve.RenderElement) *resolve.RenderElement {
	el := &resolve.RenderElement{Kind: krb.ElemTypeContainer, LayoutByte: krb.LayoutDirRow}
	for _, c := range children {
		c.Parent = el
	}
	el.Children = children
	return el
}

func fixed(w, h uint16) *resolve.RenderElement {
	return &resolve.RenderElement{Kind: krb.ElemTypeContainer, ExplicitW: w, ExplicitH: h}
}

func TestLayout_RootFillsWindow(t *testing.T) {
	root := &resolve.RenderElement{Kind: krb.ElemTypeApp}
	cfg := resolve.DefaultWindowConfig()
	err := Layout([]*resolve.RenderElement{root}, cfg, stubMeasurer{}, stubSizer{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, float32(800), root.RenderW)
	assert.Equal(t, float32(600), root.RenderH)
}

func TestLayout_RowDistributesFixedChildrenLeftToRight(t *testing.T) {
	a, b := fixed(50, 20), fixed(50, 20)
	root := row(a, b)
	root.ExplicitW, root.ExplicitH = 800, 600

	cfg := resolve.DefaultWindowConfig()
	require.NoError(t, Layout([]*resolve.RenderElement{root}, cfg, stubMeasurer{}, stubSizer{}, nil, nil))

	assert.Equal(t, float32(0), a.RenderX)
	assert.Equal(t, float32(50), b.RenderX)
}

func TestLayout_GrowChildFillsRemainingSpace(t *testing.T) {
	fixedChild := fixed(100, 20)
	growChild := fixed(0, 20)
	growChild.LayoutByte = krb.LayoutGrowBit
	root := row(fixedChild, growChild)
	root.ExplicitW, root.ExplicitH = 300, 100

	// A root fills the window, so the window (not the root's declared
	// size) sets the 300px main axis the grow child shares.
	cfg := resolve.DefaultWindowConfig()
	cfg.Width, cfg.Height = 300, 100
	require.NoError(t, Layout([]*resolve.RenderElement{root}, cfg, stubMeasurer{}, stubSizer{}, nil, nil))

	assert.Equal(t, float32(200), growChild.RenderW)
}

func TestLayout_AbsoluteChildIgnoresFlow(t *testing.T) {
	abs := fixed(10, 10)
	abs.PosX, abs.PosY = 40, 50
	sibling := fixed(20, 20)
	root := row(abs, sibling)
	root.ExplicitW, root.ExplicitH = 300, 100

	cfg := resolve.DefaultWindowConfig()
	require.NoError(t, Layout([]*resolve.RenderElement{root}, cfg, stubMeasurer{}, stubSizer{}, nil, nil))

	assert.Equal(t, float32(40), abs.RenderX)
	assert.Equal(t, float32(50), abs.RenderY)
	// sibling ignores abs child entirely in flow placement
	assert.Equal(t, float32(0), sibling.RenderX)
}

func TestLayout_FailedImageStillReservesFloorSize(t *testing.T) {
	img := &resolve.RenderElement{Kind: krb.ElemTypeImage, ResourceIndex: 3}
	root := row(img)
	root.ExplicitW, root.ExplicitH = 300, 100

	cfg := resolve.DefaultWindowConfig()
	require.NoError(t, Layout([]*resolve.RenderElement{root}, cfg, stubMeasurer{}, stubSizer{}, nil, nil))

	assert.Equal(t, float32(1), img.RenderW)
	assert.Equal(t, float32(1), img.RenderH)
}

type recordingAdjuster struct{ called *bool }

func (r recordingAdjuster) HandleLayoutAdjustment(el *resolve.RenderElement, doc *krb.Document) error {
	*r.called = true
	return nil
}

func TestLayout_DispatchesCustomComponentAdjuster(t *testing.T) {
	called := false
	reg := registry.New()
	require.NoError(t, reg.RegisterCustomComponent("TabBar", recordingAdjuster{called: &called}))

	el := fixed(100, 100)
	el.ComponentName = "TabBar"
	root := row(el)
	root.ExplicitW, root.ExplicitH = 300, 100

	cfg := resolve.DefaultWindowConfig()
	require.NoError(t, Layout([]*resolve.RenderElement{root}, cfg, stubMeasurer{}, stubSizer{}, reg, nil))
	assert.True(t, called)
}

type failingAdjuster struct{}

func (failingAdjuster) HandleLayoutAdjustment(el *resolve.RenderElement, doc *krb.Document) error {
	return assert.AnError
}

func TestLayout_AdjusterErrorsAreAggregatedNotFatal(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.RegisterCustomComponent("Broken", failingAdjuster{}))

	el := fixed(10, 10)
	el.ComponentName = "Broken"
	root := row(el)
	root.ExplicitW, root.ExplicitH = 100, 100

	cfg := resolve.DefaultWindowConfig()
	err := Layout([]*resolve.RenderElement{root}, cfg, stubMeasurer{}, stubSizer{}, reg, nil)
	assert.Error(t, err)
	// layout still completed despite the adjuster failing
	assert.Equal(t, float32(10), el.RenderW)
}
