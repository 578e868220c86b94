package raylibbackend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryonlabs/kryon-runtime/resolve"
)

func TestTabBarHandler_DocksBottomAndShrinksSibling(t *testing.T) {
	parent := &resolve.RenderElement{RenderX: 0, RenderY: 0, RenderW: 200, RenderH: 100}
	content := &resolve.RenderElement{RenderX: 0, RenderY: 0, RenderW: 200, RenderH: 100}
	tabBar := &resolve.RenderElement{
		Parent:      parent,
		RenderX:     0, RenderY: 70, RenderW: 200, RenderH: 30,
		CustomProps: map[string]string{"position": "bottom"},
	}
	parent.Children = []*resolve.RenderElement{content, tabBar}

	require.NoError(t, TabBarHandler{}.HandleLayoutAdjustment(tabBar, nil))

	assert.Equal(t, float32(70), tabBar.RenderY)
	assert.Equal(t, float32(200), tabBar.RenderW, "row orientation stretches width to parent")
	assert.Equal(t, float32(70), content.RenderH, "sibling shrinks to make room above the docked bar")
}

func TestTabBarHandler_DefaultsToBottomWhenPositionUnset(t *testing.T) {
	parent := &resolve.RenderElement{RenderX: 0, RenderY: 0, RenderW: 100, RenderH: 50}
	tabBar := &resolve.RenderElement{Parent: parent, RenderW: 100, RenderH: 10}
	parent.Children = []*resolve.RenderElement{tabBar}

	require.NoError(t, TabBarHandler{}.HandleLayoutAdjustment(tabBar, nil))
	assert.Equal(t, float32(40), tabBar.RenderY)
}

func TestTabBarHandler_NoParentIsAnError(t *testing.T) {
	el := &resolve.RenderElement{}
	assert.Error(t, TabBarHandler{}.HandleLayoutAdjustment(el, nil))
}
