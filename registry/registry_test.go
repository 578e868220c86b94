package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryonlabs/kryon-runtime/krb"
	"github.com/kryonlabs/kryon-runtime/resolve"
)

type noopAdjuster struct{}

func (noopAdjuster) HandleLayoutAdjustment(el *resolve.RenderElement, doc *krb.Document) error {
	return nil
}

func TestRegisterEventHandler_OverwritesSilently(t *testing.T) {
	reg := New()
	calls := 0
	reg.RegisterEventHandler("onClick", func() { calls = 1 })
	reg.RegisterEventHandler("onClick", func() { calls = 2 })

	fn, ok := reg.LookupEventHandler("onClick")
	require.True(t, ok)
	fn()
	assert.Equal(t, 2, calls, "second registration must win, no error on overwrite")
}

func TestLookupEventHandler_Missing(t *testing.T) {
	reg := New()
	_, ok := reg.LookupEventHandler("missing")
	assert.False(t, ok)
}

func TestRegisterCustomComponent_DuplicateRejected(t *testing.T) {
	reg := New()
	require.NoError(t, reg.RegisterCustomComponent("TabBar", noopAdjuster{}))

	err := reg.RegisterCustomComponent("TabBar", noopAdjuster{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyRegistered))
}

func TestRegisterCustomComponent_RejectsEmptyIdentifierAndNilAdjuster(t *testing.T) {
	reg := New()
	assert.Error(t, reg.RegisterCustomComponent("", noopAdjuster{}))
	assert.Error(t, reg.RegisterCustomComponent("TabBar", nil))
}

func TestLookupCustomComponent(t *testing.T) {
	reg := New()
	adj := noopAdjuster{}
	require.NoError(t, reg.RegisterCustomComponent("TabBar", adj))

	got, ok := reg.LookupCustomComponent("TabBar")
	require.True(t, ok)
	assert.Equal(t, adj, got)

	_, ok = reg.LookupCustomComponent("Unknown")
	assert.False(t, ok)
}
