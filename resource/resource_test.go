package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryonlabs/kryon-runtime/krb"
)

// onePixelPNG is a minimal 1x1 transparent PNG, used to exercise the
// sniff-then-decode path without touching the filesystem.
var onePixelPNG = []byte{
	137, 80, 78, 71, 13, 10, 26, 10, 0, 0, 0, 13, 73, 72, 68, 82, 0, 0, 0, 1,
	0, 0, 0, 1, 8, 4, 0, 0, 0, 181, 28, 12, 2, 0, 0, 0, 11, 73, 68, 65, 84,
	120, 218, 99, 100, 248, 15, 0, 1, 5, 1, 1, 39, 24, 227, 102, 0, 0, 0, 0,
	73, 69, 78, 68, 174, 66, 96, 130,
}

func docWithInlineResource() *krb.Document {
	return &krb.Document{
		Resources: []krb.Resource{
			{Type: krb.ResTypeImage, Format: krb.ResFormatInline, InlineData: onePixelPNG},
		},
	}
}

func TestLoader_DecodesInlineImage(t *testing.T) {
	l := NewLoader(docWithInlineResource(), "")
	img, err := l.Load(0)
	require.NoError(t, err)
	assert.Equal(t, 1, img.Width)
	assert.Equal(t, 1, img.Height)
}

func TestLoader_CachesSuccessAndFailure(t *testing.T) {
	l := NewLoader(docWithInlineResource(), "")
	first, err := l.Load(0)
	require.NoError(t, err)
	second, err := l.Load(0)
	require.NoError(t, err)
	assert.Same(t, first, second, "second load must return the cached *Image, not re-decode")

	_, err = l.Load(5)
	assert.Error(t, err)
	_, err = l.Load(5)
	assert.Error(t, err, "failure is cached too, not retried")
}

func TestLoader_NaturalSize_FailsGracefully(t *testing.T) {
	l := NewLoader(&krb.Document{}, "")
	w, h, ok := l.NaturalSize(0)
	assert.False(t, ok)
	assert.Equal(t, float32(0), w)
	assert.Equal(t, float32(0), h)
}

func TestLoader_NaturalSize_ReportsDecodedDimensions(t *testing.T) {
	l := NewLoader(docWithInlineResource(), "")
	w, h, ok := l.NaturalSize(0)
	require.True(t, ok)
	assert.Equal(t, float32(1), w)
	assert.Equal(t, float32(1), h)
}

func TestLoader_ExternalResourceMissingFile(t *testing.T) {
	doc := &krb.Document{
		Strings: []string{"does-not-exist.png"},
		Resources: []krb.Resource{
			{Type: krb.ResTypeImage, Format: krb.ResFormatExternal, DataStringIndex: 0},
		},
	}
	l := NewLoader(doc, "/tmp/kryon-resource-test-missing")
	_, err := l.Load(0)
	assert.Error(t, err)
}
