package krb

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMinimalV4 constructs the smallest valid v0.4 document containing a
// single App element with no styles, components, animations, or resources.
// It mirrors scenario S1 from the round-trip/decode test matrix: a minimal
// App element decodes into WindowConfig defaults.
func buildMinimalV4(t *testing.T) []byte {
	t.Helper()

	var elements bytes.Buffer
	elementHeader := make([]byte, ElementHeaderSize)
	elementHeader[0] = byte(ElemTypeApp)
	elements.Write(elementHeader)

	const headerSize = HeaderSizeV4
	elementOffset := uint32(headerSize)
	styleOffset := elementOffset + uint32(elements.Len())
	stringOffset := styleOffset // no styles
	resourceOffset := stringOffset + 2 // empty string table: just the count
	totalSize := resourceOffset + 2    // empty resource table: just the count

	header := make([]byte, headerSize)
	copy(header[0:4], MagicNumber[:])
	WriteU16LE(header[4:6], uint16(4)<<8|uint16(0)) // version 0.4
	WriteU16LE(header[6:8], FlagHasApp)
	WriteU16LE(header[8:10], 1) // element count
	WriteU16LE(header[10:12], 0)
	WriteU16LE(header[12:14], 0)
	WriteU16LE(header[14:16], 0)
	WriteU16LE(header[16:18], 0) // string count
	WriteU16LE(header[18:20], 0) // resource count
	WriteU32LE(header[20:24], elementOffset)
	WriteU32LE(header[24:28], styleOffset)
	WriteU32LE(header[28:32], styleOffset)
	WriteU32LE(header[32:36], styleOffset)
	WriteU32LE(header[36:40], stringOffset)
	WriteU32LE(header[40:44], resourceOffset)
	WriteU32LE(header[44:48], totalSize)

	var out bytes.Buffer
	out.Write(header)
	out.Write(elements.Bytes())
	out.Write([]byte{0, 0}) // empty string table count
	out.Write([]byte{0, 0}) // empty resource table count
	return out.Bytes()
}

func TestReadDocument_MinimalApp(t *testing.T) {
	data := buildMinimalV4(t)
	doc, err := ReadDocument(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, doc.Elements, 1)
	assert.Equal(t, ElemTypeApp, doc.Elements[0].Type)
	assert.True(t, doc.Header.HasFlag(FlagHasApp))
	assert.Equal(t, uint8(4), doc.VersionMinor)
}

func TestReadDocument_RejectsBadMagic(t *testing.T) {
	data := buildMinimalV4(t)
	data[0] = 'X'
	_, err := ReadDocument(bytes.NewReader(data))
	require.Error(t, err)
	var fatal *FatalError
	assert.ErrorAs(t, err, &fatal)
}

func TestReadDocument_RejectsCompressedFlag(t *testing.T) {
	data := buildMinimalV4(t)
	WriteU16LE(data[6:8], FlagHasApp|FlagCompressed)
	_, err := ReadDocument(bytes.NewReader(data))
	require.Error(t, err)
}

func TestWrite_RoundTrip(t *testing.T) {
	data := buildMinimalV4(t)
	doc, err := ReadDocument(bytes.NewReader(data))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Write(&out, doc))

	doc2, err := ReadDocument(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, doc.Elements, doc2.Elements)
	assert.Equal(t, doc.Header.Flags, doc2.Header.Flags)
}

func TestElementHeader_LayoutAbsolute(t *testing.T) {
	// Either trigger — the layout byte's absolute bit, or a non-zero
	// position — marks the element absolute, even though only one of the
	// two is the "intended" signal for any given document.
	bitOnly := &ElementHeader{Layout: LayoutAbsoluteBit}
	assert.True(t, bitOnly.LayoutAbsolute())

	posOnly := &ElementHeader{PosX: 5}
	assert.True(t, posOnly.LayoutAbsolute())

	neither := &ElementHeader{}
	assert.False(t, neither.LayoutAbsolute())
}

func TestElementHeader_LayoutCrossAlignment(t *testing.T) {
	spaceBetween := &ElementHeader{Layout: LayoutAlignSpaceBetween << 2}
	assert.Equal(t, LayoutAlignStart, spaceBetween.LayoutCrossAlignment())

	center := &ElementHeader{Layout: LayoutAlignCenter << 2}
	assert.Equal(t, LayoutAlignCenter, center.LayoutCrossAlignment())
}
