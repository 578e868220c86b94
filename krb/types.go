// Package krb decodes and re-encodes the KRB binary UI description format:
// a compact, offset-indexed binary layout for declarative UI documents.
package krb

// Two header layouts exist on disk. v0.3 used a 42-byte header with no
// component-definition section; v0.4 inserts a count+offset pair for it,
// growing the header to 48 bytes. ReadDocument branches on VersionMinor at
// decode time rather than upgrading v0.3 documents in place.
const (
	HeaderSizeV3 = 42
	HeaderSizeV4 = 48
)

var MagicNumber = [4]byte{'K', 'R', 'B', '1'}

const (
	FlagHasStyles        uint16 = 1 << 0
	FlagHasComponentDefs uint16 = 1 << 1 // v0.4 only
	FlagHasAnimations    uint16 = 1 << 2
	FlagHasResources     uint16 = 1 << 3
	FlagCompressed       uint16 = 1 << 4
	FlagFixedPoint       uint16 = 1 << 5
	FlagExtendedColor    uint16 = 1 << 6
	FlagHasApp           uint16 = 1 << 7
)

type ElementType uint8

const (
	ElemTypeApp         ElementType = 0x00
	ElemTypeContainer   ElementType = 0x01
	ElemTypeText        ElementType = 0x02
	ElemTypeImage       ElementType = 0x03
	ElemTypeCanvas      ElementType = 0x04
	ElemTypeButton      ElementType = 0x10
	ElemTypeInput       ElementType = 0x11
	ElemTypeList        ElementType = 0x20
	ElemTypeGrid        ElementType = 0x21
	ElemTypeScrollable  ElementType = 0x22
	ElemTypeVideo       ElementType = 0x30
	ElemTypeCustomStart ElementType = 0x31
)

type PropertyID uint8

const (
	PropIDInvalid        PropertyID = 0x00
	PropIDBgColor        PropertyID = 0x01
	PropIDFgColor        PropertyID = 0x02
	PropIDBorderColor    PropertyID = 0x03
	PropIDBorderWidth    PropertyID = 0x04
	PropIDBorderRadius   PropertyID = 0x05
	PropIDPadding        PropertyID = 0x06
	PropIDMargin         PropertyID = 0x07
	PropIDTextContent    PropertyID = 0x08
	PropIDFontSize       PropertyID = 0x09
	PropIDFontWeight     PropertyID = 0x0A
	PropIDTextAlignment  PropertyID = 0x0B
	PropIDImageSource    PropertyID = 0x0C
	PropIDOpacity        PropertyID = 0x0D
	PropIDZIndex         PropertyID = 0x0E
	PropIDVisibility     PropertyID = 0x0F
	PropIDGap            PropertyID = 0x10
	PropIDMinWidth       PropertyID = 0x11
	PropIDMinHeight      PropertyID = 0x12
	PropIDMaxWidth       PropertyID = 0x13
	PropIDMaxHeight      PropertyID = 0x14
	PropIDAspectRatio    PropertyID = 0x15
	PropIDTransform      PropertyID = 0x16
	PropIDShadow         PropertyID = 0x17
	PropIDOverflow       PropertyID = 0x18
	PropIDCustomDataBlob PropertyID = 0x19
	PropIDLayoutFlags    PropertyID = 0x1A
	PropIDWindowWidth    PropertyID = 0x20
	PropIDWindowHeight   PropertyID = 0x21
	PropIDWindowTitle    PropertyID = 0x22
	PropIDResizable      PropertyID = 0x23
	PropIDKeepAspect     PropertyID = 0x24
	PropIDScaleFactor    PropertyID = 0x25
	PropIDIcon           PropertyID = 0x26
	PropIDVersion        PropertyID = 0x27
	PropIDAuthor         PropertyID = 0x28
)

type ValueType uint8

const (
	ValTypeNone       ValueType = 0x00
	ValTypeByte       ValueType = 0x01
	ValTypeShort      ValueType = 0x02
	ValTypeColor      ValueType = 0x03
	ValTypeString     ValueType = 0x04
	ValTypeResource   ValueType = 0x05
	ValTypePercentage ValueType = 0x06
	ValTypeRect       ValueType = 0x07
	ValTypeEdgeInsets ValueType = 0x08
	ValTypeEnum       ValueType = 0x09
	ValTypeVector     ValueType = 0x0A
	ValTypeCustom     ValueType = 0x0B
)

type EventType uint8

const (
	EventTypeNone      EventType = 0x00
	EventTypeClick     EventType = 0x01
	EventTypePress     EventType = 0x02
	EventTypeRelease   EventType = 0x03
	EventTypeLongPress EventType = 0x04
	EventTypeHover     EventType = 0x05
	EventTypeFocus     EventType = 0x06
	EventTypeBlur      EventType = 0x07
	EventTypeChange    EventType = 0x08
	EventTypeSubmit    EventType = 0x09
	EventTypeCustom    EventType = 0x0A
)

const (
	LayoutDirectionMask uint8 = 0x03
	LayoutAlignmentMask uint8 = 0x0C
	LayoutWrapBit       uint8 = 1 << 4
	LayoutGrowBit       uint8 = 1 << 5
	LayoutAbsoluteBit   uint8 = 1 << 6
)

const (
	LayoutDirRow           uint8 = 0x00
	LayoutDirColumn        uint8 = 0x01
	LayoutDirRowReverse    uint8 = 0x02
	LayoutDirColumnReverse uint8 = 0x03
)

const (
	LayoutAlignStart        uint8 = 0x00
	LayoutAlignCenter       uint8 = 0x01
	LayoutAlignEnd          uint8 = 0x02
	LayoutAlignSpaceBetween uint8 = 0x03
	LayoutAlignStretch      uint8 = 0x04 // conceptual, cross-axis only
)

type ResourceType uint8

const (
	ResTypeNone   ResourceType = 0x00
	ResTypeImage  ResourceType = 0x01
	ResTypeFont   ResourceType = 0x02
	ResTypeSound  ResourceType = 0x03
	ResTypeVideo  ResourceType = 0x04
	ResTypeCustom ResourceType = 0x05
)

type ResourceFormat uint8

const (
	ResFormatExternal ResourceFormat = 0x00
	ResFormatInline   ResourceFormat = 0x01
)

// Header is the fixed preamble, normalized to one Go struct regardless of
// which on-disk layout (42 or 48 bytes) produced it. ComponentDefCount and
// ComponentDefOffset read as zero for a v0.3 document.
type Header struct {
	Magic              [4]byte
	Version            uint16
	Flags              uint16
	ElementCount       uint16
	StyleCount         uint16
	ComponentDefCount  uint16
	AnimationCount     uint16
	StringCount        uint16
	ResourceCount      uint16
	ElementOffset      uint32
	StyleOffset        uint32
	ComponentDefOffset uint32
	AnimationOffset    uint32
	StringOffset       uint32
	ResourceOffset     uint32
	TotalSize          uint32
}

func (h Header) IsV4() bool         { return (h.Version >> 8) >= 4 }
func (h Header) HasFlag(f uint16) bool { return h.Flags&f != 0 }

type ElementHeader struct {
	Type            ElementType
	ID              uint8
	PosX            uint16
	PosY            uint16
	Width           uint16
	Height          uint16
	Layout          uint8
	StyleID         uint8
	PropertyCount   uint8
	ChildCount      uint8
	EventCount      uint8
	AnimationCount  uint8
	CustomPropCount uint8
}

const ElementHeaderSize = 17

type Property struct {
	ID        PropertyID
	ValueType ValueType
	Size      uint8
	Value     []byte
}

type CustomProperty struct {
	KeyIndex  uint8
	ValueType ValueType
	Size      uint8
	Value     []byte
}

type EventFileEntry struct {
	EventType  EventType
	CallbackID uint8
}

const EventFileEntrySize = 2

type AnimationRef struct {
	AnimationIndex uint8
	Trigger        uint8
}

const AnimationRefSize = 2

// ChildRef is a file-relative child pointer: ChildOffset is measured from
// the start of the parent element's own header, not from the file start.
type ChildRef struct {
	ChildOffset uint16
}

const ChildRefSize = 2

type Style struct {
	ID            uint8
	NameIndex     uint8
	PropertyCount uint8
	Properties    []Property
}

type Resource struct {
	Type            ResourceType
	NameIndex       uint8
	Format          ResourceFormat
	DataStringIndex uint8
	InlineDataSize  uint16
	InlineData      []byte
}

type KrbPropertyDefinition struct {
	NameIndex        uint8
	ValueTypeHint    ValueType
	DefaultValueSize uint8
	DefaultValueData []byte
}

// KrbComponentDefinition is a named, reusable element subtree (v0.4 only).
// RootElementTemplateData is the opaque, verbatim byte range of the
// template's root element block and everything nested under it, captured
// by calculateAndReadKrbElementTree; package resolve re-reads and
// instantiates it at component-expansion time.
type KrbComponentDefinition struct {
	NameIndex               uint8
	PropertyDefCount        uint8
	PropertyDefinitions     []KrbPropertyDefinition
	RootElementTemplateData []byte
}

// Document is the fully decoded, immutable result of ReadDocument. Slices
// are parallel to Elements by index: Properties[i] belongs to Elements[i].
type Document struct {
	Header               Header
	VersionMajor         uint8
	VersionMinor         uint8
	Elements             []ElementHeader
	ElementStartOffsets  []uint32
	Properties           [][]Property
	CustomProperties     [][]CustomProperty
	Events               [][]EventFileEntry
	ComponentDefinitions []KrbComponentDefinition
	Styles               []Style
	Animations           []byte
	Strings              []string
	Resources            []Resource
	ChildRefs            [][]ChildRef
	AnimationRefs        [][]AnimationRef

	// Warnings collects every recoverable decode condition (version
	// mismatch, count/table mismatches, missing App under HasApp) instead
	// of only writing to a logger, so an embedding caller can inspect what
	// was degraded without stdout coupling.
	Warnings []error
}

func (eh *ElementHeader) LayoutDirection() uint8 {
	return eh.Layout & LayoutDirectionMask
}

func (eh *ElementHeader) LayoutAlignment() uint8 {
	return (eh.Layout & LayoutAlignmentMask) >> 2
}

// LayoutCrossAlignment mirrors the main-axis alignment, except
// SpaceBetween on the cross axis resolves to Start: nothing in the
// property model declares a cross-axis stretch size, so treating
// SpaceBetween as Stretch there would silently distort any container that
// never asked for one.
func (eh *ElementHeader) LayoutCrossAlignment() uint8 {
	mainAxisAlignment := eh.LayoutAlignment()
	if mainAxisAlignment == LayoutAlignSpaceBetween {
		return LayoutAlignStart
	}
	return mainAxisAlignment
}

func (eh *ElementHeader) LayoutWrap() bool {
	return (eh.Layout & LayoutWrapBit) != 0
}

func (eh *ElementHeader) LayoutGrow() bool {
	return (eh.Layout & LayoutGrowBit) != 0
}

// LayoutAbsolute reports whether an element is positioned outside normal
// flow. It is true when EITHER the layout byte's absolute bit is set OR
// pos_x/pos_y is non-zero — two independent triggers for the same state,
// carried over as-is rather than guessed at, since either on its own would
// break documents authored against the other convention.
func (eh *ElementHeader) LayoutAbsolute() bool {
	return (eh.Layout&LayoutAbsoluteBit) != 0 || eh.PosX != 0 || eh.PosY != 0
}
