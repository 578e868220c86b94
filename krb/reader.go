// krb/reader.go

package krb

import (
	"bytes"
	"fmt"
	"io"
)

// ReadDocument parses a KRB file from the given reader into a Document.
// The reader must also implement io.Seeker for random access, since
// sections are visited by absolute offset rather than sequentially.
//
// Two on-disk header layouts exist: v0.3 (42 bytes, no component
// definitions) and v0.4 (48 bytes, adds a component-def count+offset
// pair). The version field at byte 4 is read first and used to pick the
// matching fixed-size header parse — a v0.3 file is never promoted to the
// v0.4 layout; its ComponentDefCount/ComponentDefOffset simply read zero.
func ReadDocument(r io.ReadSeeker) (*Document, error) {
	doc := &Document{}

	versionBuf := make([]byte, 6)
	if _, err := r.Seek(4, io.SeekStart); err != nil {
		return nil, fatalWrap("failed to seek to version field", err)
	}
	if _, err := io.ReadFull(r, versionBuf); err != nil {
		return nil, fatalWrap("failed to read version/flags", err)
	}
	version := ReadU16LE(versionBuf[0:2])
	minor := uint8(version >> 8)

	headerSize := HeaderSizeV3
	if minor >= 4 {
		headerSize = HeaderSizeV4
	}

	headerBuf := make([]byte, headerSize)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fatalWrap("failed to seek to header", err)
	}
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return nil, fatalWrap("failed to read header", err)
	}

	copy(doc.Header.Magic[:], headerBuf[0:4])
	doc.Header.Version = ReadU16LE(headerBuf[4:6])
	doc.Header.Flags = ReadU16LE(headerBuf[6:8])
	doc.Header.ElementCount = ReadU16LE(headerBuf[8:10])
	doc.Header.StyleCount = ReadU16LE(headerBuf[10:12])

	if minor >= 4 {
		doc.Header.ComponentDefCount = ReadU16LE(headerBuf[12:14])
		doc.Header.AnimationCount = ReadU16LE(headerBuf[14:16])
		doc.Header.StringCount = ReadU16LE(headerBuf[16:18])
		doc.Header.ResourceCount = ReadU16LE(headerBuf[18:20])
		doc.Header.ElementOffset = ReadU32LE(headerBuf[20:24])
		doc.Header.StyleOffset = ReadU32LE(headerBuf[24:28])
		doc.Header.ComponentDefOffset = ReadU32LE(headerBuf[28:32])
		doc.Header.AnimationOffset = ReadU32LE(headerBuf[32:36])
		doc.Header.StringOffset = ReadU32LE(headerBuf[36:40])
		doc.Header.ResourceOffset = ReadU32LE(headerBuf[40:44])
		doc.Header.TotalSize = ReadU32LE(headerBuf[44:48])
	} else {
		// v0.3 layout has no component-def fields.
		doc.Header.AnimationCount = ReadU16LE(headerBuf[12:14])
		doc.Header.StringCount = ReadU16LE(headerBuf[14:16])
		doc.Header.ResourceCount = ReadU16LE(headerBuf[16:18])
		doc.Header.ElementOffset = ReadU32LE(headerBuf[18:22])
		doc.Header.StyleOffset = ReadU32LE(headerBuf[22:26])
		doc.Header.AnimationOffset = ReadU32LE(headerBuf[26:30])
		doc.Header.StringOffset = ReadU32LE(headerBuf[30:34])
		doc.Header.ResourceOffset = ReadU32LE(headerBuf[34:38])
		doc.Header.TotalSize = ReadU32LE(headerBuf[38:42])
	}

	if !bytes.Equal(doc.Header.Magic[:], MagicNumber[:]) {
		return nil, fatalf("invalid magic number %v", doc.Header.Magic)
	}
	if doc.Header.HasFlag(FlagCompressed) {
		return nil, fatalf("compressed KRB streams are not supported")
	}

	doc.VersionMajor = uint8(doc.Header.Version & 0x00FF)
	doc.VersionMinor = uint8(doc.Header.Version >> 8)
	if doc.VersionMajor != 0 || (doc.VersionMinor != 3 && doc.VersionMinor != 4) {
		doc.Warnings = append(doc.Warnings, warnf(
			"unrecognized version %d.%d, parsing continues using the %d-byte header layout",
			doc.VersionMajor, doc.VersionMinor, headerSize))
	}

	// Offset sanity checks: any populated section must start after the header.
	if doc.Header.ElementCount > 0 && int(doc.Header.ElementOffset) < headerSize {
		return nil, fatalf("element offset overlaps header")
	}
	if doc.Header.StyleCount > 0 && int(doc.Header.StyleOffset) < headerSize {
		return nil, fatalf("style offset overlaps header")
	}
	if doc.Header.ComponentDefCount > 0 && doc.Header.HasFlag(FlagHasComponentDefs) && int(doc.Header.ComponentDefOffset) < headerSize {
		return nil, fatalf("component definition offset overlaps header")
	}
	if doc.Header.AnimationCount > 0 && int(doc.Header.AnimationOffset) < headerSize {
		return nil, fatalf("animation offset overlaps header")
	}
	if doc.Header.StringCount > 0 && int(doc.Header.StringOffset) < headerSize {
		return nil, fatalf("string offset overlaps header")
	}
	if doc.Header.ResourceCount > 0 && int(doc.Header.ResourceOffset) < headerSize {
		return nil, fatalf("resource offset overlaps header")
	}
	if doc.Header.HasFlag(FlagHasApp) && doc.Header.ElementCount == 0 {
		doc.Warnings = append(doc.Warnings, warnf("HasApp flag set but element count is 0"))
	}

	// Strings are read eagerly: component-definition names and several
	// other sections reference them immediately, and the table is small.
	if err := doc.readStrings(r); err != nil {
		return nil, err
	}

	if err := doc.readElements(r); err != nil {
		return nil, err
	}

	if err := doc.readStyles(r); err != nil {
		return nil, err
	}

	if doc.Header.HasFlag(FlagHasComponentDefs) && doc.Header.ComponentDefCount > 0 {
		if err := doc.readComponentDefs(r); err != nil {
			return nil, err
		}
	}

	if err := doc.readAnimations(r); err != nil {
		return nil, err
	}

	if err := doc.readResources(r); err != nil {
		return nil, err
	}

	return doc, nil
}

func (doc *Document) readStrings(r io.ReadSeeker) error {
	if doc.Header.StringCount == 0 {
		return nil
	}
	doc.Strings = make([]string, doc.Header.StringCount)
	if _, err := r.Seek(int64(doc.Header.StringOffset), io.SeekStart); err != nil {
		return fatalWrap(fmt.Sprintf("failed to seek to strings offset %d", doc.Header.StringOffset), err)
	}
	countBuf := make([]byte, 2)
	if _, err := io.ReadFull(r, countBuf); err != nil {
		return fatalWrap("failed to read string table count", err)
	}
	if tableCount := ReadU16LE(countBuf); tableCount != doc.Header.StringCount {
		doc.Warnings = append(doc.Warnings, warnf(
			"string table count mismatch: header %d, table %d; using header count", doc.Header.StringCount, tableCount))
	}
	lenBuf := make([]byte, 1)
	for i := uint16(0); i < doc.Header.StringCount; i++ {
		if _, err := io.ReadFull(r, lenBuf); err != nil {
			return fatalWrap(fmt.Sprintf("failed to read string length for index %d", i), err)
		}
		length := lenBuf[0]
		if length == 0 {
			continue
		}
		strBuf := make([]byte, length)
		if _, err := io.ReadFull(r, strBuf); err != nil {
			return fatalWrap(fmt.Sprintf("failed to read string data for index %d", i), err)
		}
		doc.Strings[i] = string(strBuf)
	}
	return nil
}

func (doc *Document) readElements(r io.ReadSeeker) error {
	if doc.Header.ElementCount == 0 {
		return nil
	}
	n := doc.Header.ElementCount
	doc.Elements = make([]ElementHeader, n)
	doc.ElementStartOffsets = make([]uint32, n)
	doc.Properties = make([][]Property, n)
	doc.CustomProperties = make([][]CustomProperty, n)
	doc.Events = make([][]EventFileEntry, n)
	doc.AnimationRefs = make([][]AnimationRef, n)
	doc.ChildRefs = make([][]ChildRef, n)

	if _, err := r.Seek(int64(doc.Header.ElementOffset), io.SeekStart); err != nil {
		return fatalWrap(fmt.Sprintf("failed to seek to elements offset %d", doc.Header.ElementOffset), err)
	}

	elementHeaderBuf := make([]byte, ElementHeaderSize)
	propHeaderBuf := make([]byte, 3)

	for i := uint16(0); i < n; i++ {
		pos, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return fatalWrap("failed to get current stream position", err)
		}
		doc.ElementStartOffsets[i] = uint32(pos)

		if _, err := io.ReadFull(r, elementHeaderBuf); err != nil {
			return fatalWrap(fmt.Sprintf("failed to read element header %d at offset %d", i, pos), err)
		}
		doc.Elements[i] = ElementHeader{
			Type:            ElementType(elementHeaderBuf[0]),
			ID:              elementHeaderBuf[1],
			PosX:            ReadU16LE(elementHeaderBuf[2:4]),
			PosY:            ReadU16LE(elementHeaderBuf[4:6]),
			Width:           ReadU16LE(elementHeaderBuf[6:8]),
			Height:          ReadU16LE(elementHeaderBuf[8:10]),
			Layout:          elementHeaderBuf[10],
			StyleID:         elementHeaderBuf[11],
			PropertyCount:   elementHeaderBuf[12],
			ChildCount:      elementHeaderBuf[13],
			EventCount:      elementHeaderBuf[14],
			AnimationCount:  elementHeaderBuf[15],
			CustomPropCount: elementHeaderBuf[16],
		}
		eh := &doc.Elements[i]

		if eh.PropertyCount > 0 {
			doc.Properties[i] = make([]Property, eh.PropertyCount)
			for j := uint8(0); j < eh.PropertyCount; j++ {
				if _, err := io.ReadFull(r, propHeaderBuf); err != nil {
					return fatalWrap(fmt.Sprintf("failed to read property header %d/%d for element %d", j+1, eh.PropertyCount, i), err)
				}
				p := &doc.Properties[i][j]
				p.ID, p.ValueType, p.Size = PropertyID(propHeaderBuf[0]), ValueType(propHeaderBuf[1]), propHeaderBuf[2]
				if p.Size > 0 {
					p.Value = make([]byte, p.Size)
					if _, err := io.ReadFull(r, p.Value); err != nil {
						return fatalWrap(fmt.Sprintf("failed to read property value for element %d, prop %d", i, j), err)
					}
				}
			}
		}

		if eh.CustomPropCount > 0 {
			doc.CustomProperties[i] = make([]CustomProperty, eh.CustomPropCount)
			for j := uint8(0); j < eh.CustomPropCount; j++ {
				if _, err := io.ReadFull(r, propHeaderBuf); err != nil {
					return fatalWrap(fmt.Sprintf("failed to read custom property header %d/%d for element %d", j+1, eh.CustomPropCount, i), err)
				}
				cp := &doc.CustomProperties[i][j]
				cp.KeyIndex, cp.ValueType, cp.Size = propHeaderBuf[0], ValueType(propHeaderBuf[1]), propHeaderBuf[2]
				if cp.Size > 0 {
					cp.Value = make([]byte, cp.Size)
					if _, err := io.ReadFull(r, cp.Value); err != nil {
						return fatalWrap(fmt.Sprintf("failed to read custom property value for element %d, cprop %d", i, j), err)
					}
				}
			}
		}

		if eh.EventCount > 0 {
			buf := make([]byte, int(eh.EventCount)*EventFileEntrySize)
			if _, err := io.ReadFull(r, buf); err != nil {
				return fatalWrap(fmt.Sprintf("failed to read events block for element %d", i), err)
			}
			doc.Events[i] = make([]EventFileEntry, eh.EventCount)
			for j := uint8(0); j < eh.EventCount; j++ {
				off := int(j) * EventFileEntrySize
				doc.Events[i][j] = EventFileEntry{EventType: EventType(buf[off]), CallbackID: buf[off+1]}
			}
		}

		if eh.AnimationCount > 0 {
			buf := make([]byte, int(eh.AnimationCount)*AnimationRefSize)
			if _, err := io.ReadFull(r, buf); err != nil {
				return fatalWrap(fmt.Sprintf("failed to read animation refs for element %d", i), err)
			}
			doc.AnimationRefs[i] = make([]AnimationRef, eh.AnimationCount)
			for j := uint8(0); j < eh.AnimationCount; j++ {
				off := int(j) * AnimationRefSize
				doc.AnimationRefs[i][j] = AnimationRef{AnimationIndex: buf[off], Trigger: buf[off+1]}
			}
		}

		if eh.ChildCount > 0 {
			buf := make([]byte, int(eh.ChildCount)*ChildRefSize)
			if _, err := io.ReadFull(r, buf); err != nil {
				return fatalWrap(fmt.Sprintf("failed to read child refs for element %d", i), err)
			}
			doc.ChildRefs[i] = make([]ChildRef, eh.ChildCount)
			for j := uint8(0); j < eh.ChildCount; j++ {
				off := int(j) * ChildRefSize
				doc.ChildRefs[i][j] = ChildRef{ChildOffset: ReadU16LE(buf[off : off+ChildRefSize])}
			}
		}
	}
	return nil
}

func (doc *Document) readStyles(r io.ReadSeeker) error {
	if doc.Header.StyleCount == 0 {
		return nil
	}
	doc.Styles = make([]Style, doc.Header.StyleCount)
	if _, err := r.Seek(int64(doc.Header.StyleOffset), io.SeekStart); err != nil {
		return fatalWrap(fmt.Sprintf("failed to seek to styles offset %d", doc.Header.StyleOffset), err)
	}
	styleHeaderBuf := make([]byte, 3)
	propHeaderBuf := make([]byte, 3)
	for i := uint16(0); i < doc.Header.StyleCount; i++ {
		if _, err := io.ReadFull(r, styleHeaderBuf); err != nil {
			return fatalWrap(fmt.Sprintf("failed to read style header %d", i), err)
		}
		s := &doc.Styles[i]
		s.ID, s.NameIndex, s.PropertyCount = styleHeaderBuf[0], styleHeaderBuf[1], styleHeaderBuf[2]
		if s.PropertyCount == 0 {
			continue
		}
		s.Properties = make([]Property, s.PropertyCount)
		for j := uint8(0); j < s.PropertyCount; j++ {
			if _, err := io.ReadFull(r, propHeaderBuf); err != nil {
				return fatalWrap(fmt.Sprintf("failed to read property header for style %d, prop %d", i, j), err)
			}
			p := &s.Properties[j]
			p.ID, p.ValueType, p.Size = PropertyID(propHeaderBuf[0]), ValueType(propHeaderBuf[1]), propHeaderBuf[2]
			if p.Size > 0 {
				p.Value = make([]byte, p.Size)
				if _, err := io.ReadFull(r, p.Value); err != nil {
					return fatalWrap(fmt.Sprintf("failed to read property value for style %d, prop %d", i, j), err)
				}
			}
		}
	}
	return nil
}

func (doc *Document) readComponentDefs(r io.ReadSeeker) error {
	doc.ComponentDefinitions = make([]KrbComponentDefinition, doc.Header.ComponentDefCount)
	if _, err := r.Seek(int64(doc.Header.ComponentDefOffset), io.SeekStart); err != nil {
		return fatalWrap(fmt.Sprintf("failed to seek to component definitions offset %d", doc.Header.ComponentDefOffset), err)
	}
	entryHeaderBuf := make([]byte, 2)
	propDefHeaderBuf := make([]byte, 3)

	for i := uint16(0); i < doc.Header.ComponentDefCount; i++ {
		cd := &doc.ComponentDefinitions[i]
		if _, err := io.ReadFull(r, entryHeaderBuf); err != nil {
			return fatalWrap(fmt.Sprintf("failed to read component definition entry header %d", i), err)
		}
		cd.NameIndex, cd.PropertyDefCount = entryHeaderBuf[0], entryHeaderBuf[1]

		if cd.PropertyDefCount > 0 {
			cd.PropertyDefinitions = make([]KrbPropertyDefinition, cd.PropertyDefCount)
			for j := uint8(0); j < cd.PropertyDefCount; j++ {
				pd := &cd.PropertyDefinitions[j]
				if _, err := io.ReadFull(r, propDefHeaderBuf); err != nil {
					return fatalWrap(fmt.Sprintf("failed to read property definition header for comp_def %d, prop_def %d", i, j), err)
				}
				pd.NameIndex, pd.ValueTypeHint, pd.DefaultValueSize = propDefHeaderBuf[0], ValueType(propDefHeaderBuf[1]), propDefHeaderBuf[2]
				if pd.DefaultValueSize > 0 {
					pd.DefaultValueData = make([]byte, pd.DefaultValueSize)
					if _, err := io.ReadFull(r, pd.DefaultValueData); err != nil {
						return fatalWrap(fmt.Sprintf("failed to read property definition default for comp_def %d, prop_def %d", i, j), err)
					}
				}
			}
		}

		name := fmt.Sprintf("unknown(index:%d)", cd.NameIndex)
		if int(cd.NameIndex) < len(doc.Strings) {
			name = doc.Strings[cd.NameIndex]
		}
		_, templateBytes, err := calculateAndReadKrbElementTree(r)
		if err != nil {
			return fatalWrap(fmt.Sprintf("component definition %q (index %d): failed to read root element template", name, i), err)
		}
		cd.RootElementTemplateData = templateBytes
	}
	return nil
}

func (doc *Document) readAnimations(r io.ReadSeeker) error {
	if doc.Header.AnimationCount == 0 {
		return nil
	}
	if _, err := r.Seek(int64(doc.Header.AnimationOffset), io.SeekStart); err != nil {
		return fatalWrap(fmt.Sprintf("failed to seek to animation offset %d", doc.Header.AnimationOffset), err)
	}

	nextSectionOffset := doc.Header.TotalSize
	if doc.Header.StringCount > 0 && doc.Header.StringOffset > doc.Header.AnimationOffset && doc.Header.StringOffset < nextSectionOffset {
		nextSectionOffset = doc.Header.StringOffset
	}
	if doc.Header.ResourceCount > 0 && doc.Header.ResourceOffset > doc.Header.AnimationOffset && doc.Header.ResourceOffset < nextSectionOffset {
		nextSectionOffset = doc.Header.ResourceOffset
	}
	if doc.Header.ComponentDefCount > 0 && doc.Header.HasFlag(FlagHasComponentDefs) &&
		doc.Header.ComponentDefOffset > doc.Header.AnimationOffset && doc.Header.ComponentDefOffset < nextSectionOffset {
		nextSectionOffset = doc.Header.ComponentDefOffset
	}

	if nextSectionOffset < doc.Header.AnimationOffset {
		return fatalf("calculated negative animation section size")
	}
	size := nextSectionOffset - doc.Header.AnimationOffset
	if size == 0 {
		doc.Warnings = append(doc.Warnings, warnf("animation table declares %d animations but calculated section size is 0", doc.Header.AnimationCount))
		return nil
	}
	doc.Animations = make([]byte, size)
	if _, err := io.ReadFull(r, doc.Animations); err != nil {
		return fatalWrap(fmt.Sprintf("failed to read animation table (size %d)", size), err)
	}
	doc.Warnings = append(doc.Warnings, warnf(
		"animation table present (%d animations, %d bytes) but detailed parsing is not implemented; stored as a raw blob", doc.Header.AnimationCount, size))
	return nil
}

func (doc *Document) readResources(r io.ReadSeeker) error {
	if doc.Header.ResourceCount == 0 {
		return nil
	}
	doc.Resources = make([]Resource, doc.Header.ResourceCount)
	if _, err := r.Seek(int64(doc.Header.ResourceOffset), io.SeekStart); err != nil {
		return fatalWrap(fmt.Sprintf("failed to seek to resources offset %d", doc.Header.ResourceOffset), err)
	}
	countBuf := make([]byte, 2)
	if _, err := io.ReadFull(r, countBuf); err != nil {
		return fatalWrap("failed to read resource table count", err)
	}
	if tableCount := ReadU16LE(countBuf); tableCount != doc.Header.ResourceCount {
		doc.Warnings = append(doc.Warnings, warnf(
			"resource table count mismatch: header %d, table %d; using header count", doc.Header.ResourceCount, tableCount))
	}
	commonBuf := make([]byte, 3)
	externalBuf := make([]byte, 1)
	inlineSizeBuf := make([]byte, 2)
	for i := uint16(0); i < doc.Header.ResourceCount; i++ {
		res := &doc.Resources[i]
		if _, err := io.ReadFull(r, commonBuf); err != nil {
			return fatalWrap(fmt.Sprintf("failed to read resource entry %d", i), err)
		}
		res.Type, res.NameIndex, res.Format = ResourceType(commonBuf[0]), commonBuf[1], ResourceFormat(commonBuf[2])
		switch res.Format {
		case ResFormatExternal:
			if _, err := io.ReadFull(r, externalBuf); err != nil {
				return fatalWrap(fmt.Sprintf("failed to read external resource data index %d", i), err)
			}
			res.DataStringIndex = externalBuf[0]
		case ResFormatInline:
			if _, err := io.ReadFull(r, inlineSizeBuf); err != nil {
				return fatalWrap(fmt.Sprintf("failed to read inline resource size %d", i), err)
			}
			res.InlineDataSize = ReadU16LE(inlineSizeBuf)
			if res.InlineDataSize > 0 {
				res.InlineData = make([]byte, res.InlineDataSize)
				if _, err := io.ReadFull(r, res.InlineData); err != nil {
					return fatalWrap(fmt.Sprintf("failed to read inline resource data for index %d", i), err)
				}
			}
		default:
			return fatalf("unknown resource format 0x%02X for resource %d", res.Format, i)
		}
	}
	return nil
}

// calculateAndReadKrbElementTree reads a self-contained KRB element tree
// (a component definition's template) from the stream. Since the format
// stores no total-size field for a template, the size is derived by a
// structural walk: a BFS over the tree's child-ref graph that sums each
// visited element's header+properties+events+animrefs+childrefs block
// size and tracks the furthest byte reached. 'r' is expected positioned at
// the root element's header, and ends positioned immediately after the
// tree.
func calculateAndReadKrbElementTree(r io.ReadSeeker) (totalTreeSize uint32, treeData []byte, err error) {
	startOffsetOfTree, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, nil, fatalWrap("failed to get start offset", err)
	}

	elementBlockSizes := make(map[uint32]uint32)
	processingQueue := []uint32{0}
	maxRelativeExtent := uint32(0)

	headerBuf := make([]byte, ElementHeaderSize)
	propHeaderBuf := make([]byte, 3)
	childRefBufItem := make([]byte, ChildRefSize)

	for len(processingQueue) > 0 {
		relOffset := processingQueue[0]
		processingQueue = processingQueue[1:]
		if _, visited := elementBlockSizes[relOffset]; visited {
			continue
		}

		if _, err := r.Seek(startOffsetOfTree+int64(relOffset), io.SeekStart); err != nil {
			return 0, nil, fatalWrap(fmt.Sprintf("seek to element at rel_offset %d failed", relOffset), err)
		}

		var blockSize uint32
		n, err := io.ReadFull(r, headerBuf)
		if err != nil {
			return 0, nil, fatalWrap(fmt.Sprintf("reading header at rel_offset %d failed", relOffset), err)
		}
		blockSize += uint32(n)

		propCount, childCount, eventCount, animCount, customCount :=
			headerBuf[12], headerBuf[13], headerBuf[14], headerBuf[15], headerBuf[16]

		for j := uint8(0); j < propCount+customCount; j++ {
			if _, err := io.ReadFull(r, propHeaderBuf); err != nil {
				return 0, nil, fatalWrap("property header read failed", err)
			}
			blockSize += 3
			if dataSize := propHeaderBuf[2]; dataSize > 0 {
				if _, err := r.Seek(int64(dataSize), io.SeekCurrent); err != nil {
					return 0, nil, fatalWrap("property data seek failed", err)
				}
				blockSize += uint32(dataSize)
			}
		}

		eventsSize := uint32(eventCount) * EventFileEntrySize
		if _, err := r.Seek(int64(eventsSize), io.SeekCurrent); err != nil {
			return 0, nil, fatalWrap("events seek failed", err)
		}
		blockSize += eventsSize

		animRefsSize := uint32(animCount) * AnimationRefSize
		if _, err := r.Seek(int64(animRefsSize), io.SeekCurrent); err != nil {
			return 0, nil, fatalWrap("anim refs seek failed", err)
		}
		blockSize += animRefsSize

		for j := uint8(0); j < childCount; j++ {
			if _, err := io.ReadFull(r, childRefBufItem); err != nil {
				return 0, nil, fatalWrap("child ref read failed", err)
			}
			blockSize += ChildRefSize
			childTreeRelOffset := relOffset + uint32(ReadU16LE(childRefBufItem))
			if _, visited := elementBlockSizes[childTreeRelOffset]; !visited {
				inQueue := false
				for _, off := range processingQueue {
					if off == childTreeRelOffset {
						inQueue = true
						break
					}
				}
				if !inQueue {
					processingQueue = append(processingQueue, childTreeRelOffset)
				}
			}
		}

		elementBlockSizes[relOffset] = blockSize
		if end := relOffset + blockSize; end > maxRelativeExtent {
			maxRelativeExtent = end
		}
	}

	totalTreeSize = maxRelativeExtent
	treeData = make([]byte, totalTreeSize)
	if _, err := r.Seek(startOffsetOfTree, io.SeekStart); err != nil {
		return 0, nil, fatalWrap("final seek to re-read tree data failed", err)
	}
	if _, err := io.ReadFull(r, treeData); err != nil {
		return 0, nil, fatalWrap(fmt.Sprintf("final read of tree data (size %d) failed", totalTreeSize), err)
	}
	if _, err := r.Seek(startOffsetOfTree+int64(totalTreeSize), io.SeekStart); err != nil {
		return 0, nil, fatalWrap("final seek past tree failed", err)
	}

	return totalTreeSize, treeData, nil
}
