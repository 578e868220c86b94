package layout

import "github.com/kryonlabs/kryon-runtime/krb"

// mirrorAlignment swaps Start/End for a reversed-direction axis (RowReverse,
// ColumnReverse); Center and SpaceBetween are symmetric and pass through.
func mirrorAlignment(a uint8) uint8 {
	switch a {
	case krb.LayoutAlignStart:
		return krb.LayoutAlignEnd
	case krb.LayoutAlignEnd:
		return krb.LayoutAlignStart
	default:
		return a
	}
}

// calculateAlignmentOffsetsF returns the main-axis start offset and the
// per-child spacing to apply while walking children in order. Grounded on
// the teacher's renderer_utils.go calculateAlignmentOffsetsF: Start/Center/
// End only shift the start offset and leave fixedGap untouched; SpaceBetween
// recomputes the gap from the law (availableSpace-used)/(n-1), falling back
// to centering a lone child since a single child has no "between" to space.
func calculateAlignmentOffsetsF(alignment uint8, availableSpaceOnMainAxis, totalUsedSpace float32, numberOfChildren int, reversed bool, fixedGap float32) (startOffset, spacing float32) {
	if numberOfChildren <= 0 {
		return 0, fixedGap
	}
	if reversed {
		alignment = mirrorAlignment(alignment)
	}
	remaining := availableSpaceOnMainAxis - totalUsedSpace

	switch alignment {
	case krb.LayoutAlignCenter:
		return remaining / 2, fixedGap
	case krb.LayoutAlignEnd:
		return remaining, fixedGap
	case krb.LayoutAlignSpaceBetween:
		if numberOfChildren > 1 {
			return 0, fixedGap + remaining/float32(numberOfChildren-1)
		}
		return remaining / 2, fixedGap
	default: // Start
		return 0, fixedGap
	}
}

// calculateCrossAxisOffsetF positions one child within the parent's cross
// axis. Stretch is not a reachable alignment value here: LayoutCrossAlignment
// already collapses SpaceBetween (3) to Start, per the design decision that
// nothing in the property model declares a cross-stretch size.
func calculateCrossAxisOffsetF(alignment uint8, parentCrossAxisSize, childCrossAxisSize float32) float32 {
	var offset float32
	switch alignment {
	case krb.LayoutAlignCenter:
		offset = (parentCrossAxisSize - childCrossAxisSize) / 2
	case krb.LayoutAlignEnd:
		offset = parentCrossAxisSize - childCrossAxisSize
	default:
		offset = 0
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}
