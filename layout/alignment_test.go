package layout

import (
	"testing"

	"github.com/kryonlabs/kryon-runtime/krb"
	"github.com/stretchr/testify/assert"
)

func TestCalculateAlignmentOffsetsF_Start(t *testing.T) {
	start, gap := calculateAlignmentOffsetsF(krb.LayoutAlignStart, 100, 40, 3, false, 0)
	assert.Equal(t, float32(0), start)
	assert.Equal(t, float32(0), gap)
}

func TestCalculateAlignmentOffsetsF_Center(t *testing.T) {
	start, gap := calculateAlignmentOffsetsF(krb.LayoutAlignCenter, 100, 40, 2, false, 0)
	assert.Equal(t, float32(30), start)
	assert.Equal(t, float32(0), gap)
}

func TestCalculateAlignmentOffsetsF_End(t *testing.T) {
	start, _ := calculateAlignmentOffsetsF(krb.LayoutAlignEnd, 100, 40, 2, false, 0)
	assert.Equal(t, float32(60), start)
}

func TestCalculateAlignmentOffsetsF_SpaceBetween(t *testing.T) {
	// 100 available, 40 used by 3 children, gap law: (100-40)/(3-1) = 30
	start, gap := calculateAlignmentOffsetsF(krb.LayoutAlignSpaceBetween, 100, 40, 3, false, 0)
	assert.Equal(t, float32(0), start)
	assert.Equal(t, float32(30), gap)
}

func TestCalculateAlignmentOffsetsF_SpaceBetweenSingleChildCenters(t *testing.T) {
	start, gap := calculateAlignmentOffsetsF(krb.LayoutAlignSpaceBetween, 100, 40, 1, false, 0)
	assert.Equal(t, float32(30), start)
	assert.Equal(t, float32(0), gap)
}

func TestCalculateAlignmentOffsetsF_ReversedMirrorsStartEnd(t *testing.T) {
	start, _ := calculateAlignmentOffsetsF(krb.LayoutAlignStart, 100, 40, 2, true, 0)
	assert.Equal(t, float32(60), start, "Start mirrors to End when reversed")

	start, _ = calculateAlignmentOffsetsF(krb.LayoutAlignEnd, 100, 40, 2, true, 0)
	assert.Equal(t, float32(0), start, "End mirrors to Start when reversed")
}

func TestCalculateCrossAxisOffsetF(t *testing.T) {
	assert.Equal(t, float32(0), calculateCrossAxisOffsetF(krb.LayoutAlignStart, 100, 20))
	assert.Equal(t, float32(40), calculateCrossAxisOffsetF(krb.LayoutAlignCenter, 100, 20))
	assert.Equal(t, float32(80), calculateCrossAxisOffsetF(krb.LayoutAlignEnd, 100, 20))
}

func TestCalculateCrossAxisOffsetF_ClampsNegative(t *testing.T) {
	// Child larger than parent: offset would go negative, must clamp to 0.
	assert.Equal(t, float32(0), calculateCrossAxisOffsetF(krb.LayoutAlignCenter, 20, 100))
	assert.Equal(t, float32(0), calculateCrossAxisOffsetF(krb.LayoutAlignEnd, 20, 100))
}
