package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSize(t *testing.T) {
	testCases := []struct {
		raw      string
		expected Size
	}{
		{"l", SizeLarge},
		{"large", SizeLarge},
		{"L", SizeLarge},
		{"s", SizeSmall},
		{"small", SizeSmall},
		{"S", SizeSmall},
		{"m", SizeMedium},
		{"medium", SizeMedium},
		{"", SizeMedium},
		{"xxl", SizeMedium},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, NormalizeSize(tc.raw), "size %q", tc.raw)
	}
}

func TestLowStock(t *testing.T) {
	record := &Record{
		Quantities: Quantities{
			SizeLarge:  10,
			SizeMedium: 10,
			SizeSmall:  10,
		},
		StockThreshold: 5,
	}
	assert.False(t, record.LowStock())

	record.Quantities[SizeSmall] = 5
	assert.True(t, record.LowStock())

	record.Quantities[SizeSmall] = 3
	assert.True(t, record.LowStock())
}

func TestNeedsReconciliation(t *testing.T) {
	record := &Record{
		Quantities: Quantities{
			SizeLarge:  0,
			SizeMedium: 1,
		},
	}
	assert.False(t, record.NeedsReconciliation())

	record.Quantities[SizeMedium] = -2
	assert.True(t, record.NeedsReconciliation())
}
