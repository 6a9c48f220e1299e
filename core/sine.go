package core

import "math"

// Fixed-point sine lookup used by the coil drive. One electrical cycle
// spans SineValCount table entries; values are scaled to SineMax so the
// current math stays in integers on the hot path.
const (
	SineValCount int32 = 128
	SineMax      int16 = 10000
)

var sineTable [SineValCount]int16

func init() {
	for i := range sineTable {
		sineTable[i] = int16(math.Round(float64(SineMax) * math.Sin(2*math.Pi*float64(i)/float64(SineValCount))))
	}
}

// Sin returns the table value for idx. Indexes wrap modulo the table
// length, negative values included, so callers can hand in a raw step
// accumulator.
func Sin(idx int32) int16 {
	return sineTable[uint32(idx)&uint32(SineValCount-1)]
}

// Cos returns the table value a quarter cycle ahead of idx.
func Cos(idx int32) int16 {
	return Sin(idx + SineValCount/4)
}
