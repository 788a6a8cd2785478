package huffman

import (
	"math"

	"github.com/seiflotfy/huffman/tree"
)

// Report summarizes how well a code table fits a frequency table.
type Report struct {
	Symbols           uint64  `json:"symbols"`
	Distinct          int     `json:"distinct"`
	Entropy           float64 `json:"entropy"`             // bits per symbol
	AverageCodeLength float64 `json:"average_code_length"` // bits per symbol
	OriginalBits      uint64  `json:"original_bits"`       // 8 per symbol
	EncodedBits       uint64  `json:"encoded_bits"`
	CompressionRatio  float64 `json:"compression_ratio"` // encoded / original
	Efficiency        float64 `json:"efficiency"`        // original / encoded * 100
}

// NewReport computes the report for freqs encoded with codes. Symbols absent
// from codes are counted as 8-bit literals.
func NewReport(freqs *FrequencyTable, codes *tree.CodeTable) *Report {
	r := &Report{Symbols: freqs.Total()}
	if r.Symbols == 0 {
		return r
	}

	n := float64(r.Symbols)
	for sym, f := range freqs {
		if f == 0 {
			continue
		}
		r.Distinct++
		p := float64(f) / n
		r.Entropy -= p * math.Log2(p)

		bits := uint64(8)
		if c, ok := codes.Lookup(byte(sym)); ok {
			bits = uint64(c.Len)
		}
		r.EncodedBits += f * bits
	}
	// A single symbol has zero entropy; avoid printing -0.
	r.Entropy = math.Abs(r.Entropy)

	r.OriginalBits = 8 * r.Symbols
	r.AverageCodeLength = float64(r.EncodedBits) / n
	r.CompressionRatio = float64(r.EncodedBits) / float64(r.OriginalBits)
	r.Efficiency = float64(r.OriginalBits) / float64(r.EncodedBits) * 100
	return r
}
