package video

import "bytes"

// NAL unit types
const (
	NALTypeSlice = 1 // Non-IDR slice
	NALTypeIDR   = 5 // IDR slice (keyframe)
	NALTypeSEI   = 6 // Supplemental enhancement info
	NALTypeSPS   = 7 // Sequence parameter set
	NALTypePPS   = 8 // Picture parameter set
	NALTypeAUD   = 9 // Access unit delimiter
)

// StartCode opens every frame the drone sends
var StartCode = []byte{0x00, 0x00, 0x00, 0x01}

var shortStartCode = []byte{0x00, 0x00, 0x01}

// HasStartCode returns true if b begins with the 4-byte NALU start code
func HasStartCode(b []byte) bool {
	return bytes.HasPrefix(b, StartCode)
}

// NALTypes returns the types of the NAL units found in an Annex B buffer
func NALTypes(b []byte) []uint8 {
	var types []uint8
	for i := 0; i+len(shortStartCode) < len(b); {
		j := bytes.Index(b[i:], shortStartCode)
		if j < 0 {
			break
		}
		header := i + j + len(shortStartCode)
		if header >= len(b) {
			break
		}
		types = append(types, b[header]&0x1F)
		i = header + 1
	}
	return types
}

// IsKeyframe returns true if the buffer holds an IDR slice or a sequence
// parameter set, either is a point a decoder can start from.
func IsKeyframe(b []byte) bool {
	for _, t := range NALTypes(b) {
		if t == NALTypeIDR || t == NALTypeSPS {
			return true
		}
	}
	return false
}
