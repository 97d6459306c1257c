package video

import (
	"fmt"
	"time"
)

// Frame is one H.264 frame as delimited by NALU start codes
type Frame struct {
	Content   []byte
	Index     uint64        // Monotonic frame counter
	TimeIndex time.Duration // Index / frame rate
	Duration  time.Duration // 1 / frame rate
	Keyframe  bool
}

func (f *Frame) String() string {
	return fmt.Sprintf("frame #%d at %s (%d bytes)", f.Index, f.TimeIndex, len(f.Content))
}

// Sample is a run of consecutive frames concatenated into one buffer
type Sample struct {
	Content    []byte
	Frames     int
	FirstIndex uint64
	TimeIndex  time.Duration // Time index of the first frame
	Duration   time.Duration // Sum of frame durations
	Keyframe   bool          // True if any frame is a keyframe
}

func newSample(frames []*Frame) *Sample {
	size := 0
	for _, f := range frames {
		size += len(f.Content)
	}

	s := Sample{
		Content:    make([]byte, 0, size),
		Frames:     len(frames),
		FirstIndex: frames[0].Index,
		TimeIndex:  frames[0].TimeIndex,
	}
	for _, f := range frames {
		s.Content = append(s.Content, f.Content...)
		s.Duration += f.Duration
		s.Keyframe = s.Keyframe || f.Keyframe
	}
	return &s
}
