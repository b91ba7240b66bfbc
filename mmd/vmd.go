package mmd

import (
	"bytes"
	"sort"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Animation is a parsed VMD motion. Each track is sorted ascending by frame
// index; tracks are independent of each other. Name tags and the model name
// are kept as the raw on-disk bytes (ShiftJIS, NUL padded); use ModelName
// and TargetName for decoded strings.
type Animation struct {
	Version int
	Name    string // raw model-name field, padding included
	Bone    []*AnimationBoneSample
	Morph   []*AnimationMorphSample
	Camera  []*AnimationCameraSample
	Light   []*AnimationLightSample
}

type AnimationBoneSample struct {
	Target   [15]byte
	Frame    uint32
	Position Vector3
	Rotation Vector4
	Params   [64]byte // interpolation curves
}

type AnimationMorphSample struct {
	Target [15]byte
	Frame  uint32
	Value  float32
}

type AnimationCameraSample struct {
	Frame      uint32
	Distance   float32 // stored negated in the file
	Position   Vector3
	Rotation   Vector3
	Params     [24]byte
	ViewAngle  uint32
	Projection byte // 0: perspective
}

type AnimationLightSample struct {
	Frame    uint32
	Color    Vector3
	Position Vector3
}

// decodeShiftJIS trims at the first NUL and transcodes to UTF-8.
// Undecodable bytes fall back to the raw string.
func decodeShiftJIS(b []byte) string {
	b = bytes.SplitN(b, []byte{0}, 2)[0]
	utf8Data, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), b)
	if err != nil {
		return string(b)
	}
	return string(utf8Data)
}

// ModelName returns the model name with padding trimmed and ShiftJIS decoded.
func (a *Animation) ModelName() string {
	return decodeShiftJIS([]byte(a.Name))
}

func (s *AnimationBoneSample) TargetName() string {
	return decodeShiftJIS(s.Target[:])
}

func (s *AnimationMorphSample) TargetName() string {
	return decodeShiftJIS(s.Target[:])
}

type RotationChannel struct {
	Target  string
	Frames  []uint32
	Samples []*Vector4
}

type MorphChannel struct {
	Target  string
	Frames  []uint32
	Samples []float32
}

// GetRotationChannels groups bone keyframes into per-bone channels.
func (a *Animation) GetRotationChannels() map[string]*RotationChannel {
	sort.SliceStable(a.Bone, func(i, j int) bool { return a.Bone[i].Frame < a.Bone[j].Frame })

	r := map[string]*RotationChannel{}
	for _, s := range a.Bone {
		name := s.TargetName()
		c, ok := r[name]
		if !ok {
			c = &RotationChannel{Target: name}
			r[name] = c
		}
		c.Frames = append(c.Frames, s.Frame)
		c.Samples = append(c.Samples, &s.Rotation)
	}
	return r
}

// GetMorphChannels groups morph keyframes into per-morph channels.
func (a *Animation) GetMorphChannels() map[string]*MorphChannel {
	sort.SliceStable(a.Morph, func(i, j int) bool { return a.Morph[i].Frame < a.Morph[j].Frame })

	r := map[string]*MorphChannel{}
	for _, s := range a.Morph {
		name := s.TargetName()
		c, ok := r[name]
		if !ok {
			c = &MorphChannel{Target: name}
			r[name] = c
		}
		c.Frames = append(c.Frames, s.Frame)
		c.Samples = append(c.Samples, s.Value)
	}
	return r
}
