package mmd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

type vmdBuilder struct {
	bytes.Buffer
}

func (b *vmdBuilder) put(v interface{}) {
	binary.Write(b, binary.LittleEndian, v)
}

func (b *vmdBuilder) putFixedString(s string, size int) {
	raw := make([]byte, size)
	copy(raw, s)
	b.Write(raw)
}

func (b *vmdBuilder) putBoneSample(name string, frame uint32) {
	b.putFixedString(name, 15)
	b.put(frame)
	b.put([]float32{0, 0, 0})    // position
	b.put([]float32{0, 0, 0, 1}) // rotation
	b.Write(make([]byte, 64))    // interpolation
}

func buildMotionV2(frames []uint32) *vmdBuilder {
	b := &vmdBuilder{}
	b.putFixedString("Vocaloid Motion Data 0002", 30)
	b.putFixedString("TestModel", 20)

	b.put(uint32(len(frames)))
	for _, f := range frames {
		b.putBoneSample("waist", f)
	}

	// 1 morph sample
	b.put(uint32(1))
	b.putFixedString("smile", 15)
	b.put(uint32(8))
	b.put(float32(0.5))

	// 1 camera sample
	b.put(uint32(1))
	b.put(uint32(0))
	b.put(float32(-45)) // distance, stored negated
	b.put([]float32{0, 10, 0})
	b.put([]float32{0, 0, 0})
	b.Write(make([]byte, 24))
	b.put(uint32(30)) // view angle
	b.put(uint8(0))   // perspective

	// 1 light sample
	b.put(uint32(1))
	b.put(uint32(0))
	b.put([]float32{0.6, 0.6, 0.6})
	b.put([]float32{-0.5, -1, 0.5})

	return b
}

func TestParseAnimation(t *testing.T) {
	anim, err := ParseAnimation(buildMotionV2([]uint32{5, 1, 3}))
	if err != nil {
		t.Fatal(err)
	}
	if anim == nil {
		t.Fatal("no animation")
	}

	if anim.Version != 2 {
		t.Errorf("version = %d", anim.Version)
	}
	// Model name keeps its padding; ModelName trims and decodes it.
	if len(anim.Name) != 20 {
		t.Errorf("raw name length = %d; want 20", len(anim.Name))
	}
	if anim.ModelName() != "TestModel" {
		t.Errorf("ModelName = %q", anim.ModelName())
	}

	// Bone track sorted by frame regardless of file order.
	if len(anim.Bone) != 3 {
		t.Fatalf("bone samples = %d", len(anim.Bone))
	}
	for i, want := range []uint32{1, 3, 5} {
		if anim.Bone[i].Frame != want {
			t.Errorf("bone[%d].Frame = %d; want %d", i, anim.Bone[i].Frame, want)
		}
	}
	if anim.Bone[0].TargetName() != "waist" {
		t.Errorf("TargetName = %q", anim.Bone[0].TargetName())
	}

	if len(anim.Morph) != 1 || anim.Morph[0].Frame != 8 || anim.Morph[0].Value != 0.5 {
		t.Errorf("morph track = %+v", anim.Morph)
	}
	if len(anim.Camera) != 1 || anim.Camera[0].Distance != -45 || anim.Camera[0].ViewAngle != 30 {
		t.Errorf("camera track = %+v", anim.Camera)
	}
	if len(anim.Light) != 1 || anim.Light[0].Color != (Vector3{0.6, 0.6, 0.6}) {
		t.Errorf("light track = %+v", anim.Light)
	}
}

func TestParseAnimationV1(t *testing.T) {
	b := &vmdBuilder{}
	b.putFixedString("Vocaloid Motion Data file", 30)
	b.putFixedString("old", 10) // v1 model name is 10 bytes
	b.put(uint32(0))
	b.put(uint32(0))
	b.put(uint32(0))
	b.put(uint32(0))

	anim, err := ParseAnimation(b)
	if err != nil {
		t.Fatal(err)
	}
	if anim.Version != 1 || len(anim.Name) != 10 || anim.ModelName() != "old" {
		t.Errorf("anim = %+v", anim)
	}
}

func TestParseAnimationNotVMD(t *testing.T) {
	b := &vmdBuilder{}
	b.putFixedString("Some Other Motion Data 0002", 30)
	anim, err := ParseAnimation(b)
	if anim != nil || err != nil {
		t.Errorf("ParseAnimation = %v, %v; want nil, nil", anim, err)
	}
}

func TestParseAnimationTruncated(t *testing.T) {
	b := buildMotionV2(nil)
	data := b.Bytes()
	anim, err := ParseAnimation(bytes.NewReader(data[:len(data)-10]))
	if anim != nil {
		t.Error("partial animation returned")
	}
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("err = %v; want ErrTruncated", err)
	}
}

func TestGetMorphChannels(t *testing.T) {
	anim, err := ParseAnimation(buildMotionV2([]uint32{2, 1}))
	if err != nil {
		t.Fatal(err)
	}
	channels := anim.GetMorphChannels()
	c := channels["smile"]
	if c == nil || len(c.Frames) != 1 || c.Frames[0] != 8 || c.Samples[0] != 0.5 {
		t.Errorf("channels = %+v", channels)
	}

	rc := anim.GetRotationChannels()
	if rc["waist"] == nil || len(rc["waist"].Frames) != 2 || rc["waist"].Frames[0] != 1 {
		t.Errorf("rotation channels = %+v", rc["waist"])
	}
}
