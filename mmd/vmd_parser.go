package mmd

import (
	"bufio"
	"bytes"
	"io"
	"sort"
)

// Known 30-byte VMD signatures. The older one uses a 10-byte model name,
// the current one 20 bytes.
const (
	vmdSignatureV1 = "Vocaloid Motion Data file"
	vmdSignatureV2 = "Vocaloid Motion Data 0002"
)

// VMDParser is parser for .vmd animation.
type VMDParser struct {
	binReader
}

// NewVMDParser returns new parser.
func NewVMDParser(r io.Reader) *VMDParser {
	return &VMDParser{binReader: binReader{r: bufio.NewReader(r)}}
}

// Parse animation data. Returns (nil, nil) if the stream is not a VMD file.
func (p *VMDParser) Parse() (*Animation, error) {
	ident := make([]byte, 30)
	p.read(&ident)
	if p.err != nil {
		return nil, p.err
	}

	var anim Animation
	var nameLen int
	switch string(bytes.SplitN(ident, []byte{0}, 2)[0]) {
	case vmdSignatureV1:
		anim.Version = 1
		nameLen = 10
	case vmdSignatureV2:
		anim.Version = 2
		nameLen = 20
	default:
		return nil, nil
	}

	name := make([]byte, nameLen)
	p.read(&name)
	anim.Name = string(name)

	n := int(p.readUint32())
	for i := 0; i < n && p.err == nil; i++ {
		var s AnimationBoneSample
		p.read(&s)
		anim.Bone = append(anim.Bone, &s)
	}
	sort.SliceStable(anim.Bone, func(i, j int) bool { return anim.Bone[i].Frame < anim.Bone[j].Frame })

	n = int(p.readUint32())
	for i := 0; i < n && p.err == nil; i++ {
		var s AnimationMorphSample
		p.read(&s)
		anim.Morph = append(anim.Morph, &s)
	}
	sort.SliceStable(anim.Morph, func(i, j int) bool { return anim.Morph[i].Frame < anim.Morph[j].Frame })

	n = int(p.readUint32())
	for i := 0; i < n && p.err == nil; i++ {
		var s AnimationCameraSample
		p.read(&s)
		anim.Camera = append(anim.Camera, &s)
	}
	sort.SliceStable(anim.Camera, func(i, j int) bool { return anim.Camera[i].Frame < anim.Camera[j].Frame })

	n = int(p.readUint32())
	for i := 0; i < n && p.err == nil; i++ {
		var s AnimationLightSample
		p.read(&s)
		anim.Light = append(anim.Light, &s)
	}
	sort.SliceStable(anim.Light, func(i, j int) bool { return anim.Light[i].Frame < anim.Light[j].Frame })

	if p.err != nil {
		return nil, p.err
	}
	return &anim, nil
}
