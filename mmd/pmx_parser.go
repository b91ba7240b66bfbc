package mmd

import (
	"bufio"
	"fmt"
	"io"

	"github.com/binzume/mmdload/geom"
)

// PMXParser is parser for .pmx model.
//
// The decode order is fixed by the format: header, names, vertices, faces,
// textures, materials, bones, morphs. Later sections exist in the file
// (display frames, rigid bodies, joints, soft bodies) but are not decoded;
// parsing stops after the morph section.
type PMXParser struct {
	binReader
	header *Header
}

// NewPMXParser returns new parser.
func NewPMXParser(r io.Reader) *PMXParser {
	return &PMXParser{binReader: binReader{r: bufio.NewReader(r)}}
}

func (p *PMXParser) readIndex(attrTyp int) int {
	return p.readVInt(p.header.Info[attrTyp])
}

func (p *PMXParser) readUIndex(attrTyp int) int {
	return p.readVUInt(p.header.Info[attrTyp])
}

func (p *PMXParser) text() string {
	return p.readText(p.header.Info[AttrStringEncoding])
}

// readHeader reads the signature, version and globals. Returns false
// without an error if the stream is not a PMX 2.0 file.
func (p *PMXParser) readHeader() (bool, error) {
	format := make([]byte, 4)
	p.read(&format)
	if p.err != nil {
		return false, p.err
	}
	if string(format) != "PMX " {
		return false, nil
	}
	var version float32
	p.read(&version)
	if p.err != nil {
		return false, p.err
	}
	// 2.1 adds sections and weight types this parser does not understand.
	if version != 2.0 {
		return false, nil
	}
	h := &Header{Format: format, Version: version}
	h.Info = make([]byte, p.readUint8())
	p.read(&h.Info)
	if p.err != nil {
		return false, p.err
	}
	if len(h.Info) < 8 {
		return false, fmt.Errorf("%w: %d header globals", ErrFormat, len(h.Info))
	}
	p.header = h
	return true, nil
}

func (p *PMXParser) readVertex() *Vertex {
	v := &Vertex{Bones: [4]int{-1, -1, -1, -1}}
	p.read(&v.Pos)
	p.read(&v.Normal)
	p.read(&v.UV)
	for i := byte(0); i < p.header.Info[AttrExtUV]; i++ {
		p.readFloat()
	}
	v.WeightType = p.readUint8()
	if p.err != nil {
		return v
	}
	switch v.WeightType {
	case WeightBDEF1:
		v.Bones[0] = p.readIndex(AttrBoneIndexSz)
		v.Weights[0] = 1
	case WeightBDEF2:
		v.Bones[0] = p.readIndex(AttrBoneIndexSz)
		v.Bones[1] = p.readIndex(AttrBoneIndexSz)
		w := p.readFloat()
		v.Weights[0] = w
		v.Weights[1] = 1 - w
	case WeightBDEF4, WeightQDEF:
		for i := 0; i < 4; i++ {
			v.Bones[i] = p.readIndex(AttrBoneIndexSz)
		}
		for i := 0; i < 4; i++ {
			v.Weights[i] = p.readFloat()
		}
	case WeightSDEF:
		v.Bones[0] = p.readIndex(AttrBoneIndexSz)
		v.Bones[1] = p.readIndex(AttrBoneIndexSz)
		w := p.readFloat()
		v.Weights[0] = w
		v.Weights[1] = 1 - w
		var c, r0, r1 Vector3
		p.read(&c)
		p.read(&r0)
		p.read(&r1)
	default:
		p.fail(fmt.Errorf("%w: unknown weight type %d", ErrFormat, v.WeightType))
	}
	p.readFloat() // edge scale
	return v
}

func (p *PMXParser) readMaterial() *Material {
	var m Material
	p.text() // local name
	m.Name = p.text()
	p.read(&m.Diffuse)
	p.read(&m.Specular)
	p.read(&m.Specularity)
	p.read(&m.Ambient)
	p.read(&m.DrawingMode)
	p.read(&m.EdgeColor)
	p.read(&m.EdgeSize)
	m.TextureID = p.readIndex(AttrTexIndexSz)
	m.SphereID = p.readIndex(AttrTexIndexSz)
	p.read(&m.SphereMode)
	p.read(&m.ToonType)
	if m.ToonType == 0 {
		m.ToonID = p.readIndex(AttrTexIndexSz)
	} else {
		m.ToonID = int(int8(p.readUint8()))
	}
	m.Memo = p.text()
	m.FaceCount = p.readInt()
	return &m
}

func (p *PMXParser) readBone() *Bone {
	var b Bone
	b.NameLocal = p.text()
	b.Name = p.text()
	p.read(&b.Pos)
	b.ParentID = p.readIndex(AttrBoneIndexSz)
	b.Layer = p.readInt()
	p.read(&b.Flags)
	if p.err != nil {
		return &b
	}

	if b.Flags&BoneFlagTailIndex != 0 {
		b.TailID = p.readIndex(AttrBoneIndexSz)
	} else {
		b.TailID = -1
		p.read(&b.TailPos)
	}

	if b.Flags&(BoneFlagInheritRotation|BoneFlagInheritTranslation) != 0 {
		p.readIndex(AttrBoneIndexSz)
		p.readFloat() // influence
	}

	if b.Flags&BoneFlagFixedAxis != 0 {
		var axis Vector3
		p.read(&axis)
	}

	if b.Flags&BoneFlagLocalAxis != 0 {
		var xDir, zDir Vector3
		p.read(&xDir)
		p.read(&zDir)
		if p.err == nil {
			b.LocalAxis = localBasis(&xDir, &zDir)
		}
	}

	if b.Flags&BoneFlagExternalParent != 0 {
		p.readIndex(AttrBoneIndexSz)
	}

	if b.Flags&BoneFlagEnableIK != 0 {
		ik := &BoneIK{}
		ik.TargetID = p.readIndex(AttrBoneIndexSz)
		ik.Loop = p.readInt()
		ik.LimitRad = p.readFloat()
		links := p.readCount()
		for i := 0; i < links && p.err == nil; i++ {
			var l Link
			l.TargetID = p.readIndex(AttrBoneIndexSz)
			l.HasLimit = p.readUint8() != 0
			if l.HasLimit {
				p.read(&l.LimitMin)
				p.read(&l.LimitMax)
			}
			ik.Links = append(ik.Links, &l)
		}
		b.IK = ik
	}

	return &b
}

func (p *PMXParser) readMorph() *Morph {
	var m Morph
	m.NameLocal = p.text()
	m.Name = p.text()
	m.PanelType = p.readUint8()
	m.MorphType = p.readUint8()
	n := p.readCount()
	if p.err != nil {
		return &m
	}

	switch m.MorphType {
	case MorphTypeGroup, MorphTypeFlip:
		for i := 0; i < n && p.err == nil; i++ {
			m.Group = append(m.Group, &MorphGroup{
				Target: p.readIndex(AttrMorphIndexSz),
				Weight: p.readFloat(),
			})
		}
	case MorphTypeVertex:
		for i := 0; i < n && p.err == nil; i++ {
			var v MorphVertex
			v.Target = p.readUIndex(AttrVertIndexSz)
			p.read(&v.Offset)
			m.Vertex = append(m.Vertex, &v)
		}
	case MorphTypeBone:
		for i := 0; i < n && p.err == nil; i++ {
			var v MorphBone
			v.Target = p.readIndex(AttrBoneIndexSz)
			p.read(&v.Translation)
			p.read(&v.Rotation)
			m.Bone = append(m.Bone, &v)
		}
	case MorphTypeUV, MorphTypeUVA1, MorphTypeUVA2, MorphTypeUVA3, MorphTypeUVA4:
		for i := 0; i < n && p.err == nil; i++ {
			var v MorphUV
			v.Target = p.readUIndex(AttrVertIndexSz)
			p.read(&v.Value)
			m.UV = append(m.UV, &v)
		}
	case MorphTypeMaterial:
		for i := 0; i < n && p.err == nil; i++ {
			var v MorphMaterial
			v.Target = p.readIndex(AttrMatIndexSz)
			p.read(&v.CalcMode)
			p.read(&v.Diffuse)
			p.read(&v.Specular)
			p.read(&v.Specularity)
			p.read(&v.Ambient)
			p.read(&v.EdgeColor)
			p.read(&v.EdgeSize)
			p.read(&v.TextureTint)
			p.read(&v.EnvironmentTint)
			p.read(&v.ToonTint)
			m.Material = append(m.Material, &v)
		}
	case MorphTypeImpulse:
		for i := 0; i < n && p.err == nil; i++ {
			var v MorphImpulse
			v.Target = p.readIndex(AttrRBIndexSz)
			p.read(&v.Local)
			p.read(&v.Velocity)
			p.read(&v.Torque)
			m.Impulse = append(m.Impulse, &v)
		}
	default:
		p.fail(fmt.Errorf("%w: unknown morph type %d", ErrFormat, m.MorphType))
	}

	return &m
}

// localBasis derives an orthonormal right-handed basis from a bone's
// declared X and Z directions. The declared vectors need not be orthogonal;
// Z is recomputed from X and the derived Y to enforce it.
func localBasis(xDir, zDir *Vector3) *geom.Matrix3 {
	x := xDir.Vec3().Normalize()
	z := zDir.Vec3().Normalize()
	y := z.Cross(x)
	z = x.Cross(y)
	y.Normalize()
	z.Normalize()
	return geom.NewMatrix3FromRows(x, y, z)
}

// Parse model data. Returns (nil, nil) if the stream is not a PMX 2.0 file.
func (p *PMXParser) Parse() (*Document, error) {
	ok, err := p.readHeader()
	if err != nil || !ok {
		return nil, err
	}

	var doc Document
	doc.Header = p.header
	p.text() // local name
	doc.Name = p.text()
	p.text() // local comment
	doc.Comment = p.text()

	vn := p.readCount()
	for i := 0; i < vn && p.err == nil; i++ {
		doc.Vertexes = append(doc.Vertexes, p.readVertex())
	}

	fn := p.readCount()
	for i := 0; i < fn && p.err == nil; i++ {
		doc.Faces = append(doc.Faces, p.readUIndex(AttrVertIndexSz))
	}

	tn := p.readCount()
	for i := 0; i < tn && p.err == nil; i++ {
		doc.Textures = append(doc.Textures, p.text())
	}

	mn := p.readCount()
	for i := 0; i < mn && p.err == nil; i++ {
		doc.Materials = append(doc.Materials, p.readMaterial())
	}

	bn := p.readCount()
	for i := 0; i < bn && p.err == nil; i++ {
		doc.Bones = append(doc.Bones, p.readBone())
	}

	pn := p.readCount()
	for i := 0; i < pn && p.err == nil; i++ {
		doc.Morphs = append(doc.Morphs, p.readMorph())
	}

	if p.err != nil {
		return nil, p.err
	}
	return &doc, nil
}
