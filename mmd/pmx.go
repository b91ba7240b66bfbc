package mmd

import "github.com/binzume/mmdload/geom"

type Vector2 struct {
	X float32
	Y float32
}

type Vector3 struct {
	X float32
	Y float32
	Z float32
}

type Vector4 struct {
	X float32
	Y float32
	Z float32
	W float32
}

func (v *Vector3) Vec3() *geom.Vector3 {
	return &geom.Vector3{X: v.X, Y: v.Y, Z: v.Z}
}

// Document is a parsed PMX model. The format stores two names for most
// entities (Japanese and global); the document keeps the global copy for
// the model name, comment and materials, and both copies for bones and
// morphs.
type Document struct {
	Header    *Header
	Name      string
	Comment   string
	Vertexes  []*Vertex
	Faces     []int // flat vertex-index list; every 3 entries form a triangle
	Textures  []string
	Materials []*Material
	Bones     []*Bone
	Morphs    []*Morph
}

type Header struct {
	Format  []byte
	Version float32
	Info    []byte
}

// Header.Info globals.
const (
	AttrStringEncoding int = iota
	AttrExtUV
	AttrVertIndexSz
	AttrTexIndexSz
	AttrMatIndexSz
	AttrBoneIndexSz
	AttrMorphIndexSz
	AttrRBIndexSz
)

// Vertex skinning layouts.
const (
	WeightBDEF1 byte = 0
	WeightBDEF2 byte = 1
	WeightBDEF4 byte = 2
	WeightSDEF  byte = 3
	WeightQDEF  byte = 4
)

// Vertex bone slots beyond the layout's weight count hold -1.
// BDEF4/QDEF weights are stored as-is and need not sum to 1.
type Vertex struct {
	Pos        Vector3
	Normal     Vector3
	UV         Vector2
	WeightType byte
	Bones      [4]int
	Weights    [4]float32
}

// Material drawing-mode bits.
const (
	MaterialFlagNoCull        byte = 1 << iota // double sided
	MaterialFlagGroundShadow
	MaterialFlagDrawShadow
	MaterialFlagReceiveShadow
	MaterialFlagHasEdge
	MaterialFlagVertexColor
	MaterialFlagPointDrawing
	MaterialFlagLineDrawing
)

type Material struct {
	Name        string
	Diffuse     Vector4
	Specular    Vector3
	Specularity float32
	Ambient     Vector3
	DrawingMode byte
	EdgeColor   Vector4
	EdgeSize    float32
	TextureID   int
	SphereID    int
	SphereMode  byte
	ToonType    byte
	ToonID      int
	Memo        string

	// FaceCount is the number of consecutive entries of Document.Faces
	// painted with this material. Materials partition the face list
	// contiguously and in order.
	FaceCount int
}

const (
	BoneFlagTailIndex          uint16 = 1
	BoneFlagRotatable          uint16 = 2
	BoneFlagTranslatable       uint16 = 4
	BoneFlagVisible            uint16 = 8
	BoneFlagEnabled            uint16 = 16
	BoneFlagEnableIK           uint16 = 32
	BoneFlagInheritRotation    uint16 = 256
	BoneFlagInheritTranslation uint16 = 512
	BoneFlagFixedAxis          uint16 = 1024
	BoneFlagLocalAxis          uint16 = 2048
	BoneFlagPhysicsMode        uint16 = 4096
	BoneFlagExternalParent     uint16 = 8192
)

type Link struct {
	TargetID int
	HasLimit bool
	LimitMin Vector3
	LimitMax Vector3
}

type BoneIK struct {
	TargetID int
	Loop     int
	LimitRad float32
	Links    []*Link
}

type Bone struct {
	Name      string // global name
	NameLocal string
	Pos       Vector3
	ParentID  int // -1 = root
	Layer     int
	Flags     uint16

	// TailID if BoneFlagTailIndex is set, else TailPos (TailID = -1).
	TailID  int
	TailPos Vector3

	// LocalAxis is the orthonormal right-handed basis derived from the
	// bone's declared X/Z directions. Set only for BoneFlagLocalAxis.
	LocalAxis *geom.Matrix3

	IK *BoneIK // set only for BoneFlagEnableIK
}

// Morph variant discriminants.
const (
	MorphTypeGroup    byte = 0
	MorphTypeVertex   byte = 1
	MorphTypeBone     byte = 2
	MorphTypeUV       byte = 3
	MorphTypeUVA1     byte = 4
	MorphTypeUVA2     byte = 5
	MorphTypeUVA3     byte = 6
	MorphTypeUVA4     byte = 7
	MorphTypeMaterial byte = 8
	MorphTypeFlip     byte = 9
	MorphTypeImpulse  byte = 10
)

type MorphGroup struct {
	Target int // morph index
	Weight float32
}

type MorphVertex struct {
	Target int // vertex index
	Offset Vector3
}

type MorphBone struct {
	Target      int // bone index
	Translation Vector3
	Rotation    Vector4
}

type MorphUV struct {
	Target int // vertex index
	Value  Vector4
}

type MorphMaterial struct {
	Target int // material index, -1 = all

	CalcMode        byte // 0: multiply, 1: add
	Diffuse         Vector4
	Specular        Vector3
	Specularity     float32
	Ambient         Vector3
	EdgeColor       Vector4
	EdgeSize        float32
	TextureTint     Vector4
	EnvironmentTint Vector4
	ToonTint        Vector4
}

type MorphImpulse struct {
	Target   int // rigid-body index
	Local    byte
	Velocity Vector3
	Torque   Vector3
}

type Morph struct {
	Name      string // global name
	NameLocal string
	PanelType byte
	MorphType byte

	// oneof, selected by MorphType. Group holds Group and Flip elements,
	// UV holds UV and UVA1-4 elements.
	Group    []*MorphGroup
	Vertex   []*MorphVertex
	Bone     []*MorphBone
	UV       []*MorphUV
	Material []*MorphMaterial
	Impulse  []*MorphImpulse
}
