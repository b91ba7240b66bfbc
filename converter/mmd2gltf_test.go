package converter

import (
	"testing"

	"github.com/binzume/mmdload/mmd"
	"github.com/qmuntal/gltf"
)

func testDocument() *mmd.Document {
	return &mmd.Document{
		Name: "test",
		Vertexes: []*mmd.Vertex{
			{Pos: mmd.Vector3{X: 0, Y: 0, Z: 0}, Normal: mmd.Vector3{X: 0, Y: 1, Z: 0}, Bones: [4]int{0, -1, -1, -1}, Weights: [4]float32{1, 0, 0, 0}},
			{Pos: mmd.Vector3{X: 1, Y: 0, Z: 0}, Normal: mmd.Vector3{X: 0, Y: 1, Z: 0}, Bones: [4]int{0, 1, -1, -1}, Weights: [4]float32{0.25, 0.75, 0, 0}},
			{Pos: mmd.Vector3{X: 0, Y: 0, Z: 1}, Normal: mmd.Vector3{X: 0, Y: 1, Z: 0}, Bones: [4]int{0, -1, -1, -1}, Weights: [4]float32{1, 0, 0, 0}},
			{Pos: mmd.Vector3{X: 1, Y: 0, Z: 1}, Normal: mmd.Vector3{X: 0, Y: 1, Z: 0}, Bones: [4]int{1, -1, -1, -1}, Weights: [4]float32{1, 0, 0, 0}},
		},
		Faces: []int{0, 1, 2, 1, 3, 2},
		Materials: []*mmd.Material{
			{Name: "a", Diffuse: mmd.Vector4{X: 1, Y: 1, Z: 1, W: 1}, TextureID: -1, FaceCount: 3},
			{Name: "b", Diffuse: mmd.Vector4{X: 1, Y: 0, Z: 0, W: 0.5}, TextureID: -1, FaceCount: 3},
		},
		Bones: []*mmd.Bone{
			{Name: "root", ParentID: -1},
			{Name: "child", ParentID: 0, Pos: mmd.Vector3{X: 0, Y: 1, Z: 0}},
		},
	}
}

func TestConvert(t *testing.T) {
	conv := NewMMDToGLTFConverter(nil)
	doc, err := conv.Convert(testDocument(), ".")
	if err != nil {
		t.Fatal(err)
	}

	if len(doc.Materials) != 2 {
		t.Errorf("materials = %d", len(doc.Materials))
	}
	if doc.Materials[1].AlphaMode != gltf.AlphaBlend {
		t.Errorf("translucent material AlphaMode = %q", doc.Materials[1].AlphaMode)
	}
	if len(doc.Meshes) != 1 || len(doc.Meshes[0].Primitives) != 2 {
		t.Fatalf("meshes = %+v", doc.Meshes)
	}
	// 2 bone nodes + 1 mesh node
	if len(doc.Nodes) != 3 {
		t.Errorf("nodes = %d", len(doc.Nodes))
	}
	if len(doc.Skins) != 1 || len(doc.Skins[0].Joints) != 2 {
		t.Errorf("skins = %+v", doc.Skins)
	}
	if doc.Meshes[0].Primitives[0].Material == nil || *doc.Meshes[0].Primitives[0].Material != 0 {
		t.Errorf("primitive 0 material = %v", doc.Meshes[0].Primitives[0].Material)
	}
}

func TestConvertBadFaceCount(t *testing.T) {
	d := testDocument()
	d.Faces = d.Faces[:5]
	if _, err := NewMMDToGLTFConverter(nil).Convert(d, "."); err == nil {
		t.Error("expected error for non-triangle face list")
	}
}
