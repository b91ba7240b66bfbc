package converter

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/mmdload/mmd"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	_ "image/gif"

	"github.com/blezek/tga"
	_ "github.com/oov/psd"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

type MMDToGLTFOption struct {
	Scale      float32 // Default: 0.08 (MMD units to meters)
	ForceUnlit bool

	TextureReCompress      bool
	TextureBytesThreshold  int64 // 0: unlimited
	TextureResolutionLimit int   // 0: unlimited
	TextureScale           float32
}

type mmdToGltf struct {
	*MMDToGLTFOption
	*gltf.Document
}

func NewMMDToGLTFConverter(options *MMDToGLTFOption) *mmdToGltf {
	if options == nil {
		options = &MMDToGLTFOption{}
	}
	if options.Scale == 0 {
		options.Scale = 0.08
	}
	if options.TextureScale == 0 {
		options.TextureScale = 1.0
	}
	return &mmdToGltf{
		MMDToGLTFOption: options,
		Document:        gltf.NewDocument(),
	}
}

type textureCache struct {
	srcDir   string
	textures map[string]*textureInfo
}

type textureInfo struct {
	name string
	id   *uint32
	img  image.Image
	err  error
}

func (c *textureCache) get(name string) *textureInfo {
	if t, ok := c.textures[name]; ok {
		return t
	}
	t := &textureInfo{name: name}
	c.textures[name] = t
	return t
}

func (c *textureCache) getImage(name string) (image.Image, error) {
	t := c.get(name)
	if t.img != nil || t.err != nil {
		return t.img, t.err
	}

	f, err := os.Open(filepath.Join(c.srcDir, t.name))
	if err != nil {
		t.err = err
		return nil, err
	}
	defer f.Close()

	t.img, _, t.err = image.Decode(f)
	if t.err != nil && strings.ToLower(filepath.Ext(t.name)) == ".tga" {
		// retry
		f.Seek(0, io.SeekStart)
		t.img, t.err = tga.Decode(f)
	}
	return t.img, t.err
}

func (m *mmdToGltf) hasAlpha(texture string, textures *textureCache) bool {
	if texture == "" || strings.HasSuffix(texture, ".jpg") || strings.HasSuffix(texture, ".bmp") {
		return false
	}
	img, err := textures.getImage(texture)
	if err != nil {
		return false
	}
	switch img.ColorModel() {
	case color.YCbCrModel, color.CMYKModel:
		return false
	case color.RGBAModel:
		return !img.(*image.RGBA).Opaque()
	}
	return false
}

func scaleTexture(texture string, mime string, textures *textureCache, scale float32, limit int) (io.Reader, error) {
	img, err := textures.getImage(texture)
	if err != nil {
		return nil, err
	}
	rect := img.Bounds()

	if limit > 0 {
		sz := int(float32(rect.Dx()) * scale)
		if sz > limit {
			scale *= float32(limit) / float32(sz)
		}
	}

	if scale != 1.0 {
		dst := image.NewRGBA(image.Rect(0, 0, int(float32(rect.Dx())*scale), int(float32(rect.Dy())*scale)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, rect, draw.Over, nil)
		img = dst
	}

	w := new(bytes.Buffer)
	if mime == "image/png" {
		err = png.Encode(w, img)
	} else {
		err = jpeg.Encode(w, img, nil)
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (m *mmdToGltf) addTexture(texture string, textures *textureCache) (*uint32, error) {
	t := textures.get(texture)
	if t.id != nil {
		return t.id, nil
	}
	ext := strings.ToLower(filepath.Ext(texture))

	encode := m.TextureReCompress
	if m.TextureBytesThreshold > 0 {
		stat, err := os.Stat(filepath.Join(textures.srcDir, texture))
		if err != nil {
			return nil, err
		}
		if stat.Size() > m.TextureBytesThreshold {
			encode = true
		}
	}

	var mimeType string
	if ext == ".jpg" || ext == ".jpeg" {
		mimeType = "image/jpeg"
	} else if ext == ".png" {
		mimeType = "image/png"
	} else {
		mimeType = "image/png"
		encode = true
	}

	var r io.Reader
	if encode {
		r2, err := scaleTexture(texture, mimeType, textures, m.TextureScale, m.TextureResolutionLimit)
		if err != nil {
			return nil, err
		}
		r = r2
	} else {
		f, err := os.Open(filepath.Join(textures.srcDir, texture))
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	img, err := modeler.WriteImage(m.Document, filepath.Base(texture), mimeType, r)
	if err != nil {
		return nil, err
	}
	m.Buffers[0].ByteLength = uint32(len(m.Buffers[0].Data)) // avoid AddImage bug
	m.Textures = append(m.Textures,
		&gltf.Texture{Sampler: gltf.Index(0), Source: gltf.Index(img)})

	t.id = gltf.Index(uint32(len(m.Textures)) - 1)

	return t.id, nil
}

func (m *mmdToGltf) convertMaterial(mat *mmd.Material, doc *mmd.Document, textures *textureCache) *gltf.Material {
	var unlitMaterialExt = "KHR_materials_unlit"
	var rf float32 = 0.9
	var mf float32 = 0
	mm := &gltf.Material{
		Name: mat.Name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{mat.Diffuse.X, mat.Diffuse.Y, mat.Diffuse.Z, mat.Diffuse.W},
			RoughnessFactor: &rf,
			MetallicFactor:  &mf,
		},
		DoubleSided: mat.DrawingMode&mmd.MaterialFlagNoCull != 0,
	}

	texture := ""
	if mat.TextureID >= 0 && mat.TextureID < len(doc.Textures) {
		texture = doc.Textures[mat.TextureID]
	}
	if mat.Diffuse.W < 0.99 || m.hasAlpha(texture, textures) {
		mm.AlphaMode = gltf.AlphaBlend
	}
	if m.ForceUnlit {
		mm.Extensions = map[string]interface{}{unlitMaterialExt: map[string]string{}}
	}

	if texture != "" {
		if tex, err := m.addTexture(texture, textures); err == nil {
			mm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{
				Index: *tex,
			}
		} else {
			log.Print("Texture read error:", err)
		}
	}
	return mm
}

func (m *mmdToGltf) addBoneNodes(doc *mmd.Document) []uint32 {
	scale := m.Scale
	base := uint32(len(m.Nodes))
	joints := make([]uint32, len(doc.Bones))
	for i, b := range doc.Bones {
		joints[i] = base + uint32(i)
		m.Nodes = append(m.Nodes, &gltf.Node{Name: b.Name, Rotation: [4]float32{0, 0, 0, 1}})
	}
	for i, b := range doc.Bones {
		node := m.Nodes[joints[i]]
		if b.ParentID >= 0 && b.ParentID < len(doc.Bones) {
			parent := doc.Bones[b.ParentID]
			node.Translation[0] = (b.Pos.X - parent.Pos.X) * scale
			node.Translation[1] = (b.Pos.Y - parent.Pos.Y) * scale
			node.Translation[2] = (b.Pos.Z - parent.Pos.Z) * -scale
			parentNode := m.Nodes[joints[b.ParentID]]
			parentNode.Children = append(parentNode.Children, joints[i])
		} else {
			node.Translation[0] = b.Pos.X * scale
			node.Translation[1] = b.Pos.Y * scale
			node.Translation[2] = b.Pos.Z * -scale
			m.Scenes[0].Nodes = append(m.Scenes[0].Nodes, joints[i])
		}
	}
	return joints
}

func (m *mmdToGltf) addMatrices(mat [][4][4]float32) uint32 {
	a := make([][4]float32, len(mat)*4)
	for i, mi := range mat {
		a[i*4+0] = mi[0]
		a[i*4+1] = mi[1]
		a[i*4+2] = mi[2]
		a[i*4+3] = mi[3]
	}
	acc := modeler.WriteTangent(m.Document, a)
	m.Accessors[acc].Type = gltf.AccessorMat4
	m.Accessors[acc].Count /= 4
	m.BufferViews[*m.Accessors[acc].BufferView].ByteStride *= 4
	return acc
}

func (m *mmdToGltf) addSkin(doc *mmd.Document, joints []uint32) uint32 {
	invmats := make([][4][4]float32, len(joints))
	scale := m.Scale
	for i := range joints {
		b := doc.Bones[i]
		invmats[i] = [4][4]float32{
			{1, 0, 0, 0},
			{0, 1, 0, 0},
			{0, 0, 1, 0},
			{-b.Pos.X * scale, -b.Pos.Y * scale, b.Pos.Z * scale, 1},
		}
	}
	m.Skins = append(m.Skins, &gltf.Skin{
		Joints:              joints,
		InverseBindMatrices: gltf.Index(m.addMatrices(invmats)),
	})
	return uint32(len(m.Skins) - 1)
}

func (m *mmdToGltf) getWeights(doc *mmd.Document) ([][4]uint16, [][4]float32) {
	joints := make([][4]uint16, len(doc.Vertexes))
	weights := make([][4]float32, len(doc.Vertexes))
	for i, v := range doc.Vertexes {
		var sum float32
		for j := 0; j < 4; j++ {
			if v.Bones[j] >= 0 && v.Weights[j] > 0 {
				joints[i][j] = uint16(v.Bones[j])
				weights[i][j] = v.Weights[j]
				sum += v.Weights[j]
			}
		}
		// BDEF4/QDEF weights are stored unnormalized in the file.
		if sum > 0 && sum != 1 {
			for j := range weights[i] {
				weights[i][j] /= sum
			}
		}
	}
	return joints, weights
}

// ConvertMesh writes the vertex attributes and one primitive per material,
// using each material's face count to partition the shared face list.
func (m *mmdToGltf) ConvertMesh(doc *mmd.Document) *gltf.Mesh {
	scale := m.Scale
	positions := make([][3]float32, len(doc.Vertexes))
	normals := make([][3]float32, len(doc.Vertexes))
	texcoords := make([][2]float32, len(doc.Vertexes))
	for i, v := range doc.Vertexes {
		// MMD is left-handed; flip Z.
		positions[i] = [3]float32{v.Pos.X * scale, v.Pos.Y * scale, v.Pos.Z * -scale}
		normals[i] = [3]float32{v.Normal.X, v.Normal.Y, v.Normal.Z * -1}
		texcoords[i] = [2]float32{v.UV.X, v.UV.Y}
	}

	attributes := map[string]uint32{
		"POSITION":   modeler.WritePosition(m.Document, positions),
		"NORMAL":     modeler.WriteNormal(m.Document, normals),
		"TEXCOORD_0": modeler.WriteTextureCoord(m.Document, texcoords),
	}
	if len(doc.Bones) > 0 {
		j, w := m.getWeights(doc)
		attributes["JOINTS_0"] = modeler.WriteJoints(m.Document, j)
		attributes["WEIGHTS_0"] = modeler.WriteWeights(m.Document, w)
	}

	var primitives []*gltf.Primitive
	offset := 0
	for matIdx, mat := range doc.Materials {
		count := mat.FaceCount
		if offset+count > len(doc.Faces) {
			count = len(doc.Faces) - offset
		}
		indices := make([]uint32, 0, count)
		// flipped Z reverses the winding
		for i := offset; i+2 < offset+count; i += 3 {
			indices = append(indices, uint32(doc.Faces[i]), uint32(doc.Faces[i+2]), uint32(doc.Faces[i+1]))
		}
		offset += count
		primitives = append(primitives, &gltf.Primitive{
			Indices:    gltf.Index(modeler.WriteIndices(m.Document, indices)),
			Attributes: attributes,
			Material:   gltf.Index(uint32(matIdx)),
		})
	}

	return &gltf.Mesh{Name: doc.Name, Primitives: primitives}
}

// Convert builds a glTF document from a parsed model. textureDir is the
// directory the model's texture paths are relative to.
func (m *mmdToGltf) Convert(doc *mmd.Document, textureDir string) (*gltf.Document, error) {
	if len(doc.Faces)%3 != 0 {
		return nil, fmt.Errorf("face index count %d is not a multiple of 3", len(doc.Faces))
	}

	textures := &textureCache{srcDir: textureDir, textures: map[string]*textureInfo{}}
	for _, mat := range doc.Materials {
		m.Document.Materials = append(m.Document.Materials, m.convertMaterial(mat, doc, textures))
	}
	if len(m.Textures) > 0 {
		m.Document.Samplers = []*gltf.Sampler{{}}
	}

	joints := m.addBoneNodes(doc)

	meshNode := &gltf.Node{Name: doc.Name, Mesh: gltf.Index(uint32(len(m.Meshes)))}
	m.Meshes = append(m.Meshes, m.ConvertMesh(doc))
	if len(joints) > 0 {
		meshNode.Skin = gltf.Index(m.addSkin(doc, joints))
	}
	m.Nodes = append(m.Nodes, meshNode)
	m.Scenes[0].Nodes = append(m.Scenes[0].Nodes, uint32(len(m.Nodes)-1))

	return m.Document, nil
}
