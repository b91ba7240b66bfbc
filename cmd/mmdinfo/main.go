package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/mmdload/converter"
	"github.com/binzume/mmdload/mmd"
	"github.com/qmuntal/gltf"
	"gopkg.in/yaml.v2"
)

type materialSummary struct {
	Name      string  `yaml:"name"`
	Texture   string  `yaml:"texture,omitempty"`
	Alpha     float32 `yaml:"alpha"`
	FaceCount int     `yaml:"faceCount"`
}

type boneSummary struct {
	Name   string `yaml:"name"`
	Parent int    `yaml:"parent"`
	IK     bool   `yaml:"ik,omitempty"`
}

type modelSummary struct {
	Name      string            `yaml:"name"`
	Comment   string            `yaml:"comment,omitempty"`
	Vertexes  int               `yaml:"vertexes"`
	Triangles int               `yaml:"triangles"`
	Textures  []string          `yaml:"textures,omitempty"`
	Materials []materialSummary `yaml:"materials,omitempty"`
	Bones     []boneSummary     `yaml:"bones,omitempty"`
	Morphs    []string          `yaml:"morphs,omitempty"`
}

type animationSummary struct {
	Model        string `yaml:"model"`
	BoneSamples  int    `yaml:"boneSamples"`
	MorphSamples int    `yaml:"morphSamples"`
	Cameras      int    `yaml:"cameras"`
	Lights       int    `yaml:"lights"`
	MaxFrame     uint32 `yaml:"maxFrame"`
}

func summarizeModel(doc *mmd.Document) *modelSummary {
	s := &modelSummary{
		Name:      doc.Name,
		Comment:   doc.Comment,
		Vertexes:  len(doc.Vertexes),
		Triangles: len(doc.Faces) / 3,
		Textures:  doc.Textures,
	}
	for _, m := range doc.Materials {
		ms := materialSummary{Name: m.Name, Alpha: m.Diffuse.W, FaceCount: m.FaceCount}
		if m.TextureID >= 0 && m.TextureID < len(doc.Textures) {
			ms.Texture = doc.Textures[m.TextureID]
		}
		s.Materials = append(s.Materials, ms)
	}
	for _, b := range doc.Bones {
		s.Bones = append(s.Bones, boneSummary{Name: b.Name, Parent: b.ParentID, IK: b.IK != nil})
	}
	for _, m := range doc.Morphs {
		s.Morphs = append(s.Morphs, m.Name)
	}
	return s
}

func summarizeAnimation(anim *mmd.Animation) *animationSummary {
	s := &animationSummary{
		Model:        anim.ModelName(),
		BoneSamples:  len(anim.Bone),
		MorphSamples: len(anim.Morph),
		Cameras:      len(anim.Camera),
		Lights:       len(anim.Light),
	}
	// tracks are sorted, so the last sample of each holds its max frame
	if n := len(anim.Bone); n > 0 && anim.Bone[n-1].Frame > s.MaxFrame {
		s.MaxFrame = anim.Bone[n-1].Frame
	}
	if n := len(anim.Morph); n > 0 && anim.Morph[n-1].Frame > s.MaxFrame {
		s.MaxFrame = anim.Morph[n-1].Frame
	}
	if n := len(anim.Camera); n > 0 && anim.Camera[n-1].Frame > s.MaxFrame {
		s.MaxFrame = anim.Camera[n-1].Frame
	}
	if n := len(anim.Light); n > 0 && anim.Light[n-1].Frame > s.MaxFrame {
		s.MaxFrame = anim.Light[n-1].Frame
	}
	return s
}

func printYAML(v interface{}) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s input.pmx|input.vmd\n", os.Args[0])
		flag.PrintDefaults()
	}
	glb := flag.String("gltf", "", "export model as .glb")
	scale := flag.Float64("scale", 0, "0:default (0.08)")
	unlit := flag.Bool("gltfunlit", false, "unlit all materials")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return
	}
	input := flag.Arg(0)

	switch strings.ToLower(filepath.Ext(input)) {
	case ".vmd":
		anim, err := mmd.LoadAnimation(input)
		if err != nil {
			log.Fatal(err)
		}
		if anim == nil {
			log.Fatal("not a VMD file: ", input)
		}
		if err := printYAML(summarizeAnimation(anim)); err != nil {
			log.Fatal(err)
		}
	default:
		doc, err := mmd.LoadModel(input)
		if err != nil {
			log.Fatal(err)
		}
		if doc == nil {
			log.Fatal("not a PMX 2.0 file: ", input)
		}
		if err := printYAML(summarizeModel(doc)); err != nil {
			log.Fatal(err)
		}
		if *glb != "" {
			conv := converter.NewMMDToGLTFConverter(&converter.MMDToGLTFOption{
				Scale:      float32(*scale),
				ForceUnlit: *unlit,
			})
			gltfdoc, err := conv.Convert(doc, filepath.Dir(input))
			if err != nil {
				log.Fatal(err)
			}
			if err := gltf.SaveBinary(gltfdoc, *glb); err != nil {
				log.Fatal(err)
			}
			log.Println("saved: ", *glb)
		}
	}
}
