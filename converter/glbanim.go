package converter

import (
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ClipToGLTF builds a minimal glTF document from an extracted clip: one node
// per animated bone wired up through the parent map, plus linear animation
// channels. Useful for previewing the extraction in standard viewers before
// the retarget stage.
func ClipToGLTF(clip *Clip) *gltf.Document {
	doc := gltf.NewDocument()
	a := &gltf.Animation{Name: clip.Name}

	nodeIndex := map[string]int{}
	var boneOrder []string
	addNode := func(bone string) int {
		if n, ok := nodeIndex[bone]; ok {
			return n
		}
		boneOrder = append(boneOrder, bone)
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        bone,
			Translation: [3]float32{0, 0, 0},
			Rotation:    [4]float32{0, 0, 0, 1},
		})
		n := len(doc.Nodes) - 1
		nodeIndex[bone] = n
		return n
	}
	for _, tr := range clip.Rotations {
		addNode(StripBonePrefix(tr.Bone))
	}
	for _, tr := range clip.Positions {
		addNode(StripBonePrefix(tr.Bone))
	}

	for _, bone := range boneOrder {
		n := nodeIndex[bone]
		if parent, ok := clip.Parents[bone]; ok {
			if pn, ok := nodeIndex[parent]; ok {
				doc.Nodes[pn].Children = append(doc.Nodes[pn].Children, uint32(n))
				continue
			}
		}
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(n))
	}

	for _, tr := range clip.Rotations {
		keysAcc := writeKeys(doc, tr.Times)
		rotations := make([][4]float32, len(tr.Rotations))
		for i, q := range tr.Rotations {
			rotations[i] = [4]float32{float32(q.X), float32(q.Y), float32(q.Z), float32(q.W)}
		}
		samplesAcc := modeler.WriteTangent(doc, rotations)
		a.Samplers = append(a.Samplers, &gltf.AnimationSampler{
			Input:         gltf.Index(keysAcc),
			Output:        gltf.Index(samplesAcc),
			Interpolation: gltf.InterpolationLinear,
		})
		a.Channels = append(a.Channels, &gltf.Channel{
			Sampler: gltf.Index(uint32(len(a.Samplers) - 1)),
			Target: gltf.ChannelTarget{
				Node: gltf.Index(uint32(nodeIndex[StripBonePrefix(tr.Bone)])),
				Path: gltf.TRSRotation,
			},
		})
	}

	for _, tr := range clip.Positions {
		keysAcc := writeKeys(doc, tr.Times)
		translations := make([][3]float32, len(tr.Positions))
		for i, v := range tr.Positions {
			translations[i] = [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
		}
		samplesAcc := modeler.WritePosition(doc, translations)
		a.Samplers = append(a.Samplers, &gltf.AnimationSampler{
			Input:         gltf.Index(keysAcc),
			Output:        gltf.Index(samplesAcc),
			Interpolation: gltf.InterpolationLinear,
		})
		a.Channels = append(a.Channels, &gltf.Channel{
			Sampler: gltf.Index(uint32(len(a.Samplers) - 1)),
			Target: gltf.ChannelTarget{
				Node: gltf.Index(uint32(nodeIndex[StripBonePrefix(tr.Bone)])),
				Path: gltf.TRSTranslation,
			},
		})
	}

	if len(a.Channels) > 0 {
		doc.Animations = append(doc.Animations, a)
	}
	return doc
}

func writeKeys(doc *gltf.Document, times []float64) uint32 {
	keys := make([]float32, len(times))
	for i, t := range times {
		keys[i] = float32(t)
	}
	return modeler.WriteAccessor(doc, gltf.TargetArrayBuffer, keys)
}
