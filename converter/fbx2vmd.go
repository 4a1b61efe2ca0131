package converter

import (
	"bytes"
	"math"
	"sort"

	"github.com/AmyangXYZ/Mixamo-MMD/fbx"
	"github.com/AmyangXYZ/Mixamo-MMD/geom"
	"github.com/AmyangXYZ/Mixamo-MMD/mmd"
)

// DefaultFPS is the destination frame rate.
const DefaultFPS = 30

// Load parses an FBX binary and extracts its animation clips.
func Load(data []byte) ([]*Clip, error) {
	doc, err := fbx.ParseBytes(data)
	if err != nil {
		return nil, err
	}
	return ExtractClips(doc), nil
}

type FBXToVMDOption struct {
	FPS       float64
	ModelName string
	Retarget  *RetargetOption
}

// FBXToVMDConverter converts Mixamo FBX animations to MMD VMD motions.
type FBXToVMDConverter struct {
	options    *FBXToVMDOption
	retargeter *Retargeter
}

func NewFBXToVMDConverter(options *FBXToVMDOption) *FBXToVMDConverter {
	if options == nil {
		options = &FBXToVMDOption{}
	}
	if options.FPS == 0 {
		options.FPS = DefaultFPS
	}
	return &FBXToVMDConverter{
		options:    options,
		retargeter: NewRetargeter(options.Retarget),
	}
}

// Convert runs the full pipeline on a parsed document. A document without
// animation stacks yields a motion with no bone frames.
func (c *FBXToVMDConverter) Convert(doc *fbx.Document) (*mmd.Animation, error) {
	clips := ExtractClips(doc)
	if len(clips) == 0 {
		return &mmd.Animation{Name: c.options.ModelName}, nil
	}
	retargeted := c.retargeter.Retarget(clips[0])
	anim := ClipToAnimation(retargeted, c.options.FPS)
	anim.Name = c.options.ModelName
	return anim, nil
}

// ConvertBytes converts raw FBX bytes into a VMD blob.
func (c *FBXToVMDConverter) ConvertBytes(data []byte) ([]byte, error) {
	doc, err := fbx.ParseBytes(data)
	if err != nil {
		return nil, err
	}
	anim, err := c.Convert(doc)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := mmd.WriteVMD(anim, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteVMD encodes one retargeted clip at the given frame rate.
func WriteVMD(clip *RetargetClip, fps float64) ([]byte, error) {
	if fps == 0 {
		fps = DefaultFPS
	}
	var buf bytes.Buffer
	if err := mmd.WriteVMD(ClipToAnimation(clip, fps), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ClipToAnimation assigns frame indices and fills each bone's keyframes.
// A bone keyed only on one of rotation/position gets the other interpolated
// from its own track, or the identity/zero default.
func ClipToAnimation(clip *RetargetClip, fps float64) *mmd.Animation {
	rotations := map[string]*RetargetTrack{}
	positions := map[string]*RetargetPositionTrack{}
	var boneOrder []string
	for _, tr := range clip.Rotations {
		if _, ok := rotations[tr.Name]; !ok {
			rotations[tr.Name] = tr
			if _, dup := positions[tr.Name]; !dup {
				boneOrder = append(boneOrder, tr.Name)
			}
		}
	}
	for _, tr := range clip.Positions {
		if _, ok := positions[tr.Name]; !ok {
			positions[tr.Name] = tr
			if _, dup := rotations[tr.Name]; !dup {
				boneOrder = append(boneOrder, tr.Name)
			}
		}
	}

	anim := &mmd.Animation{Property: []*mmd.AnimationPropertySample{mmd.DefaultPropertySample()}}
	for _, bone := range boneOrder {
		rot := rotations[bone]
		pos := positions[bone]
		for _, t := range unionTimes(rot, pos) {
			sample := &mmd.AnimationBoneSample{
				Target: bone,
				Frame:  int(math.Round(t * fps)),
			}
			q := sampleRotation(rot, t)
			sample.Rotation = mmd.Vector4{X: float32(q.X), Y: float32(q.Y), Z: float32(q.Z), W: float32(q.W)}
			v := samplePosition(pos, t)
			sample.Position = mmd.Vector3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
			for i := range sample.Params {
				sample.Params[i] = 20
			}
			anim.Bone = append(anim.Bone, sample)
		}
	}
	sort.SliceStable(anim.Bone, func(i, j int) bool {
		if anim.Bone[i].Frame != anim.Bone[j].Frame {
			return anim.Bone[i].Frame < anim.Bone[j].Frame
		}
		return anim.Bone[i].Target < anim.Bone[j].Target
	})
	return anim
}

func unionTimes(rot *RetargetTrack, pos *RetargetPositionTrack) []float64 {
	seen := map[float64]bool{}
	var times []float64
	add := func(tt []float64) {
		for _, t := range tt {
			if !seen[t] {
				seen[t] = true
				times = append(times, t)
			}
		}
	}
	if rot != nil {
		add(rot.Times)
	}
	if pos != nil {
		add(pos.Times)
	}
	sort.Float64s(times)
	return times
}

func sampleRotation(track *RetargetTrack, t float64) *geom.Quaternion {
	if track == nil || len(track.Times) == 0 {
		return geom.NewQuaternion(0, 0, 0, 1)
	}
	i := sort.SearchFloat64s(track.Times, t)
	if i < len(track.Times) && track.Times[i] == t {
		return track.Rotations[i]
	}
	if i == 0 {
		return track.Rotations[0]
	}
	if i == len(track.Times) {
		return track.Rotations[len(track.Rotations)-1]
	}
	f := (t - track.Times[i-1]) / (track.Times[i] - track.Times[i-1])
	return geom.Slerp(track.Rotations[i-1], track.Rotations[i], f)
}

func samplePosition(track *RetargetPositionTrack, t float64) *geom.Vector3 {
	if track == nil || len(track.Times) == 0 {
		return &geom.Vector3{}
	}
	i := sort.SearchFloat64s(track.Times, t)
	if i < len(track.Times) && track.Times[i] == t {
		return track.Positions[i]
	}
	if i == 0 {
		return track.Positions[0]
	}
	if i == len(track.Times) {
		return track.Positions[len(track.Positions)-1]
	}
	f := (t - track.Times[i-1]) / (track.Times[i] - track.Times[i-1])
	a, b := track.Positions[i-1], track.Positions[i]
	return a.Add(b.Sub(a).Scale(f))
}
