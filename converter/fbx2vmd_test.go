package converter

import (
	"bytes"
	"math"
	"testing"

	"github.com/AmyangXYZ/Mixamo-MMD/geom"
	"github.com/AmyangXYZ/Mixamo-MMD/mmd"
)

func TestClipToAnimationFrames(t *testing.T) {
	clip := &RetargetClip{
		Name:     "idle",
		Duration: 1,
		Rotations: []*RetargetTrack{{
			Name:  "センター",
			Times: []float64{0, 1},
			Rotations: []*geom.Quaternion{
				geom.NewQuaternion(0, 0, 0, -1),
				geom.NewQuaternion(0, 0, 0, -1),
			},
		}},
	}
	anim := ClipToAnimation(clip, 30)
	if len(anim.Bone) != 2 {
		t.Fatal("samples: ", len(anim.Bone))
	}
	if anim.Bone[0].Frame != 0 || anim.Bone[1].Frame != 30 {
		t.Error("frames: ", anim.Bone[0].Frame, anim.Bone[1].Frame)
	}
	for _, s := range anim.Bone {
		if s.Position != (mmd.Vector3{}) {
			t.Error("rotation-only bone must have zero position: ", s.Position)
		}
		if s.Rotation != (mmd.Vector4{X: 0, Y: 0, Z: 0, W: -1}) {
			t.Error("rotation: ", s.Rotation)
		}
		for _, p := range s.Params {
			if p != 20 {
				t.Fatal("interpolation params")
			}
		}
	}
	if len(anim.Property) != 1 || len(anim.Property[0].IK) != 6 {
		t.Error("property keyframe missing")
	}
}

func TestClipToAnimationMixedTracks(t *testing.T) {
	clip := &RetargetClip{
		Rotations: []*RetargetTrack{{
			Name:  "センター",
			Times: []float64{0, 1},
			Rotations: []*geom.Quaternion{
				geom.NewQuaternion(0, 0, 0, 1),
				geom.NewRotationQuaternion(geom.NewVector3(1, 0, 0), math.Pi/2),
			},
		}},
		Positions: []*RetargetPositionTrack{{
			Name:      "センター",
			Times:     []float64{0.5},
			Positions: []*geom.Vector3{geom.NewVector3(1, 2, 3)},
		}},
	}
	anim := ClipToAnimation(clip, 30)
	if len(anim.Bone) != 3 {
		t.Fatal("union of rotation and position times: ", len(anim.Bone))
	}
	mid := anim.Bone[1]
	if mid.Frame != 15 {
		t.Fatal("mid frame: ", mid.Frame)
	}
	// rotation interpolated at the position-only key
	want := geom.NewRotationQuaternion(geom.NewVector3(1, 0, 0), math.Pi/4)
	if math.Abs(float64(mid.Rotation.X)-want.X) > 1e-6 || math.Abs(float64(mid.Rotation.W)-want.W) > 1e-6 {
		t.Error("slerped rotation: ", mid.Rotation)
	}
	if mid.Position != (mmd.Vector3{X: 1, Y: 2, Z: 3}) {
		t.Error("position: ", mid.Position)
	}
	// position clamps outside its own key range
	if anim.Bone[0].Position != (mmd.Vector3{X: 1, Y: 2, Z: 3}) || anim.Bone[2].Position != (mmd.Vector3{X: 1, Y: 2, Z: 3}) {
		t.Error("clamped positions: ", anim.Bone[0].Position, anim.Bone[2].Position)
	}
}

// Full pipeline: identity Hips clip in, 431-byte VMD (two bone frames) out.
func TestConvertIdentityPipeline(t *testing.T) {
	flat := axisData{seconds(0, 1), []float32{0, 0}}
	objects, connections := rotationObjects("mixamorig:Hips", flat, flat, flat)
	doc := animDoc(t, objects, connections)

	anim, err := NewFBXToVMDConverter(nil).Convert(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(anim.Bone) != 2 {
		t.Fatal("bone frames: ", len(anim.Bone))
	}
	for _, s := range anim.Bone {
		if s.Target != "センター" {
			t.Error("target: ", s.Target)
		}
		// identity rotation with the Z/W coordinate flip applied
		if s.Rotation != (mmd.Vector4{X: 0, Y: 0, Z: 0, W: -1}) {
			t.Error("rotation: ", s.Rotation)
		}
	}
	if anim.Bone[0].Frame != 0 || anim.Bone[1].Frame != 30 {
		t.Error("frames: ", anim.Bone[0].Frame, anim.Bone[1].Frame)
	}

	var buf bytes.Buffer
	if err := mmd.WriteVMD(anim, &buf); err != nil {
		t.Fatal(err)
	}
	if want := 50 + 4 + 111*2 + 4*4 + 4 + 135; buf.Len() != want {
		t.Errorf("blob size: %v != %v", buf.Len(), want)
	}
}

func TestConvertWithoutAnimation(t *testing.T) {
	doc := animDoc(t, nil, nil)
	anim, err := NewFBXToVMDConverter(&FBXToVMDOption{ModelName: "m"}).Convert(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(anim.Bone) != 0 {
		t.Error("unexpected bone frames")
	}
	var buf bytes.Buffer
	if err := mmd.WriteVMD(anim, &buf); err != nil {
		t.Fatal(err)
	}
	// even an empty motion carries the IK-disable property keyframe
	parsed, err := mmd.NewVMDParser(bytes.NewReader(buf.Bytes())).Parse()
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed.Property) != 1 || len(parsed.Property[0].IK) != 6 {
		t.Error("property keyframe: ", parsed.Property)
	}
}

func TestWriteVMDClip(t *testing.T) {
	clip := &RetargetClip{
		Rotations: []*RetargetTrack{{
			Name:      "頭",
			Times:     []float64{0},
			Rotations: []*geom.Quaternion{geom.NewQuaternion(0, 0, 0, -1)},
		}},
	}
	data, err := WriteVMD(clip, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 50+4+111+4*4+4+135 {
		t.Error("blob size: ", len(data))
	}
}

func TestVMDConfig(t *testing.T) {
	conf, err := ParseVMDConfig([]byte(`
fps: 60
scale: 0.1
heightOffset: -7
modelName: actor
boneMappings:
  - source: Tail
    target: 尻尾
`))
	if err != nil {
		t.Fatal(err)
	}
	options := &FBXToVMDOption{}
	conf.ApplyTo(options)
	if options.FPS != 60 || options.ModelName != "actor" {
		t.Error("options: ", options)
	}
	if options.Retarget.Scale != 0.1 || options.Retarget.HeightOffset != -7 {
		t.Error("retarget options: ", options.Retarget)
	}
	if options.Retarget.ExtraBoneNames["Tail"] != "尻尾" {
		t.Error("bone mappings: ", options.Retarget.ExtraBoneNames)
	}
}
