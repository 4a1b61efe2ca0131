package mmd

import (
	"io"
	"math"
	"sort"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// DisabledIKBones are the standard IK chains switched off by the default
// property keyframe so the written per-bone rotations play back as authored.
var DisabledIKBones = []string{
	"左足ＩＫ",
	"右足ＩＫ",
	"左つま先ＩＫ",
	"右つま先ＩＫ",
	"左腕ＩＫ",
	"右腕ＩＫ",
}

// VMDWriter is writer for .vmd animation data.
type VMDWriter struct {
	baseWriter
}

func NewVMDWriter(w io.Writer) *VMDWriter {
	return &VMDWriter{baseWriter: baseWriter{w: w}}
}

// WriteVMD writes anim to w. If anim carries no property keyframe, a single
// frame-0 keyframe disabling the standard IK chains is emitted.
func WriteVMD(anim *Animation, w io.Writer) error {
	return NewVMDWriter(w).Write(anim)
}

func (p *VMDWriter) Write(anim *Animation) error {
	p.writeString("Vocaloid Motion Data 0002", 30)
	p.writeString(anim.Name, 20)

	bones := make([]*AnimationBoneSample, len(anim.Bone))
	copy(bones, anim.Bone)
	sort.SliceStable(bones, func(i, j int) bool {
		if bones[i].Frame != bones[j].Frame {
			return bones[i].Frame < bones[j].Frame
		}
		return bones[i].Target < bones[j].Target
	})

	p.writeInt(len(bones))
	for _, s := range bones {
		p.writeString(s.Target, 15)
		p.writeInt(s.Frame)
		p.writeVector3(safeVector3(s.Position))
		p.writeVector4(safeRotation(s.Rotation))
		p.write(&s.Params)
	}

	p.writeInt(len(anim.Morph))
	for _, s := range anim.Morph {
		p.writeString(s.Target, 15)
		p.writeInt(s.Frame)
		p.writeFloat(s.Value)
	}

	p.writeInt(len(anim.Camera))
	for _, s := range anim.Camera {
		p.writeInt(s.Frame)
		p.writeFloat(s.Distance)
		p.writeVector3(s.Position)
		p.writeVector3(s.Rotation)
		p.write(&s.Params)
		p.writeInt(int(s.FoV))
		p.writeUint8(s.Projection)
	}

	p.writeInt(len(anim.Light))
	for _, s := range anim.Light {
		p.writeInt(s.Frame)
		p.writeVector3(s.Color)
		p.writeVector3(s.Position)
	}

	p.writeInt(len(anim.SelfShadow))
	for _, s := range anim.SelfShadow {
		p.writeInt(s.Frame)
		p.writeUint8(s.Mode)
		p.writeFloat(s.Distance)
	}

	property := anim.Property
	if len(property) == 0 {
		property = []*AnimationPropertySample{DefaultPropertySample()}
	}
	p.writeInt(len(property))
	for _, s := range property {
		p.writeInt(s.Frame)
		if s.Visible {
			p.writeUint8(1)
		} else {
			p.writeUint8(0)
		}
		p.writeInt(len(s.IK))
		for _, ik := range s.IK {
			p.writeString(ik.Name, 20)
			if ik.Enabled {
				p.writeUint8(1)
			} else {
				p.writeUint8(0)
			}
		}
	}

	return p.err
}

// DefaultPropertySample returns the frame-0 keyframe that shows the model and
// disables the standard IK chains.
func DefaultPropertySample() *AnimationPropertySample {
	s := &AnimationPropertySample{Frame: 0, Visible: true}
	for _, name := range DisabledIKBones {
		s.IK = append(s.IK, &IKState{Name: name, Enabled: false})
	}
	return s
}

// writeString encodes s as Shift_JIS, truncated to length bytes and NUL-padded.
func (p *VMDWriter) writeString(s string, length int) {
	b, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(s))
	if err != nil {
		b = nil
	}
	if len(b) > length {
		b = b[:length]
	}
	buf := make([]byte, length)
	copy(buf, b)
	p.write(buf)
}

func (p *VMDWriter) writeVector3(v Vector3) {
	p.writeFloat(v.X)
	p.writeFloat(v.Y)
	p.writeFloat(v.Z)
}

func (p *VMDWriter) writeVector4(v Vector4) {
	p.writeFloat(v.X)
	p.writeFloat(v.Y)
	p.writeFloat(v.Z)
	p.writeFloat(v.W)
}

func safeVector3(v Vector3) Vector3 {
	if !finite(v.X) || !finite(v.Y) || !finite(v.Z) {
		return Vector3{}
	}
	return v
}

func safeRotation(v Vector4) Vector4 {
	if !finite(v.X) || !finite(v.Y) || !finite(v.Z) || !finite(v.W) {
		return Vector4{X: 0, Y: 0, Z: 0, W: 1}
	}
	return v
}

func finite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}
