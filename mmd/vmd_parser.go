package mmd

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// VMDParser is parser for .vmd animation.
type VMDParser struct {
	baseParser
}

// NewVMDParser returns new parser.
func NewVMDParser(r io.Reader) *VMDParser {
	return &VMDParser{baseParser: baseParser{r: r}}
}

// Parse animation data. Sections after the morph keyframes are optional in
// old files; a clean EOF at a section boundary ends the parse.
func (p *VMDParser) Parse() (*Animation, error) {
	var anim Animation
	var supportedFormat = "Vocaloid Motion Data 0002"

	formatName := p.readString(30)
	if formatName != supportedFormat {
		return nil, fmt.Errorf("format error: %v != %v", formatName, supportedFormat)
	}

	anim.Name = p.readString(20)

	frames := p.readInt()
	for i := 0; i < frames && p.err == nil; i++ {
		sample := &AnimationBoneSample{}
		sample.Target = p.readString(15)
		sample.Frame = p.readInt()
		p.read(&sample.Position)
		p.read(&sample.Rotation)
		p.read(&sample.Params)
		anim.Bone = append(anim.Bone, sample)
	}

	frames = p.readInt()
	for i := 0; i < frames && p.err == nil; i++ {
		sample := &AnimationMorphSample{}
		sample.Target = p.readString(15)
		sample.Frame = p.readInt()
		p.read(&sample.Value)
		anim.Morph = append(anim.Morph, sample)
	}

	frames = p.readInt()
	if p.err == io.EOF {
		return &anim, nil
	}
	for i := 0; i < frames && p.err == nil; i++ {
		sample := &AnimationCameraSample{}
		sample.Frame = p.readInt()
		sample.Distance = p.readFloat()
		p.read(&sample.Position)
		p.read(&sample.Rotation)
		p.read(&sample.Params)
		sample.FoV = p.readUint32()
		sample.Projection = p.readUint8()
		anim.Camera = append(anim.Camera, sample)
	}

	frames = p.readInt()
	if p.err == io.EOF {
		return &anim, nil
	}
	for i := 0; i < frames && p.err == nil; i++ {
		sample := &AnimationLightSample{}
		sample.Frame = p.readInt()
		p.read(&sample.Color)
		p.read(&sample.Position)
		anim.Light = append(anim.Light, sample)
	}

	frames = p.readInt()
	if p.err == io.EOF {
		return &anim, nil
	}
	for i := 0; i < frames && p.err == nil; i++ {
		sample := &AnimationSelfShadowSample{}
		sample.Frame = p.readInt()
		sample.Mode = p.readUint8()
		sample.Distance = p.readFloat()
		anim.SelfShadow = append(anim.SelfShadow, sample)
	}

	frames = p.readInt()
	if p.err == io.EOF {
		return &anim, nil
	}
	for i := 0; i < frames && p.err == nil; i++ {
		sample := &AnimationPropertySample{}
		sample.Frame = p.readInt()
		sample.Visible = p.readUint8() != 0
		n := p.readInt()
		for k := 0; k < n && p.err == nil; k++ {
			ik := &IKState{}
			ik.Name = p.readString(20)
			ik.Enabled = p.readUint8() != 0
			sample.IK = append(sample.IK, ik)
		}
		anim.Property = append(anim.Property, sample)
	}

	if p.err == io.EOF {
		return &anim, nil
	}
	return &anim, p.err
}

func (p *VMDParser) readString(len int) string {
	b := make([]byte, len)
	_ = p.read(b)
	utf8Data, _, _ := transform.Bytes(japanese.ShiftJIS.NewDecoder(), bytes.SplitN(b, []byte{0}, 2)[0])
	return string(utf8Data)
}
