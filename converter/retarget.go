package converter

import (
	"math"

	"github.com/AmyangXYZ/Mixamo-MMD/geom"
)

// boneNameMap maps Mixamo bone names (namespace stripped) to the MMD
// standard bone names.
var boneNameMap = map[string]string{
	"Hips":   "センター",
	"Spine":  "上半身",
	"Spine1": "上半身2",
	"Spine2": "上半身3",
	"Neck":   "首",
	"Head":   "頭",

	"LeftShoulder": "左肩",
	"LeftArm":      "左腕",
	"LeftForeArm":  "左ひじ",
	"LeftHand":     "左手首",

	"RightShoulder": "右肩",
	"RightArm":      "右腕",
	"RightForeArm":  "右ひじ",
	"RightHand":     "右手首",

	"LeftUpLeg":   "左足",
	"LeftLeg":     "左ひざ",
	"LeftFoot":    "左足首",
	"LeftToeBase": "左つま先",

	"RightUpLeg":   "右足",
	"RightLeg":     "右ひざ",
	"RightFoot":    "右足首",
	"RightToeBase": "右つま先",

	"LeftHandThumb1":  "左親指０",
	"LeftHandThumb2":  "左親指１",
	"LeftHandThumb3":  "左親指２",
	"LeftHandIndex1":  "左人指１",
	"LeftHandIndex2":  "左人指２",
	"LeftHandIndex3":  "左人指３",
	"LeftHandMiddle1": "左中指１",
	"LeftHandMiddle2": "左中指２",
	"LeftHandMiddle3": "左中指３",
	"LeftHandRing1":   "左薬指１",
	"LeftHandRing2":   "左薬指２",
	"LeftHandRing3":   "左薬指３",
	"LeftHandPinky1":  "左小指１",
	"LeftHandPinky2":  "左小指２",
	"LeftHandPinky3":  "左小指３",

	"RightHandThumb1":  "右親指０",
	"RightHandThumb2":  "右親指１",
	"RightHandThumb3":  "右親指２",
	"RightHandIndex1":  "右人指１",
	"RightHandIndex2":  "右人指２",
	"RightHandIndex3":  "右人指３",
	"RightHandMiddle1": "右中指１",
	"RightHandMiddle2": "右中指２",
	"RightHandMiddle3": "右中指３",
	"RightHandRing1":   "右薬指１",
	"RightHandRing2":   "右薬指２",
	"RightHandRing3":   "右薬指３",
	"RightHandPinky1":  "右小指１",
	"RightHandPinky2":  "右小指２",
	"RightHandPinky3":  "右小指３",
}

var leftFingers = []string{
	"LeftHandThumb1", "LeftHandThumb2", "LeftHandThumb3",
	"LeftHandIndex1", "LeftHandIndex2", "LeftHandIndex3",
	"LeftHandMiddle1", "LeftHandMiddle2", "LeftHandMiddle3",
	"LeftHandRing1", "LeftHandRing2", "LeftHandRing3",
	"LeftHandPinky1", "LeftHandPinky2", "LeftHandPinky3",
}

var rightFingers = []string{
	"RightHandThumb1", "RightHandThumb2", "RightHandThumb3",
	"RightHandIndex1", "RightHandIndex2", "RightHandIndex3",
	"RightHandMiddle1", "RightHandMiddle2", "RightHandMiddle3",
	"RightHandRing1", "RightHandRing2", "RightHandRing3",
	"RightHandPinky1", "RightHandPinky2", "RightHandPinky3",
}

// restOrientations holds each bone's rest orientation q_a in the source
// rig's local space. Bones with world-aligned joint frames (hips, spine
// chain, head, feet) are absent and take the identity path.
var restOrientations = map[string]*geom.Quaternion{}

func init() {
	armL := geom.NewQuaternion(0.5, 0.5, -0.5, 0.5) // local +Y along world +X
	armR := geom.NewQuaternion(0.5, -0.5, 0.5, 0.5)
	legDown := geom.NewQuaternion(0, 0, 1, 0) // local +Y along world -Y

	for _, bone := range append([]string{"LeftShoulder", "LeftArm", "LeftForeArm", "LeftHand"}, leftFingers...) {
		restOrientations[bone] = armL
	}
	for _, bone := range append([]string{"RightShoulder", "RightArm", "RightForeArm", "RightHand"}, rightFingers...) {
		restOrientations[bone] = armR
	}
	for _, bone := range []string{"LeftUpLeg", "LeftLeg", "RightUpLeg", "RightLeg"} {
		restOrientations[bone] = legDown
	}
}

// Membership sets for the A-pose stance correction. MMD rigs rest with the
// arms lowered about 35 degrees, so the outbound arm chain is pre-rotated
// and the forearm/finger frames compensated after composition.
var (
	stanceBeforeLeft  = memberSet(append([]string{"LeftArm"}, leftFingers...))
	stanceBeforeRight = memberSet(append([]string{"RightArm"}, rightFingers...))
	stanceAfterLeft   = memberSet(append([]string{"LeftForeArm"}, leftFingers...))
	stanceAfterRight  = memberSet(append([]string{"RightForeArm"}, rightFingers...))
)

func memberSet(names []string) map[string]bool {
	m := map[string]bool{}
	for _, n := range names {
		m[n] = true
	}
	return m
}

const armStanceAngle = 35 * math.Pi / 180

// boneTransform is the precomputed similarity pair: q' = L * q * R.
type boneTransform struct {
	L *geom.Quaternion
	R *geom.Quaternion
}

func buildBoneTransforms() map[string]*boneTransform {
	zAxis := geom.NewVector3(0, 0, 1)
	stanceL := geom.NewRotationQuaternion(zAxis, armStanceAngle)  // Q_L
	stanceR := geom.NewRotationQuaternion(zAxis, -armStanceAngle) // Q_R

	transforms := map[string]*boneTransform{}
	for bone, qa := range restOrientations {
		tr := &boneTransform{L: qa, R: qa.Inverse()}
		if stanceBeforeLeft[bone] {
			tr.L = stanceR.Mul(qa)
		} else if stanceBeforeRight[bone] {
			tr.L = stanceL.Mul(qa)
		}
		if stanceAfterLeft[bone] {
			tr.R = qa.Inverse().Mul(stanceL)
		} else if stanceAfterRight[bone] {
			tr.R = qa.Inverse().Mul(stanceR)
		}
		transforms[bone] = tr
	}
	return transforms
}

// RetargetTrack is a bone track expressed in the destination rig's local
// space and coordinate system.
type RetargetTrack struct {
	Name      string // destination bone name
	Source    string
	Times     []float64
	Rotations []*geom.Quaternion
}

type RetargetPositionTrack struct {
	Name      string
	Source    string
	Times     []float64
	Positions []*geom.Vector3
}

type RetargetClip struct {
	Name      string
	Duration  float64
	Rotations []*RetargetTrack
	Positions []*RetargetPositionTrack
}

type RetargetOption struct {
	// Scale multiplies translations; zero means the default 1/12.5.
	Scale float64
	// HeightOffset is added to Y after scaling; zero means the default -8.3.
	HeightOffset float64
	// ExtraBoneNames extends (and overrides) the built-in bone-name map.
	ExtraBoneNames map[string]string
}

type Retargeter struct {
	scale      float64
	yOffset    float64
	boneNames  map[string]string
	transforms map[string]*boneTransform
}

func NewRetargeter(opt *RetargetOption) *Retargeter {
	if opt == nil {
		opt = &RetargetOption{}
	}
	r := &Retargeter{
		scale:      opt.Scale,
		yOffset:    opt.HeightOffset,
		boneNames:  boneNameMap,
		transforms: buildBoneTransforms(),
	}
	if r.scale == 0 {
		r.scale = 1 / 12.5
	}
	if r.yOffset == 0 {
		r.yOffset = -8.3
	}
	if len(opt.ExtraBoneNames) > 0 {
		r.boneNames = map[string]string{}
		for k, v := range boneNameMap {
			r.boneNames[k] = v
		}
		for k, v := range opt.ExtraBoneNames {
			r.boneNames[k] = v
		}
	}
	return r
}

// BoneName maps a source bone to its destination name; unmapped names pass
// through unchanged.
func (r *Retargeter) BoneName(source string) string {
	name := StripBonePrefix(source)
	if mapped, ok := r.boneNames[name]; ok {
		return mapped
	}
	return name
}

// RetargetRotation converts one local-space source quaternion into the
// destination rig's local space, including the Z/W coordinate flip.
func (r *Retargeter) RetargetRotation(source string, q *geom.Quaternion) *geom.Quaternion {
	if tr, ok := r.transforms[StripBonePrefix(source)]; ok {
		q = tr.L.Mul(q).Mul(tr.R)
	}
	return &geom.Quaternion{X: q.X, Y: q.Y, Z: -q.Z, W: -q.W}
}

// RetargetPosition converts one source-unit translation into destination
// units: rotate into the destination frame, scale, drop to floor level and
// flip the Z axis.
func (r *Retargeter) RetargetPosition(source string, v *geom.Vector3) *geom.Vector3 {
	if tr, ok := r.transforms[StripBonePrefix(source)]; ok {
		v = tr.L.ApplyTo(v)
	}
	v = v.Scale(r.scale)
	return &geom.Vector3{X: v.X, Y: v.Y + r.yOffset, Z: -v.Z}
}

func (r *Retargeter) Retarget(clip *Clip) *RetargetClip {
	out := &RetargetClip{Name: clip.Name, Duration: clip.Duration}
	for _, track := range clip.Rotations {
		rt := &RetargetTrack{
			Name:   r.BoneName(track.Bone),
			Source: track.Bone,
			Times:  track.Times,
		}
		for _, q := range track.Rotations {
			rt.Rotations = append(rt.Rotations, r.RetargetRotation(track.Bone, q))
		}
		out.Rotations = append(out.Rotations, rt)
	}
	for _, track := range clip.Positions {
		pt := &RetargetPositionTrack{
			Name:   r.BoneName(track.Bone),
			Source: track.Bone,
			Times:  track.Times,
		}
		for _, v := range track.Positions {
			pt.Positions = append(pt.Positions, r.RetargetPosition(track.Bone, v))
		}
		out.Positions = append(out.Positions, pt)
	}
	if out.Duration <= 0 {
		out.Duration = clip.MaxTime()
	}
	return out
}

func (r *Retargeter) RetargetAll(clips []*Clip) []*RetargetClip {
	var out []*RetargetClip
	for _, c := range clips {
		out = append(out, r.Retarget(c))
	}
	return out
}
