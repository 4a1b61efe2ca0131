package converter

import (
	"log"
	"math"
	"sort"
	"strings"

	"github.com/AmyangXYZ/Mixamo-MMD/fbx"
	"github.com/AmyangXYZ/Mixamo-MMD/geom"
)

// TicksPerSecond is the FBX time resolution.
const TicksPerSecond = 46186158000

// BoneRest is the rest pose of a bone, rotations in radians.
type BoneRest struct {
	PreRotation  *geom.Vector3
	PostRotation *geom.Vector3
	Rotation     *geom.Vector3
	Translation  *geom.Vector3
}

// RotationTrack holds a bone's orientation keys. Times increase strictly;
// adjacent quaternions are unrolled (non-negative dot product).
type RotationTrack struct {
	Bone      string
	Times     []float64
	Rotations []*geom.Quaternion
	Rest      *BoneRest
}

// PositionTrack holds a bone's translation keys in source units.
type PositionTrack struct {
	Bone      string
	Times     []float64
	Positions []*geom.Vector3
}

// Clip is one extracted animation take. Duration <= 0 means "compute from the
// track extents"; DeclaredDuration preserves the stack's own LocalStop value
// for diagnostics.
type Clip struct {
	Name             string
	Duration         float64
	DeclaredDuration float64
	Rotations        []*RotationTrack
	Positions        []*PositionTrack
	Parents          map[string]string
}

// MaxTime returns the largest key time across all tracks.
func (c *Clip) MaxTime() float64 {
	max := 0.0
	for _, tr := range c.Rotations {
		if n := len(tr.Times); n > 0 && tr.Times[n-1] > max {
			max = tr.Times[n-1]
		}
	}
	for _, tr := range c.Positions {
		if n := len(tr.Times); n > 0 && tr.Times[n-1] > max {
			max = tr.Times[n-1]
		}
	}
	return max
}

// StripBonePrefix removes the optional "mixamorig:" namespace.
func StripBonePrefix(name string) string {
	const prefix = "mixamorig:"
	if len(name) >= len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
		return name[len(prefix):]
	}
	return name
}

// ExtractClips walks AnimationStack -> AnimationLayer -> AnimationCurveNode ->
// AnimationCurve through the document's connection list and returns one clip
// per stack. Incomplete structures are skipped with a warning.
func ExtractClips(doc *fbx.Document) []*Clip {
	var clips []*Clip
	if doc.RawNode.FindChild("Objects") == nil {
		log.Println("fbxanim: no Objects node")
		return nil
	}

	for _, obj := range doc.ObjectList {
		if obj.Node.Name != "AnimationStack" {
			continue
		}
		clip := extractClip(doc, obj)
		if clip != nil {
			clips = append(clips, clip)
		}
	}
	return clips
}

func extractClip(doc *fbx.Document, stack *fbx.Obj) *Clip {
	name := stack.Name()
	if name == "" {
		name = "Animation"
	}
	clip := &Clip{
		Name:             name,
		Duration:         -1,
		DeclaredDuration: stackLocalStop(stack),
		Parents:          map[string]string{},
	}

	layers := 0
	for _, lc := range doc.ConnectionsTo(stack.ID()) {
		layer, ok := doc.Objects[lc.From]
		if !ok || layer.Node.Name != "AnimationLayer" {
			continue
		}
		layers++
		for _, cc := range doc.ConnectionsTo(layer.ID()) {
			curveNode, ok := doc.Objects[cc.From]
			if !ok || curveNode.Node.Name != "AnimationCurveNode" {
				continue
			}
			extractCurveNode(doc, clip, curveNode)
		}
	}
	if layers == 0 {
		log.Println("fbxanim: no layer connected to stack: ", name)
		return nil
	}

	buildParents(doc, clip)
	return clip
}

func stackLocalStop(stack *fbx.Obj) float64 {
	if p := stack.GetProperty70("LocalStop"); p != nil {
		return float64(p.Get(0).ToInt64(0)) / TicksPerSecond
	}
	return 0
}

func extractCurveNode(doc *fbx.Document, clip *Clip, curveNode *fbx.Obj) {
	var model *fbx.Model
	for _, c := range doc.ConnectionsFrom(curveNode.ID()) {
		if c.Relation == "" {
			continue
		}
		if m := doc.FindModel(c.To); m != nil {
			model = m
			break
		}
	}
	if model == nil {
		return
	}

	switch curveNode.Name() {
	case "R":
		if track := buildRotationTrack(doc, curveNode, model); track != nil {
			clip.Rotations = append(clip.Rotations, track)
		}
	case "T":
		if track := buildPositionTrack(doc, curveNode, model); track != nil {
			clip.Positions = append(clip.Positions, track)
		}
	}
	// "S" and other attributes are not converted
}

func boneRest(model *fbx.Model) *BoneRest {
	return &BoneRest{
		PreRotation:  model.GetPreRotation(),
		PostRotation: model.GetPostRotation(),
		Rotation:     model.GetRotation(),
		Translation:  model.GetTranslation(),
	}
}

// axisCurve is a single-axis keyframe curve with times rounded to 1us.
type axisCurve struct {
	times  []float64
	values []float64
}

// sampleAt evaluates the curve at t with linear interpolation, clamping
// outside the key range. t must be a us-rounded time.
func (c *axisCurve) sampleAt(t float64) float64 {
	i := sort.SearchFloat64s(c.times, t)
	if i < len(c.times) && c.times[i] == t {
		return c.values[i]
	}
	if i == 0 {
		return c.values[0]
	}
	if i == len(c.times) {
		return c.values[len(c.values)-1]
	}
	t0, t1 := c.times[i-1], c.times[i]
	f := (t - t0) / (t1 - t0)
	return c.values[i-1]*(1-f) + c.values[i]*f
}

func roundMicro(t float64) float64 {
	return math.Round(t*1e6) / 1e6
}

// findAxisCurves resolves the X/Y/Z curves feeding a curve node. All three
// must be present for the result to be usable.
func findAxisCurves(doc *fbx.Document, curveNode *fbx.Obj) [3]*axisCurve {
	var axes [3]*axisCurve
	for i, axis := range []string{"X", "Y", "Z"} {
		for _, c := range doc.ConnectionsTo(curveNode.ID()) {
			curve, ok := doc.Objects[c.From]
			if !ok || curve.Node.Name != "AnimationCurve" {
				continue
			}
			if c.Relation != axis && !strings.HasSuffix(c.Relation, "|"+axis) {
				continue
			}
			axes[i] = readCurve(curve)
			break
		}
	}
	return axes
}

// readCurve decodes KeyTime/KeyValueFloat, which live either as child nodes
// or directly at property indices 4 and 5.
func readCurve(curve *fbx.Obj) *axisCurve {
	ticks := curve.FindChild("KeyTime").Prop(0).ToInt64Array()
	if len(ticks) == 0 {
		ticks = curve.Prop(4).ToInt64Array()
	}
	values := curve.FindChild("KeyValueFloat").Prop(0).ToFloat32Array()
	if len(values) == 0 {
		values = curve.Prop(5).ToFloat32Array()
	}
	if len(ticks) == 0 || len(ticks) != len(values) {
		log.Println("fbxanim: key times and values mismatch: ", curve.Name(), len(ticks), len(values))
		return nil
	}
	c := &axisCurve{}
	for i, tick := range ticks {
		t := roundMicro(float64(tick) / TicksPerSecond)
		if n := len(c.times); n > 0 && c.times[n-1] == t {
			// collision after rounding: the later key wins
			c.values[n-1] = float64(values[i])
			continue
		}
		c.times = append(c.times, t)
		c.values = append(c.values, float64(values[i]))
	}
	return c
}

// mergeTimes returns the sorted union of the curves' key times.
func mergeTimes(curves []*axisCurve) []float64 {
	seen := map[float64]bool{}
	var merged []float64
	for _, c := range curves {
		for _, t := range c.times {
			if !seen[t] {
				seen[t] = true
				merged = append(merged, t)
			}
		}
	}
	sort.Float64s(merged)
	return merged
}

func buildRotationTrack(doc *fbx.Document, curveNode *fbx.Obj, model *fbx.Model) *RotationTrack {
	axes := findAxisCurves(doc, curveNode)
	for _, a := range axes {
		if a == nil {
			log.Println("fbxanim: rotation axis curve missing: ", model.Name())
			return nil
		}
	}

	times := mergeTimes(axes[:])
	if len(times) == 0 {
		return nil
	}
	degrees := make([][3]float64, len(times))
	for i, t := range times {
		for a := 0; a < 3; a++ {
			degrees[i][a] = axes[a].sampleAt(t)
		}
	}

	times, eulers := subdivideRotations(times, degrees)

	track := &RotationTrack{Bone: model.Name(), Times: times, Rest: boneRest(model)}
	for _, e := range eulers {
		q := geom.NewEuler(e[0], e[1], e[2], geom.RotationOrderZXY).ToQuaternion()
		if n := len(track.Rotations); n > 0 && track.Rotations[n-1].Dot(q) < 0 {
			q = q.Negate()
		}
		track.Rotations = append(track.Rotations, q)
	}
	return track
}

// subdivideRotations splits key pairs whose per-axis delta reaches 180
// degrees, so the quaternion track cannot alias a multi-turn sweep. Inserted
// keys are linearly blended in Euler space and normalized through a
// quaternion round trip; segment endpoints keep their exact Euler values.
// The returned angles are radians.
func subdivideRotations(times []float64, degrees [][3]float64) ([]float64, [][3]float64) {
	const d2r = math.Pi / 180

	outT := []float64{times[0]}
	outE := [][3]float64{{degrees[0][0] * d2r, degrees[0][1] * d2r, degrees[0][2] * d2r}}
	for i := 1; i < len(times); i++ {
		maxDelta := 0.0
		for a := 0; a < 3; a++ {
			if d := math.Abs(degrees[i][a] - degrees[i-1][a]); d > maxDelta {
				maxDelta = d
			}
		}
		if maxDelta >= 180 {
			n := int(math.Ceil(maxDelta / 180))
			for k := 1; k < n; k++ {
				f := float64(k) / float64(n)
				var blend [3]float64
				for a := 0; a < 3; a++ {
					blend[a] = (degrees[i-1][a]*(1-f) + degrees[i][a]*f) * d2r
				}
				q := geom.NewEuler(blend[0], blend[1], blend[2], geom.RotationOrderZXY).ToQuaternion()
				e := geom.NewEulerFromQuaternionZXY(q)
				outT = append(outT, times[i-1]+(times[i]-times[i-1])*f)
				outE = append(outE, [3]float64{e.X, e.Y, e.Z})
			}
		}
		outT = append(outT, times[i])
		outE = append(outE, [3]float64{degrees[i][0] * d2r, degrees[i][1] * d2r, degrees[i][2] * d2r})
	}
	return outT, outE
}

func buildPositionTrack(doc *fbx.Document, curveNode *fbx.Obj, model *fbx.Model) *PositionTrack {
	axes := findAxisCurves(doc, curveNode)
	for _, a := range axes {
		if a == nil {
			log.Println("fbxanim: position axis curve missing: ", model.Name())
			return nil
		}
	}
	times := mergeTimes(axes[:])
	if len(times) == 0 {
		return nil
	}
	track := &PositionTrack{Bone: model.Name(), Times: times}
	for _, t := range times {
		track.Positions = append(track.Positions,
			geom.NewVector3(axes[0].sampleAt(t), axes[1].sampleAt(t), axes[2].sampleAt(t)))
	}
	return track
}

// buildParents records parent links between Model objects, with the
// "mixamorig:" namespace stripped on both sides.
func buildParents(doc *fbx.Document, clip *Clip) {
	for _, c := range doc.Connections {
		child := doc.FindModel(c.From)
		parent := doc.FindModel(c.To)
		if child == nil || parent == nil {
			continue
		}
		clip.Parents[StripBonePrefix(child.Name())] = StripBonePrefix(parent.Name())
	}
}
