package fbx

import (
	"math"
	"testing"
)

func mkObjNode(name string, id int64, objName, kind string, children ...*Node) *Node {
	return &Node{
		Name: name,
		Properties: PropertyList{
			{Value: id},
			{Value: objName},
			{Value: kind},
		},
		Children: children,
	}
}

func mkP70(entries ...*Node) *Node {
	return &Node{Name: "Properties70", Children: entries}
}

func mkP(name, typ string, values ...float64) *Node {
	props := PropertyList{{Value: name}, {Value: typ}, {Value: ""}, {Value: "A"}}
	for _, v := range values {
		props = append(props, &Property{Value: v})
	}
	return &Node{Name: "P", Properties: props}
}

func mkConn(typ string, from, to int64, relation string) *Node {
	props := PropertyList{{Value: typ}, {Value: from}, {Value: to}}
	if relation != "" {
		props = append(props, &Property{Value: relation})
	}
	return &Node{Name: "C", Properties: props}
}

func testRoot() *Node {
	model := mkObjNode("Model", 100, "Model::mixamorig:Hips", "LimbNode",
		mkP70(
			mkP("Lcl Rotation", "Lcl Rotation", 90, 0, 0),
			mkP("PreRotation", "Vector3D", 0, 180, 0),
			mkP("Lcl Translation", "Lcl Translation", 1, 2, 3),
		))
	legacy := mkObjNode("Model", 101, "Model::Spine", "LimbNode",
		&Node{Name: "Lcl Rotation", Properties: PropertyList{{Value: []float64{0, 0, 45}, Count: 3}}})
	return &Node{Name: "_FBX_ROOT", Children: []*Node{
		{Name: "Creator", Properties: PropertyList{{Value: "test"}}},
		{Name: "Objects", Children: []*Node{model, legacy}},
		{Name: "Connections", Children: []*Node{
			mkConn("OO", 101, 100, ""),
			mkConn("OP", 101, 100, "ignored"),
			mkConn("OO", 100, 0, "LimbNode"),
		}},
	}}
}

func TestFindChildWith(t *testing.T) {
	root := testRoot()
	objects := root.FindChild("Objects")

	if n := objects.FindChildWith("Model", PropCond{0, int64(101)}); n == nil || n.PropString(1) != "Model::Spine" {
		t.Error("FindChildWith by id: ", n)
	}
	if n := objects.FindChildWith("Model", PropCond{2, "LimbNode"}); n == nil || n.PropInt64(0) != 100 {
		t.Error("FindChildWith returns first match: ", n)
	}
	if n := objects.FindChildWith("Model", PropCond{0, int64(999)}); n != nil {
		t.Error("unexpected match: ", n)
	}
	if n := objects.FindChildWith("Model", PropCond{0, "100"}); n != nil {
		t.Error("type mismatch must not match: ", n)
	}
	if all := objects.FindChildrenWith("Model"); len(all) != 2 {
		t.Error("FindChildrenWith: ", all)
	}
	if n := objects.FindChildWith("", PropCond{1, "Model::Spine"}); n == nil {
		t.Error("tagless lookup failed")
	}
}

func TestPropertyDefaults(t *testing.T) {
	var missing *Node
	if missing.Prop(0).ToInt64(-1) != -1 || missing.Prop(0).ToString("d") != "d" {
		t.Error("nil node defaults")
	}
	p := &Property{Value: "str"}
	if p.ToFloat64(2.5) != 2.5 {
		t.Error("type mismatch must yield default")
	}
	if (&Property{Value: []float64{}}).ToFloat64Array() == nil {
		// empty arrays satisfy any array accessor; nil slice is the "absent" form
		t.Log("empty array decays to nil")
	}
}

func TestBuildDocument(t *testing.T) {
	doc, err := BuildDocument(testRoot(), 7400)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Creator != "test" {
		t.Error("creator: ", doc.Creator)
	}
	if len(doc.ObjectList) != 2 {
		t.Fatal("objects: ", len(doc.ObjectList))
	}
	if len(doc.Connections) != 2 {
		t.Fatal("OP connection not filtered: ", doc.Connections)
	}

	m := doc.FindModel(100)
	if m == nil {
		t.Fatal("model 100 not found")
	}
	if m.Name() != "mixamorig:Hips" || m.FullName() != "Model::mixamorig:Hips" || m.Kind() != "LimbNode" {
		t.Error("names: ", m.Name(), m.Kind())
	}
	if rot := m.GetRotation(); math.Abs(rot.X-math.Pi/2) > 1e-9 {
		t.Error("Lcl Rotation: ", rot)
	}
	if pre := m.GetPreRotation(); math.Abs(pre.Y-math.Pi) > 1e-9 {
		t.Error("PreRotation: ", pre)
	}
	if tr := m.GetTranslation(); tr.X != 1 || tr.Y != 2 || tr.Z != 3 {
		t.Error("Lcl Translation: ", tr)
	}

	// legacy layout: attribute as a direct child node with an array property
	legacy := doc.FindModel(101)
	if rot := legacy.GetRotation(); math.Abs(rot.Z-math.Pi/4) > 1e-9 {
		t.Error("legacy Lcl Rotation: ", rot)
	}

	if c := doc.ConnectionsTo(100); len(c) != 1 || c[0].From != 101 {
		t.Error("ConnectionsTo: ", c)
	}
	if c := doc.ConnectionsFrom(100); len(c) != 1 || c[0].Relation != "LimbNode" {
		t.Error("ConnectionsFrom: ", c)
	}
	if doc.FindModel(0) != nil {
		t.Error("missing id must be nil")
	}
}
