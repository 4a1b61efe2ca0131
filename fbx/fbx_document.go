package fbx

import (
	"math"
	"strings"

	"github.com/AmyangXYZ/Mixamo-MMD/geom"
)

type Document struct {
	Version      uint32
	Creator      string
	CreationTime string

	// ObjectList preserves the declaration order under "Objects";
	// Objects indexes the same objects by ID.
	ObjectList  []*Obj
	Objects     map[int64]*Obj
	Connections []*Connection

	RawNode *Node
}

// Connection is an object-to-object edge. Only "OO" records are retained;
// Relation carries the axis suffix ("d|X") or a type label ("LimbNode").
type Connection struct {
	Type     string
	From     int64
	To       int64
	Relation string
}

type Obj struct {
	*Node
	properties map[string]*Property70
}

// Property70 holds the value attributes of a "P" record (index 4 onwards).
type Property70 struct {
	PropertyList
	Type  string
	Label string
	Flag  string
}

func (p *Property70) ToVector3(x, y, z float64) *geom.Vector3 {
	if p == nil || len(p.PropertyList) < 3 {
		return &geom.Vector3{X: x, Y: y, Z: z}
	}
	return &geom.Vector3{
		X: p.Get(0).ToFloat64(x),
		Y: p.Get(1).ToFloat64(y),
		Z: p.Get(2).ToFloat64(z),
	}
}

func (o *Obj) ID() int64 {
	return o.Prop(0).ToInt64(0)
}

// FullName returns the qualified "Class::name" form.
func (o *Obj) FullName() string {
	return o.Prop(1).ToString("")
}

// Name returns the display part of the qualified name.
func (o *Obj) Name() string {
	name := o.FullName()
	if _, n, ok := strings.Cut(name, "::"); ok {
		return n
	}
	return name
}

func (o *Obj) Kind() string {
	return o.Prop(2).ToString("")
}

func (o *Obj) GetProperty70(name string) *Property70 {
	if o.properties == nil {
		o.properties = map[string]*Property70{}
		for _, node := range o.FindChild("Properties70").GetChildren() {
			if len(node.Properties) < 4 {
				continue
			}
			o.properties[node.PropString(0)] = &Property70{
				PropertyList: node.Properties[4:],
				Type:         node.PropString(1),
				Label:        node.PropString(2),
				Flag:         node.PropString(3)}
		}
	}
	if p, ok := o.properties[name]; ok {
		return p
	}
	return nil
}

// Model is a skeleton node carrying rest-pose attributes.
type Model struct {
	*Obj
}

// vec3Attr reads a named triplet from Properties70, falling back to a direct
// child node holding a numeric array (pre-7.0 layout).
func (m *Model) vec3Attr(name string) *geom.Vector3 {
	if p := m.GetProperty70(name); p != nil {
		return p.ToVector3(0, 0, 0)
	}
	if arr := m.FindChild(name).Prop(0).ToFloat64Array(); len(arr) >= 3 {
		return geom.NewVector3FromSlice(arr)
	}
	return &geom.Vector3{}
}

func (m *Model) GetTranslation() *geom.Vector3 {
	return m.vec3Attr("Lcl Translation")
}

// GetRotation returns the rest rotation in radians.
func (m *Model) GetRotation() *geom.Vector3 {
	return m.vec3Attr("Lcl Rotation").Scale(math.Pi / 180)
}

func (m *Model) GetPreRotation() *geom.Vector3 {
	return m.vec3Attr("PreRotation").Scale(math.Pi / 180)
}

func (m *Model) GetPostRotation() *geom.Vector3 {
	return m.vec3Attr("PostRotation").Scale(math.Pi / 180)
}

func BuildDocument(root *Node, version uint32) (*Document, error) {
	doc := &Document{Version: version, RawNode: root, Objects: map[int64]*Obj{}}

	doc.Creator = root.FindChild("Creator").PropString(0)
	doc.CreationTime = root.FindChild("CreationTime").PropString(0)

	for _, node := range root.FindChild("Objects").GetChildren() {
		obj := &Obj{Node: node}
		doc.ObjectList = append(doc.ObjectList, obj)
		doc.Objects[obj.ID()] = obj
	}

	for _, node := range root.FindChild("Connections").GetChildren() {
		if node.Name != "C" {
			continue
		}
		c := &Connection{
			Type:     node.PropString(0),
			From:     node.PropInt64(1),
			To:       node.PropInt64(2),
			Relation: node.PropString(3),
		}
		if c.Type == "OO" {
			doc.Connections = append(doc.Connections, c)
		}
	}

	return doc, nil
}

// ConnectionsTo returns the connections into id, in declaration order.
func (d *Document) ConnectionsTo(id int64) []*Connection {
	var r []*Connection
	for _, c := range d.Connections {
		if c.To == id {
			r = append(r, c)
		}
	}
	return r
}

// ConnectionsFrom returns the connections out of id, in declaration order.
func (d *Document) ConnectionsFrom(id int64) []*Connection {
	var r []*Connection
	for _, c := range d.Connections {
		if c.From == id {
			r = append(r, c)
		}
	}
	return r
}

// FindModel resolves id to a Model object, or nil.
func (d *Document) FindModel(id int64) *Model {
	if o, ok := d.Objects[id]; ok && o.Node.Name == "Model" {
		return &Model{Obj: o}
	}
	return nil
}
