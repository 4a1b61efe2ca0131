package fbx

import (
	"fmt"
	"io"
	"strings"
)

type Node struct {
	Name       string
	Properties PropertyList
	Children   []*Node
}

// PropCond matches a node whose property at Index equals Value.
type PropCond struct {
	Index int
	Value interface{}
}

func (n *Node) FindChild(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (n *Node) FindChildren(name string) []*Node {
	var nodes []*Node
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			nodes = append(nodes, c)
		}
	}
	return nodes
}

func (n *Node) FindChildWith(name string, conds ...PropCond) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if (name == "" || c.Name == name) && c.match(conds) {
			return c
		}
	}
	return nil
}

func (n *Node) FindChildrenWith(name string, conds ...PropCond) []*Node {
	var nodes []*Node
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if (name == "" || c.Name == name) && c.match(conds) {
			nodes = append(nodes, c)
		}
	}
	return nodes
}

func (n *Node) match(conds []PropCond) bool {
	for _, cond := range conds {
		if !n.Prop(cond.Index).Equals(cond.Value) {
			return false
		}
	}
	return true
}

func (n *Node) GetChildren() []*Node {
	if n == nil {
		return nil
	}
	return n.Children
}

func (n *Node) Prop(i int) *Property {
	if n == nil {
		return nil
	}
	return n.Properties.Get(i)
}

func (n *Node) PropInt64(i int) int64 {
	return n.Prop(i).ToInt64(0)
}

func (n *Node) PropFloat64(i int) float64 {
	return n.Prop(i).ToFloat64(0)
}

func (n *Node) PropString(i int) string {
	return n.Prop(i).ToString("")
}

// Property is a decoded FBX property: a scalar, a string, a byte blob, or a
// homogeneous array (Count > 0).
type Property struct {
	Value interface{}
	Count uint
}

type PropertyList []*Property

func (p PropertyList) Get(i int) *Property {
	if i < 0 || i >= len(p) {
		return nil
	}
	return p[i]
}

func (p *Property) ToInt(defvalue int) int {
	return int(p.ToInt64(int64(defvalue)))
}

func (p *Property) ToInt64(defvalue int64) int64 {
	if p == nil {
		return defvalue
	}
	switch v := p.Value.(type) {
	case bool:
		if v {
			return 1
		}
		return 0
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	}
	return defvalue
}

func (p *Property) ToFloat64(defvalue float64) float64 {
	if p == nil {
		return defvalue
	}
	switch v := p.Value.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	}
	return defvalue
}

func (p *Property) ToString(defvalue string) string {
	if p == nil {
		return defvalue
	}
	if v, ok := p.Value.(string); ok {
		return v
	}
	return defvalue
}

func (p *Property) ToInt64Array() []int64 {
	if p == nil {
		return nil
	}
	var r []int64
	switch vv := p.Value.(type) {
	case []int64:
		return vv
	case []int32:
		for _, v := range vv {
			r = append(r, int64(v))
		}
	case []byte:
		for _, v := range vv {
			r = append(r, int64(v))
		}
	}
	return r
}

func (p *Property) ToFloat32Array() []float32 {
	if p == nil {
		return nil
	}
	var r []float32
	switch vv := p.Value.(type) {
	case []float32:
		return vv
	case []float64:
		for _, v := range vv {
			r = append(r, float32(v))
		}
	case []int32:
		for _, v := range vv {
			r = append(r, float32(v))
		}
	case []int64:
		for _, v := range vv {
			r = append(r, float32(v))
		}
	}
	return r
}

func (p *Property) ToFloat64Array() []float64 {
	if p == nil {
		return nil
	}
	var r []float64
	switch vv := p.Value.(type) {
	case []float64:
		return vv
	case []float32:
		for _, v := range vv {
			r = append(r, float64(v))
		}
	case []int32:
		for _, v := range vv {
			r = append(r, float64(v))
		}
	case []int64:
		for _, v := range vv {
			r = append(r, float64(v))
		}
	}
	return r
}

// Equals reports whether the property exactly holds v, comparing integers,
// floats, strings and bools across their decoded widths.
func (p *Property) Equals(v interface{}) bool {
	if p == nil {
		return false
	}
	switch want := v.(type) {
	case string:
		s, ok := p.Value.(string)
		return ok && s == want
	case bool:
		b, ok := p.Value.(bool)
		return ok && b == want
	case int:
		return p.isInt() && p.ToInt64(0) == int64(want)
	case int16:
		return p.isInt() && p.ToInt64(0) == int64(want)
	case int32:
		return p.isInt() && p.ToInt64(0) == int64(want)
	case int64:
		return p.isInt() && p.ToInt64(0) == want
	case float32:
		return p.isFloat() && p.ToFloat64(0) == float64(want)
	case float64:
		return p.isFloat() && p.ToFloat64(0) == want
	}
	return false
}

func (p *Property) isInt() bool {
	switch p.Value.(type) {
	case int16, int32, int64:
		return true
	}
	return false
}

func (p *Property) isFloat() bool {
	switch p.Value.(type) {
	case float32, float64:
		return true
	}
	return false
}

func (p *Property) String() string {
	switch v := p.Value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case []byte:
		return fmt.Sprintf("\"%v\"", v)
	default:
		return fmt.Sprint(v)
	}
}

func (n *Node) Dump(w io.Writer, d int, full bool) {
	fmt.Fprint(w, strings.Repeat("  ", d), n.Name, ":")
	var arrayReplacer = strings.NewReplacer("[", "{ a:", "]", "}", " ", ", ")
	for i, p := range n.Properties {
		if !full && p.Count > 16 {
			fmt.Fprintf(w, " *%d { SKIPPED }", p.Count)
			continue
		}
		s := p.String()
		if p.Count > 0 {
			s = fmt.Sprint("*", p.Count, " ", arrayReplacer.Replace(s))
		}
		if i == 0 {
			fmt.Fprint(w, " ", s)
		} else {
			fmt.Fprint(w, ", ", s)
		}
	}
	if len(n.Children) > 0 || len(n.Properties) == 0 {
		fmt.Fprintln(w, " {")
		for _, c := range n.Children {
			c.Dump(w, d+1, full)
		}
		fmt.Fprintln(w, strings.Repeat("  ", d)+"}")
	} else {
		fmt.Fprintln(w, "")
	}
}
