package geom

import "math"

type Vector4 struct {
	X Element
	Y Element
	Z Element
	W Element
}

type Quaternion = Vector4

func NewQuaternion(x, y, z, w Element) *Quaternion {
	return &Quaternion{X: x, Y: y, Z: z, W: w}
}

// NewRotationQuaternion returns the rotation of angle radians around axis.
func NewRotationQuaternion(axis *Vector3, angle Element) *Quaternion {
	s := math.Sin(angle / 2)
	return &Quaternion{X: axis.X * s, Y: axis.Y * s, Z: axis.Z * s, W: math.Cos(angle / 2)}
}

func (v *Vector4) Add(v2 *Vector4) *Vector4 {
	return &Vector4{X: v.X + v2.X, Y: v.Y + v2.Y, Z: v.Z + v2.Z, W: v.W + v2.W}
}

func (v *Vector4) Sub(v2 *Vector4) *Vector4 {
	return &Vector4{X: v.X - v2.X, Y: v.Y - v2.Y, Z: v.Z - v2.Z, W: v.W - v2.W}
}

func (v *Vector4) Dot(v2 *Vector4) Element {
	return v.X*v2.X + v.Y*v2.Y + v.Z*v2.Z + v.W*v2.W
}

func (v *Vector4) Len() Element {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z + v.W*v.W)
}

func (v *Vector4) Normalize() *Vector4 {
	l := v.Len()
	if l > 0 {
		v.X /= l
		v.Y /= l
		v.Z /= l
		v.W /= l
	} else {
		v.W = 1
	}
	return v
}

func (v *Vector4) Negate() *Vector4 {
	return &Vector4{X: -v.X, Y: -v.Y, Z: -v.Z, W: -v.W}
}

func (v *Vector4) Inverse() *Vector4 {
	return &Vector4{X: -v.X, Y: -v.Y, Z: -v.Z, W: v.W}
}

// Mul returns the Hamilton product a * b.
func (a *Vector4) Mul(b *Vector4) *Vector4 {
	return &Vector4{
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z, // 1
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y, // i
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X, // j
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W, // k
	}
}

// ApplyTo rotates v3 by the unit quaternion q.
func (q *Quaternion) ApplyTo(v *Vector3) *Vector3 {
	u := &Vector3{X: q.X, Y: q.Y, Z: q.Z}
	t := u.Cross(v)
	return v.Add(t.Scale(2 * q.W)).Add(u.Cross(t).Scale(2))
}

// Slerp interpolates between two unit quaternions along the shorter arc.
// Nearly parallel inputs fall back to a normalized linear blend.
func Slerp(a, b *Quaternion, t Element) *Quaternion {
	dot := a.Dot(b)
	sign := Element(1)
	if dot < 0 {
		dot = -dot
		sign = -1
	}
	if dot > 0.9995 {
		return a.Scale(1 - t).Add(b.Scale(sign * t)).Normalize()
	}
	theta := math.Acos(math.Min(dot, 1))
	sinTheta := math.Sin(theta)
	w0 := math.Sin((1-t)*theta) / sinTheta
	w1 := math.Sin(t*theta) / sinTheta * sign
	return &Quaternion{
		X: a.X*w0 + b.X*w1,
		Y: a.Y*w0 + b.Y*w1,
		Z: a.Z*w0 + b.Z*w1,
		W: a.W*w0 + b.W*w1,
	}
}

func (v *Vector4) Scale(s Element) *Vector4 {
	return &Vector4{X: v.X * s, Y: v.Y * s, Z: v.Z * s, W: v.W * s}
}
