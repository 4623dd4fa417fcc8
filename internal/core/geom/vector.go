package geom

import "math"

// Vec2 is a point in the normalized placement plane.
type Vec2 struct{ X, Y float64 }

// Vec3 is a world-space position. Cluster positions keep Z at 0.
type Vec3 struct{ X, Y, Z float64 }

func (v Vec2) Vec3() Vec3 { return Vec3{X: v.X, Y: v.Y} }

func (v Vec3) Vec2() Vec2 { return Vec2{X: v.X, Y: v.Y} }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// SqrMagnitude returns the squared length of v.
func (v Vec3) SqrMagnitude() float64 { return v.X*v.X + v.Y*v.Y + v.Z*v.Z }

// DistanceSq computes squared Euclidean distance between two points.
func DistanceSq(a, b Vec3) float64 { return a.Sub(b).SqrMagnitude() }

// Distance computes Euclidean distance between two points.
func Distance(a, b Vec3) float64 { return math.Sqrt(DistanceSq(a, b)) }

// Midpoint returns (a+b)/2.
func Midpoint(a, b Vec3) Vec3 { return a.Add(b).Scale(0.5) }
