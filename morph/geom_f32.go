package morph

import (
	"image"
	"math"
)

// Point is a 2-D coordinate in image space
type Point struct {
	X float32
	Y float32
}

func NewPoint(x, y float32) Point {
	return Point{
		X: x,
		Y: y,
	}
}

func NewPointFrom(point image.Point) Point {
	return Point{
		X: float32(point.X),
		Y: float32(point.Y),
	}
}

// Lerp returns a + amount*(b-a) component-wise. amount = 0 gives a, amount = 1 gives b.
func Lerp(a, b Point, amount float32) Point {
	return Point{
		X: a.X + amount*(b.X-a.X),
		Y: a.Y + amount*(b.Y-a.Y),
	}
}

func euclideanDistance(p1, p2 Point) float32 {
	dx := float64(p1.X - p2.X)
	dy := float64(p1.Y - p2.Y)
	return float32(math.Sqrt(dx*dx + dy*dy))
}
