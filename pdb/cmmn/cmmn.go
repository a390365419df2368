// Package pdb/cmmn has common definitions for coordinates and
// the sources structures come from.
package cmmn

import (
	"math"
)

// Does our data come from a file or http source ?
const (
	FileSrc byte = iota
	HTTPSrc
)

type Xyz struct{ X, Y, Z float32 }

// BrokenXyz marks coordinates that could not be read.
var BrokenXyz = Xyz{math.MaxFloat32, 0, -math.MaxFloat32}

// BrokenResNum is used when a residue number is "." or "?".
var BrokenResNum int = -9999

func (xyz *Xyz) Ok() bool {
	if *xyz != BrokenXyz {
		return true
	}
	return false
}

// Near says if two points agree to within tol in each of x, y and z.
// We are interested in gross errors, not numerical detail.
func (xyz Xyz) Near(b Xyz, tol float32) bool {
	diff := func(p, q float32) bool {
		d := p - q
		return d > tol || -d > tol
	}
	if diff(xyz.X, b.X) || diff(xyz.Y, b.Y) || diff(xyz.Z, b.Z) {
		return false
	}
	return true
}
