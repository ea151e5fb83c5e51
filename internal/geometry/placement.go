package geometry

// Placement is the coordinate frame shared by all geometry in one unit:
// an origin plus the Z and X axes of the frame.
type Placement struct {
	Origin Vec3
	ZAxis  Vec3
	XAxis  Vec3
}

// IdentityPlacement is the world frame: origin at zero, Z up, X east.
func IdentityPlacement() Placement {
	return Placement{
		ZAxis: Vec3{0, 0, 1},
		XAxis: Vec3{1, 0, 0},
	}
}

// Normalized fills unset axes with the identity frame's axes so a partial
// placement (origin only) remains usable.
func (p Placement) Normalized() Placement {
	if p.ZAxis == (Vec3{}) {
		p.ZAxis = Vec3{0, 0, 1}
	}
	if p.XAxis == (Vec3{}) {
		p.XAxis = Vec3{1, 0, 0}
	}
	return p
}

// IsIdentity reports whether the placement is the world frame.
func (p Placement) IsIdentity() bool {
	return p.Normalized() == IdentityPlacement()
}
