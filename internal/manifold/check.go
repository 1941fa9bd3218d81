package manifold

import (
	"fmt"

	"github.com/Faultbox/pixelmesh/internal/mesh"
)

// Report describes one scan, fix and verify pass.
type Report struct {
	Before   Issues
	After    Issues
	Fixes    Fixes
	Repaired bool // Repair ran
	Valid    bool // The returned mesh is a closed manifold

	Vertices  int
	Triangles int
}

// Summary renders the report as a single log-friendly line.
func (r Report) Summary() string {
	if !r.Repaired {
		return fmt.Sprintf("clean: %d vertices, %d faces, %d components",
			r.After.Vertices, r.After.Faces, r.After.Components)
	}
	return fmt.Sprintf("%d defects, %d fixes, %d remaining: %d vertices, %d faces, %d components",
		r.Before.Defects(), r.Fixes.Total(), r.After.Defects(),
		r.After.Vertices, r.After.Faces, r.After.Components)
}

// Check scans m and repairs it only if the scan finds defects. The input is
// returned unchanged when it is already clean.
func Check(m *mesh.Mesh) (*mesh.Mesh, Report) {
	var r Report
	r.Before = Scan(m)
	if r.Before.Clean() {
		r.After = r.Before
		r.Valid = true
		if m == nil {
			m = &mesh.Mesh{}
		}
		r.Vertices, r.Triangles = len(m.Vertices), len(m.Triangles)
		return m, r
	}

	fixed, fixes := Repair(m)
	r.Repaired = true
	r.Fixes = fixes
	r.After = Scan(fixed)
	r.Valid = r.After.Clean()
	r.Vertices, r.Triangles = len(fixed.Vertices), len(fixed.Triangles)
	return fixed, r
}
