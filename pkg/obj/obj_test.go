package obj

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/meshkit/pkg/mesh"
)

const cubeFace = `# one quad with normals and uvs
mtllib box.mtl
o box
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
usemtl red
s off
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestParse(t *testing.T) {
	m, err := Parse(strings.NewReader(cubeFace))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(m.Positions) != 4 || len(m.TexCoords) != 4 || len(m.Normals) != 1 {
		t.Errorf("expected 4/4/1 attributes, got %d/%d/%d", len(m.Positions), len(m.TexCoords), len(m.Normals))
	}
	if len(m.Groups) != 1 || m.Groups[0].Name != "box" {
		t.Fatalf("expected one group named box, got %+v", m.Groups)
	}
	face := m.Groups[0].Faces[0]
	if len(face) != 4 {
		t.Fatalf("expected quad, got %d corners", len(face))
	}
	if face[2] != (Corner{V: 2, T: 2, N: 0}) {
		t.Errorf("expected corner {2 2 0}, got %+v", face[2])
	}
	if m.Skipped != 3 {
		t.Errorf("expected 3 skipped lines (mtllib, usemtl, s), got %d", m.Skipped)
	}
	if m.Triangles() != 2 {
		t.Errorf("expected 2 triangles, got %d", m.Triangles())
	}
	if l := m.Layout(); !l.Normals || !l.TexCoords {
		t.Errorf("expected full layout, got %s", l)
	}
}

func TestParse_CornerForms(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vn 0 0 1
f 1 2 3
f 1/1 2/1 3/1
f 1//1 2//1 3//1
f -3/-1/-1 -2/-1/-1 -1/-1/-1
`
	m, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	faces := m.Groups[0].Faces
	want := []Corner{
		{V: 0, T: -1, N: -1},
		{V: 0, T: 0, N: -1},
		{V: 0, T: -1, N: 0},
		{V: 0, T: 0, N: 0},
	}
	for i, w := range want {
		if faces[i][0] != w {
			t.Errorf("face %d: expected %+v, got %+v", i, w, faces[i][0])
		}
	}
	if faces[3][2].V != 2 {
		t.Errorf("expected -1 to resolve to the last vertex, got %d", faces[3][2].V)
	}
	// Mixed presence: layout falls back to positions only.
	if l := m.Layout(); l.Normals || l.TexCoords {
		t.Errorf("expected positions-only layout, got %s", l)
	}
}

func TestParse_Groups(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
g first
f 1 2 3
g second
f 3 2 1
f 1 3 2
g unused
`
	m, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(m.Groups))
	}
	if m.Groups[1].Name != "second" || len(m.Groups[1].Faces) != 2 {
		t.Errorf("unexpected second group %+v", m.Groups[1])
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line string
	}{
		{"short vertex", "v 1 2\n", "line 1"},
		{"bad float", "v 1 x 2\n", "line 1"},
		{"two corners", "v 0 0 0\nf 1 1\n", "line 2"},
		{"index zero", "v 0 0 0\nf 0 1 1\n", "line 2"},
		{"forward reference", "v 0 0 0\nf 1 2 3\nv 1 1 1\n", "line 2"},
		{"missing normal", "v 0 0 0\nf 1//1 1//1 1//1\n", "line 2"},
		{"too many slashes", "v 0 0 0\nf 1/1/1/1 1 1\n", "line 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			if !errors.Is(err, ErrSyntax) {
				t.Fatalf("expected ErrSyntax, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.line) {
				t.Errorf("expected %q in %q", tt.line, err)
			}
		})
	}
}

func TestFeed(t *testing.T) {
	m, err := Parse(strings.NewReader(cubeFace))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var calls int
	var w mesh.Welder
	stats, err := m.Feed(&w, FeedOptions{
		Weld:     mesh.DefaultWeldOptions(),
		Progress: func(done, total int) { calls++ },
	})
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if stats.Triangles != 2 || stats.Added != 4 || stats.Welded != 2 || stats.Dropped != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if calls != 2 {
		t.Errorf("expected 2 progress calls, got %d", calls)
	}
	if w.MaxIndexes() != 6 {
		t.Errorf("expected BeginMesh(6), got capacity %d", w.MaxIndexes())
	}

	d, err := w.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if d.VertexCount() != 4 || d.IndexCount() != 6 {
		t.Errorf("expected 4 vertices / 6 indices, got %d/%d", d.VertexCount(), d.IndexCount())
	}
	if d.TexCoords[2] != (mesh.Vec2{1, 1}) {
		t.Errorf("expected uv {1 1}, got %v", d.TexCoords[2])
	}
	// Fan order: (0,1,2) then (0,2,3).
	want := []uint16{0, 1, 2, 0, 2, 3}
	for i := range want {
		if d.Indices[i] != want[i] {
			t.Errorf("expected indices %v, got %v", want, d.Indices)
			break
		}
	}
}

func TestFeed_MaxVerts(t *testing.T) {
	m, err := Parse(strings.NewReader(cubeFace))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var w mesh.Welder
	stats, err := m.Feed(&w, FeedOptions{MaxVerts: 3})
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if w.MaxIndexes() != 3 {
		t.Errorf("expected capacity 3, got %d", w.MaxIndexes())
	}
	if stats.Triangles != 2 || stats.Dropped != 1 {
		t.Errorf("expected 1 of 2 triangles dropped, got %+v", stats)
	}
	if !w.Truncated() {
		t.Error("expected welder to report truncation")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	if err := os.WriteFile(path, []byte(cubeFace), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Triangles() != 2 {
		t.Errorf("expected 2 triangles, got %d", m.Triangles())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.obj")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
