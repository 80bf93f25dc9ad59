// Package obj reads Wavefront OBJ geometry and feeds it to a mesh.Builder.
//
// Only geometry is read: v, vn, vt, f, o and g. Materials, smoothing groups
// and free-form curves are skipped.
package obj

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/meshkit/pkg/mesh"
)

// ErrSyntax reports a malformed line.
var ErrSyntax = errors.New("obj syntax error")

// Corner is one face corner. T and N are -1 when absent.
type Corner struct {
	V, T, N int
}

// Face is a polygon with at least three corners.
type Face []Corner

// Group is a named run of faces started by an o or g line.
type Group struct {
	Name  string
	Faces []Face
}

// Model is the geometry of one OBJ file. Indices in faces are 0-based and
// already resolved against the attribute lists.
type Model struct {
	Positions []mesh.Vec3
	Normals   []mesh.Vec3
	TexCoords []mesh.Vec2
	Groups    []Group

	// Skipped counts lines with keywords that are not read.
	Skipped int
}

// Load parses the OBJ file at path.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// Parse reads OBJ text from r.
func Parse(r io.Reader) (*Model, error) {
	m := &Model{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		var err error
		switch ident, val := fields[0], fields[1:]; ident {
		case "v":
			var v mesh.Vec3
			if err = parseFloats(v[:], val, 3); err == nil {
				m.Positions = append(m.Positions, v)
			}
		case "vn":
			var v mesh.Vec3
			if err = parseFloats(v[:], val, 3); err == nil {
				m.Normals = append(m.Normals, v)
			}
		case "vt":
			var v mesh.Vec2
			if err = parseFloats(v[:], val, 1); err == nil {
				m.TexCoords = append(m.TexCoords, v)
			}
		case "f":
			var face Face
			if face, err = m.parseFace(val); err == nil {
				m.currentGroup().Faces = append(m.currentGroup().Faces, face)
			}
		case "o", "g":
			name := strings.Join(val, " ")
			if g := m.currentGroup(); len(g.Faces) == 0 {
				g.Name = name
			} else {
				m.Groups = append(m.Groups, Group{Name: name})
			}
		default:
			m.Skipped++
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Drop a trailing group that never got faces.
	if n := len(m.Groups); n > 0 && len(m.Groups[n-1].Faces) == 0 {
		m.Groups = m.Groups[:n-1]
	}
	return m, nil
}

func (m *Model) currentGroup() *Group {
	if len(m.Groups) == 0 {
		m.Groups = append(m.Groups, Group{})
	}
	return &m.Groups[len(m.Groups)-1]
}

// parseFloats fills dst from fields. At least min values are required;
// missing trailing values stay zero and extra ones (such as w) are ignored.
func parseFloats(dst []float32, fields []string, min int) error {
	if len(fields) < min {
		return fmt.Errorf("expected %d values, got %d", min, len(fields))
	}
	for i := range dst {
		if i >= len(fields) {
			break
		}
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return err
		}
		dst[i] = float32(f)
	}
	return nil
}

// parseFace reads corners in the v, v/t, v//n and v/t/n forms.
func (m *Model) parseFace(fields []string) (Face, error) {
	if len(fields) < 3 {
		return nil, fmt.Errorf("face needs 3 corners, got %d", len(fields))
	}
	face := make(Face, len(fields))
	for i, s := range fields {
		parts := strings.Split(s, "/")
		if len(parts) > 3 {
			return nil, fmt.Errorf("bad corner %q", s)
		}

		c := Corner{T: -1, N: -1}
		var err error
		if c.V, err = resolve(parts[0], len(m.Positions)); err != nil {
			return nil, fmt.Errorf("corner %q: %w", s, err)
		}
		if len(parts) > 1 && parts[1] != "" {
			if c.T, err = resolve(parts[1], len(m.TexCoords)); err != nil {
				return nil, fmt.Errorf("corner %q: %w", s, err)
			}
		}
		if len(parts) > 2 && parts[2] != "" {
			if c.N, err = resolve(parts[2], len(m.Normals)); err != nil {
				return nil, fmt.Errorf("corner %q: %w", s, err)
			}
		}
		face[i] = c
	}
	return face, nil
}

// resolve turns a 1-based or negative relative OBJ index into a 0-based one.
func resolve(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i += count
	default:
		return 0, errors.New("index 0")
	}
	if i < 0 || i >= count {
		return 0, fmt.Errorf("index %s out of range (%d defined)", s, count)
	}
	return i, nil
}
