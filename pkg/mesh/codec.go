package mesh

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// maxIndexCount bounds the header so a corrupt file cannot request an
// arbitrarily large allocation.
const maxIndexCount = 1 << 26

var byteOrder = binary.LittleEndian

// header is the fixed prefix of a binary mesh. The file carries no magic,
// version or presence bits; readers must know which optional sections follow.
type header struct {
	IndexCount  int32
	VertexCount int32
	Radius      float32
}

type section struct {
	name string
	data any
}

// LoadOptions tells Decode which optional sections to expect after the
// positions. Normals, when present, precede texture coordinates.
type LoadOptions struct {
	Normals   bool
	TexCoords bool
}

// DefaultLoadOptions expects both optional sections.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{Normals: true, TexCoords: true}
}

// Encode writes d as a header followed by indices, positions and, if present,
// normals and texture coordinates.
func Encode(w io.Writer, d *Data) error {
	if err := d.Validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	hdr := header{
		IndexCount:  int32(len(d.Indices)),
		VertexCount: int32(len(d.Positions)),
		Radius:      d.Radius,
	}

	sections := []section{
		{"header", hdr},
		{"indices", d.Indices},
		{"positions", d.Positions},
	}
	if d.Normals != nil {
		sections = append(sections, section{"normals", d.Normals})
	}
	if d.TexCoords != nil {
		sections = append(sections, section{"texcoords", d.TexCoords})
	}

	for _, s := range sections {
		if err := binary.Write(bw, byteOrder, s.data); err != nil {
			return fmt.Errorf("writing %s: %w", s.name, err)
		}
	}
	return bw.Flush()
}

// Decode reads a mesh written by Encode.
//
// A short read in the header, indices or positions fails with
// ErrTruncatedMesh. A short read in an optional section requested by opts
// drops that attribute (and any section after it) instead of failing.
//
// Decode consumes only the sections it reads, so meshes written back to back
// can be decoded from one stream as long as opts match each written layout.
// Wrap slow readers in a bufio.Reader first.
func Decode(r io.Reader, opts LoadOptions) (*Data, error) {

	var hdr header
	if err := binary.Read(r, byteOrder, &hdr); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrTruncatedMesh, err)
	}
	if hdr.IndexCount < 0 || hdr.IndexCount > maxIndexCount {
		return nil, fmt.Errorf("%w: index count %d", ErrInvalidHeader, hdr.IndexCount)
	}
	if hdr.VertexCount < 0 || hdr.VertexCount > MaxVertices {
		return nil, fmt.Errorf("%w: vertex count %d", ErrInvalidHeader, hdr.VertexCount)
	}

	d := &Data{
		Indices:   make([]uint16, hdr.IndexCount),
		Positions: make([]Vec3, hdr.VertexCount),
		Radius:    hdr.Radius,
	}
	if err := binary.Read(r, byteOrder, d.Indices); err != nil {
		return nil, fmt.Errorf("%w: indices: %v", ErrTruncatedMesh, err)
	}
	if err := binary.Read(r, byteOrder, d.Positions); err != nil {
		return nil, fmt.Errorf("%w: positions: %v", ErrTruncatedMesh, err)
	}

	if opts.Normals {
		normals := make([]Vec3, hdr.VertexCount)
		ok, err := readOptional(r, normals)
		if err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
		if ok {
			d.Normals = normals
		}
	}
	if opts.TexCoords {
		texCoords := make([]Vec2, hdr.VertexCount)
		ok, err := readOptional(r, texCoords)
		if err != nil {
			return nil, fmt.Errorf("reading texcoords: %w", err)
		}
		if ok {
			d.TexCoords = texCoords
		}
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// readOptional fills dst, reporting false when the stream ends first.
func readOptional(r io.Reader, dst any) (bool, error) {
	err := binary.Read(r, byteOrder, dst)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return false, nil
	default:
		return false, err
	}
}

// SaveFile writes d to path, replacing any existing file.
func SaveFile(path string, d *Data) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Encode(f, d); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// LoadFile reads a mesh from path.
func LoadFile(path string, opts LoadOptions) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	d, err := Decode(bufio.NewReader(f), opts)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return d, nil
}
