// Package formats reads and writes meshes in OBJ, STL and pbmesh files.
package formats

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshkit/pkg/encoding"
	"github.com/Faultbox/meshkit/pkg/mesh"
)

// ErrUnsupportedFormat is returned for file extensions with no codec.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// Format identifies a file format.
type Format string

const (
	FormatOBJ    Format = "obj"
	FormatSTL    Format = "stl"
	FormatPBMesh Format = "pbmesh"
)

// DetectFormat returns the format for a file name by extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return FormatOBJ, nil
	case ".stl":
		return FormatSTL, nil
	case ".pbmesh":
		return FormatPBMesh, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Options control reading.
type Options struct {
	// NameEncoding is the encoding of object and group names in OBJ files
	// and of the STL header.
	NameEncoding string
}

// Load reads a mesh, choosing the codec by extension.
func Load(path string, opts Options) (mesh.Mesh, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if _, err := encoding.Lookup(opts.NameEncoding); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatOBJ:
		return ReadOBJ(bytes.NewReader(data), opts)
	case FormatSTL:
		return ReadSTL(data, opts)
	default:
		return DecodePBMesh(data)
	}
}

// Save writes m, choosing the codec by extension.
func Save(path string, m mesh.Mesh) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch format {
	case FormatOBJ:
		err = WriteOBJ(&buf, m)
	case FormatSTL:
		err = WriteSTL(&buf, m, filepath.Base(path))
	default:
		s, ok := m.(*mesh.SeparatedIndexedMesh)
		if !ok {
			// Zero radii: exact deduplication only.
			s, err = mesh.ToSeparated(m, mesh.ContainerOptions{})
		}
		if err == nil {
			buf.Write(EncodePBMesh(s))
		}
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
