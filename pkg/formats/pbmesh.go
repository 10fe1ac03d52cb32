package formats

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	vec "github.com/Faultbox/meshkit/pkg/math"
	"github.com/Faultbox/meshkit/pkg/mesh"
)

// ErrMalformedPBMesh is returned when pbmesh data cannot be decoded.
var ErrMalformedPBMesh = errors.New("malformed pbmesh data")

// pbmesh is a protobuf message laid out as:
//
//	message Mesh {
//	  repeated Attribute attributes = 1;
//	  repeated DrawCall draw_calls = 2;
//	}
//	message Attribute {
//	  string key = 1;            // e.g. "TEXCOORD_0"
//	  uint32 kind = 2;           // ElementKind
//	  repeated float values = 3; // packed, kind.Components() per value
//	  repeated uint32 indices = 4;
//	}
//	message DrawCall {
//	  uint32 topology = 1;
//	  uint32 start = 2;
//	  uint32 count = 3;
//	  string name = 4;
//	}
const (
	pbMeshAttributes protowire.Number = 1
	pbMeshDrawCalls  protowire.Number = 2

	pbAttrKey     protowire.Number = 1
	pbAttrKind    protowire.Number = 2
	pbAttrValues  protowire.Number = 3
	pbAttrIndices protowire.Number = 4

	pbDrawTopology protowire.Number = 1
	pbDrawStart    protowire.Number = 2
	pbDrawCount    protowire.Number = 3
	pbDrawName     protowire.Number = 4
)

// EncodePBMesh serialises s. Values, indices and draw calls are kept
// exactly; decoding yields list containers.
func EncodePBMesh(s *mesh.SeparatedIndexedMesh) []byte {
	var b []byte
	for _, key := range s.Keys() {
		b = protowire.AppendTag(b, pbMeshAttributes, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeAttribute(key, s.Attribute(key), s.Indices(key)))
	}
	for _, dc := range s.DrawCalls() {
		var d []byte
		d = protowire.AppendTag(d, pbDrawTopology, protowire.VarintType)
		d = protowire.AppendVarint(d, uint64(dc.Topology))
		d = protowire.AppendTag(d, pbDrawStart, protowire.VarintType)
		d = protowire.AppendVarint(d, uint64(dc.Start))
		d = protowire.AppendTag(d, pbDrawCount, protowire.VarintType)
		d = protowire.AppendVarint(d, uint64(dc.Count))
		if dc.Name != "" {
			d = protowire.AppendTag(d, pbDrawName, protowire.BytesType)
			d = protowire.AppendString(d, dc.Name)
		}
		b = protowire.AppendTag(b, pbMeshDrawCalls, protowire.BytesType)
		b = protowire.AppendBytes(b, d)
	}
	return b
}

func encodeAttribute(key mesh.AttributeKey, a mesh.Attribute, indices []int) []byte {
	var b []byte
	b = protowire.AppendTag(b, pbAttrKey, protowire.BytesType)
	b = protowire.AppendString(b, key.String())
	b = protowire.AppendTag(b, pbAttrKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(a.Kind()))

	comps := a.Kind().Components()
	var values []byte
	for i := 0; i < a.Count(); i++ {
		v := a.Vec4(i)
		arr := [4]float32{v.X, v.Y, v.Z, v.W}
		for _, f := range arr[:comps] {
			values = protowire.AppendFixed32(values, math.Float32bits(f))
		}
	}
	b = protowire.AppendTag(b, pbAttrValues, protowire.BytesType)
	b = protowire.AppendBytes(b, values)

	var idx []byte
	for _, i := range indices {
		idx = protowire.AppendVarint(idx, uint64(i))
	}
	b = protowire.AppendTag(b, pbAttrIndices, protowire.BytesType)
	b = protowire.AppendBytes(b, idx)
	return b
}

// DecodePBMesh parses data written by EncodePBMesh. Unknown fields are
// skipped.
func DecodePBMesh(data []byte) (*mesh.SeparatedIndexedMesh, error) {
	s := mesh.NewSeparatedIndexedMesh()
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		switch {
		case num == pbMeshAttributes && typ == protowire.BytesType:
			return decodeAttribute(s, v)
		case num == pbMeshDrawCalls && typ == protowire.BytesType:
			dc, err := decodeDrawCall(v)
			if err != nil {
				return err
			}
			s.AddDrawCall(dc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := mesh.Validate(s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPBMesh, err)
	}
	return s, nil
}

func decodeAttribute(s *mesh.SeparatedIndexedMesh, data []byte) error {
	var (
		name    string
		kind    uint64
		values  []byte
		indices []int
	)
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error {
		switch {
		case num == pbAttrKey && typ == protowire.BytesType:
			name = string(v)
		case num == pbAttrKind && typ == protowire.VarintType:
			kind = x
		case num == pbAttrValues && typ == protowire.BytesType:
			values = append(values, v...)
		case num == pbAttrIndices && typ == protowire.BytesType:
			for len(v) > 0 {
				i, n := protowire.ConsumeVarint(v)
				if n < 0 || i > math.MaxInt32 {
					return fmt.Errorf("%w: bad index", ErrMalformedPBMesh)
				}
				indices = append(indices, int(i))
				v = v[n:]
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	key, err := mesh.ParseAttributeKey(name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPBMesh, err)
	}
	if kind > uint64(mesh.KindVec4) {
		return fmt.Errorf("%w: %s has kind %d", ErrMalformedPBMesh, key, kind)
	}
	k := mesh.ElementKind(kind)
	stride := 4 * k.Components()
	if len(values)%stride != 0 {
		return fmt.Errorf("%w: %s values not a multiple of %d bytes", ErrMalformedPBMesh, key, stride)
	}

	a := mesh.NewListAttribute(k)
	for off := 0; off < len(values); off += stride {
		var f [4]float32
		for c := 0; c < k.Components(); c++ {
			bits, _ := protowire.ConsumeFixed32(values[off+4*c:])
			f[c] = math.Float32frombits(bits)
		}
		a.AddVec4(vec.Vec4{X: f[0], Y: f[1], Z: f[2], W: f[3]})
	}
	s.SetAttribute(key, a, indices)
	return nil
}

func decodeDrawCall(data []byte) (mesh.DrawCall, error) {
	var dc mesh.DrawCall
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error {
		if x > math.MaxInt32 {
			return fmt.Errorf("%w: draw call field %d out of range", ErrMalformedPBMesh, num)
		}
		switch {
		case num == pbDrawTopology && typ == protowire.VarintType:
			if x > uint64(mesh.TriangleFan) {
				return fmt.Errorf("%w: topology %d", ErrMalformedPBMesh, x)
			}
			dc.Topology = mesh.Topology(x)
		case num == pbDrawStart && typ == protowire.VarintType:
			dc.Start = int(x)
		case num == pbDrawCount && typ == protowire.VarintType:
			dc.Count = int(x)
		case num == pbDrawName && typ == protowire.BytesType:
			dc.Name = string(v)
		}
		return nil
	})
	return dc, err
}

// walkFields calls fn for every field of a message. Length-delimited fields
// pass their payload in v, varints their value in x. Fixed-width fields are
// skipped.
func walkFields(data []byte, fn func(num protowire.Number, typ protowire.Type, v []byte, x uint64) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformedPBMesh, protowire.ParseError(n))
		}
		data = data[n:]

		var (
			v []byte
			x uint64
		)
		switch typ {
		case protowire.BytesType:
			v, n = protowire.ConsumeBytes(data)
		case protowire.VarintType:
			x, n = protowire.ConsumeVarint(data)
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformedPBMesh, protowire.ParseError(n))
		}
		data = data[n:]

		if typ == protowire.BytesType || typ == protowire.VarintType {
			if err := fn(num, typ, v, x); err != nil {
				return err
			}
		}
	}
	return nil
}
