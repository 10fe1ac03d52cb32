// Package mesh holds vertex attribute containers, draw calls and the two
// mesh representations the operators work on.
package mesh

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrUnknownAttribute is returned when an attribute name cannot be parsed.
var ErrUnknownAttribute = errors.New("unknown attribute")

// ElementKind is the element type an attribute stores.
type ElementKind int

const (
	KindScalar ElementKind = iota
	KindVec2
	KindVec3
	KindVec4
)

// Components returns the number of float components per element.
func (k ElementKind) Components() int {
	return int(k) + 1
}

func (k ElementKind) String() string {
	switch k {
	case KindScalar:
		return "SCALAR"
	case KindVec2:
		return "VEC2"
	case KindVec3:
		return "VEC3"
	case KindVec4:
		return "VEC4"
	default:
		return fmt.Sprintf("ElementKind(%d)", int(k))
	}
}

// Semantic is the meaning of an attribute.
type Semantic int

const (
	Position Semantic = iota
	Normal
	Tangent
	TexCoord
	Color
	Joints
	Weights
	Generic
)

var semanticNames = [...]string{
	Position: "POSITION",
	Normal:   "NORMAL",
	Tangent:  "TANGENT",
	TexCoord: "TEXCOORD",
	Color:    "COLOR",
	Joints:   "JOINTS",
	Weights:  "WEIGHTS",
	Generic:  "_SCALAR",
}

func (s Semantic) String() string {
	if s >= 0 && int(s) < len(semanticNames) {
		return semanticNames[s]
	}
	return fmt.Sprintf("Semantic(%d)", int(s))
}

// Kind returns the element kind attributes of this semantic store.
func (s Semantic) Kind() ElementKind {
	switch s {
	case Position, Normal:
		return KindVec3
	case TexCoord:
		return KindVec2
	case Generic:
		return KindScalar
	default:
		return KindVec4
	}
}

// indexed reports whether the semantic can appear more than once.
func (s Semantic) indexed() bool {
	return s >= TexCoord
}

// AttributeKey identifies one attribute of a mesh, e.g. TEXCOORD_1.
type AttributeKey struct {
	Semantic Semantic
	Set      int
}

// Well-known keys.
var (
	KeyPosition  = AttributeKey{Semantic: Position}
	KeyNormal    = AttributeKey{Semantic: Normal}
	KeyTangent   = AttributeKey{Semantic: Tangent}
	KeyTexCoord0 = AttributeKey{Semantic: TexCoord}
	KeyColor0    = AttributeKey{Semantic: Color}
)

// Kind returns the element kind of the attribute.
func (k AttributeKey) Kind() ElementKind {
	return k.Semantic.Kind()
}

// String returns the glTF-style attribute name.
func (k AttributeKey) String() string {
	if !k.Semantic.indexed() {
		return k.Semantic.String()
	}
	return k.Semantic.String() + "_" + strconv.Itoa(k.Set)
}

// ParseAttributeKey parses names produced by AttributeKey.String.
func ParseAttributeKey(name string) (AttributeKey, error) {
	base, set := name, 0
	if i := strings.LastIndexByte(name, '_'); i > 0 {
		n, err := strconv.Atoi(name[i+1:])
		if err == nil && n >= 0 {
			base, set = name[:i], n
		}
	}
	for s, sn := range semanticNames {
		if sn != base {
			continue
		}
		key := AttributeKey{Semantic: Semantic(s), Set: set}
		if !key.Semantic.indexed() && base != name {
			break
		}
		return key, nil
	}
	return AttributeKey{}, fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
}

// CompareKeys orders keys by semantic, then set.
func CompareKeys(a, b AttributeKey) int {
	if c := cmp.Compare(a.Semantic, b.Semantic); c != 0 {
		return c
	}
	return cmp.Compare(a.Set, b.Set)
}

// SortKeys sorts keys in place into canonical order.
func SortKeys(keys []AttributeKey) {
	slices.SortFunc(keys, CompareKeys)
}
