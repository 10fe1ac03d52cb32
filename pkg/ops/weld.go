package ops

import (
	"go.uber.org/zap"

	"github.com/Faultbox/meshkit/pkg/mesh"
)

// WeldOptions configures Weld.
type WeldOptions struct {
	Containers mesh.ContainerOptions
	Logger     *zap.Logger
}

// WeldReport holds per-attribute value counts before and after welding.
type WeldReport struct {
	Before map[mesh.AttributeKey]int
	After  map[mesh.AttributeKey]int
}

// Weld normalises m into separated form with the configured radii, merging
// nearby values of every attribute.
func Weld(m mesh.Mesh, opts WeldOptions) (*mesh.SeparatedIndexedMesh, WeldReport, error) {
	log := logOrNop(opts.Logger)
	report := WeldReport{
		Before: make(map[mesh.AttributeKey]int),
		After:  make(map[mesh.AttributeKey]int),
	}
	for _, key := range m.Keys() {
		report.Before[key] = m.Attribute(key).Count()
	}

	s, err := mesh.ToSeparated(m, opts.Containers)
	if err != nil {
		return nil, report, err
	}
	for _, key := range s.Keys() {
		report.After[key] = s.Attribute(key).Count()
		log.Debug("welded attribute",
			zap.Stringer("key", key),
			zap.Int("before", report.Before[key]),
			zap.Int("after", report.After[key]))
	}
	return s, report, nil
}
