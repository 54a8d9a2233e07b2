package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/orbsim/internal/bodies"
	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/forces"
	"github.com/san-kum/orbsim/internal/gravity"
)

// DefaultGlobalOrigin is the name of the inertial origin of the global frame.
const DefaultGlobalOrigin = "SSB"

// Builder resolves settings and integration origins into models.
type Builder struct {
	registry        *bodies.Registry
	constructors    map[AccelerationType]Constructor
	globalOrigin    string
	thirdBodyMutual bool
	log             logrus.FieldLogger
}

type Option func(*Builder)

// WithGlobalOrigin names the inertial origin; bodies integrated about it
// get no third-body correction.
func WithGlobalOrigin(name string) Option {
	return func(b *Builder) { b.globalOrigin = name }
}

// WithThirdBodyMutualAttraction folds the affected body's μ into the direct
// term of third-body corrected models.
func WithThirdBodyMutualAttraction(on bool) Option {
	return func(b *Builder) { b.thirdBodyMutual = on }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(b *Builder) { b.log = log }
}

func NewBuilder(reg *bodies.Registry, opts ...Option) *Builder {
	b := &Builder{
		registry:     reg,
		constructors: DefaultConstructors(),
		globalOrigin: DefaultGlobalOrigin,
		log:          logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register adds or replaces the constructor for a settings type.
func (b *Builder) Register(t AccelerationType, c Constructor) {
	b.constructors[t] = c
}

func (b *Builder) GlobalOrigin() string { return b.globalOrigin }

// Build creates the acceleration models for every entry of selected.
// Affected bodies are processed in lexical order, as are exerting bodies;
// models keep the order of their settings.
func (b *Builder) Build(selected SelectedAccelerationMap, central CentralBodyMap) (forces.AccelerationMap, error) {
	out := make(forces.AccelerationMap, len(selected))
	for _, affected := range sortedKeys(selected) {
		_, ha, err := b.registry.Get(affected)
		if err != nil {
			return nil, fmt.Errorf("affected body: %w", err)
		}
		origin, ok := central[affected]
		if !ok {
			return nil, dynamo.Configf("no integration origin for %q", affected)
		}
		if origin == affected {
			return nil, dynamo.Configf("%q cannot be its own integration origin", affected)
		}
		if origin != b.globalOrigin {
			if _, ok := b.registry.Lookup(origin); !ok {
				return nil, dynamo.Configf("unknown integration origin %q of %q", origin, affected)
			}
		}

		out[affected] = make(map[string][]forces.AccelerationModel)
		for _, exerting := range sortedKeys(selected[affected]) {
			if exerting == affected {
				return nil, dynamo.Configf("%q cannot exert an acceleration on itself", affected)
			}
			_, he, err := b.registry.Get(exerting)
			if err != nil {
				return nil, fmt.Errorf("acceleration on %q: %w", affected, err)
			}
			for i, s := range selected[affected][exerting] {
				m, err := b.model(ha, he, origin, s)
				if err != nil {
					return nil, fmt.Errorf("%s on %q from %q (#%d): %w", s.Type, affected, exerting, i, err)
				}
				out[affected][exerting] = append(out[affected][exerting], m)
				b.log.WithFields(logrus.Fields{
					"affected": affected,
					"exerting": exerting,
					"origin":   origin,
					"kind":     m.Kind().String(),
				}).Debug("acceleration model created")
			}
		}
	}
	return out, nil
}

func (b *Builder) model(affected, exerting bodies.Handle, origin string, s AccelerationSettings) (forces.AccelerationModel, error) {
	ctor, ok := b.constructors[s.Type]
	if !ok {
		return nil, dynamo.Configf("unregistered acceleration type %q", s.Type)
	}
	if !ctor.Gravitational {
		return ctor.New(b.registry, affected, exerting, s, false)
	}

	exertingName := b.registry.Body(exerting).Name
	if exertingName == origin {
		mutual := ctor.MutualDefault
		if s.MutualAttraction != nil {
			mutual = *s.MutualAttraction
		}
		return ctor.New(b.registry, affected, exerting, s, mutual)
	}
	if origin == b.globalOrigin {
		return ctor.New(b.registry, affected, exerting, s, false)
	}

	ho, _ := b.registry.Lookup(origin)
	direct, err := b.direct(ctor, affected, exerting, s, b.thirdBodyMutual)
	if err != nil {
		return nil, err
	}
	central, err := b.direct(ctor, ho, exerting, s, false)
	if err != nil {
		return nil, fmt.Errorf("third-body term on origin %q: %w", origin, err)
	}
	return gravity.NewThirdBody(direct, central), nil
}

func (b *Builder) direct(ctor Constructor, target, exerting bodies.Handle, s AccelerationSettings, mutual bool) (gravity.DirectModel, error) {
	m, err := ctor.New(b.registry, target, exerting, s, mutual)
	if err != nil {
		return nil, err
	}
	d, ok := m.(gravity.DirectModel)
	if !ok {
		return nil, dynamo.Configf("%T cannot be used in a third-body correction", m)
	}
	return d, nil
}
