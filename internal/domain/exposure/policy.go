package exposure

import (
	"hue-bridge-emulator/internal/domain/model"
)

// Supported reports whether a domain has a translation strategy.
type Supported func(model.Domain) bool

// Policy decides which entities are visible through the bridge.
type Policy struct {
	cfg       *model.BridgeConfig
	supported Supported
}

func NewPolicy(cfg *model.BridgeConfig, supported Supported) *Policy {
	return &Policy{cfg: cfg, supported: supported}
}

// IsExposed checks, in order: domain support, the configured override,
// the live emulated_hue attribute, then the global default.
func (p *Policy) IsExposed(e model.Entity) bool {
	domain := e.Domain()
	if !p.supported(domain) || !p.cfg.DomainExposed(domain) {
		return false
	}
	if o, ok := p.cfg.Override(e.ID); ok && o.Exposed != nil {
		return *o.Exposed
	}
	if exposed, ok := e.Bool(model.AttrEmulatedHue); ok {
		return exposed
	}
	return p.cfg.ExposeByDefault
}

// Name is the name shown to Hue clients.
func (p *Policy) Name(e model.Entity) string {
	if o, ok := p.cfg.Override(e.ID); ok && o.Name != "" {
		return o.Name
	}
	if name := e.String("friendly_name"); name != "" {
		return name
	}
	return e.ID
}
