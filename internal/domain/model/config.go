package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AttrEmulatedHue is the live attribute that overrides exposure per entity.
const AttrEmulatedHue = "emulated_hue"

type EntityOverride struct {
	Exposed *bool  `json:"exposed,omitempty" yaml:"exposed"`
	Name    string `json:"name,omitempty" yaml:"name"`

	// OffScript is run when a script entity is switched off.
	OffScript string `json:"off_script,omitempty" yaml:"off_script"`

	// LevelFormula converts the Hue brightness x (0-255) into the
	// requested_level variable passed to scripts.
	LevelFormula string `json:"level_formula,omitempty" yaml:"level_formula"`
}

// BridgeConfig is fixed for the lifetime of the service.
type BridgeConfig struct {
	ListenAddr         string
	ListenPort         int
	AdvertiseIP        string
	AdvertisePort      int
	MulticastInterface string
	BridgeID           string

	ExposeByDefault bool
	ExposedDomains  []Domain
	Entities        map[string]EntityOverride
}

func (c *BridgeConfig) Override(entityID string) (EntityOverride, bool) {
	if c.Entities == nil {
		return EntityOverride{}, false
	}
	o, ok := c.Entities[entityID]
	return o, ok
}

func (c *BridgeConfig) DomainExposed(d Domain) bool {
	for _, exposed := range c.ExposedDomains {
		if exposed == d {
			return true
		}
	}
	return false
}

// Identity is persisted so the bridge keeps its id across restarts.
type Identity struct {
	BridgeID  string    `json:"bridge_id"`
	CreatedAt time.Time `json:"created_at"`
}

// UDN is the UPnP device uuid, derived from the bridge id so it survives
// restarts.
func (c *BridgeConfig) UDN() string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("hue-bridge:"+c.BridgeID)).String()
}

// MAC formats the last six bytes of the bridge id as a MAC address.
func (c *BridgeConfig) MAC() string {
	id := strings.ToLower(c.BridgeID)
	for len(id) < 12 {
		id = "0" + id
	}
	id = id[len(id)-12:]
	parts := make([]string, 0, 6)
	for i := 0; i < 12; i += 2 {
		parts = append(parts, id[i:i+2])
	}
	return strings.Join(parts, ":")
}
