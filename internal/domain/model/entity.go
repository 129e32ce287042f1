package model

import "strings"

type Domain string

const (
	DomainLight        Domain = "light"
	DomainSwitch       Domain = "switch"
	DomainInputBoolean Domain = "input_boolean"
	DomainMediaPlayer  Domain = "media_player"
	DomainScript       Domain = "script"
	DomainScene        Domain = "scene"
)

// SupportedDomains lists every domain the bridge knows how to translate.
var SupportedDomains = []Domain{
	DomainLight,
	DomainSwitch,
	DomainInputBoolean,
	DomainMediaPlayer,
	DomainScript,
	DomainScene,
}

// DomainOf returns the part of an entity id before the first dot.
func DomainOf(entityID string) Domain {
	domain, _, _ := strings.Cut(entityID, ".")
	return Domain(domain)
}

// Entity is a snapshot of one Home Assistant entity, built per request.
type Entity struct {
	ID         string                 `json:"entity_id" yaml:"entity_id"`
	State      string                 `json:"state" yaml:"state"`
	Attributes map[string]interface{} `json:"attributes" yaml:"attributes"`
}

func (e Entity) Domain() Domain {
	return DomainOf(e.ID)
}

// Float returns a numeric attribute. JSON numbers decode as float64 but
// in-process stores may hold ints.
func (e Entity) Float(attr string) (float64, bool) {
	switch v := e.Attributes[attr].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint8:
		return float64(v), true
	}
	return 0, false
}

func (e Entity) String(attr string) string {
	s, _ := e.Attributes[attr].(string)
	return s
}

func (e Entity) Bool(attr string) (bool, bool) {
	b, ok := e.Attributes[attr].(bool)
	return b, ok
}
