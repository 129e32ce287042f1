package model

import "github.com/amimof/huego"

// Hue API field names accepted on PUT .../state.
const (
	HueStateOn  = "on"
	HueStateBri = "bri"
)

// HueLightState is the wire projection of an entity. Unlike huego.State,
// bri is always serialised so clients can read 0.
type HueLightState struct {
	On        bool  `json:"on"`
	Bri       uint8 `json:"bri"`
	Reachable bool  `json:"reachable"`
}

type HueMetadata struct {
	Type             string
	ModelID          string
	ManufacturerName string
}

// LightView is the light object returned by /lights and /lights/{id}.
// State shadows the embedded huego.Light state.
type LightView struct {
	huego.Light
	State HueLightState `json:"state"`
}

func NewLightView(id, name string, meta HueMetadata, state HueLightState) *LightView {
	return &LightView{
		Light: huego.Light{
			Name:             name,
			Type:             meta.Type,
			ModelID:          meta.ModelID,
			ManufacturerName: meta.ManufacturerName,
			UniqueID:         id,
		},
		State: state,
	}
}

// StateRequest is a validated PUT body.
type StateRequest struct {
	On  bool
	Bri *uint8
}

// Command is one Home Assistant service call.
type Command struct {
	Domain   Domain
	Service  string
	EntityID string
	Data     map[string]interface{}

	// Fields lists the Hue state fields this call applies.
	Fields []string
}

func (c Command) String() string {
	return string(c.Domain) + "." + c.Service
}
