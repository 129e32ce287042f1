package translator

import (
	"hue-bridge-emulator/internal/domain/model"
)

// Translator defines the interface for translating between Hue and Home Assistant states
type Translator interface {
	ToHue(entity model.Entity) model.HueLightState
	ToHA(entity model.Entity, req model.StateRequest, override model.EntityOverride) []model.Command
	GetMetadata() model.HueMetadata
}

func command(entity model.Entity, service string, data map[string]interface{}, fields ...string) model.Command {
	if data == nil {
		data = map[string]interface{}{}
	}
	return model.Command{
		Domain:   entity.Domain(),
		Service:  service,
		EntityID: entity.ID,
		Data:     data,
		Fields:   fields,
	}
}

var dimmableLight = model.HueMetadata{
	Type:             "Dimmable light",
	ModelID:          "LWB004",
	ManufacturerName: "Philips",
}

var onOffLight = model.HueMetadata{
	Type:             "On/Off plug-in unit",
	ModelID:          "LOM001",
	ManufacturerName: "Philips",
}
