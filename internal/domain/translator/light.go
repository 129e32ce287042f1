package translator

import (
	"hue-bridge-emulator/internal/domain/model"
)

type LightStrategy struct{}

func (s *LightStrategy) ToHue(entity model.Entity) model.HueLightState {
	state := model.HueLightState{Reachable: true}
	state.On = entity.State == "on"
	if state.On {
		if bri, ok := entity.Float("brightness"); ok {
			state.Bri = clampByte(bri)
		}
	}
	return state
}

func (s *LightStrategy) ToHA(entity model.Entity, req model.StateRequest, _ model.EntityOverride) []model.Command {
	if !req.On {
		return []model.Command{command(entity, "turn_off", nil, model.HueStateOn)}
	}
	if req.Bri == nil {
		return []model.Command{command(entity, "turn_on", nil, model.HueStateOn)}
	}
	data := map[string]interface{}{"brightness": int(*req.Bri)}
	return []model.Command{command(entity, "turn_on", data, model.HueStateOn, model.HueStateBri)}
}

func (s *LightStrategy) GetMetadata() model.HueMetadata {
	return dimmableLight
}

// SwitchStrategy covers on/off-only domains such as switch and input_boolean.
type SwitchStrategy struct{}

func (s *SwitchStrategy) ToHue(entity model.Entity) model.HueLightState {
	return model.HueLightState{On: entity.State == "on", Reachable: true}
}

func (s *SwitchStrategy) ToHA(entity model.Entity, req model.StateRequest, _ model.EntityOverride) []model.Command {
	service := "turn_on"
	if !req.On {
		service = "turn_off"
	}
	return []model.Command{command(entity, service, nil, model.HueStateOn)}
}

func (s *SwitchStrategy) GetMetadata() model.HueMetadata {
	return onOffLight
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}
