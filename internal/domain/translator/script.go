package translator

import (
	"hue-bridge-emulator/internal/domain/model"
	"math"
)

// Variables passed to scripts through script.turn_on.
const (
	VarRequestedState = "requested_state"
	VarRequestedLevel = "requested_level"
)

type ScriptStrategy struct{}

func (s *ScriptStrategy) ToHue(entity model.Entity) model.HueLightState {
	return model.HueLightState{On: entity.State == "on", Reachable: true}
}

func (s *ScriptStrategy) ToHA(entity model.Entity, req model.StateRequest, override model.EntityOverride) []model.Command {
	target := entity
	requested := "on"
	if !req.On {
		if override.OffScript == "" {
			return nil
		}
		target = model.Entity{ID: override.OffScript}
		requested = "off"
	}

	vars := map[string]interface{}{VarRequestedState: requested}
	fields := []string{model.HueStateOn}
	if req.Bri != nil {
		vars[VarRequestedLevel] = scriptLevel(*req.Bri, override.LevelFormula)
		fields = append(fields, model.HueStateBri)
	}

	cmd := command(target, "turn_on", map[string]interface{}{"variables": vars}, fields...)
	cmd.Domain = model.DomainScript
	return []model.Command{cmd}
}

func (s *ScriptStrategy) GetMetadata() model.HueMetadata {
	return dimmableLight
}

// BriToPercent maps 0-255 onto 0-100.
func BriToPercent(bri uint8) int {
	return int(math.Round(float64(bri) * 100 / 255))
}

func scriptLevel(bri uint8, formula string) int {
	if formula == "" {
		return BriToPercent(bri)
	}
	v, err := evaluate(formula, float64(bri))
	if err != nil {
		return BriToPercent(bri)
	}
	return int(math.Round(v))
}

// SceneStrategy activates a scene on "on" and ignores "off".
type SceneStrategy struct{}

func (s *SceneStrategy) ToHue(entity model.Entity) model.HueLightState {
	return model.HueLightState{Reachable: true}
}

func (s *SceneStrategy) ToHA(entity model.Entity, req model.StateRequest, _ model.EntityOverride) []model.Command {
	if !req.On {
		return nil
	}
	return []model.Command{command(entity, "turn_on", nil, model.HueStateOn)}
}

func (s *SceneStrategy) GetMetadata() model.HueMetadata {
	return onOffLight
}
