package translator

import (
	"hue-bridge-emulator/internal/domain/model"
	"math"
)

var mediaPlayerActive = map[string]bool{
	"on":        true,
	"playing":   true,
	"paused":    true,
	"idle":      true,
	"buffering": true,
}

type MediaPlayerStrategy struct{}

func (s *MediaPlayerStrategy) ToHue(entity model.Entity) model.HueLightState {
	state := model.HueLightState{Reachable: true}
	state.On = mediaPlayerActive[entity.State]
	if state.On {
		if level, ok := entity.Float("volume_level"); ok {
			state.Bri = VolumeToBri(level)
		}
	}
	return state
}

func (s *MediaPlayerStrategy) ToHA(entity model.Entity, req model.StateRequest, _ model.EntityOverride) []model.Command {
	if !req.On {
		return []model.Command{command(entity, "turn_off", nil, model.HueStateOn)}
	}
	cmds := []model.Command{command(entity, "turn_on", nil, model.HueStateOn)}
	if req.Bri != nil {
		data := map[string]interface{}{"volume_level": BriToVolume(*req.Bri)}
		cmds = append(cmds, command(entity, "volume_set", data, model.HueStateBri))
	}
	return cmds
}

func (s *MediaPlayerStrategy) GetMetadata() model.HueMetadata {
	return dimmableLight
}

// VolumeToBri maps a 0.0-1.0 volume level onto 0-255.
func VolumeToBri(level float64) uint8 {
	return clampByte(math.Round(level * 255))
}

// BriToVolume maps 0-255 onto a volume level with three decimals, enough
// for VolumeToBri to recover the original value.
func BriToVolume(bri uint8) float64 {
	return math.Round(float64(bri)/255*1000) / 1000
}
