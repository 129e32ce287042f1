package service

import (
	"context"
	"errors"
	"fmt"
	"hue-bridge-emulator/internal/domain/exposure"
	"hue-bridge-emulator/internal/domain/model"
	"hue-bridge-emulator/internal/domain/translator"
	"hue-bridge-emulator/internal/ports"

	"github.com/rs/zerolog/log"
)

// BridgeService answers Hue light requests from the entity store. It keeps
// no state of its own; concurrent writes to one entity race in the store.
type BridgeService struct {
	store             ports.EntityStore
	cfg               *model.BridgeConfig
	policy            *exposure.Policy
	translatorFactory *translator.Factory
}

func NewBridgeService(store ports.EntityStore, cfg *model.BridgeConfig) *BridgeService {
	factory := translator.NewFactory()
	return &BridgeService{
		store:             store,
		cfg:               cfg,
		policy:            exposure.NewPolicy(cfg, factory.Supports),
		translatorFactory: factory,
	}
}

func (s *BridgeService) GetLights(ctx context.Context) (map[string]*model.LightView, error) {
	entities, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	lights := make(map[string]*model.LightView)
	for _, e := range entities {
		if !s.policy.IsExposed(e) {
			continue
		}
		t, err := s.translatorFactory.GetTranslator(e.Domain())
		if err != nil {
			log.Error().Err(err).Str("entity", e.ID).Msg("Exposed entity has no translator")
			continue
		}
		lights[e.ID] = s.view(e, t)
	}
	return lights, nil
}

func (s *BridgeService) GetLight(ctx context.Context, id string) (*model.LightView, error) {
	e, t, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(e, t), nil
}

func (s *BridgeService) Lookup(ctx context.Context, id string) error {
	_, _, err := s.resolve(ctx, id)
	return err
}

// SetLightState dispatches the commands for req in order and reports the
// fields whose commands were accepted. A rejection after the first
// accepted command truncates the result instead of failing the request.
func (s *BridgeService) SetLightState(ctx context.Context, id string, req model.StateRequest) ([]ports.StateResult, error) {
	e, t, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	override, _ := s.cfg.Override(e.ID)
	cmds := t.ToHA(e, req, override)
	if len(cmds) == 0 {
		log.Debug().Str("entity", e.ID).Bool("on", req.On).Msg("Nothing to dispatch")
		return []ports.StateResult{{Field: model.HueStateOn, Value: req.On}}, nil
	}

	var results []ports.StateResult
	for _, cmd := range cmds {
		if err := s.store.Dispatch(ctx, cmd); err != nil {
			if len(results) == 0 {
				return nil, fmt.Errorf("%w: %s on %s: %v", model.ErrDispatchRejected, cmd, cmd.EntityID, err)
			}
			log.Warn().Err(err).Str("entity", e.ID).Str("service", cmd.String()).Msg("Follow-up command rejected")
			break
		}
		log.Debug().Str("entity", cmd.EntityID).Str("service", cmd.String()).Interface("data", cmd.Data).Msg("Command accepted")
		for _, field := range cmd.Fields {
			results = append(results, ports.StateResult{Field: field, Value: fieldValue(field, req)})
		}
	}
	return results, nil
}

// resolve loads an entity and its translator. Hidden entities and entities
// without a translator are reported as not found.
func (s *BridgeService) resolve(ctx context.Context, id string) (model.Entity, translator.Translator, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Entity{}, nil, fmt.Errorf("device %s: %w", id, model.ErrNotFound)
		}
		return model.Entity{}, nil, err
	}
	if !s.policy.IsExposed(e) {
		return model.Entity{}, nil, fmt.Errorf("device %s not exposed: %w", id, model.ErrNotFound)
	}
	t, err := s.translatorFactory.GetTranslator(e.Domain())
	if err != nil {
		log.Error().Err(err).Str("entity", id).Msg("Exposed entity has no translator")
		return model.Entity{}, nil, fmt.Errorf("device %s: %w", id, model.ErrNotFound)
	}
	return e, t, nil
}

func (s *BridgeService) view(e model.Entity, t translator.Translator) *model.LightView {
	return model.NewLightView(e.ID, s.policy.Name(e), t.GetMetadata(), t.ToHue(e))
}

func fieldValue(field string, req model.StateRequest) interface{} {
	if field == model.HueStateBri && req.Bri != nil {
		return int(*req.Bri)
	}
	return req.On
}
