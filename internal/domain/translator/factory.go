package translator

import (
	"fmt"
	"hue-bridge-emulator/internal/domain/model"
)

type Factory struct {
	strategies map[model.Domain]Translator
}

func NewFactory() *Factory {
	switchStrategy := &SwitchStrategy{}
	return &Factory{
		strategies: map[model.Domain]Translator{
			model.DomainLight:        &LightStrategy{},
			model.DomainSwitch:       switchStrategy,
			model.DomainInputBoolean: switchStrategy,
			model.DomainMediaPlayer:  &MediaPlayerStrategy{},
			model.DomainScript:       &ScriptStrategy{},
			model.DomainScene:        &SceneStrategy{},
		},
	}
}

func (f *Factory) GetTranslator(domain model.Domain) (Translator, error) {
	if t, ok := f.strategies[domain]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", model.ErrUnsupportedDomain, domain)
}

func (f *Factory) Supports(domain model.Domain) bool {
	_, ok := f.strategies[domain]
	return ok
}
