package memory

import (
	"context"
	"fmt"
	"hue-bridge-emulator/internal/domain/model"
	"sort"
	"sync"
)

// Store is an in-process entity store that applies service calls the way
// Home Assistant's demo platforms do.
type Store struct {
	mu       sync.RWMutex
	entities map[string]model.Entity
}

func NewStore(entities ...model.Entity) *Store {
	s := &Store{entities: make(map[string]model.Entity)}
	for _, e := range entities {
		s.Put(e)
	}
	return s
}

func (s *Store) Put(e model.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[e.ID] = clone(e)
}

func (s *Store) List(ctx context.Context) ([]model.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entities := make([]model.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		entities = append(entities, clone(e))
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })
	return entities, nil
}

func (s *Store) Get(ctx context.Context, entityID string) (model.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[entityID]
	if !ok {
		return model.Entity{}, fmt.Errorf("%s: %w", entityID, model.ErrNotFound)
	}
	return clone(e), nil
}

func (s *Store) Dispatch(ctx context.Context, cmd model.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[cmd.EntityID]
	if !ok {
		return fmt.Errorf("%s: %w", cmd.EntityID, model.ErrNotFound)
	}
	if err := apply(&e, cmd); err != nil {
		return err
	}
	s.entities[e.ID] = e
	return nil
}

func apply(e *model.Entity, cmd model.Command) error {
	switch cmd.String() {
	case "light.turn_on":
		e.State = "on"
		if v, ok := number(cmd.Data["brightness"]); ok {
			e.Attributes["brightness"] = v
		} else if _, ok := e.Attributes["brightness"]; !ok {
			e.Attributes["brightness"] = 255.0
		}
	case "light.turn_off":
		e.State = "off"
		delete(e.Attributes, "brightness")
	case "switch.turn_on", "input_boolean.turn_on":
		e.State = "on"
	case "switch.turn_off", "input_boolean.turn_off":
		e.State = "off"
	case "media_player.turn_on":
		e.State = "playing"
	case "media_player.turn_off":
		e.State = "off"
	case "media_player.volume_set":
		v, ok := number(cmd.Data["volume_level"])
		if !ok {
			return fmt.Errorf("volume_set on %s: missing volume_level", e.ID)
		}
		e.Attributes["volume_level"] = v
	case "script.turn_on":
		e.Attributes["last_variables"] = cmd.Data["variables"]
	case "scene.turn_on":
	default:
		return fmt.Errorf("service %s not supported by memory store", cmd)
	}
	return nil
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func clone(e model.Entity) model.Entity {
	attrs := make(map[string]interface{}, len(e.Attributes))
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	e.Attributes = attrs
	return e
}
