package app

import (
	"context"
	"fmt"
	httpadapter "hue-bridge-emulator/internal/adapters/input/http"
	"hue-bridge-emulator/internal/adapters/input/ssdp"
	"hue-bridge-emulator/internal/adapters/output/homeassistant"
	"hue-bridge-emulator/internal/adapters/output/memory"
	"hue-bridge-emulator/internal/adapters/output/persistence"
	"hue-bridge-emulator/internal/config"
	"hue-bridge-emulator/internal/domain/model"
	"hue-bridge-emulator/internal/domain/service"
	"hue-bridge-emulator/internal/ports"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
)

// App is the application container. It owns both listeners and ties their
// lifetimes together: either one failing stops the other.
type App struct {
	cfg       *config.Config
	bridgeCfg *model.BridgeConfig

	store ports.EntityStore
	http  *httpadapter.Server
	ssdp  *ssdp.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	errMu sync.Mutex
	err   error
}

// New wires the entity store, the bridge service and both listeners
// without starting anything.
func New(cfg *config.Config) (*App, error) {
	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	identity, err := resolveIdentity(context.Background(), cfg, persistence.NewJSONIdentityRepository(cfg.Bridge.IdentityPath))
	if err != nil {
		return nil, err
	}

	bridgeCfg := cfg.BridgeConfig(identity.BridgeID)
	bridge := service.NewBridgeService(store, bridgeCfg)

	return &App{
		cfg:       cfg,
		bridgeCfg: bridgeCfg,
		store:     store,
		http:      httpadapter.NewServer(bridge, bridgeCfg),
		ssdp:      ssdp.NewServer(bridgeCfg),
	}, nil
}

// BridgeConfig returns the configuration both listeners were built with.
func (a *App) BridgeConfig() *model.BridgeConfig {
	return a.bridgeCfg
}

// Start launches the HTTP API server and the SSDP responder.
// The provided context is used for cancellation.
func (a *App) Start(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)

	// Fatal error handler - cancels the app context to trigger shutdown
	onFatalError := func(name string, err error) {
		log.Error().Err(err).Str("listener", name).Msg("Fatal error, initiating shutdown")
		a.errMu.Lock()
		if a.err == nil {
			a.err = fmt.Errorf("%s: %w", name, err)
		}
		a.errMu.Unlock()
		a.cancel()
	}

	a.run("http", onFatalError, func(ctx context.Context) error {
		return a.http.Run(ctx, a.cfg.Bridge.ShutdownTimeout.Duration())
	})
	a.run("ssdp", onFatalError, a.ssdp.Run)

	log.Info().
		Str("bridge_id", a.bridgeCfg.BridgeID).
		Str("advertise", fmt.Sprintf("%s:%d", a.bridgeCfg.AdvertiseIP, a.bridgeCfg.AdvertisePort)).
		Msg("Hue bridge emulator started")
	return nil
}

func (a *App) run(name string, onFatal func(string, error), fn func(context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := fn(a.ctx); err != nil {
			onFatal(name, err)
		}
	}()
}

// Stop cancels both listeners and waits for them to return. It reports the
// first listener failure, if any.
func (a *App) Stop() error {
	log.Info().Msg("Shutting down...")

	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	a.errMu.Lock()
	defer a.errMu.Unlock()
	return a.err
}

// Wait blocks until the application context is cancelled.
func (a *App) Wait() {
	if a.ctx != nil {
		<-a.ctx.Done()
	}
}

func newStore(cfg *config.Config) (ports.EntityStore, error) {
	switch cfg.Store {
	case config.StoreHomeAssistant:
		log.Info().Str("url", cfg.HomeAssistant.URL).Msg("Using Home Assistant entity store")
		return homeassistant.NewClient(cfg.HomeAssistant.URL, cfg.HomeAssistant.Token, cfg.HomeAssistant.Timeout.Duration()), nil
	case config.StoreMemory:
		log.Info().Int("entities", len(cfg.DemoEntities)).Msg("Using in-memory entity store")
		return memory.NewStore(cfg.DemoEntities...), nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// resolveIdentity prefers the configured bridge id, then a previously
// persisted one, and otherwise generates and persists a new id.
func resolveIdentity(ctx context.Context, cfg *config.Config, repo ports.IdentityRepository) (*model.Identity, error) {
	if cfg.Bridge.BridgeID != "" {
		return &model.Identity{BridgeID: cfg.Bridge.BridgeID}, nil
	}

	identity, err := repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bridge identity: %w", err)
	}
	if identity != nil {
		return identity, nil
	}

	identity = persistence.NewIdentity()
	if err := repo.Save(ctx, identity); err != nil {
		return nil, fmt.Errorf("save bridge identity: %w", err)
	}
	log.Info().Str("bridge_id", identity.BridgeID).Msg("Generated new bridge identity")
	return identity, nil
}

// SignalContext creates a context that is cancelled when SIGINT or SIGTERM is received.
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	return ctx
}
