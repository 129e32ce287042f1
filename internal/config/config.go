package config

import (
	"errors"
	"fmt"
	"hue-bridge-emulator/internal/domain/model"
	"hue-bridge-emulator/internal/domain/translator"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Entity store backends.
const (
	StoreHomeAssistant = "homeassistant"
	StoreMemory        = "memory"
)

// Config represents the application configuration
type Config struct {
	Log           LogConfig                       `yaml:"log"`
	Bridge        BridgeConfig                    `yaml:"bridge"`
	HomeAssistant HomeAssistantConfig             `yaml:"homeassistant"`
	Store         string                          `yaml:"store"`
	Entities      map[string]model.EntityOverride `yaml:"entities"`

	// DemoEntities seed the memory store.
	DemoEntities []model.Entity `yaml:"demo_entities"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	UseJSON bool   `yaml:"json"`
	Colors  bool   `yaml:"colors"`
}

// BridgeConfig contains the emulated bridge settings
type BridgeConfig struct {
	ListenAddr         string   `yaml:"listen_addr"`
	ListenPort         int      `yaml:"listen_port"`
	AdvertiseIP        string   `yaml:"advertise_ip"`
	AdvertisePort      int      `yaml:"advertise_port"`
	MulticastInterface string   `yaml:"multicast_interface"`
	BridgeID           string   `yaml:"bridge_id"`
	IdentityPath       string   `yaml:"identity_path"`
	ExposeByDefault    *bool    `yaml:"expose_by_default"`
	ExposedDomains     []string `yaml:"exposed_domains"`
	ShutdownTimeout    Duration `yaml:"shutdown_timeout"`
}

// HomeAssistantConfig contains Home Assistant connection settings
type HomeAssistantConfig struct {
	URL     string   `yaml:"url"`
	Token   string   `yaml:"token"`
	Timeout Duration `yaml:"timeout"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file. An empty path or a missing
// file yields the defaults, completed from HASS_URL, HASS_TOKEN and LOCAL_IP.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Store == "" {
		c.Store = StoreHomeAssistant
	}

	if c.HomeAssistant.URL == "" {
		c.HomeAssistant.URL = os.Getenv("HASS_URL")
	}
	if c.HomeAssistant.Token == "" {
		c.HomeAssistant.Token = os.Getenv("HASS_TOKEN")
	}
	if c.HomeAssistant.Timeout == 0 {
		c.HomeAssistant.Timeout = Duration(10 * time.Second)
	}

	b := &c.Bridge
	if b.ListenPort == 0 {
		b.ListenPort = 80
	}
	if b.AdvertiseIP == "" {
		b.AdvertiseIP = os.Getenv("LOCAL_IP")
	}
	if b.AdvertisePort == 0 {
		b.AdvertisePort = b.ListenPort
	}
	if b.IdentityPath == "" {
		b.IdentityPath = "./data/identity.json"
	}
	if b.ExposeByDefault == nil {
		expose := true
		b.ExposeByDefault = &expose
	}
	if len(b.ExposedDomains) == 0 {
		for _, d := range model.SupportedDomains {
			b.ExposedDomains = append(b.ExposedDomains, string(d))
		}
	}
	if b.ShutdownTimeout == 0 {
		b.ShutdownTimeout = Duration(5 * time.Second)
	}
}

// Validate checks settings that would otherwise fail at request time.
func (c *Config) Validate() error {
	factory := translator.NewFactory()
	for _, d := range c.Bridge.ExposedDomains {
		if !factory.Supports(model.Domain(d)) {
			return fmt.Errorf("exposed_domains: %w: %s", model.ErrUnsupportedDomain, d)
		}
	}
	for id, o := range c.Entities {
		if o.LevelFormula != "" {
			if err := translator.ValidateFormula(o.LevelFormula); err != nil {
				return fmt.Errorf("entities.%s.level_formula: %w", id, err)
			}
		}
		if o.OffScript != "" && model.DomainOf(o.OffScript) != model.DomainScript {
			return fmt.Errorf("entities.%s.off_script: %s is not a script", id, o.OffScript)
		}
	}

	switch c.Store {
	case StoreHomeAssistant:
		if c.HomeAssistant.URL == "" || c.HomeAssistant.Token == "" {
			return errors.New("homeassistant.url and homeassistant.token are required (or HASS_URL/HASS_TOKEN)")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}

	if c.Bridge.ListenPort < 1 || c.Bridge.ListenPort > 65535 {
		return fmt.Errorf("listen_port %d out of range", c.Bridge.ListenPort)
	}
	return nil
}

// BridgeConfig builds the immutable configuration shared by both listeners.
func (c *Config) BridgeConfig(bridgeID string) *model.BridgeConfig {
	domains := make([]model.Domain, 0, len(c.Bridge.ExposedDomains))
	for _, d := range c.Bridge.ExposedDomains {
		domains = append(domains, model.Domain(d))
	}
	entities := make(map[string]model.EntityOverride, len(c.Entities))
	for id, o := range c.Entities {
		entities[id] = o
	}
	return &model.BridgeConfig{
		ListenAddr:         c.Bridge.ListenAddr,
		ListenPort:         c.Bridge.ListenPort,
		AdvertiseIP:        c.Bridge.AdvertiseIP,
		AdvertisePort:      c.Bridge.AdvertisePort,
		MulticastInterface: c.Bridge.MulticastInterface,
		BridgeID:           bridgeID,
		ExposeByDefault:    *c.Bridge.ExposeByDefault,
		ExposedDomains:     domains,
		Entities:           entities,
	}
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if val := os.Getenv(parts[1]); val != "" {
			return val
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}
