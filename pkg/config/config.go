// Package config loads the declarative probe/notifier configuration
// described in spec §6: an environment URL, then a positional
// argument (URL or file path), then a default file, in that order.
// Grounded on pkg/config/config.go's Load()/overrideWithEnv() shape
// from the teacher repo, replaced wholesale since the daemon here has
// no embedded scripting layer (spec: "the configuration mechanism is
// external; from the core's view it produces a ProbeConfig list and a
// NotifierConfig list").
package config

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigURL names the environment variable consulted first for the
// configuration source (spec §6 "an environment URL").
const EnvConfigURL = "SIMPLOMON_CONFIG_URL"

const defaultConfigFile = "./simplomon.yaml"

// SensitivityConfig is the YAML form of a probe's de-flap knobs.
type SensitivityConfig struct {
	MinFailures   int  `yaml:"minFailures"`
	FailureWindow int  `yaml:"failureWindow"`
	Mute          bool `yaml:"mute"`
}

// ProbeConfig is one declared probe. Kind-specific parameters are left
// as a generic bag (spec §6: "kind-specific parsing lives in the
// probe, not the core") and resolved by the caller that knows how to
// construct that probe kind.
type ProbeConfig struct {
	Kind        string                 `yaml:"kind"`
	Description string                 `yaml:"description"`
	Sensitivity SensitivityConfig      `yaml:"sensitivity"`
	Notifiers   []string               `yaml:"notifiers"`
	Params      map[string]interface{} `yaml:"params"`
}

// NotifierConfig is one declared notifier channel.
type NotifierConfig struct {
	ID         string            `yaml:"id"`
	Kind       string            `yaml:"kind"` // pushover, ntfy, telegram, email
	MinMinutes int               `yaml:"minMinutes"`
	Params     map[string]string `yaml:"params"`
}

// DaemonConfig holds process-wide settings.
type DaemonConfig struct {
	Interval      string `yaml:"interval"`
	Workers       int    `yaml:"workers"`
	MaxWorkers    int    `yaml:"maxWorkers"`
	SinkPath      string `yaml:"sinkPath"`
	HTTPAddr      string `yaml:"httpAddr"`
	BasicAuthUser string `yaml:"basicAuthUser"`
	BasicAuthPass string `yaml:"basicAuthPass"`
}

// Config is the top-level document produced by the configuration
// mechanism.
type Config struct {
	Daemon    DaemonConfig     `yaml:"daemon"`
	Notifiers []NotifierConfig `yaml:"notifiers"`
	Probes    []ProbeConfig    `yaml:"probes"`
}

// Load resolves the configuration source from args (in order: the
// SIMPLOMON_CONFIG_URL environment variable, args[1] if present, or
// the default file) and parses it.
func Load(args []string) (*Config, error) {
	source := os.Getenv(EnvConfigURL)
	if source == "" && len(args) > 1 {
		source = args[1]
	}
	if source == "" {
		source = defaultConfigFile
	}

	data, err := fetch(source)
	if err != nil {
		return nil, fmt.Errorf("config: failed to load %s: %w", source, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", source, err)
	}

	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: invalid configuration from %s: %w", source, err)
	}
	return cfg, nil
}

func fetch(source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		client := &http.Client{Timeout: 10 * time.Second}
		resp, err := client.Get(source)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("got HTTP status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(source)
}

func applyDefaults(cfg *Config) {
	if cfg.Daemon.Interval == "" {
		cfg.Daemon.Interval = "60s"
	}
	if cfg.Daemon.Workers <= 0 {
		cfg.Daemon.Workers = 4
	}
	if cfg.Daemon.MaxWorkers <= 0 {
		cfg.Daemon.MaxWorkers = cfg.Daemon.Workers * 2
	}
	if cfg.Daemon.SinkPath == "" {
		cfg.Daemon.SinkPath = "./simplomon.db"
	}
	if cfg.Daemon.HTTPAddr == "" {
		cfg.Daemon.HTTPAddr = ":8080"
	}
}

func validate(cfg *Config) error {
	if _, err := time.ParseDuration(cfg.Daemon.Interval); err != nil {
		return fmt.Errorf("daemon.interval %q is not a valid duration: %w", cfg.Daemon.Interval, err)
	}
	if len(cfg.Probes) == 0 {
		return fmt.Errorf("at least one probe must be configured")
	}

	ids := map[string]bool{}
	for _, n := range cfg.Notifiers {
		if n.ID == "" {
			return fmt.Errorf("a notifier is missing its id")
		}
		if n.Kind == "" {
			return fmt.Errorf("notifier %q is missing its kind", n.ID)
		}
		if ids[n.ID] {
			return fmt.Errorf("duplicate notifier id %q", n.ID)
		}
		ids[n.ID] = true
	}

	for i, p := range cfg.Probes {
		if p.Kind == "" {
			return fmt.Errorf("probe at index %d is missing its kind", i)
		}
		for _, nid := range p.Notifiers {
			if !ids[nid] {
				return fmt.Errorf("probe %q references unknown notifier id %q", p.Kind, nid)
			}
		}
	}
	return nil
}
