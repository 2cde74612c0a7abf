// Package conf loads the schemafield settings block and resolves the
// project-wide encode/decode hooks configured there. Hooks are referenced by
// registered name, since configuration files cannot carry function values.
package conf

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"

	"github.com/schemafield/schemafield/pkg/schema"
)

// settingKey is the top-level configuration block all settings live under.
const settingKey = "schemafield"

const (
	encHookKey = "enc_hook"
	decHookKey = "dec_hook"
)

var (
	hookMu      sync.RWMutex
	encodeHooks = map[string]schema.EncodeHook{}
	decodeHooks = map[string]schema.DecodeHook{}
)

// RegisterEncodeHook makes an encode hook resolvable from configuration by
// name. Re-registering a name replaces the previous hook.
func RegisterEncodeHook(name string, hook schema.EncodeHook) {
	hookMu.Lock()
	defer hookMu.Unlock()
	encodeHooks[name] = hook
}

// RegisterDecodeHook makes a decode hook resolvable from configuration by
// name.
func RegisterDecodeHook(name string, hook schema.DecodeHook) {
	hookMu.Lock()
	defer hookMu.Unlock()
	decodeHooks[name] = hook
}

// Settings reads the schemafield configuration block and caches resolved
// values per key until Reload.
type Settings struct {
	mu    sync.RWMutex
	v     *viper.Viper
	cache map[string]any
}

// Load reads schemafield.yml (or .yaml) from the working directory. A missing
// file is not an error; every setting falls back to its default.
func Load() (*Settings, error) {
	v := viper.New()
	v.SetConfigName("schemafield")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return FromViper(v), nil
}

// FromViper wraps an already-configured viper instance. Tests inject their
// settings through here.
func FromViper(v *viper.Viper) *Settings {
	return &Settings{v: v, cache: make(map[string]any)}
}

// Reload drops all cached values so the next access re-reads configuration.
func (s *Settings) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]any)
}

// EncodeHook resolves the configured project-wide encode hook, or nil when
// none is configured.
func (s *Settings) EncodeHook() (schema.EncodeHook, error) {
	cached, err := s.resolve(encHookKey, func(name string) (any, error) {
		hookMu.RLock()
		defer hookMu.RUnlock()
		hook, ok := encodeHooks[name]
		if !ok {
			return nil, fmt.Errorf("%s.%s names unregistered encode hook %q", settingKey, encHookKey, name)
		}
		return hook, nil
	})
	if err != nil || cached == nil {
		return nil, err
	}
	return cached.(schema.EncodeHook), nil
}

// DecodeHook resolves the configured project-wide decode hook, or nil when
// none is configured.
func (s *Settings) DecodeHook() (schema.DecodeHook, error) {
	cached, err := s.resolve(decHookKey, func(name string) (any, error) {
		hookMu.RLock()
		defer hookMu.RUnlock()
		hook, ok := decodeHooks[name]
		if !ok {
			return nil, fmt.Errorf("%s.%s names unregistered decode hook %q", settingKey, decHookKey, name)
		}
		return hook, nil
	})
	if err != nil || cached == nil {
		return nil, err
	}
	return cached.(schema.DecodeHook), nil
}

// resolve returns the cached value for key, computing and caching it on the
// first access. Unset keys cache nil so the config is only consulted once.
func (s *Settings) resolve(key string, build func(name string) (any, error)) (any, error) {
	s.mu.RLock()
	if v, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return v, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.cache[key]; ok {
		return v, nil
	}

	name := s.v.GetString(settingKey + "." + key)
	if name == "" {
		s.cache[key] = nil
		return nil, nil
	}
	v, err := build(name)
	if err != nil {
		return nil, err
	}
	s.cache[key] = v
	return v, nil
}

var (
	defaultMu       sync.RWMutex
	defaultSettings *Settings
)

// Default returns the process-wide settings, loading them on first use.
func Default() (*Settings, error) {
	defaultMu.RLock()
	s := defaultSettings
	defaultMu.RUnlock()
	if s != nil {
		return s, nil
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSettings == nil {
		loaded, err := Load()
		if err != nil {
			return nil, err
		}
		defaultSettings = loaded
	}
	return defaultSettings, nil
}

// SetDefault replaces the process-wide settings. Tests use this to install a
// settings instance backed by an in-memory viper.
func SetDefault(s *Settings) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultSettings = s
}
