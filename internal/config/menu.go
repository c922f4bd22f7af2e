package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// MenuConfig carries presentation settings for the standing meal options.
type MenuConfig struct {
	// OptionLabels maps an option code to its display label.
	OptionLabels map[string]string `mapstructure:"optionLabels"`
}

func DefaultMenuConfig() MenuConfig {
	return MenuConfig{
		OptionLabels: map[string]string{
			"grill_sandwiches": "Grill Sandwiches",
			"smuts_leibspeise": "Smuts Leibspeise",
			"just_good_food":   "Just Good Food",
		},
	}
}

type MenuConfigHolder struct {
	current atomic.Value // holds MenuConfig
}

// NewStaticMenuConfigHolder wraps a fixed config, mostly for tests.
func NewStaticMenuConfigHolder(cfg MenuConfig) *MenuConfigHolder {
	holder := &MenuConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewMenuConfigHolder(appCfg Config) (*MenuConfigHolder, error) {
	v := viper.New()

	if appCfg.MenuConfigPath != "" {
		v.SetConfigFile(appCfg.MenuConfigPath)
	} else {
		v.SetConfigName("menu")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/bistro")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("BISTRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultMenuConfig()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		return NewStaticMenuConfigHolder(defaults), nil
	}

	var cfg MenuConfig
	if err := v.UnmarshalKey("menu", &cfg); err != nil {
		return nil, err
	}
	cfg = mergeMenuDefaults(cfg, defaults)
	if err := validateMenuConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticMenuConfigHolder(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated MenuConfig
		if err := v.UnmarshalKey("menu", &updated); err != nil {
			log.Printf("[menu-config] reload failed: %v", err)
			return
		}
		updated = mergeMenuDefaults(updated, defaults)
		if err := validateMenuConfig(updated); err != nil {
			log.Printf("[menu-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[menu-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *MenuConfigHolder) Get() MenuConfig {
	if h == nil {
		return DefaultMenuConfig()
	}
	return h.current.Load().(MenuConfig)
}

// Label returns the display label for an option code, or the code itself.
func (h *MenuConfigHolder) Label(code string) string {
	if label, ok := h.Get().OptionLabels[code]; ok && strings.TrimSpace(label) != "" {
		return label
	}
	return code
}

func mergeMenuDefaults(cfg, defaults MenuConfig) MenuConfig {
	labels := make(map[string]string, len(defaults.OptionLabels))
	for code, label := range defaults.OptionLabels {
		labels[code] = label
	}
	for code, label := range cfg.OptionLabels {
		// viper lowercases keys
		labels[strings.ToLower(code)] = strings.TrimSpace(label)
	}
	return MenuConfig{OptionLabels: labels}
}

func validateMenuConfig(cfg MenuConfig) error {
	for code, label := range cfg.OptionLabels {
		if label == "" {
			return errors.New("menu.optionLabels." + code + " cannot be empty")
		}
	}
	return nil
}
