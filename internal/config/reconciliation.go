package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ReconciliationConfig controls the display rules of the reconciliation engine.
type ReconciliationConfig struct {
	Utilization UtilizationThresholds `mapstructure:"utilization"`
	Locale      string                `mapstructure:"locale"`
	Currency    string                `mapstructure:"currency"`
}

// UtilizationThresholds are percentages: rates >= Good are green, rates >= Caution yellow, the rest red.
type UtilizationThresholds struct {
	Good    float64 `mapstructure:"good"`
	Caution float64 `mapstructure:"caution"`
}

func DefaultReconciliationConfig() ReconciliationConfig {
	return ReconciliationConfig{
		Utilization: UtilizationThresholds{Good: 95, Caution: 80},
		Locale:      "pt-BR",
		Currency:    "BRL",
	}
}

type ReconciliationConfigHolder struct {
	current atomic.Value // holds ReconciliationConfig
}

// NewStaticReconciliationConfig returns a holder that never reloads.
func NewStaticReconciliationConfig(cfg ReconciliationConfig) *ReconciliationConfigHolder {
	holder := &ReconciliationConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewReconciliationConfigHolder(log *zap.Logger) (*ReconciliationConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("reconciliation")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/provisora")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PROVISORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultReconciliationConfig()
	v.SetDefault("reconciliation.utilization.good", defaults.Utilization.Good)
	v.SetDefault("reconciliation.utilization.caution", defaults.Utilization.Caution)
	v.SetDefault("reconciliation.locale", defaults.Locale)
	v.SetDefault("reconciliation.currency", defaults.Currency)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg ReconciliationConfig
	if err := v.UnmarshalKey("reconciliation", &cfg); err != nil {
		return nil, err
	}
	if err := validateReconciliationConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticReconciliationConfig(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ReconciliationConfig
		if err := v.UnmarshalKey("reconciliation", &updated); err != nil {
			log.Warn("reconciliation config reload failed", zap.Error(err))
			return
		}
		if err := validateReconciliationConfig(updated); err != nil {
			log.Warn("invalid reconciliation config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reconciliation config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *ReconciliationConfigHolder) Get() ReconciliationConfig {
	if h == nil {
		return DefaultReconciliationConfig()
	}
	cfg, ok := h.current.Load().(ReconciliationConfig)
	if !ok {
		return DefaultReconciliationConfig()
	}
	return cfg
}

func validateReconciliationConfig(cfg ReconciliationConfig) error {
	if cfg.Utilization.Caution < 0 {
		return errors.New("reconciliation.utilization.caution cannot be negative")
	}
	if cfg.Utilization.Good <= cfg.Utilization.Caution {
		return errors.New("reconciliation.utilization.good must be greater than caution")
	}
	if strings.TrimSpace(cfg.Locale) == "" {
		return errors.New("reconciliation.locale cannot be empty")
	}
	return nil
}
