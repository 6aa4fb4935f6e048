package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// StorefrontConfig tunes presentation-level storefront behavior. It lives in
// storefront.yml so a group manager can adjust it without redeploying.
// DefaultTaxRate is the percentage applied to catalog articles that carry no
// explicit rate of their own.
type StorefrontConfig struct {
	Currency       string `mapstructure:"currency"`
	DefaultTaxRate string `mapstructure:"defaultTaxRate"`
	SummaryFooter  string `mapstructure:"summaryFooter"`
}

func DefaultStorefrontConfig() StorefrontConfig {
	return StorefrontConfig{
		Currency:       "EUR",
		DefaultTaxRate: "9",
		SummaryFooter:  "Samenkoop, gedeelde inkoop en gedeelde kosten",
	}
}

// StorefrontHolder exposes the current storefront config with hot reload.
type StorefrontHolder struct {
	current atomic.Value // holds StorefrontConfig
}

func NewStorefrontHolder() (*StorefrontHolder, error) {
	v := viper.New()

	v.SetConfigName("storefront")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/winkel")
	v.AddConfigPath(".")

	v.SetEnvPrefix("WINKEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultStorefrontConfig()
		v.SetDefault("storefront.currency", defaults.Currency)
		v.SetDefault("storefront.defaultTaxRate", defaults.DefaultTaxRate)
		v.SetDefault("storefront.summaryFooter", defaults.SummaryFooter)
	}

	var cfg StorefrontConfig
	if err := v.UnmarshalKey("storefront", &cfg); err != nil {
		return nil, err
	}
	if err := validateStorefrontConfig(cfg); err != nil {
		return nil, err
	}

	holder := &StorefrontHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated StorefrontConfig
		if err := v.UnmarshalKey("storefront", &updated); err != nil {
			log.Printf("[storefront-config] reload failed: %v", err)
			return
		}
		if err := validateStorefrontConfig(updated); err != nil {
			log.Printf("[storefront-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[storefront-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *StorefrontHolder) Get() StorefrontConfig {
	return h.current.Load().(StorefrontConfig)
}

func validateStorefrontConfig(cfg StorefrontConfig) error {
	if strings.TrimSpace(cfg.Currency) == "" {
		return errors.New("storefront.currency cannot be empty")
	}
	if rate, err := decimal.NewFromString(cfg.DefaultTaxRate); err != nil || rate.IsNegative() {
		return errors.New("storefront.defaultTaxRate must be a non-negative percentage")
	}
	return nil
}
