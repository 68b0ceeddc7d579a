package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/smallbiznis/booklib/internal/customer/domain"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	limitsEnvPrefix = "BOOKLIB"
	limitsKey       = "customer.limits"
)

// CustomerLimitsHolder serves the current customer field limits. Limits read from
// the limits file are clamped to domain.Ceilings and swapped atomically on reload.
type CustomerLimitsHolder struct {
	v       *viper.Viper
	log     *zap.Logger
	current atomic.Pointer[domain.Limits]
}

// NewCustomerLimitsHolder loads limits from cfg.CustomerLimitsFile and BOOKLIB_CUSTOMER_LIMITS_*
// variables, then watches the file for changes. A missing file leaves the ceilings in place.
func NewCustomerLimitsHolder(cfg Config, log *zap.Logger) (*CustomerLimitsHolder, error) {
	h := &CustomerLimitsHolder{
		v:   newLimitsViper(),
		log: log.Named("config.limits"),
	}

	path := strings.TrimSpace(cfg.CustomerLimitsFile)
	watch := false
	if path != "" {
		h.v.SetConfigFile(path)
		if err := h.v.ReadInConfig(); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read customer limits %s: %w", path, err)
			}
			h.log.Warn("customer limits file not found, using ceilings", zap.String("path", path))
		} else {
			watch = true
		}
	}

	limits, err := h.decode()
	if err != nil {
		return nil, err
	}
	h.current.Store(&limits)

	if watch {
		h.v.OnConfigChange(func(e fsnotify.Event) {
			if e.Has(fsnotify.Write) || e.Has(fsnotify.Create) {
				h.reload()
			}
		})
		h.v.WatchConfig()
	}

	h.log.Info("customer limits loaded", zap.Any("limits", limits))
	return h, nil
}

// StaticCustomerLimits returns a holder that never reloads.
func StaticCustomerLimits(limits domain.Limits) *CustomerLimitsHolder {
	h := &CustomerLimitsHolder{log: zap.NewNop()}
	clamped := limits.Clamp()
	h.current.Store(&clamped)
	return h
}

func (h *CustomerLimitsHolder) Get() domain.Limits {
	if l := h.current.Load(); l != nil {
		return *l
	}
	return domain.Ceilings()
}

// reload keeps the previous limits when the changed file is invalid.
func (h *CustomerLimitsHolder) reload() {
	if h.v == nil {
		return
	}
	if err := h.v.ReadInConfig(); err != nil {
		h.log.Warn("customer limits reload failed", zap.Error(err))
		return
	}
	limits, err := h.decode()
	if err != nil {
		h.log.Warn("customer limits rejected", zap.Error(err))
		return
	}
	h.current.Store(&limits)
	h.log.Info("customer limits reloaded", zap.Any("limits", limits))
}

func (h *CustomerLimitsHolder) decode() (domain.Limits, error) {
	limits := domain.Limits{
		NameMax:            h.v.GetInt(limitsKey + ".name_max"),
		CityMax:            h.v.GetInt(limitsKey + ".city_max"),
		PeselMax:           h.v.GetInt(limitsKey + ".pesel_max"),
		StreetMax:          h.v.GetInt(limitsKey + ".street_max"),
		ApartmentNumberMax: h.v.GetInt(limitsKey + ".apartment_number_max"),
		AgeMax:             h.v.GetInt(limitsKey + ".age_max"),
	}
	if err := limits.Validate(); err != nil {
		return domain.Limits{}, err
	}
	return limits.Clamp(), nil
}

func newLimitsViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(limitsEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	c := domain.Ceilings()
	v.SetDefault(limitsKey+".name_max", c.NameMax)
	v.SetDefault(limitsKey+".city_max", c.CityMax)
	v.SetDefault(limitsKey+".pesel_max", c.PeselMax)
	v.SetDefault(limitsKey+".street_max", c.StreetMax)
	v.SetDefault(limitsKey+".apartment_number_max", c.ApartmentNumberMax)
	v.SetDefault(limitsKey+".age_max", c.AgeMax)
	return v
}
