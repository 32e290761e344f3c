// Package strategy
package strategy

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Profile is an immutable parameter set describing one strategy variant.
// It is always passed by value; engines never mutate it.
type Profile struct {
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description"`

	RSIBuyThreshold  float64 `yaml:"rsi_buy_threshold" validate:"gte=0,lte=100"`
	RSISellThreshold float64 `yaml:"rsi_sell_threshold" validate:"gte=0,lte=100"`

	// MACDRequireZeroCross restricts MACD crosses to those happening on the
	// far side of the zero line (below for longs, above for shorts).
	MACDRequireZeroCross bool `yaml:"macd_require_zero_cross"`

	// TrendConfirmationPeriods is the number of consecutive bars the trend
	// condition must hold before being accepted.
	TrendConfirmationPeriods int `yaml:"trend_confirmation_periods" validate:"gte=1"`

	// IndicatorsRequired is how many of the indicator filters must align on
	// one side to emit a signal.
	IndicatorsRequired int `yaml:"indicators_required" validate:"gte=2,lte=3"`

	UseVolumeFilter       bool `yaml:"use_volume_filter"`
	VolumeLookbackPeriods int  `yaml:"volume_lookback_periods" validate:"gte=0"`
}

// Validate checks field ranges and the cross-field invariants.
func (p Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid profile %q: %w", p.Name, err)
	}
	maxAvailable := 3
	if p.UseVolumeFilter {
		maxAvailable++
		if p.VolumeLookbackPeriods < 1 {
			return fmt.Errorf("invalid profile %q: volume filter enabled without lookback periods", p.Name)
		}
	}
	if p.IndicatorsRequired > maxAvailable {
		return fmt.Errorf("invalid profile %q: requires %d indicators but only %d available", p.Name, p.IndicatorsRequired, maxAvailable)
	}
	return nil
}

// CurrentProfile is the original strategy: all three indicators must align,
// MACD crosses must happen beyond the zero line.
func CurrentProfile() Profile {
	return Profile{
		Name:                     "current",
		Description:              "Original strategy: all 3 indicators (trend + MACD + RSI) must align",
		RSIBuyThreshold:          52,
		RSISellThreshold:         48,
		MACDRequireZeroCross:     true,
		TrendConfirmationPeriods: 1,
		IndicatorsRequired:       3,
		UseVolumeFilter:          false,
	}
}

// AggressiveProfile accepts any two of three indicators and any MACD cross.
func AggressiveProfile() Profile {
	return Profile{
		Name:                     "aggressive",
		Description:              "Aggressive strategy: any 2 of 3 indicators must align, faster RSI crossover",
		RSIBuyThreshold:          50,
		RSISellThreshold:         50,
		MACDRequireZeroCross:     false,
		TrendConfirmationPeriods: 1,
		IndicatorsRequired:       2,
		UseVolumeFilter:          false,
	}
}

// ConservativeProfile demands all three indicators, a three-bar trend and
// above-average volume.
func ConservativeProfile() Profile {
	return Profile{
		Name:                     "conservative",
		Description:              "Conservative strategy: all 3 indicators + volume confirmation + stronger trend",
		RSIBuyThreshold:          55,
		RSISellThreshold:         45,
		MACDRequireZeroCross:     true,
		TrendConfirmationPeriods: 3,
		IndicatorsRequired:       3,
		UseVolumeFilter:          true,
		VolumeLookbackPeriods:    20,
	}
}

// AllProfiles returns the canonical profile set in comparison order.
func AllProfiles() []Profile {
	return []Profile{CurrentProfile(), AggressiveProfile(), ConservativeProfile()}
}

// ProfileByName resolves one of the canonical profiles.
func ProfileByName(name string) (Profile, error) {
	for _, p := range AllProfiles() {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("unknown strategy profile: %s", name)
}
