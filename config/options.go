package config

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Options is the fixed options record consulted by the posting workflows.
// Values come from options.yaml next to the binary, overridable via SHOP_* env.
// No key/value settings lookup happens on hot paths: Load once, read the struct.
type Options struct {
	IsolationLevel   string          `mapstructure:"isolation_level"`
	RetryAttempts    int             `mapstructure:"retry_attempts"`
	DefaultTaxRate   decimal.Decimal `mapstructure:"-"`
	RoundingMode     string          `mapstructure:"rounding_mode"`
	ToleranceEpsilon decimal.Decimal `mapstructure:"-"`

	DefaultTaxRateStr   string `mapstructure:"default_tax_rate"`
	ToleranceEpsilonStr string `mapstructure:"tolerance_epsilon"`
}

var opts = defaultOptions()

func defaultOptions() Options {
	return Options{
		IsolationLevel:   "REPEATABLE READ",
		RetryAttempts:    3,
		DefaultTaxRate:   decimal.Zero,
		RoundingMode:     "half-up",
		ToleranceEpsilon: decimal.New(1, -2), // 0.01
	}
}

func GetOptions() Options {
	return opts
}

// LoadOptions reads the options record. A missing file leaves the defaults.
func LoadOptions(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("SHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("isolation_level", "REPEATABLE READ")
	v.SetDefault("retry_attempts", 3)
	v.SetDefault("default_tax_rate", "0")
	v.SetDefault("rounding_mode", "half-up")
	v.SetDefault("tolerance_epsilon", "0.01")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// A present-but-broken file is an operator error.
			if !strings.Contains(err.Error(), "no such file") {
				return err
			}
		}
	}

	var loaded Options
	if err := v.Unmarshal(&loaded); err != nil {
		return err
	}

	taxRate, err := decimal.NewFromString(loaded.DefaultTaxRateStr)
	if err != nil {
		return err
	}
	epsilon, err := decimal.NewFromString(loaded.ToleranceEpsilonStr)
	if err != nil {
		return err
	}
	loaded.DefaultTaxRate = taxRate
	loaded.ToleranceEpsilon = epsilon
	opts = loaded
	return nil
}
