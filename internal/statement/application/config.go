package application

import (
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	statement "stayledger/internal/statement/domain"
)

// FeeConfig holds the flat per-property charges and the fallback PM fee.
type FeeConfig struct {
	TechFee             float64 `yaml:"tech_fee"`
	InsuranceFee        float64 `yaml:"insurance_fee"`
	DefaultPMFeePercent float64 `yaml:"default_pm_fee_percent"`
}

// Config defines statement workflow configuration.
type Config struct {
	Fees           FeeConfig `yaml:"fees"`
	Currency       string    `yaml:"currency"`
	DefaultOwnerID string    `yaml:"default_owner_id"`
}

// LoadConfig loads config from defaults, then an optional yaml file
// (STATEMENTS_CONFIG), then env overrides.
func LoadConfig() (Config, error) {
	cfg := Config{
		Fees: FeeConfig{
			TechFee:             50,
			InsuranceFee:        25,
			DefaultPMFeePercent: 15,
		},
		Currency:       getenvDefault("CURRENCY", "USD"),
		DefaultOwnerID: getenvDefault("DEFAULT_OWNER_ID", "default"),
	}

	if path := os.Getenv("STATEMENTS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.Fees.TechFee = getenvFloatDefault("STATEMENT_TECH_FEE", cfg.Fees.TechFee)
	cfg.Fees.InsuranceFee = getenvFloatDefault("STATEMENT_INSURANCE_FEE", cfg.Fees.InsuranceFee)
	cfg.Fees.DefaultPMFeePercent = getenvFloatDefault("STATEMENT_DEFAULT_PM_FEE_PERCENT", cfg.Fees.DefaultPMFeePercent)
	return cfg, nil
}

// FeeSchedule converts the configured fees for the engine.
func (c Config) FeeSchedule() statement.FeeSchedule {
	return statement.FeeSchedule{
		TechFee:             decimal.NewFromFloat(c.Fees.TechFee),
		InsuranceFee:        decimal.NewFromFloat(c.Fees.InsuranceFee),
		DefaultPMFeePercent: decimal.NewFromFloat(c.Fees.DefaultPMFeePercent),
	}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
