package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/quantave/gobacktester/strategies"
)

// ReadConfigFromFile loads and validates a run definition from disk
func ReadConfigFromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadConfig(raw)
}

// LoadConfig parses and validates raw JSON config data
func LoadConfig(raw []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config describes a runnable backtest. The strategy
// name must resolve and its custom settings must be accepted
func (c *Config) Validate() error {
	if c.StrategySettings.Name == "" {
		return errNoStrategy
	}
	strat, err := strategies.LoadStrategyByName(c.StrategySettings.Name)
	if err != nil {
		return err
	}
	if len(c.StrategySettings.CustomSettings) > 0 {
		if err := strat.SetCustomSettings(c.StrategySettings.CustomSettings); err != nil {
			return fmt.Errorf("strategy %q: %w", c.StrategySettings.Name, err)
		}
	}
	if c.DataSettings.CSVData == nil || c.DataSettings.CSVData.FullPath == "" {
		return errNoDataSource
	}
	if !c.BrokerSettings.InitialCash.IsPositive() {
		return errBadCash
	}
	if c.StatisticSettings.RiskFreeRate < 0 {
		return errBadRiskFree
	}
	return nil
}

// PrintSetting renders the config as indented JSON for run logs
func (c *Config) PrintSetting() (string, error) {
	out, err := json.MarshalIndent(c, "", " ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
