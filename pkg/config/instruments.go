package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Instrument describes one tradable symbol and the timeframes its signal uses.
type Instrument struct {
	Name          string `yaml:"name"`
	BiasInterval  string `yaml:"bias_interval"`  // higher-timeframe trend filter
	TrendInterval string `yaml:"trend_interval"` // mid-timeframe alignment filter
	EntryInterval string `yaml:"entry_interval"` // fast-timeframe entry filter
}

type instrumentsFile struct {
	Instruments []Instrument `yaml:"instruments"`
}

// LoadInstruments resolves the instrument list: the YAML file wins when set,
// otherwise each name from the env list gets default timeframes.
func LoadInstruments(cfg *Config) ([]Instrument, error) {
	if cfg.InstrumentsFile != "" {
		data, err := os.ReadFile(cfg.InstrumentsFile)
		if err != nil {
			return nil, fmt.Errorf("read instruments file: %w", err)
		}
		var file instrumentsFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse instruments file: %w", err)
		}
		if len(file.Instruments) == 0 {
			return nil, fmt.Errorf("instruments file %s lists no instruments", cfg.InstrumentsFile)
		}
		out := make([]Instrument, 0, len(file.Instruments))
		for _, in := range file.Instruments {
			out = append(out, withDefaults(in))
		}
		return out, nil
	}

	out := make([]Instrument, 0, len(cfg.Instruments))
	for _, name := range cfg.Instruments {
		out = append(out, withDefaults(Instrument{Name: name}))
	}
	return out, nil
}

func withDefaults(in Instrument) Instrument {
	if in.BiasInterval == "" {
		in.BiasInterval = "4h"
	}
	if in.TrendInterval == "" {
		in.TrendInterval = "1h"
	}
	if in.EntryInterval == "" {
		in.EntryInterval = "15m"
	}
	return in
}

// SettlementCurrency derives the quote/settlement currency from an instrument
// name, e.g. BTCUSDT -> USDT, ETH-USD -> USD. Falls back to USDT.
func SettlementCurrency(instrument string) string {
	if i := strings.LastIndex(instrument, "-"); i >= 0 && i < len(instrument)-1 {
		return instrument[i+1:]
	}
	for _, quote := range []string{"USDT", "USDC", "BUSD", "USD"} {
		if strings.HasSuffix(instrument, quote) && len(instrument) > len(quote) {
			return quote
		}
	}
	return "USDT"
}
