package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "DBGW_"

// flagKeys maps command-line flags to the configuration keys they override.
var flagKeys = map[string]string{
	"journal": "journal",
}

// Load reads the connector configuration at path and validates it.
// Precedence (highest to lowest): flags > env vars > file > defaults.
// flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read connector file: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"journal": "",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("error reading connector file %s: %w", path, err)
	}

	// DBGW_SERVICES__SHOP__DSN -> services.shop.dsn
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.TrimPrefix(s, EnvPrefix)
		return strings.ToLower(strings.ReplaceAll(key, "__", "."))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	journalFromFlag := false
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			if key == "journal" {
				journalFromFlag = true
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode connector configuration: %w", err)
	}
	cfg.Source = path
	if cfg.Services == nil {
		cfg.Services = map[string]Service{}
	}

	for ns, svc := range cfg.Services {
		prefix := "services." + ns + "."
		if !k.Exists(prefix + "max_open_conns") {
			svc.MaxOpenConns = DefaultMaxOpenConns
		}
		if !k.Exists(prefix + "validate_result") {
			svc.ValidateResult = DefaultValidateResult
		}
		cfg.Services[ns] = svc
	}

	// A journal path in the file is relative to the file; one given on the
	// command line is relative to the working directory.
	if cfg.Journal != "" && !journalFromFlag && !filepath.IsAbs(cfg.Journal) {
		cfg.Journal = filepath.Join(filepath.Dir(path), cfg.Journal)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
