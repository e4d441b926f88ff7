package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable Load consults, e.g.
// TABLEMERGE_STORAGE_DB_DSN for storage.db.dsn.
const EnvPrefix = "TABLEMERGE"

// LoadEnvFiles loads variables from .env.local and .env into the process
// environment. Variables already set win; .env.local is read first so it
// takes precedence over .env. Missing files are ignored.
func LoadEnvFiles(files ...string) {
	if len(files) == 0 {
		files = []string{".env.local", ".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// NewViper returns a viper instance with every Pipeline key registered with
// its default, environment lookup enabled and, when path is not empty, the
// config file set.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
	}
	return v
}

// Load reads the config file (if one is set on v), applies environment and
// flag overrides bound to v, and decodes the result.
func Load(v *viper.Viper) (Pipeline, error) {
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return Pipeline{}, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
			}
		}
	}
	var p Pipeline
	if err := v.Unmarshal(&p); err != nil {
		return Pipeline{}, fmt.Errorf("config: decode: %w", err)
	}
	if p.Storage.Options == nil {
		p.Storage.Options = Options{}
	}
	return p, nil
}

func setDefaults(v *viper.Viper, d Pipeline) {
	v.SetDefault("job", d.Job)
	v.SetDefault("key_column", d.KeyColumn)

	v.SetDefault("stages.collapse_rows", d.Stages.CollapseRows)
	v.SetDefault("stages.coalesce_columns", d.Stages.CoalesceColumns)
	v.SetDefault("stages.optimize_types", d.Stages.OptimizeTypes)
	v.SetDefault("stages.exclude_non_numeric", d.Stages.ExcludeNonNumeric)

	v.SetDefault("source.dir", d.Source.Dir)
	v.SetDefault("source.pattern", d.Source.Pattern)
	v.SetDefault("source.delimiter", d.Source.Delimiter)
	v.SetDefault("source.trim_space", d.Source.TrimSpace)

	v.SetDefault("storage.kind", d.Storage.Kind)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.db.dsn", d.Storage.DB.DSN)
	v.SetDefault("storage.db.table", d.Storage.DB.Table)
	v.SetDefault("storage.db.auto_create_table", d.Storage.DB.AutoCreateTable)

	v.SetDefault("runtime.workers", d.Runtime.Workers)
	v.SetDefault("runtime.batch_size", d.Runtime.BatchSize)
	v.SetDefault("runtime.channel_buffer", d.Runtime.ChannelBuffer)

	v.SetDefault("metrics.backend", d.Metrics.Backend)
	v.SetDefault("metrics.pushgateway_url", d.Metrics.PushgatewayURL)
	v.SetDefault("metrics.datadog_addr", d.Metrics.DatadogAddr)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
}
