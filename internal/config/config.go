package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/solar-suitability/internal/workbook"
)

// Config holds the full application configuration.
type Config struct {
	Input  InputConfig  `yaml:"input" mapstructure:"input"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Sheets SheetsConfig `yaml:"sheets" mapstructure:"sheets"`
	Merge  MergeConfig  `yaml:"merge" mapstructure:"merge"`
	Naming NamingConfig `yaml:"naming" mapstructure:"naming"`
	Ledger LedgerConfig `yaml:"ledger" mapstructure:"ledger"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// InputConfig locates the source files.
type InputConfig struct {
	Boundary string `yaml:"boundary" mapstructure:"boundary"`
	Workbook string `yaml:"workbook" mapstructure:"workbook"`
}

// OutputConfig locates the generated shapefile set.
type OutputConfig struct {
	Path       string `yaml:"path" mapstructure:"path"`
	Encoding   string `yaml:"encoding" mapstructure:"encoding"`
	ReportXLSX string `yaml:"report_xlsx" mapstructure:"report_xlsx"`
}

// SheetsConfig names the workbook sheets and the acronym sheet headers.
type SheetsConfig struct {
	Names         workbook.SheetNames `yaml:"names" mapstructure:"names"`
	AcronymSource string              `yaml:"acronym_source" mapstructure:"acronym_source"`
	AcronymShort  string              `yaml:"acronym_short" mapstructure:"acronym_short"`
}

// MergeConfig configures the boundary join.
type MergeConfig struct {
	MatchColumns []string `yaml:"match_columns" mapstructure:"match_columns"`
	MinCoverage  float64  `yaml:"min_coverage" mapstructure:"min_coverage"`
	StrictLevels bool     `yaml:"strict_levels" mapstructure:"strict_levels"`
}

// NamingConfig configures the short-name policy.
type NamingConfig struct {
	FieldNameLimit int  `yaml:"field_name_limit" mapstructure:"field_name_limit"`
	Truncate       bool `yaml:"truncate" mapstructure:"truncate"`
}

// LedgerConfig configures the run ledger.
type LedgerConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SUITABILITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.boundary", "Solar_Suitability_layer.shp")
	v.SetDefault("input.workbook", "Solar_Suitability_workbook.xlsx")
	v.SetDefault("output.path", "true_solar_suitability.shp")
	v.SetDefault("output.encoding", "UTF-8")
	v.SetDefault("output.report_xlsx", "")
	v.SetDefault("sheets.names.ranking", "Solar Suitability_new_ranking")
	v.SetDefault("sheets.names.recommendation", "District_recommendation")
	v.SetDefault("sheets.names.adaptation", "Adaptation")
	v.SetDefault("sheets.names.mitigation", "Mitigation")
	v.SetDefault("sheets.names.replacement", "Replacement")
	v.SetDefault("sheets.names.community", "Community SIP")
	v.SetDefault("sheets.names.acronym", "GIS layer accronym")
	v.SetDefault("sheets.names.potential", "potential")
	v.SetDefault("sheets.names.all", "All")
	v.SetDefault("sheets.acronym_source", "Original")
	v.SetDefault("sheets.acronym_short", "GIS Raw data layer")
	v.SetDefault("merge.match_columns", []string{"NAME_2", "NAME_1"})
	v.SetDefault("merge.min_coverage", 0.5)
	v.SetDefault("merge.strict_levels", false)
	v.SetDefault("naming.field_name_limit", 10)
	v.SetDefault("naming.truncate", true)
	v.SetDefault("ledger.enabled", true)
	v.SetDefault("ledger.path", ".suitability/ledger.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if len(c.Merge.MatchColumns) == 0 {
		return eris.New("config: merge.match_columns must name at least one column")
	}
	if c.Merge.MinCoverage < 0 || c.Merge.MinCoverage > 1 {
		return eris.Errorf("config: merge.min_coverage %v out of range [0,1]", c.Merge.MinCoverage)
	}
	if c.Naming.FieldNameLimit < 0 || c.Naming.FieldNameLimit > 10 {
		return eris.Errorf("config: naming.field_name_limit %d out of range [0,10]", c.Naming.FieldNameLimit)
	}
	if c.Naming.Truncate && c.Naming.FieldNameLimit == 0 {
		return eris.New("config: naming.truncate requires naming.field_name_limit")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.DisableStacktrace = true
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
