// Package config loads application configuration from file and environment
// and owns global logger setup.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/energy-comms/internal/transform"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Sources    SourcesConfig    `yaml:"sources" mapstructure:"sources"`
	Employment EmploymentConfig `yaml:"employment" mapstructure:"employment"`
	Geo        GeoConfig        `yaml:"geo" mapstructure:"geo"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the results database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// DataConfig locates the downloaded agency inputs on disk.
type DataConfig struct {
	InputDir  string `yaml:"input_dir" mapstructure:"input_dir"`
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
}

// SourcesConfig holds upstream file URLs. The QCEW URL is a template with a
// %d year slot. The boundary archives default to the Census FTP mirror.
type SourcesConfig struct {
	MinesURL        string `yaml:"mines_url" mapstructure:"mines_url"`
	BrownfieldsURL  string `yaml:"brownfields_url" mapstructure:"brownfields_url"`
	QCEWURLTemplate string `yaml:"qcew_url_template" mapstructure:"qcew_url_template"`
	LAUCountyURL    string `yaml:"lau_county_url" mapstructure:"lau_county_url"`
	LAUMetroURL     string `yaml:"lau_metro_url" mapstructure:"lau_metro_url"`
	NationalCPSURL  string `yaml:"national_cps_url" mapstructure:"national_cps_url"`
	AreaDefsURL     string `yaml:"area_defs_url" mapstructure:"area_defs_url"`
	ZipCrosswalkURL string `yaml:"zip_crosswalk_url" mapstructure:"zip_crosswalk_url"`
	StateShapesURL  string `yaml:"state_shapes_url" mapstructure:"state_shapes_url"`
	CountyShapesURL string `yaml:"county_shapes_url" mapstructure:"county_shapes_url"`
	TractShapesURL  string `yaml:"tract_shapes_url" mapstructure:"tract_shapes_url"`
}

// EmploymentConfig configures the fossil-employment criterion.
type EmploymentConfig struct {
	FossilNAICS []string `yaml:"fossil_naics" mapstructure:"fossil_naics"`
	Threshold   float64  `yaml:"threshold" mapstructure:"threshold"`
	StartYear   int      `yaml:"start_year" mapstructure:"start_year"`
	EndYear     int      `yaml:"end_year" mapstructure:"end_year"`
}

// GeoConfig configures the boundary-file source.
type GeoConfig struct {
	Dir           string `yaml:"dir" mapstructure:"dir"`
	EqualAreaProj string `yaml:"equal_area_proj" mapstructure:"equal_area_proj"`
}

// FetchConfig configures download behavior.
type FetchConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
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
	v.SetEnvPrefix("ENERGYCOMMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "energy_comms.db")
	v.SetDefault("data.input_dir", "data/inputs")
	v.SetDefault("data.output_dir", "data/outputs")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("fetch.user_agent", "energy-comms/1.0")
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("geo.dir", "data/geometries")
	v.SetDefault("geo.equal_area_proj", "")
	v.SetDefault("employment.fossil_naics", transform.FossilNAICSCodes)
	v.SetDefault("employment.threshold", 0.0017)
	v.SetDefault("employment.start_year", 2010)
	v.SetDefault("employment.end_year", 2021)
	v.SetDefault("sources.mines_url",
		"https://arlweb.msha.gov/OpenGovernmentData/DataSets/Mines.zip")
	v.SetDefault("sources.brownfields_url",
		"https://www.epa.gov/system/files/documents/2022-04/re-powering-screening-dataset-2022.xlsx")
	v.SetDefault("sources.qcew_url_template",
		"https://data.bls.gov/cew/data/files/%d/csv/%d_annual_by_area.zip")
	v.SetDefault("sources.lau_county_url",
		"https://download.bls.gov/pub/time.series/la/la.data.64.County")
	v.SetDefault("sources.lau_metro_url",
		"https://download.bls.gov/pub/time.series/la/la.data.60.Metro")
	v.SetDefault("sources.national_cps_url",
		"https://download.bls.gov/pub/time.series/ln/ln.data.1.AllData")
	v.SetDefault("sources.area_defs_url",
		"https://www.bls.gov/oes/2021/may/area_definitions_m2021.xlsx")
	v.SetDefault("sources.zip_crosswalk_url",
		"https://www.huduser.gov/portal/datasets/usps/ZIP_COUNTY_122021.xlsx")
	v.SetDefault("sources.state_shapes_url",
		"ftp://ftp2.census.gov/geo/tiger/GENZ2018/shp/cb_2018_us_state_500k.zip")
	v.SetDefault("sources.county_shapes_url",
		"ftp://ftp2.census.gov/geo/tiger/GENZ2010/gz_2010_us_050_00_500k.zip")
	v.SetDefault("sources.tract_shapes_url",
		"ftp://ftp2.census.gov/geo/tiger/GENZ2010/gz_2010_us_140_00_500k.zip")

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

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
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
