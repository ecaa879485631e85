package config

import (
	"time"

	"github.com/daxida/kty/internal/extract"
)

// Config is the root application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Run      RunConfig      `yaml:"run"`
	Database DatabaseConfig `yaml:"database"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Release  ReleaseConfig  `yaml:"release"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// RunConfig holds the settings of a dictionary build.
type RunConfig struct {
	Root     string `yaml:"root"      env:"KTY_ROOT"      env-default:"data"`
	DictName string `yaml:"dict_name" env:"KTY_DICT_NAME" env-default:"kty"`

	// PairsRaw lists source-target pairs, e.g. "de-en,el-en".
	PairsRaw string `yaml:"pairs" env:"KTY_PAIRS"`
	// Input is a glob for the raw extract of a pair; {root}, {source} and
	// {target} are substituted.
	Input string `yaml:"input" env:"KTY_INPUT" env-default:"{root}/kaikki/{target}-raw*.jsonl"`

	Cap         int     `yaml:"cap"           env:"KTY_CAP"           env-default:"-1"`
	IncludeRaw  string  `yaml:"include"       env:"KTY_INCLUDE"`
	ExcludeRaw  string  `yaml:"exclude"       env:"KTY_EXCLUDE"`
	Tolerance   float64 `yaml:"tolerance"     env:"KTY_TOLERANCE"     env-default:"0.05"`
	MinSample   int     `yaml:"min_sample"    env:"KTY_MIN_SAMPLE"    env-default:"100"`
	BankSize    int     `yaml:"bank_size"     env:"KTY_BANK_SIZE"     env-default:"25000"`
	Pretty      bool    `yaml:"pretty"        env:"KTY_PRETTY"        env-default:"false"`
	Plain       bool    `yaml:"plain"         env:"KTY_PLAIN"         env-default:"false"`
	Kind        string  `yaml:"kind"          env:"KTY_KIND"          env-default:"glossary"`
	SaveTemps   bool    `yaml:"save_temps"    env:"KTY_SAVE_TEMPS"    env-default:"false"`
	SkipFilter  bool    `yaml:"skip_filter"   env:"KTY_SKIP_FILTER"   env-default:"false"`
	SkipTidy    bool    `yaml:"skip_tidy"     env:"KTY_SKIP_TIDY"     env-default:"false"`
	SkipYomitan bool    `yaml:"skip_yomitan"  env:"KTY_SKIP_YOMITAN"  env-default:"false"`
	Workers     int     `yaml:"workers"       env:"KTY_WORKERS"       env-default:"4"`
	Parallel    int     `yaml:"parallel"      env:"KTY_PARALLEL"      env-default:"2"`
	TagsPath    string  `yaml:"tags_path"     env:"KTY_TAGS_PATH"`
	Revision    string  `yaml:"revision"      env:"KTY_REVISION"`
	Author      string  `yaml:"author"        env:"KTY_AUTHOR"        env-default:"kty"`
	URL         string  `yaml:"url"           env:"KTY_URL"           env-default:"https://github.com/daxida/kty"`
	SpillCache  int     `yaml:"spill_cache"   env:"KTY_SPILL_CACHE"   env-default:"50000"`
	DiagSamples int     `yaml:"diag_samples"  env:"KTY_DIAG_SAMPLES"  env-default:"50"`
	TagMemo     int     `yaml:"tag_memo"      env:"KTY_TAG_MEMO"      env-default:"4096"`

	LockTimeout time.Duration `yaml:"lock_timeout" env:"KTY_LOCK_TIMEOUT" env-default:"30s"`

	// Pairs, Include and Exclude are parsed during validation.
	Pairs   []Pair              `yaml:"-" env:"-"`
	Include []extract.Predicate `yaml:"-" env:"-"`
	Exclude []extract.Predicate `yaml:"-" env:"-"`
}

// Pair is one source/target language combination.
type Pair struct {
	Source string
	Target string
}

func (p Pair) String() string { return p.Source + "-" + p.Target }

// DatabaseConfig holds PostgreSQL settings of the spill store. An empty DSN
// keeps the accumulator in memory.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"8"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// Enabled reports whether a spill database is configured.
func (c DatabaseConfig) Enabled() bool { return c.DSN != "" }

// MetricsConfig holds the textfile exporter settings.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" env:"METRICS_TEXTFILE"`
}

// ReleaseConfig holds the S3-compatible target that built archives are
// published to.
type ReleaseConfig struct {
	Endpoint  string `yaml:"endpoint"   env:"RELEASE_ENDPOINT"`
	Region    string `yaml:"region"     env:"RELEASE_REGION"     env-default:"us-east-1"`
	Bucket    string `yaml:"bucket"     env:"RELEASE_BUCKET"`
	Prefix    string `yaml:"prefix"     env:"RELEASE_PREFIX"     env-default:"dictionaries"`
	AccessKey string `yaml:"access_key" env:"RELEASE_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"RELEASE_SECRET_KEY"`
	UseSSL    bool   `yaml:"use_ssl"    env:"RELEASE_USE_SSL"    env-default:"true"`
}

// Enabled reports whether publishing is configured.
func (c ReleaseConfig) Enabled() bool { return c.Endpoint != "" && c.Bucket != "" }
