package server

import (
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/reldb/reldb/pkg/flags"
	"github.com/reldb/reldb/pkg/util"
	"github.com/reldb/reldb/pkg/version"
)

const (
	defaultListenAddr      = "127.0.0.1:8254"
	defaultDataDir         = "data"
	defaultMetricsInterval = 15
)

// Config is the configuration of Server
type Config struct {
	*flag.FlagSet `json:"-"`
	LogLevel      string `toml:"log-level" json:"log-level"`
	ListenAddr    string `toml:"addr" json:"addr"`
	LogFile       string `toml:"log-file" json:"log-file"`
	DataDir       string `toml:"data-dir" json:"data-dir"`
	NoSync        bool   `toml:"no-sync" json:"no-sync"`

	MetricsAddr     string `toml:"metrics-addr" json:"metrics-addr"`
	MetricsInterval int    `toml:"metrics-interval" json:"metrics-interval"`

	configFile   string
	printVersion bool
}

// NewConfig return an instance of configuration
func NewConfig() *Config {
	cfg := &Config{}
	cfg.FlagSet = flag.NewFlagSet("reldb-server", flag.ContinueOnError)
	fs := cfg.FlagSet
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage of reldb-server:")
		fs.PrintDefaults()
	}

	fs.StringVar(&cfg.ListenAddr, "addr", defaultListenAddr, "addr (i.e. 'host:port') to listen on for client connections")
	fs.StringVar(&cfg.DataDir, "data-dir", defaultDataDir, "directory holding the table files")
	fs.BoolVar(&cfg.NoSync, "no-sync", false, "skip the fsync after every write, faster but a crash can lose the latest statements")
	fs.StringVar(&cfg.LogLevel, "L", "info", "log level: debug, info, warn, error, fatal")
	fs.StringVar(&cfg.configFile, "config", "", "path to the configuration file")
	fs.BoolVar(&cfg.printVersion, "V", false, "print version info")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "prometheus pushgateway address, leaves it empty will disable prometheus push")
	fs.IntVar(&cfg.MetricsInterval, "metrics-interval", defaultMetricsInterval, "prometheus client push interval in second, set \"0\" to disable prometheus push")
	fs.StringVar(&cfg.LogFile, "log-file", "", "log file path")

	return cfg
}

func (cfg *Config) String() string {
	data, err := json.MarshalIndent(cfg, "\t", "\t")
	if err != nil {
		log.Error("marshal config failed", zap.Error(err))
	}

	return string(data)
}

// Parse parses all config from command-line flags, environment vars or the configuration file
func (cfg *Config) Parse(args []string) error {
	// parse first to get config file
	perr := cfg.FlagSet.Parse(args)
	switch perr {
	case nil:
	case flag.ErrHelp:
		os.Exit(0)
	default:
		os.Exit(2)
	}
	if cfg.printVersion {
		version.PrintVersionInfo()
		os.Exit(0)
	}

	// load config file if specified
	if cfg.configFile != "" {
		if err := cfg.configFromFile(cfg.configFile); err != nil {
			return errors.Trace(err)
		}
	}
	// parse again to replace with command line options
	cfg.FlagSet.Parse(args)
	if len(cfg.FlagSet.Args()) > 0 {
		return errors.Errorf("'%s' is not a valid flag", cfg.FlagSet.Arg(0))
	}
	// replace with environment vars
	err := flags.SetFlagsFromEnv("RELDB", cfg.FlagSet)
	if err != nil {
		return errors.Trace(err)
	}

	cfg.adjustConfig()

	return cfg.validate()
}

// validate checks whether the configuration is valid
func (cfg *Config) validate() error {
	if _, _, err := net.SplitHostPort(cfg.ListenAddr); err != nil {
		return errors.Errorf("bad addr format: %s, %v", cfg.ListenAddr, err)
	}
	if cfg.MetricsInterval < 0 {
		return errors.Errorf("metrics-interval must not be negative, got %d", cfg.MetricsInterval)
	}

	return nil
}

func (cfg *Config) adjustConfig() {
	util.AdjustString(&cfg.ListenAddr, defaultListenAddr)
	util.AdjustString(&cfg.DataDir, defaultDataDir)
	util.AdjustString(&cfg.LogLevel, "info")
}

func (cfg *Config) configFromFile(path string) error {
	return util.StrictDecodeFile(path, "reldb-server", cfg)
}
