package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries runtime options for netspeed.
type Config struct {
	Interval         time.Duration `yaml:"interval"`
	AutosaveInterval time.Duration `yaml:"autosave"`
	DataDir          string        `yaml:"data_dir"`
	ConfigPath       string        `yaml:"-"`
	ProcRoot         string        `yaml:"proc_root"`
	SysRoot          string        `yaml:"sys_root"`
	JSON             bool          `yaml:"-"`
	JSONStream       bool          `yaml:"-"`
	DesktopNotify    bool          `yaml:"desktop_notify"`
	LogLevel         string        `yaml:"log_level"`
	LogFile          string        `yaml:"log_file"`
	Settings         Settings      `yaml:"settings"`
}

func Default() Config {
	dataDir := defaultDataDir()
	return Config{
		Interval:         time.Second,
		AutosaveInterval: 60 * time.Second,
		DataDir:          dataDir,
		ConfigPath:       defaultConfigPath(),
		ProcRoot:         "/proc",
		SysRoot:          "/sys",
		LogLevel:         "info",
		Settings:         DefaultSettings(),
	}
}

// StatsPath is the statistics document inside the data directory.
func (c Config) StatsPath() string { return filepath.Join(c.DataDir, "statistics.json") }

// SnoozePath holds the persisted notification snooze.
func (c Config) SnoozePath() string { return filepath.Join(c.DataDir, "alerts.json") }

// LogPath returns the configured log file or a default one next to the statistics.
func (c Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, "netspeed.log")
}

// Load builds a Config from defaults, the YAML file, the environment and
// finally the command line, each layer overriding the previous one.
func Load(args []string) (Config, error) {
	cfg := Default()

	probe := cfg
	pfs := newFlagSet(&probe)
	pfs.SetOutput(io.Discard)
	if err := pfs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = probe.ConfigPath

	if err := cfg.loadFile(cfg.ConfigPath); err != nil {
		return cfg, err
	}
	cfg.applyEnv()

	flags := newFlagSet(&cfg)
	if err := flags.Parse(args); err != nil {
		return cfg, err
	}
	flags.Visit(func(f *flag.Flag) {
		if f.Name == "iface" && cfg.Settings.Interface.Pinned != "" {
			cfg.Settings.Interface.Mode = InterfaceManual
		}
	})

	if err := cfg.Settings.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newFlagSet(cfg *Config) *flag.FlagSet {
	set := flag.NewFlagSet("netspeed", flag.ContinueOnError)
	set.DurationVar(&cfg.Interval, "interval", cfg.Interval, "refresh interval")
	set.DurationVar(&cfg.AutosaveInterval, "autosave", cfg.AutosaveInterval, "statistics autosave interval")
	set.StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "path to YAML settings file")
	set.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for statistics and snooze state")
	set.StringVar(&cfg.ProcRoot, "proc", cfg.ProcRoot, "procfs mount point")
	set.StringVar(&cfg.SysRoot, "sys", cfg.SysRoot, "sysfs mount point")
	set.BoolVar(&cfg.JSON, "json", cfg.JSON, "output one-shot JSON and exit")
	set.BoolVar(&cfg.JSONStream, "json-stream", cfg.JSONStream, "stream NDJSON until interrupted")
	set.BoolVar(&cfg.DesktopNotify, "desktop-notify", cfg.DesktopNotify, "show alerts with notify-send")
	set.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug|info|warn|error")
	set.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log file (TUI mode)")
	set.StringVar(&cfg.Settings.Interface.Pinned, "iface", cfg.Settings.Interface.Pinned, "pin a network interface")
	set.StringVar(&cfg.Settings.DiskDevice, "disk", cfg.Settings.DiskDevice, "pin a disk device")
	set.StringVar(&cfg.Settings.TemperatureSensor, "sensor", cfg.Settings.TemperatureSensor, "temperature sensor name or id")
	set.BoolVar(&cfg.Settings.TrackStatistics, "stats", cfg.Settings.TrackStatistics, "track traffic statistics")
	set.Float64Var(&cfg.Settings.Alerts.QuotaGB, "quota-gb", cfg.Settings.Alerts.QuotaGB, "monthly bandwidth quota in GiB (0 disables)")
	return set
}

func (c *Config) loadFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NETSPEED_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			c.Interval = parsed
		} else if parsed, err2 := time.ParseDuration(v + "s"); err2 == nil {
			c.Interval = parsed
		}
	}
	if v := os.Getenv("NETSPEED_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("NETSPEED_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("NETSPEED_IFACE")); v != "" {
		c.Settings.Interface.Mode = InterfaceManual
		c.Settings.Interface.Pinned = v
	}
	if v := os.Getenv("NETSPEED_DISK"); v != "" {
		c.Settings.DiskDevice = v
	}
	if v := os.Getenv("NETSPEED_SENSOR"); v != "" {
		c.Settings.TemperatureSensor = v
	}
	if v := os.Getenv("NETSPEED_NOTIFY"); v == "0" {
		c.Settings.Alerts.Enabled = false
	}
	if v := os.Getenv("NETSPEED_QUOTA_GB"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Settings.Alerts.QuotaGB = f
		}
	}
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "netspeed")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "netspeed")
	}
	return filepath.Join(home, ".local", "share", "netspeed")
}

func defaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "netspeed", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "netspeed", "config.yaml")
}
