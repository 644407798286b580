package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host   string `yaml:"host" json:"host"`
	Port   int    `yaml:"port" json:"port"`
	Secret string `yaml:"secret" json:"secret"`
}

// LocalDBConfig is the on-disk SQLite store used when offline and as the
// durability buffer for every write.
type LocalDBConfig struct {
	Path  string `yaml:"path" json:"path"`
	Debug bool   `yaml:"debug" json:"debug"`
}

// RemoteDBConfig is the hosted Postgres store, the source of truth when
// reachable. Enabled=false runs the server in permanently-offline mode.
type RemoteDBConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type SyncConfig struct {
	// ProbeTTL is how long a connectivity verdict is cached, seconds
	ProbeTTL int `yaml:"probe_ttl" json:"probe_ttl"`
	// RemoteTimeout bounds every remote store operation, seconds
	RemoteTimeout int `yaml:"remote_timeout" json:"remote_timeout"`
	// ReconcileInterval drives the periodic reconcile job, seconds
	ReconcileInterval int `yaml:"reconcile_interval" json:"reconcile_interval"`
	// HealthURL, when set, is probed over HTTP in addition to the DB ping
	HealthURL string `yaml:"health_url" json:"health_url"`
}

type SmtpConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Sender   string `yaml:"sender" json:"sender"`
	Password string `yaml:"password" json:"password"`
}

type LoggerConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System SysConfig      `yaml:"system" json:"system"`
	Web    WebConfig      `yaml:"web" json:"web"`
	Local  LocalDBConfig  `yaml:"local" json:"local"`
	Remote RemoteDBConfig `yaml:"remote" json:"remote"`
	Sync   SyncConfig     `yaml:"sync" json:"sync"`
	Smtp   SmtpConfig     `yaml:"smtp" json:"smtp"`
	Logger LoggerConfig   `yaml:"logger" json:"logger"`
}

func (c *AppConfig) GetLogDir() string {
	return filepath.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return filepath.Join(c.System.Workdir, "data")
}

// LocalDBPath resolves the sqlite file location, defaulting under workdir.
func (c *AppConfig) LocalDBPath() string {
	if c.Local.Path != "" {
		return c.Local.Path
	}
	return filepath.Join(c.GetDataDir(), "equipview.sqlite")
}

func (c *AppConfig) RemoteDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Remote.Host, c.Remote.Port, c.Remote.User, c.Remote.Passwd, c.Remote.Name)
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "equipview",
		Location: "Asia/Shanghai",
		Workdir:  "/var/equipview",
		Debug:    true,
	},
	Web: WebConfig{
		Host:   "0.0.0.0",
		Port:   1816,
		Secret: "9b6de5cc-equipview-1816-demo-secret",
	},
	Local: LocalDBConfig{},
	Remote: RemoteDBConfig{
		Enabled:  true,
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "equipview",
		User:     "postgres",
		Passwd:   "myroot",
		MaxConn:  100,
		IdleConn: 10,
	},
	Sync: SyncConfig{
		ProbeTTL:          5,
		RemoteTimeout:     5,
		ReconcileInterval: 300,
	},
	Smtp: SmtpConfig{
		Host: "smtp.gmail.com",
		Port: 587,
	},
	Logger: LoggerConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/equipview/equipview.log",
	},
}

func setEnvValue(name string, f func(v string)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(evalue)
	}
}

func setEnvBoolValue(name string, f func(v bool)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(evalue == "true" || evalue == "1" || evalue == "on")
	}
}

func setEnvIntValue(name string, f func(v int)) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	if p, err := strconv.Atoi(evalue); err == nil {
		f(p)
	}
}

// LoadConfig reads the yaml config file and applies EQUIPVIEW_* environment
// overrides on top; a missing file yields the built-in defaults.
func LoadConfig(cfile string) *AppConfig {
	cfg := DefaultAppConfig
	if cfile != "" {
		if _, err := os.Stat(cfile); err == nil {
			data, err := os.ReadFile(cfile)
			if err != nil {
				panic(err)
			}
			cfg = new(AppConfig)
			if err := yaml.Unmarshal(data, cfg); err != nil {
				panic(err)
			}
		}
	}

	setEnvValue("EQUIPVIEW_SYSTEM_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvValue("EQUIPVIEW_SYSTEM_LOCATION", func(v string) { cfg.System.Location = v })
	setEnvBoolValue("EQUIPVIEW_SYSTEM_DEBUG", func(v bool) { cfg.System.Debug = v })

	setEnvValue("EQUIPVIEW_WEB_HOST", func(v string) { cfg.Web.Host = v })
	setEnvIntValue("EQUIPVIEW_WEB_PORT", func(v int) { cfg.Web.Port = v })
	setEnvValue("EQUIPVIEW_WEB_SECRET", func(v string) { cfg.Web.Secret = v })

	setEnvValue("EQUIPVIEW_LOCAL_PATH", func(v string) { cfg.Local.Path = v })

	setEnvBoolValue("EQUIPVIEW_REMOTE_ENABLED", func(v bool) { cfg.Remote.Enabled = v })
	setEnvValue("EQUIPVIEW_REMOTE_HOST", func(v string) { cfg.Remote.Host = v })
	setEnvIntValue("EQUIPVIEW_REMOTE_PORT", func(v int) { cfg.Remote.Port = v })
	setEnvValue("EQUIPVIEW_REMOTE_NAME", func(v string) { cfg.Remote.Name = v })
	setEnvValue("EQUIPVIEW_REMOTE_USER", func(v string) { cfg.Remote.User = v })
	setEnvValue("EQUIPVIEW_REMOTE_PASSWD", func(v string) { cfg.Remote.Passwd = v })

	setEnvIntValue("EQUIPVIEW_SYNC_PROBE_TTL", func(v int) { cfg.Sync.ProbeTTL = v })
	setEnvIntValue("EQUIPVIEW_SYNC_REMOTE_TIMEOUT", func(v int) { cfg.Sync.RemoteTimeout = v })
	setEnvIntValue("EQUIPVIEW_SYNC_RECONCILE_INTERVAL", func(v int) { cfg.Sync.ReconcileInterval = v })
	setEnvValue("EQUIPVIEW_SYNC_HEALTH_URL", func(v string) { cfg.Sync.HealthURL = v })

	setEnvValue("EQUIPVIEW_SMTP_HOST", func(v string) { cfg.Smtp.Host = v })
	setEnvIntValue("EQUIPVIEW_SMTP_PORT", func(v int) { cfg.Smtp.Port = v })
	setEnvValue("EQUIPVIEW_SMTP_SENDER", func(v string) { cfg.Smtp.Sender = v })
	setEnvValue("EQUIPVIEW_SMTP_PASSWORD", func(v string) { cfg.Smtp.Password = v })

	return cfg
}
