package config

import (
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"mymanga/internal/domain"
	"mymanga/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "MYMANGA__"

var configTemplate = `# config.yaml

# Hostname / IP
#
# Default: "0.0.0.0"
#
host: "0.0.0.0"

# Port
#
# Default: 8080
#
port: 8080

# Catalog API
# Base URL of the MangaDex API and of its cover CDN
#
# Default: "https://api.mangadex.org", "https://uploads.mangadex.org"
#
apiURL: "https://api.mangadex.org"
uploadsURL: "https://uploads.mangadex.org"

# User agent sent with every catalog request
#
# Default: "mymanga"
#
userAgent: "mymanga"

# Search results per page
#
# Default: 20
#
pageSize: 20

# Milliseconds to wait after the last keystroke before searching
#
# Default: 500
#
debounceMs: 500

# Retries for failed catalog requests
# Delay is in seconds
#
# Default: 3 attempts, 1 second
#
retryAttempts: 3
retryDelay: 1

# Storage for favorites and settings
#
# Default: "sqlite"
#
# Options: "sqlite", "redis", "memory"
#
storage: "sqlite"

# SQLite database file
#
# Default: "mymanga.db"
#
databasePath: "mymanga.db"

# Redis connection, used when storage is "redis"
#
#redisAddr: "localhost:6379"
#redisPassword: ""

# Naming Template
# Used to name exported chapters
# The default will result something like this: Manga Ch. 001 - Chapter Title
#
# Default: {manga:<.>} Ch. {num:3}{title: - <.>}
#
namingTemplate: "{manga:<.>} Ch. {num:3}{title: - <.>}"

# mymanga logs file
# If not defined, logs to stdout
# Make sure to use forward slashes and include the filename with extension. e.g. "logs/mymanga.log", "C:/mymanga/logs/mymanga.log"
#
# Optional
#
#logPath: ""

# Log level
#
# Default: "DEBUG"
#
# Options: "ERROR", "DEBUG", "INFO", "WARN", "TRACE"
#
logLevel: "DEBUG"

# Log Max Size
#
# Default: 50
#
# Max log size in megabytes
#
#logMaxSize: 50

# Log Max Backups
#
# Default: 3
#
# Max amount of old log files
#
#logMaxBackups: 3
`

func (c *AppConfig) writeConfig(configPath string, configFile string) error {
	cfgPath := filepath.Join(configPath, configFile)

	// check if configPath exists, if not create it
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		err := os.MkdirAll(configPath, os.ModePerm)
		if err != nil {
			log.Println(err)
			return err
		}
	}

	// check if config exists, if not create it
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		f, err := os.Create(cfgPath)
		if err != nil {
			log.Printf("error creating file: %q", err)
			return err
		}
		defer f.Close()

		if _, err = f.WriteString(configTemplate); err != nil {
			log.Printf("error writing contents to file: %v %q", configPath, err)
			return err
		}

		return f.Sync()
	}

	return nil
}

type Config interface {
	UpdateConfig() error
	DynamicReload(log logger.Logger)
}

type AppConfig struct {
	Config *domain.Config
	m      *sync.Mutex
	v      *viper.Viper
}

func New(configPath string, version string) *AppConfig {
	c := &AppConfig{
		m: new(sync.Mutex),
		v: viper.New(),
	}
	c.defaults()
	c.Config = &domain.Config{
		Version:    version,
		ConfigPath: configPath,
	}

	c.load(configPath)

	// a missing .env is fine
	_ = godotenv.Load()
	c.loadFromEnv(os.Environ())

	return c
}

func (c *AppConfig) defaults() {
	c.v.SetDefault("host", "0.0.0.0")
	c.v.SetDefault("port", 8080)
	c.v.SetDefault("apiURL", "https://api.mangadex.org")
	c.v.SetDefault("uploadsURL", "https://uploads.mangadex.org")
	c.v.SetDefault("userAgent", "mymanga")
	c.v.SetDefault("pageSize", 20)
	c.v.SetDefault("debounceMs", 500)
	c.v.SetDefault("retryAttempts", 3)
	c.v.SetDefault("retryDelay", 1)
	c.v.SetDefault("storage", "sqlite")
	c.v.SetDefault("databasePath", "mymanga.db")
	c.v.SetDefault("redisAddr", "")
	c.v.SetDefault("redisPassword", "")
	c.v.SetDefault("namingTemplate", "{manga:<.>} Ch. {num:3}{title: - <.>}")
	c.v.SetDefault("logPath", "")
	c.v.SetDefault("logLevel", "DEBUG")
	c.v.SetDefault("logMaxSize", 50)
	c.v.SetDefault("logMaxBackups", 3)
}

func (c *AppConfig) loadFromEnv(envs []string) {
	positive := func(value string, target *int) {
		if i, _ := strconv.ParseInt(value, 10, 32); i > 0 {
			*target = int(i)
		}
	}

	for _, env := range envs {
		if !strings.HasPrefix(env, envPrefix) {
			continue
		}

		key, value, _ := strings.Cut(env, "=")
		if value == "" {
			continue
		}

		switch strings.TrimPrefix(key, envPrefix) {
		case "HOST":
			c.Config.Host = value
		case "PORT":
			positive(value, &c.Config.Port)
		case "API_URL":
			c.Config.APIURL = value
		case "UPLOADS_URL":
			c.Config.UploadsURL = value
		case "USER_AGENT":
			c.Config.UserAgent = value
		case "PAGE_SIZE":
			positive(value, &c.Config.PageSize)
		case "DEBOUNCE_MS":
			positive(value, &c.Config.DebounceMs)
		case "RETRY_ATTEMPTS":
			positive(value, &c.Config.RetryAttempts)
		case "RETRY_DELAY":
			if i, err := strconv.ParseInt(value, 10, 32); err == nil && i >= 0 {
				c.Config.RetryDelay = int(i)
			}
		case "STORAGE":
			c.Config.Storage = value
		case "DATABASE_PATH":
			c.Config.DatabasePath = value
		case "REDIS_ADDR":
			c.Config.RedisAddr = value
		case "REDIS_PASSWORD":
			c.Config.RedisPassword = value
		case "NAMING_TEMPLATE":
			c.Config.NamingTemplate = value
		case "LOG_LEVEL":
			c.Config.LogLevel = value
		case "LOG_PATH":
			c.Config.LogPath = value
		case "LOG_MAX_SIZE":
			positive(value, &c.Config.LogMaxSize)
		case "LOG_MAX_BACKUPS":
			positive(value, &c.Config.LogMaxBackups)
		}
	}
}

func (c *AppConfig) load(configPath string) {
	c.v.SetConfigType("yaml")

	if configPath != "" {
		// clean trailing slash from configPath
		configPath = path.Clean(configPath)

		// check if path and file exists
		// if not, create path and file
		if err := c.writeConfig(configPath, "config.yaml"); err != nil {
			log.Printf("write error: %q", err)
		}

		c.v.SetConfigFile(path.Join(configPath, "config.yaml"))
	} else {
		c.v.SetConfigName("config")

		// Search config in directories
		c.v.AddConfigPath(".")
		c.v.AddConfigPath("$HOME/.config/mymanga")
		c.v.AddConfigPath("$HOME/.mymanga")
	}

	// read config
	if err := c.v.ReadInConfig(); err != nil {
		log.Printf("config read error: %q", err)
	}

	if err := c.v.Unmarshal(c.Config); err != nil {
		log.Fatalf("Could not unmarshal config file: %v: err %q", c.v.ConfigFileUsed(), err)
	}
}

func (c *AppConfig) DynamicReload(log logger.Logger) {
	c.v.WatchConfig()

	c.v.OnConfigChange(func(_ fsnotify.Event) {
		c.m.Lock()
		defer c.m.Unlock()

		logLevel := c.v.GetString("logLevel")
		c.Config.LogLevel = logLevel
		log.SetLogLevel(c.Config.LogLevel)

		logPath := c.v.GetString("logPath")
		c.Config.LogPath = logPath

		log.Debug().Msg("config file reloaded!")
	})
}

// UpdateConfig writes the effective log settings back into config.yaml, keeping the rest of the file.
func (c *AppConfig) UpdateConfig() error {
	filePath := path.Join(c.Config.ConfigPath, "config.yaml")

	f, err := os.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "could not read config filePath: %s", filePath)
	}

	lines := c.processLines(strings.Split(string(f), "\n"))

	if err := os.WriteFile(filePath, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return errors.Wrapf(err, "could not write config file: %s", filePath)
	}

	return nil
}

type managedLine struct {
	key     string
	value   string
	comment []string
}

func (c *AppConfig) managedLines() []managedLine {
	return []managedLine{
		{
			key:     "logLevel",
			value:   c.Config.LogLevel,
			comment: []string{"# Log level", "#", `# Default: "DEBUG"`, "#", `# Options: "ERROR", "DEBUG", "INFO", "WARN", "TRACE"`, "#"},
		},
		{
			key:     "logPath",
			value:   c.Config.LogPath,
			comment: []string{"# Log Path", "#", "# Optional", "#"},
		},
	}
}

func (m managedLine) render() string {
	if m.value == "" {
		return fmt.Sprintf(`#%s: ""`, m.key)
	}
	return fmt.Sprintf(`%s: "%s"`, m.key, m.value)
}

// processLines replaces the first line mentioning each managed key and appends the ones that are missing.
func (c *AppConfig) processLines(lines []string) []string {
	for _, m := range c.managedLines() {
		found := false
		for i, line := range lines {
			if strings.Contains(line, m.key+":") {
				lines[i] = m.render()
				found = true
				break
			}
		}

		if !found {
			lines = append(lines, m.comment...)
			lines = append(lines, m.render())
		}
	}

	return lines
}
