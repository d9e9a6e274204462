package domain

type Config struct {
	Version        string
	ConfigPath     string
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	APIURL         string `yaml:"apiURL"`
	UploadsURL     string `yaml:"uploadsURL"`
	UserAgent      string `yaml:"userAgent"`
	PageSize       int    `yaml:"pageSize"`
	DebounceMs     int    `yaml:"debounceMs"`
	RetryAttempts  int    `yaml:"retryAttempts"`
	RetryDelay     int    `yaml:"retryDelay"` // in seconds
	Storage        string `yaml:"storage"`
	DatabasePath   string `yaml:"databasePath"`
	RedisAddr      string `yaml:"redisAddr"`
	RedisPassword  string `yaml:"redisPassword"`
	NamingTemplate string `yaml:"namingTemplate"`
	LogPath        string `yaml:"logPath"`
	LogLevel       string `yaml:"logLevel"`
	LogMaxSize     int    `yaml:"logMaxSize"` // in megabytes
	LogMaxBackups  int    `yaml:"logMaxBackups"`
}
