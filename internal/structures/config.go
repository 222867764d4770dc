package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type FestivalConfig struct {
	TenantID      string        `yaml:"tenantId" validate:"required"`
	Lookback      time.Duration `yaml:"lookback" validate:"required|min:1"`
	HotspotWindow time.Duration `yaml:"hotspotWindow" validate:"required|min:1"`
	CellSize      float64       `yaml:"cellSize" validate:"required"`
	PollInterval  time.Duration `yaml:"pollInterval" validate:"required|min:1"`
	PostTTL       time.Duration `yaml:"postTTL" validate:"required|min:1"`
	MaxPosts      int           `yaml:"maxPosts"`
	TopHotspots   int           `yaml:"topHotspots"`
}

type StoreConfig struct {
	BaseURL string        `yaml:"baseUrl" validate:"required|fullUrl"`
	APIKey  string        `yaml:"apiKey"`
	Table   string        `yaml:"table" validate:"required"`
	Bucket  string        `yaml:"bucket" validate:"required"`
	Timeout time.Duration `yaml:"timeout"`
}

type PlacesConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
	Limit   int           `yaml:"limit"`
}

type ArchiveConfig struct {
	Dir string        `yaml:"dir"`
	TTL time.Duration `yaml:"ttl"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	Festival    FestivalConfig `yaml:"festival"`
	Store       StoreConfig    `yaml:"store"`
	Places      PlacesConfig   `yaml:"places"`
	Archive     ArchiveConfig  `yaml:"archive"`
	WebServer   Server         `yaml:"webServer"`
	Persistence Persistence    `yaml:"persistence"`
	Logger      LoggerConfig   `yaml:"logger"`
	Cache       CacheConfig    `yaml:"cache"`
	Metrics     MetricsConfig  `yaml:"metrics"`
}
