package providers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"festmap/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "FESTMAP_LOG_LEVEL")
	viper.BindEnv("festival.tenantId", "FESTMAP_TENANT_ID")
	viper.BindEnv("festival.pollInterval", "FESTMAP_POLL_INTERVAL")
	viper.BindEnv("festival.lookback", "FESTMAP_LOOKBACK")
	viper.BindEnv("festival.hotspotWindow", "FESTMAP_HOTSPOT_WINDOW")
	viper.BindEnv("store.baseUrl", "FESTMAP_STORE_URL")
	viper.BindEnv("store.apiKey", "FESTMAP_STORE_KEY")
	viper.BindEnv("cache.enabled", "FESTMAP_CACHE_ENABLED")
	viper.BindEnv("cache.size", "FESTMAP_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	applyDefaults(&conf)

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "FestMapDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

func applyDefaults(conf *structures.Config) {
	if conf.Festival.MaxPosts <= 0 {
		conf.Festival.MaxPosts = 250
	}
	if conf.Festival.TopHotspots <= 0 {
		conf.Festival.TopHotspots = 3
	}
	if conf.Places.Limit <= 0 {
		conf.Places.Limit = 5
	}
}
