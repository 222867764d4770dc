package providers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"festmap/internal/structures"
)

type TypeEnum int

const (
	TypeApp TypeEnum = iota
	TypeIngest
	TypePublish
	TypeGet
	TypePost
)

func (t TypeEnum) String() string {
	switch t {
	case TypeIngest:
		return "ingest"
	case TypePublish:
		return "publish"
	case TypeGet:
		return "get"
	case TypePost:
		return "post"
	default:
		return "app"
	}
}

// GetLogTypeByRequestType maps an HTTP method to an access-log channel.
func GetLogTypeByRequestType(method string) TypeEnum {
	if method == "POST" {
		return TypePost
	}
	return TypeGet
}

type Logger interface {
	Debugf(t TypeEnum, format string, args ...interface{})
	Infof(t TypeEnum, format string, args ...interface{})
	Warnf(t TypeEnum, format string, args ...interface{})
	Errorf(t TypeEnum, format string, args ...interface{})
	Fatalf(t TypeEnum, format string, args ...interface{})
	Close()
}

// LogProvider writes application channels (app/ingest/publish) to one file
// and request channels (get/post) to another, zerolog JSON lines in both.
type LogProvider struct {
	appLog    zerolog.Logger
	accessLog zerolog.Logger
	files     []*os.File
}

func NewLogProvider(conf *structures.Config) (Logger, error) {
	level, err := zerolog.ParseLevel(conf.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", conf.Logger.Level, err)
	}

	mode := os.FileMode(conf.Logger.Mode)
	appFile, err := openLogFile(filepath.Join(conf.Logger.Dir, "festmap.log"), mode)
	if err != nil {
		return nil, err
	}
	accessFile, err := openLogFile(filepath.Join(conf.Logger.Dir, "access.log"), mode)
	if err != nil {
		appFile.Close()
		return nil, err
	}

	lp := &LogProvider{
		appLog:    zerolog.New(appFile).Level(level).With().Timestamp().Logger(),
		accessLog: zerolog.New(accessFile).Level(level).With().Timestamp().Logger(),
		files:     []*os.File{appFile, accessFile},
	}
	if conf.Debug {
		console := zerolog.ConsoleWriter{Out: os.Stderr}
		lp.appLog = lp.appLog.Output(zerolog.MultiLevelWriter(appFile, console))
		lp.accessLog = lp.accessLog.Output(zerolog.MultiLevelWriter(accessFile, console))
	}
	return lp, nil
}

func openLogFile(path string, mode os.FileMode) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, mode)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}

func (lp *LogProvider) target(t TypeEnum) *zerolog.Logger {
	if t == TypeGet || t == TypePost {
		return &lp.accessLog
	}
	return &lp.appLog
}

func (lp *LogProvider) Debugf(t TypeEnum, format string, args ...interface{}) {
	lp.target(t).Debug().Str("type", t.String()).Msgf(format, args...)
}

func (lp *LogProvider) Infof(t TypeEnum, format string, args ...interface{}) {
	lp.target(t).Info().Str("type", t.String()).Msgf(format, args...)
}

func (lp *LogProvider) Warnf(t TypeEnum, format string, args ...interface{}) {
	lp.target(t).Warn().Str("type", t.String()).Msgf(format, args...)
}

func (lp *LogProvider) Errorf(t TypeEnum, format string, args ...interface{}) {
	lp.target(t).Error().Str("type", t.String()).Msgf(format, args...)
}

func (lp *LogProvider) Fatalf(t TypeEnum, format string, args ...interface{}) {
	lp.target(t).Fatal().Str("type", t.String()).Msgf(format, args...)
}

func (lp *LogProvider) Close() {
	for _, f := range lp.files {
		_ = f.Close()
	}
}
