package logging

import (
	"errors"
	"fmt"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the service's root zap logger. Subsystems take named children
// through Component.
type Logger struct {
	*zap.Logger
	level zap.AtomicLevel
}

// Config defines logger configuration.
type Config struct {
	Level       string // "debug", "info", "warn", "error"
	Development bool
	// OutputPaths defaults to stdout
	OutputPaths []string
	// Sampling thins repeated production entries, such as one warning per
	// failing tile on every board load. Ignored in development.
	Sampling bool
}

// DefaultConfig returns production logger configuration.
func DefaultConfig() Config {
	return Config{Level: "info", Sampling: true}
}

// New builds a logger: JSON in production, colored console in development.
func New(cfg Config) (*Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "timestamp"
		zapCfg.EncoderConfig.MessageKey = "message"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zapCfg.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
		zapCfg.Sampling = nil
		if cfg.Sampling {
			zapCfg.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
		}
	}
	zapCfg.Level = level
	if len(cfg.OutputPaths) > 0 {
		zapCfg.OutputPaths = cfg.OutputPaths
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: logger, level: level}, nil
}

// NewDefault creates a production logger, or a no-op logger if that fails.
func NewDefault() *Logger {
	return mustOrNop(New(DefaultConfig()))
}

func mustOrNop(l *Logger, err error) *Logger {
	if err != nil {
		return &Logger{Logger: zap.NewNop(), level: zap.NewAtomicLevel()}
	}
	return l
}

// Component returns a child logger named after a subsystem
func (l *Logger) Component(name string) *zap.Logger {
	return l.Logger.Named(name)
}

// SetLevel changes the minimum level at runtime
func (l *Logger) SetLevel(level zapcore.Level) {
	l.level.SetLevel(level)
}

// Close flushes buffered entries. Sync errors on terminals and pipes are
// expected and ignored.
func (l *Logger) Close() error {
	err := l.Logger.Sync()
	if errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) {
		return nil
	}
	return err
}

// Tile identifies one tile of one dashboard in a log entry
func Tile(dashboard, tile string) zap.Field {
	return zap.String("tile", dashboard+"/"+tile)
}

// Elapsed logs a duration since start
func Elapsed(start time.Time) zap.Field {
	return zap.Duration("elapsed", time.Since(start))
}
