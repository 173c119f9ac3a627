// Package logging builds the process-wide zap logger.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/iliyamo/kasirku/internal/config"
)

// Init builds a zap logger from cfg, installs it as the global logger and
// returns it so main can Sync on exit.  When a log file is configured the
// output is teed: JSON into a lumberjack-rotated file, console to stdout.
func Init(cfg config.LogConfig) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.Filename != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}
		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(rotating),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			return nil, err
		}
	}

	zap.ReplaceGlobals(logger)
	return logger, nil
}
