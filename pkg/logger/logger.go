package logger

import (
	"os"

	"studycollab_backend/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is a no-op logger until InitLogger runs, so packages and tests can log
// without any setup.
var Log = zap.NewNop()

const defaultLogFile = "logs/studycollab-assessment.log"

func InitLogger(cfg *config.Config) {
	Log = New(cfg, zapcore.AddSync(os.Stdout))
}

// New builds the tee of the rotating JSON file and the console writer. Every
// entry carries log.service.
func New(cfg *config.Config, console zapcore.WriteSyncer) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	lc := cfg.Log
	if lc.File == "" {
		lc.File = defaultLogFile
	}
	fileWriter := zapcore.AddSync(&lumberjack.Logger{
		Filename:   lc.File,
		MaxSize:    lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAge:     lc.MaxAgeDays,
		Compress:   lc.Compress,
	})

	level := levelFor(cfg)
	core := zapcore.NewTee(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			fileWriter,
			level,
		),
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			console,
			level,
		),
	)

	l := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	if lc.Service != "" {
		l = l.With(zap.String("service", lc.Service))
	}
	return l
}

// levelFor honours log.level when it parses, else debug mode logs Debug.
func levelFor(cfg *config.Config) zapcore.Level {
	if cfg.Log.Level != "" {
		if lvl, err := zapcore.ParseLevel(cfg.Log.Level); err == nil {
			return lvl
		}
	}
	if cfg.Server.Mode == "debug" {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}
