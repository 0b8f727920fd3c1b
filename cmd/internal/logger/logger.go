package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"os"
)

// BuildLogger sends every log message to stderr. Stdout is reserved for the JSON results the
// binaries print, so it can be piped into other tools.
// An unknown level name falls back to info.
func BuildLogger(level string) {
	minimum, err := zapcore.ParseLevel(level)
	if err != nil {
		minimum = zapcore.InfoLevel
	}

	enabled := zap.LevelEnablerFunc(func(level zapcore.Level) bool {
		return level >= minimum
	})

	stderrSyncer := zapcore.Lock(os.Stderr)

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}),
		stderrSyncer,
		enabled,
	)

	// replace the global logger
	zap.ReplaceGlobals(zap.New(core))
}
