package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// l discards everything until Init is called.
var l = zap.NewNop()

// Init builds the process-wide JSON logger.
func Init(service, level string) error {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return err
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "@timestamp"
	encCfg.MessageKey = "message"
	encCfg.LevelKey = "level"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)

	core := zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), lvl)
	base := zap.New(core).With(
		zap.String("service", service),
	)

	l = base
	zap.ReplaceGlobals(l)
	return nil
}

// L returns the process logger.
func L() *zap.Logger {
	return l
}

// Set replaces the process logger; tests use it with zap.NewNop().
func Set(logger *zap.Logger) {
	l = logger
}

func WithTeam(teamID int64) *zap.Logger {
	return L().With(zap.Int64("team_id", teamID))
}

func WithRequest(method, path string) *zap.Logger {
	return L().With(
		zap.String("method", method),
		zap.String("path", path),
	)
}

// Sync flushes buffered entries.
func Sync() {
	_ = l.Sync()
}
