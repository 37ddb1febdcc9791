package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger creates a new structured logger. When logFile is non-empty the
// logger also writes to a size-rotated file at that path.
func NewLogger(serviceName, logFile string) (*zap.Logger, error) {
	if logFile == "" {
		config := zap.NewProductionConfig()
		config.InitialFields = map[string]interface{}{
			"service": serviceName,
		}
		return config.Build()
	}

	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	fileSink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zap.InfoLevel),
		zapcore.NewCore(encoder, fileSink, zap.InfoLevel),
	)

	return zap.New(core).With(zap.String("service", serviceName)), nil
}

// WithRequestID returns a logger with request_id field
func WithRequestID(logger *zap.Logger, requestID string) *zap.Logger {
	return logger.With(zap.String("request_id", requestID))
}
