package pkg

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger возвращает JSON-логгер сервиса. Уровень задаётся переменной
// окружения LOG_LEVEL (debug, info, warn, error), по умолчанию info.
func NewLogger(w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel()})
	return slog.New(handler)
}

func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
