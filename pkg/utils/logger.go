package utils

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger 创建控制台格式的 zerolog 日志器。
func NewLogger(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parse log level %q: %w", level, err)
	}

	writer := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger(), nil
}
