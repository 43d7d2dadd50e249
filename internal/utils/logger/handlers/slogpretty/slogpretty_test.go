package slogpretty

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slog"
)

func TestPrettyHandler(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	opts := PrettyHandlerOptions{SlogOpts: &slog.HandlerOptions{Level: slog.LevelInfo}}
	log := slog.New(opts.NewPrettyHandler(&buf)).With("component", "reconciler")

	log.Debug("скрыто")
	assert.Empty(t, buf.String())

	log.Warn("Сверка завершена с ошибками", "errors", 2, "error", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "WARN:")
	assert.Contains(t, out, "Сверка завершена с ошибками")
	assert.Contains(t, out, `"component": "reconciler"`)
	assert.Contains(t, out, `"error": "boom"`)
	assert.Contains(t, out, `"errors": 2`)
	assert.True(t, log.Enabled(context.Background(), slog.LevelInfo))
}
