// Package zerolog adapts a zerolog.Logger to cachers.Logger.
package zerolog

import (
	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/cachers"
)

var _ cachers.Logger = Logger{}

type Logger struct{ L zerolog.Logger }

// New tags every line with component=cachers.
func New(l zerolog.Logger) Logger {
	return Logger{L: l.With().Str("component", "cachers").Logger()}
}

func (z Logger) Debug(msg string, f cachers.Fields) { z.L.Debug().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Info(msg string, f cachers.Fields)  { z.L.Info().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Warn(msg string, f cachers.Fields)  { z.L.Warn().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Error(msg string, f cachers.Fields) { z.L.Error().Fields(map[string]any(f)).Msg(msg) }
