// Package zap adapts a *zap.Logger to cachers.Logger.
package zap

import (
	"go.uber.org/zap"

	"github.com/unkn0wn-root/cachers"
)

var _ cachers.Logger = Logger{}

type Logger struct{ L *zap.Logger }

// New names the logger "cachers" so its lines are easy to filter.
func New(l *zap.Logger) Logger { return Logger{L: l.Named("cachers")} }

func (z Logger) Debug(msg string, f cachers.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f cachers.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f cachers.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f cachers.Fields) { z.L.Error(msg, fields(f)...) }

func fields(f cachers.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}
