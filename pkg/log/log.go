// Package log provides the logging interface used across plannersync.
//
// Services accept any implementation of [Logger] and default to [Noop] when
// none is configured.
package log

import "context"

// Kv is a helper type for structured logging key-value pairs.
type Kv = map[string]any

// Logger is the interface that loggers must implement.
type Logger interface {
	Infof(format string, args ...any)
	Warningf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
	WithValues(values Kv) Logger
	WithCtxValues(ctx context.Context) Logger
	SetValuesOnCtx(parent context.Context, values Kv) context.Context
}

type contextKey string

// contextLogValuesKey used as unique key to store log values in the context.
const contextLogValuesKey = contextKey("internal-log")

// CtxWithValues returns a copy of parent in which the key values passed have been
// stored ready to be used using log.Logger.
func CtxWithValues(parent context.Context, kv Kv) context.Context {
	// Merge current values with new values.
	values := ValuesFromCtx(parent)
	for k, v := range kv {
		values[k] = v
	}

	return context.WithValue(parent, contextLogValuesKey, values)
}

// ValuesFromCtx gets the log Key values from a context.
func ValuesFromCtx(ctx context.Context) Kv {
	values := Kv{}
	v, ok := ctx.Value(contextLogValuesKey).(Kv)
	if !ok {
		return values
	}

	// Copy so callers never mutate the stored map.
	for k, val := range v {
		values[k] = val
	}

	return values
}

// Noop logger doesn't log anything.
const Noop = noop(0)

type noop int

func (n noop) Infof(format string, args ...any)                            {}
func (n noop) Warningf(format string, args ...any)                         {}
func (n noop) Errorf(format string, args ...any)                           {}
func (n noop) Debugf(format string, args ...any)                           {}
func (n noop) WithValues(_ Kv) Logger                                      { return n }
func (n noop) WithCtxValues(_ context.Context) Logger                      { return n }
func (n noop) SetValuesOnCtx(parent context.Context, _ Kv) context.Context { return parent }
