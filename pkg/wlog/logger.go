// Package wlog defines the logging surface shared by the server packages.
package wlog

type Logger interface {
	Info(s string, keyValues ...any)
	Error(s string, keyValues ...any)
	Debug(s string, keyValues ...any)
	Warn(s string, keyValues ...any)
}

// With returns a logger that prepends keyValues to every call.
func With(l Logger, keyValues ...any) Logger {
	if len(keyValues) == 0 {
		return l
	}
	return &withLogger{parent: l, kv: keyValues}
}

type withLogger struct {
	parent Logger
	kv     []any
}

func (w *withLogger) merge(keyValues []any) []any {
	out := make([]any, 0, len(w.kv)+len(keyValues))
	out = append(out, w.kv...)
	return append(out, keyValues...)
}

func (w *withLogger) Info(s string, keyValues ...any)  { w.parent.Info(s, w.merge(keyValues)...) }
func (w *withLogger) Error(s string, keyValues ...any) { w.parent.Error(s, w.merge(keyValues)...) }
func (w *withLogger) Debug(s string, keyValues ...any) { w.parent.Debug(s, w.merge(keyValues)...) }
func (w *withLogger) Warn(s string, keyValues ...any)  { w.parent.Warn(s, w.merge(keyValues)...) }

type nop struct{}

func (nop) Info(string, ...any)  {}
func (nop) Error(string, ...any) {}
func (nop) Debug(string, ...any) {}
func (nop) Warn(string, ...any)  {}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return nop{}
}
