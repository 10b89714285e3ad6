// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import "log/slog"

// slogLogger adapts log/slog to the Logger interface, scoped to a
// component name the way base/logx builds component-scoped loggers.
type slogLogger struct {
	l *slog.Logger
}

// newComponentLogger returns a Logger tagged with component, built on
// the default slog handler.
func newComponentLogger(component string) Logger {
	return slogLogger{l: slog.Default().With("component", component)}
}

func (s slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

// nopLogger discards everything. Nothing in this package installs it;
// every component logs through newComponentLogger.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
