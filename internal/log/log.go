// Package log configures the logr.Logger used across the controller.
package log

import (
	"github.com/go-logr/logr"
	"go.uber.org/zap/zapcore"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// New builds the process-wide logger. devMode enables human-readable
// console output instead of JSON, for interactive invocation.
func New(devMode bool) logr.Logger {
	opts := []zap.Opts{
		zap.UseDevMode(devMode),
		func(o *zap.Options) {
			o.TimeEncoder = zapcore.RFC3339TimeEncoder
		},
	}
	if !devMode {
		opts = append(opts, zap.JSONEncoder())
	}
	return zap.New(opts...)
}
