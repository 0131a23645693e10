// Package testutil provides shared test helpers for the catalog packages.
package testutil

import "go.uber.org/zap"

// Logger returns a development Zap logger for use in tests.
// Panics on construction failure (should never happen in tests).
func Logger() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		panic("testutil.Logger: " + err.Error())
	}
	return l
}

// NopLogger returns a logger that discards everything, for tests that
// exercise logging paths heavily.
func NopLogger() *zap.Logger {
	return zap.NewNop()
}
