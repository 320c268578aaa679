package logging

import (
	"go.uber.org/zap"
)

// New returns a JSON production logger for production and a console logger otherwise.
func New(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Must is New for entry points, where a logger failure is fatal anyway.
func Must(environment string) *zap.Logger {
	logger, err := New(environment)
	if err != nil {
		panic(err)
	}
	return logger
}
