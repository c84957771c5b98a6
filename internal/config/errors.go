package config

import (
	"github.com/cockroachdb/errors"
)

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

func invalidf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidConfig)
}

func wrapInvalid(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrInvalidConfig)
}

func wrapLoad(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrLoadConfig)
}
