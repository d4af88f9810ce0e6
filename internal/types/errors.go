package types

import (
	"errors"
	"fmt"
)

var (
	ErrDataNotFound    = errors.New("data not found")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrInvalidPeriod   = errors.New("invalid period")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

type ParseError struct {
	Path string
	Err  error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e ParseError) Unwrap() error {
	return e.Err
}

type CacheWriteError struct {
	Path string
	Err  error
}

func (e CacheWriteError) Error() string {
	return fmt.Sprintf("failed to write cache %s: %v", e.Path, e.Err)
}

func (e CacheWriteError) Unwrap() error {
	return e.Err
}
