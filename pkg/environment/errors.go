package environment

import (
	"fmt"
)

// Define specific error types for environment configuration issues.

// ErrConfigExtension indicates the config file path has an invalid extension.
type ErrConfigExtension struct {
	Path string
}

func (e *ErrConfigExtension) Error() string {
	return fmt.Sprintf("environment config path must end with .yaml or .yml: %s", e.Path)
}

// WrapConfigExtension creates a new ErrConfigExtension error.
func WrapConfigExtension(path string) error {
	return &ErrConfigExtension{Path: path}
}

// ErrConfigFileNotExist indicates the config file does not exist.
type ErrConfigFileNotExist struct {
	Path string
	Err  error
}

func (e *ErrConfigFileNotExist) Error() string {
	return fmt.Sprintf("environment config file does not exist: %s", e.Path)
}

func (e *ErrConfigFileNotExist) Unwrap() error {
	return e.Err
}

// WrapConfigFileNotExist creates a new ErrConfigFileNotExist error.
func WrapConfigFileNotExist(path string, err error) error {
	return &ErrConfigFileNotExist{Path: path, Err: err}
}

// ErrConfigFileRead indicates an error occurred while reading or writing the
// config file.
type ErrConfigFileRead struct {
	Path string
	Err  error
}

func (e *ErrConfigFileRead) Error() string {
	return fmt.Sprintf("failed to access environment config file '%s': %v", e.Path, e.Err)
}

func (e *ErrConfigFileRead) Unwrap() error {
	return e.Err
}

// WrapConfigFileRead creates a new ErrConfigFileRead error.
func WrapConfigFileRead(path string, err error) error {
	return &ErrConfigFileRead{Path: path, Err: err}
}

// ErrConfigParse indicates the config file content could not be parsed.
type ErrConfigParse struct {
	Path string
	Err  error
}

func (e *ErrConfigParse) Error() string {
	return fmt.Sprintf("failed to parse environment config file '%s': %v", e.Path, e.Err)
}

func (e *ErrConfigParse) Unwrap() error {
	return e.Err
}

// WrapConfigParse creates a new ErrConfigParse error.
func WrapConfigParse(path string, err error) error {
	return &ErrConfigParse{Path: path, Err: err}
}

// ErrChainInvalid indicates the chain fails validation.
type ErrChainInvalid struct {
	Reason string
}

func (e *ErrChainInvalid) Error() string {
	return fmt.Sprintf("invalid environment chain: %s", e.Reason)
}

// WrapChainInvalid creates a new ErrChainInvalid error.
func WrapChainInvalid(reason string) error {
	return &ErrChainInvalid{Reason: reason}
}
