package starlark

import "errors"

var (
	ErrContentNil         = errors.New("starlark content is nil")
	ErrInvalidEnvironment = errors.New("environment was not created by the starlark engine")
	ErrLoadCycle          = errors.New("starlark load cycle")
	ErrModuleNotFound     = errors.New("starlark module not found in module paths")
	ErrInvalidModuleName  = errors.New("invalid starlark module name")
)
