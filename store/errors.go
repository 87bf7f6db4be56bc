package store

import "errors"

var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrEmptyName         = errors.New("workspace name is empty")
)
