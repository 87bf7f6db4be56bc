package workspace

import "errors"

var ErrInvalidWorkspace = errors.New("invalid workspace")
