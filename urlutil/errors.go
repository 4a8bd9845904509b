package urlutil

import "errors"

var (
	errBadScheme     = errors.New("urlutil: scheme must be http or https")
	errEmptyHost     = errors.New("urlutil: empty host")
	errEmptyRelative = errors.New("urlutil: empty relative URL")
)
