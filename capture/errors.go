package capture

import (
	"errors"
)

var (
	// ErrUnsupportedCapability is returned when a request needs a capability
	// the device does not declare, such as a linear tonemap.
	ErrUnsupportedCapability = errors.New("unsupported capability")

	// ErrInvalidFormatKind is returned for an unknown output format name.
	ErrInvalidFormatKind = errors.New("invalid format kind")

	// ErrNoOutputSize is returned when no declared stream configuration
	// matches the requested format and filters.
	ErrNoOutputSize = errors.New("no matching output size")

	// ErrNoProperties is returned when an operation needs device properties
	// but none were passed.
	ErrNoProperties = errors.New("no device properties")
)
