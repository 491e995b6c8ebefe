package ports

import (
	"context"

	"ephysval/domain/observation"
)

// ObservationReader loads experimental observations.
type ObservationReader interface {
	ReadObservation(ctx context.Context, path string) (*observation.Raw, error)
}
