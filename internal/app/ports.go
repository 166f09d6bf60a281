package app

import (
	"context"
	"time"
)

type StatusUseCase interface {
	GetStatus(ctx context.Context, req StatusRequest) (*StatusResponse, error)
}

type ProjectHealthUseCase interface {
	ProjectHealth(ctx context.Context, projectID string, today *time.Time) (*ProjectHealth, error)
}
