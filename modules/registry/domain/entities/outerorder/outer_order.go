package outerorder

import (
	"context"
	"time"
)

const (
	StatusWaiting = "waiting"
	OriginUpload  = "upload"
)

// OuterOrder is an externally sourced package order. Orders are append-only.
type OuterOrder struct {
	ID          int64
	SenderCode  string
	Invitees    string
	PackageSize string
	Origin      string
	SenderPhone *string
	Status      string
	CreatedAt   time.Time
}

type Repository interface {
	Append(ctx context.Context, orders []OuterOrder) (int, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	DeleteAll(ctx context.Context) error
}
