package ports

import (
	"context"

	"grunnlag/pkg/platform/audit"
)

// AuditPort defines the interface for emitting audit events.
// This matches the audit publisher but is defined here
// to maintain hexagonal boundaries.
type AuditPort interface {
	Emit(ctx context.Context, event audit.Event) error
}
