// Package backend defines the persistence collaborator a dashboard session talks to.
//
// The engine never decides how dashboards are stored. It hands DashboardDefinitions
// to a Backend and receives persisted Dashboards with permanent identities back.
// Implementations live in sub-packages: memory for tests and local runs, redisbackend
// for a shared store.
package backend

import (
	"context"

	"github.com/dshills/dashflow/internal/model"
)

// Backend is the persistence collaborator.
type Backend interface {
	// Authenticate establishes or re-validates the session. With force set the
	// backend must re-authenticate even if it holds a valid session.
	Authenticate(ctx context.Context, force bool) error

	// GetDashboard loads a persisted dashboard.
	GetDashboard(ctx context.Context, ref model.Ref) (*model.Dashboard, error)

	// CreateDashboard persists a new dashboard. Every widget without an identity, or
	// with a temporary one, receives a permanent identity.
	CreateDashboard(ctx context.Context, def model.DashboardDefinition) (*model.Dashboard, error)

	// UpdateDashboard replaces a persisted dashboard in place.
	UpdateDashboard(ctx context.Context, ref model.Ref, def model.DashboardDefinition) (*model.Dashboard, error)

	// DeleteDashboard removes a persisted dashboard.
	DeleteDashboard(ctx context.Context, ref model.Ref) error

	// GetInsight loads an insight definition.
	GetInsight(ctx context.Context, ref model.Ref) (*model.Insight, error)
}
