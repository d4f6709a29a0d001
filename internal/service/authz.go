package service

import (
	"context"

	customError "github.com/segyhp/collection-engine/pkg/errors"
)

// Capability names one guarded operation.
type Capability string

const (
	CapManageLoans    Capability = "manage_loans"
	CapViewLoans      Capability = "view_loans"
	CapRecordPayment  Capability = "record_payment"
	CapResetPayment   Capability = "reset_payment"
	CapManageWallets  Capability = "manage_wallets"
	CapViewWallets    Capability = "view_wallets"
	CapTransfer       Capability = "transfer_funds"
	CapManageRoutes   Capability = "manage_routes"
	CapViewRoutes     Capability = "view_routes"
	CapCloseRoutes    Capability = "close_routes"
	CapLiquidate      Capability = "liquidate"
	CapViewCollection Capability = "view_collections"
)

const (
	RoleAdmin     = "ADMIN"
	RoleSubadmin  = "SUBADMIN"
	RoleManager   = "MANAGER"
	RoleCollector = "COLLECTOR"
	// RoleSystem is used by the scheduler and CLI.
	RoleSystem = "SYSTEM"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role string
}

type actorKey struct{}

// WithActor attaches the caller to ctx.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the caller attached to ctx.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

// Authorizer decides whether the caller in ctx may use a capability.
type Authorizer interface {
	Authorize(ctx context.Context, capability Capability) error
}

// AllowAll grants every capability.
type AllowAll struct{}

func (AllowAll) Authorize(context.Context, Capability) error { return nil }

// RoleAuthorizer grants capabilities by the caller's role.
type RoleAuthorizer struct {
	grants map[string]map[Capability]bool
}

// NewRoleAuthorizer returns the default role matrix. Unknown roles and
// anonymous callers are denied.
func NewRoleAuthorizer() *RoleAuthorizer {
	all := []Capability{
		CapManageLoans, CapViewLoans, CapRecordPayment, CapResetPayment, CapManageWallets,
		CapViewWallets, CapTransfer, CapManageRoutes, CapViewRoutes, CapCloseRoutes,
		CapLiquidate, CapViewCollection,
	}

	a := &RoleAuthorizer{grants: map[string]map[Capability]bool{}}
	a.Grant(RoleAdmin, all...)
	a.Grant(RoleSystem, all...)
	a.Grant(RoleManager, all...)
	a.Grant(RoleSubadmin,
		CapManageLoans, CapViewLoans, CapResetPayment, CapViewWallets, CapTransfer,
		CapViewRoutes, CapCloseRoutes, CapLiquidate, CapViewCollection,
	)
	a.Grant(RoleCollector,
		CapViewLoans, CapRecordPayment, CapResetPayment, CapViewWallets, CapTransfer,
		CapManageRoutes, CapViewRoutes, CapCloseRoutes,
	)
	return a
}

// Grant adds capabilities to a role.
func (a *RoleAuthorizer) Grant(role string, capabilities ...Capability) {
	if a.grants[role] == nil {
		a.grants[role] = map[Capability]bool{}
	}
	for _, c := range capabilities {
		a.grants[role][c] = true
	}
}

func (a *RoleAuthorizer) Authorize(ctx context.Context, capability Capability) error {
	actor, ok := ActorFrom(ctx)
	if !ok || !a.grants[actor.Role][capability] {
		return customError.WrapForbidden(string(capability))
	}
	return nil
}
