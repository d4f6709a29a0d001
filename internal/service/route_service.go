package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/segyhp/collection-engine/internal/cache"
	"github.com/segyhp/collection-engine/internal/config"
	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/internal/logger"
	"github.com/segyhp/collection-engine/internal/repository"
	customError "github.com/segyhp/collection-engine/pkg/errors"
)

const autoCloseNote = "closed automatically after the route day ended"

type RouteService struct {
	store    repository.Store
	cache    cache.RouteCache
	authz    Authorizer
	settings settings
	log      zerolog.Logger
}

func NewRouteService(store repository.Store, routeCache cache.RouteCache, authz Authorizer, cfg *config.Config) *RouteService {
	if routeCache == nil {
		routeCache = cache.NoopRouteCache{}
	}
	return &RouteService{
		store:    store,
		cache:    routeCache,
		authz:    authz,
		settings: settingsFrom(cfg),
		log:      logger.WithComponent("route_service"),
	}
}

// GetOrCreateRoute returns the collector's route for the day, creating an
// empty OPEN route the first time.
func (s *RouteService) GetOrCreateRoute(ctx context.Context, collectorID string, date domain.Date, now time.Time) (*domain.CollectionRoute, error) {
	if err := s.authz.Authorize(ctx, CapManageRoutes); err != nil {
		return nil, err
	}
	if collectorID == "" || date.IsZero() {
		return nil, customError.WrapInvalidRequest("collector and route date are required")
	}

	var route *domain.CollectionRoute
	err := s.store.WithTx(ctx, func(repos *repository.Repositories) error {
		var err error
		if route, err = openRouteFor(ctx, repos, collectorID, date, now); err != nil {
			return err
		}
		return loadRouteDetails(ctx, repos, route)
	})
	if err != nil {
		return nil, storeError(err, "route", collectorID+"/"+date.String())
	}
	return route, nil
}

// GetRoute returns a route with its items, expenses and totals. Closed
// routes are served from the cache when possible.
func (s *RouteService) GetRoute(ctx context.Context, routeID string) (*domain.CollectionRoute, error) {
	if err := s.authz.Authorize(ctx, CapViewRoutes); err != nil {
		return nil, err
	}

	if cached, err := s.cache.Get(ctx, routeID); err != nil {
		s.log.Warn().Err(err).Str("route_id", routeID).Msg("route cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	repos := s.store.Repositories()
	route, err := getRoute(ctx, repos, routeID)
	if err != nil {
		return nil, err
	}
	if err := loadRouteDetails(ctx, repos, route); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if !route.IsOpen() {
		s.cacheRoute(ctx, route)
	}
	return route, nil
}

// ListRoutes returns a collector's routes within [from, to], newest first.
func (s *RouteService) ListRoutes(ctx context.Context, collectorID string, from, to domain.Date) ([]*domain.CollectionRoute, error) {
	if err := s.authz.Authorize(ctx, CapViewRoutes); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, customError.WrapInvalidRequest("date range end is before its start")
	}

	repos := s.store.Repositories()
	routes, err := repos.Routes.ListByCollector(ctx, collectorID, from, to)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	for _, route := range routes {
		if err := loadRouteDetails(ctx, repos, route); err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
	}
	return routes, nil
}

func (s *RouteService) AddExpense(ctx context.Context, routeID string, req *domain.ExpenseRequest, now time.Time) (*domain.RouteExpense, error) {
	if err := s.authz.Authorize(ctx, CapManageRoutes); err != nil {
		return nil, err
	}
	if err := validateExpense(req); err != nil {
		return nil, err
	}

	expense := &domain.RouteExpense{
		ID:          uuid.NewString(),
		RouteID:     routeID,
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.WithTx(ctx, func(repos *repository.Repositories) error {
		if _, err := getRoute(ctx, repos, routeID); err != nil {
			return err
		}
		if err := touchRoute(ctx, repos, routeID, now); err != nil {
			return err
		}
		return repos.Routes.CreateExpense(ctx, expense)
	})
	if err != nil {
		return nil, storeError(err, "route", routeID)
	}
	return expense, nil
}

func (s *RouteService) UpdateExpense(ctx context.Context, routeID, expenseID string, req *domain.ExpenseRequest, now time.Time) (*domain.RouteExpense, error) {
	if err := s.authz.Authorize(ctx, CapManageRoutes); err != nil {
		return nil, err
	}
	if err := validateExpense(req); err != nil {
		return nil, err
	}

	var expense *domain.RouteExpense
	err := s.store.WithTx(ctx, func(repos *repository.Repositories) error {
		var err error
		if expense, err = routeExpense(ctx, repos, routeID, expenseID); err != nil {
			return err
		}
		if err := touchRoute(ctx, repos, routeID, now); err != nil {
			return err
		}

		expense.Category = req.Category
		expense.Amount = req.Amount
		expense.Description = req.Description
		expense.UpdatedAt = now
		return repos.Routes.UpdateExpense(ctx, expense)
	})
	if err != nil {
		return nil, storeError(err, "route", routeID)
	}
	return expense, nil
}

func (s *RouteService) DeleteExpense(ctx context.Context, routeID, expenseID string, now time.Time) error {
	if err := s.authz.Authorize(ctx, CapManageRoutes); err != nil {
		return err
	}

	err := s.store.WithTx(ctx, func(repos *repository.Repositories) error {
		if _, err := routeExpense(ctx, repos, routeID, expenseID); err != nil {
			return err
		}
		if err := touchRoute(ctx, repos, routeID, now); err != nil {
			return err
		}
		return repos.Routes.DeleteExpense(ctx, expenseID)
	})
	return storeError(err, "route", routeID)
}

// CloseRoute freezes the route's totals. A route closes exactly once;
// afterwards every mutation fails with RouteClosed.
func (s *RouteService) CloseRoute(ctx context.Context, routeID, notes string, now time.Time) (*domain.CollectionRoute, error) {
	if err := s.authz.Authorize(ctx, CapCloseRoutes); err != nil {
		return nil, err
	}

	var route *domain.CollectionRoute
	err := s.store.WithTx(ctx, func(repos *repository.Repositories) error {
		var err error
		if route, err = getRoute(ctx, repos, routeID); err != nil {
			return err
		}
		if !route.IsOpen() {
			return customError.WrapRouteClosed(routeID)
		}
		if err := loadRouteDetails(ctx, repos, route); err != nil {
			return err
		}

		closedAt := now
		route.ClosedAt = &closedAt
		route.Notes = notes
		route.UpdatedAt = now
		if err := repos.Routes.Close(ctx, route); err != nil {
			if errors.Is(err, repository.ErrRouteNotOpen) {
				return customError.WrapRouteClosed(routeID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "route", routeID)
	}

	s.log.Info().
		Str("route_id", route.ID).
		Str("collector_id", route.CollectorID).
		Str("route_date", route.RouteDate.String()).
		Str("net_amount", route.NetAmount.String()).
		Msg("route closed")

	s.cacheRoute(ctx, route)
	return route, nil
}

// ReorderItems sets the visiting order. installmentIDs must be a
// permutation of the installments currently on the route.
func (s *RouteService) ReorderItems(ctx context.Context, routeID string, installmentIDs []string, now time.Time) (*domain.CollectionRoute, error) {
	if err := s.authz.Authorize(ctx, CapManageRoutes); err != nil {
		return nil, err
	}

	var route *domain.CollectionRoute
	err := s.store.WithTx(ctx, func(repos *repository.Repositories) error {
		var err error
		if route, err = getRoute(ctx, repos, routeID); err != nil {
			return err
		}
		if err := touchRoute(ctx, repos, routeID, now); err != nil {
			return err
		}

		items, err := repos.Routes.GetItems(ctx, routeID)
		if err != nil {
			return err
		}
		byInstallment := make(map[string]*domain.RouteItem, len(items))
		for _, item := range items {
			byInstallment[item.InstallmentID] = item
		}
		if len(installmentIDs) != len(items) {
			return customError.WrapInvalidRequest("order must list every installment on the route exactly once")
		}

		seen := make(map[string]bool, len(installmentIDs))
		for i, installmentID := range installmentIDs {
			item, ok := byInstallment[installmentID]
			if !ok || seen[installmentID] {
				return customError.WrapInvalidRequest("order must list every installment on the route exactly once")
			}
			seen[installmentID] = true
			if err := repos.Routes.UpdateItemPosition(ctx, item.ID, i+1); err != nil {
				return err
			}
		}

		return loadRouteDetails(ctx, repos, route)
	})
	if err != nil {
		return nil, storeError(err, "route", routeID)
	}
	return route, nil
}

// CloseStaleRoutes closes every OPEN route dated before today and returns
// how many were closed.
func (s *RouteService) CloseStaleRoutes(ctx context.Context, now time.Time) (int, error) {
	if err := s.authz.Authorize(ctx, CapCloseRoutes); err != nil {
		return 0, err
	}

	stale, err := s.store.Repositories().Routes.ListOpenBefore(ctx, s.settings.today(now))
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	closed := 0
	for _, route := range stale {
		_, err := s.CloseRoute(ctx, route.ID, autoCloseNote, now)
		if errors.Is(err, customError.ErrRouteClosed) {
			continue
		}
		if err != nil {
			return closed, err
		}
		closed++
	}
	return closed, nil
}

func (s *RouteService) cacheRoute(ctx context.Context, route *domain.CollectionRoute) {
	if err := s.cache.Set(ctx, route); err != nil {
		s.log.Warn().Err(customError.WrapCacheError(err)).Str("route_id", route.ID).Msg("route cache write failed")
	}
}

func validateExpense(req *domain.ExpenseRequest) error {
	if !req.Category.Valid() {
		return customError.WrapInvalidRequest("unknown expense category " + string(req.Category))
	}
	if !req.Amount.IsPositive() {
		return customError.WrapInvalidRequest("expense amount must be positive")
	}
	return nil
}

func getRoute(ctx context.Context, repos *repository.Repositories, routeID string) (*domain.CollectionRoute, error) {
	route, err := repos.Routes.GetByID(ctx, routeID)
	if isNotFound(err) {
		return nil, customError.WrapRouteNotFound(routeID)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return route, nil
}

func routeExpense(ctx context.Context, repos *repository.Repositories, routeID, expenseID string) (*domain.RouteExpense, error) {
	if _, err := getRoute(ctx, repos, routeID); err != nil {
		return nil, err
	}
	expense, err := repos.Routes.GetExpense(ctx, expenseID)
	if isNotFound(err) || (err == nil && expense.RouteID != routeID) {
		return nil, customError.WrapExpenseNotFound(expenseID)
	}
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// loadRouteDetails attaches items and expenses and recomputes open totals.
func loadRouteDetails(ctx context.Context, repos *repository.Repositories, route *domain.CollectionRoute) error {
	items, err := repos.Routes.GetItems(ctx, route.ID)
	if err != nil {
		return err
	}
	expenses, err := repos.Routes.GetExpenses(ctx, route.ID)
	if err != nil {
		return err
	}
	route.Items = items
	route.Expenses = expenses
	route.Recompute()
	return nil
}

// openRouteFor returns the collector's route for date, creating it OPEN
// when missing. The route may be closed; callers touch it before mutating.
func openRouteFor(ctx context.Context, repos *repository.Repositories, collectorID string, date domain.Date, now time.Time) (*domain.CollectionRoute, error) {
	route, err := repos.Routes.GetByCollectorAndDate(ctx, collectorID, date)
	if err == nil {
		return route, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	route = &domain.CollectionRoute{
		ID:             uuid.NewString(),
		CollectorID:    collectorID,
		RouteDate:      date,
		Status:         domain.RouteStatusOpen,
		TotalCollected: decimal.Zero,
		TotalExpenses:  decimal.Zero,
		NetAmount:      decimal.Zero,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := repos.Routes.Create(ctx, route); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, repository.ErrVersionConflict
		}
		return nil, err
	}
	return route, nil
}

// touchRoute is the close barrier: it fails with RouteClosed unless the
// route is still OPEN at write time.
func touchRoute(ctx context.Context, repos *repository.Repositories, routeID string, now time.Time) error {
	err := repos.Routes.Touch(ctx, routeID, now)
	if errors.Is(err, repository.ErrRouteNotOpen) {
		return customError.WrapRouteClosed(routeID)
	}
	return err
}

func addToRouteItem(ctx context.Context, repos *repository.Repositories, routeID, installmentID string, amount decimal.Decimal) error {
	item, err := repos.Routes.GetItem(ctx, routeID, installmentID)
	if err == nil {
		return repos.Routes.UpdateItemAmount(ctx, item.ID, item.AmountCollected.Add(amount))
	}
	if !isNotFound(err) {
		return err
	}
	return repos.Routes.CreateItem(ctx, &domain.RouteItem{
		ID:              uuid.NewString(),
		RouteID:         routeID,
		InstallmentID:   installmentID,
		AmountCollected: amount,
	})
}

func subtractFromRouteItem(ctx context.Context, repos *repository.Repositories, routeID, installmentID string, amount decimal.Decimal) error {
	item, err := repos.Routes.GetItem(ctx, routeID, installmentID)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	remaining := item.AmountCollected.Sub(amount)
	if !remaining.IsPositive() {
		return repos.Routes.DeleteItem(ctx, item.ID)
	}
	return repos.Routes.UpdateItemAmount(ctx, item.ID, remaining)
}
