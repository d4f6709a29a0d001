package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/segyhp/collection-engine/internal/domain"
	"github.com/segyhp/collection-engine/internal/logger"
	"github.com/segyhp/collection-engine/internal/service"
)

const jobTimeout = 5 * time.Minute

type routeCloser interface {
	CloseStaleRoutes(ctx context.Context, now time.Time) (int, error)
}

type delinquencyLister interface {
	ListDelinquentLoans(ctx context.Context, now time.Time) ([]*domain.DelinquentResponse, error)
}

type jobs struct {
	routes routeCloser
	loans  delinquencyLister
	now    func() time.Time
	log    zerolog.Logger
}

func newJobs(routes routeCloser, loans delinquencyLister) *jobs {
	return &jobs{
		routes: routes,
		loans:  loans,
		now:    time.Now,
		log:    logger.WithComponent("scheduler"),
	}
}

func (j *jobs) context() (context.Context, context.CancelFunc) {
	ctx := service.WithActor(context.Background(), service.Actor{ID: "scheduler", Role: service.RoleSystem})
	return context.WithTimeout(ctx, jobTimeout)
}

// closeStaleRoutes closes every route left OPEN after its day ended.
func (j *jobs) closeStaleRoutes() {
	ctx, cancel := j.context()
	defer cancel()

	closed, err := j.routes.CloseStaleRoutes(ctx, j.now())
	if err != nil {
		j.log.Error().Err(err).Int("closed", closed).Msg("stale route close failed")
		return
	}
	j.log.Info().Int("closed", closed).Msg("stale routes closed")
}

// sweepDelinquency reports loans that crossed the delinquency threshold.
func (j *jobs) sweepDelinquency() {
	ctx, cancel := j.context()
	defer cancel()

	delinquent, err := j.loans.ListDelinquentLoans(ctx, j.now())
	if err != nil {
		j.log.Error().Err(err).Msg("delinquency sweep failed")
		return
	}
	for _, d := range delinquent {
		j.log.Warn().
			Str("loan_id", d.LoanID).
			Int("missed_count", d.MissedCount).
			Msg("loan is delinquent")
	}
	j.log.Info().Int("delinquent", len(delinquent)).Msg("delinquency sweep finished")
}
