package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"koomia/api/internal/config"
)

type OTPSweeper interface {
	SweepExpiredOTPs(ctx context.Context) (int64, error)
}

type OrderCanceller interface {
	CancelStaleOrders(ctx context.Context, age time.Duration) (int64, error)
}

// Scheduler runs housekeeping on cron specs with a seconds field.
type Scheduler struct {
	cron   *cron.Cron
	cfg    config.JobsConfig
	otps   OTPSweeper
	orders OrderCanceller
	log    zerolog.Logger
}

func NewScheduler(cfg config.JobsConfig, otps OTPSweeper, orders OrderCanceller, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	return &Scheduler{
		cron:   c,
		cfg:    cfg,
		otps:   otps,
		orders: orders,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.OTPSweep, s.SweepOTPs); err != nil {
		return fmt.Errorf("schedule otp sweep %q: %w", s.cfg.OTPSweep, err)
	}
	if _, err := s.cron.AddFunc(s.cfg.StaleOrderSweep, s.CancelStaleOrders); err != nil {
		return fmt.Errorf("schedule stale order sweep %q: %w", s.cfg.StaleOrderSweep, err)
	}

	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) SweepOTPs() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cleared, err := s.otps.SweepExpiredOTPs(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("job", "otp_sweep").Msg("job failed")
		return
	}
	s.log.Debug().Str("job", "otp_sweep").Int64("cleared", cleared).Msg("job done")
}

func (s *Scheduler) CancelStaleOrders() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cancelled, err := s.orders.CancelStaleOrders(ctx, s.cfg.StaleOrderAge)
	if err != nil {
		s.log.Error().Err(err).Str("job", "stale_orders").Msg("job failed")
		return
	}
	if cancelled > 0 {
		s.log.Info().Str("job", "stale_orders").Int64("cancelled", cancelled).Msg("stale orders cancelled")
	}
}
