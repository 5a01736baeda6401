package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koomia/api/internal/config"
)

type fakeSweeper struct {
	calls int
	err   error
}

func (f *fakeSweeper) SweepExpiredOTPs(context.Context) (int64, error) {
	f.calls++
	return 3, f.err
}

type fakeCanceller struct {
	ages []time.Duration
}

func (f *fakeCanceller) CancelStaleOrders(_ context.Context, age time.Duration) (int64, error) {
	f.ages = append(f.ages, age)
	return 1, nil
}

func testConfig() config.JobsConfig {
	return config.JobsConfig{
		OTPSweep:        "0 */10 * * * *",
		StaleOrderSweep: "0 0 */1 * * *",
		StaleOrderAge:   48 * time.Hour,
	}
}

func TestJobsCallThrough(t *testing.T) {
	otps, orders := &fakeSweeper{}, &fakeCanceller{}
	s := NewScheduler(testConfig(), otps, orders, zerolog.Nop())

	s.SweepOTPs()
	s.CancelStaleOrders()

	assert.Equal(t, 1, otps.calls)
	assert.Equal(t, []time.Duration{48 * time.Hour}, orders.ages)

	otps.err = errors.New("db down")
	s.SweepOTPs()
	assert.Equal(t, 2, otps.calls)
}

func TestStartRegistersBothJobs(t *testing.T) {
	s := NewScheduler(testConfig(), &fakeSweeper{}, &fakeCanceller{}, zerolog.Nop())
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Len(t, s.cron.Entries(), 2)
}

func TestStartRejectsBadSpec(t *testing.T) {
	cfg := testConfig()
	cfg.OTPSweep = "every ten minutes"
	s := NewScheduler(cfg, &fakeSweeper{}, &fakeCanceller{}, zerolog.Nop())
	assert.Error(t, s.Start())
}
