package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zetherion/assistant-core/pkg/config"
)

type fakeCostPurger struct {
	calledWithDays int
	purged         int64
	err            error
}

func (f *fakeCostPurger) PurgeOlderThan(_ context.Context, retentionDays int) (int64, error) {
	f.calledWithDays = retentionDays
	return f.purged, f.err
}

type fakeTaskPurger struct {
	calledWithAge time.Duration
	purged        int64
	err           error
}

func (f *fakeTaskPurger) PurgeTerminalOlderThan(_ context.Context, age time.Duration) (int64, error) {
	f.calledWithAge = age
	return f.purged, f.err
}

func TestServiceRunAllPurgesBothStores(t *testing.T) {
	costs := &fakeCostPurger{purged: 3}
	tasks := &fakeTaskPurger{purged: 5}
	cfg := &config.RetentionConfig{
		CostRecordRetentionDays: 90,
		TerminalTaskRetention:   7 * 24 * time.Hour,
		CleanupInterval:         time.Hour,
	}
	svc := NewService(cfg, costs, tasks, nil)

	svc.runAll(context.Background())

	assert.Equal(t, 90, costs.calledWithDays)
	assert.Equal(t, 7*24*time.Hour, tasks.calledWithAge)
}

func TestServiceRunAllToleratesPurgeErrors(t *testing.T) {
	costs := &fakeCostPurger{err: errors.New("db unavailable")}
	tasks := &fakeTaskPurger{purged: 2}
	svc := NewService(nil, costs, tasks, nil)

	require.NotPanics(t, func() { svc.runAll(context.Background()) })
	assert.Equal(t, int64(2), tasks.purged)
}

func TestServiceStartStopDrainsCleanly(t *testing.T) {
	cfg := &config.RetentionConfig{
		CostRecordRetentionDays: 1,
		TerminalTaskRetention:   time.Minute,
		CleanupInterval:         time.Hour,
	}
	svc := NewService(cfg, &fakeCostPurger{}, &fakeTaskPurger{}, nil)

	svc.Start(context.Background())
	svc.Stop()
}

func TestNewServiceDefaultsNilConfig(t *testing.T) {
	svc := NewService(nil, &fakeCostPurger{}, &fakeTaskPurger{}, nil)
	assert.Equal(t, config.DefaultRetentionConfig().CostRecordRetentionDays, svc.cfg.CostRecordRetentionDays)
}
