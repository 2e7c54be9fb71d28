package cron

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type fakeLock struct {
	held     bool
	acquires int
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.acquires++
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.releases++
	f.held = false
	return nil
}

type fakeLocks map[string]*fakeLock

func (f fakeLocks) factory(job string) (Lock, error) {
	lock, ok := f[job]
	if !ok {
		lock = &fakeLock{}
		f[job] = lock
	}
	return lock, nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	locks := fakeLocks{}
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Registry: NewRegistry(failure, success),
		Locks:    locks.factory,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	err = service.RunOnce(context.Background())
	if err == nil || !strings.Contains(err.Error(), "fail: boom") {
		t.Fatalf("expected aggregated failure, got %v", err)
	}
	if success.runs != 1 || failure.runs != 1 {
		t.Fatalf("expected both jobs to run once, got success=%d fail=%d", success.runs, failure.runs)
	}
	for name, lock := range locks {
		if lock.acquires != 1 || lock.releases != 1 || lock.held {
			t.Fatalf("lock %s not acquired and released once: %+v", name, lock)
		}
	}
}

func TestRunOnceSkipsLockedJobs(t *testing.T) {
	job := &testJob{name: "payment-reconcile"}
	locks := fakeLocks{"payment-reconcile": &fakeLock{held: true}}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(job),
		Locks:    locks.factory,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("locked job should be skipped, ran %d", job.runs)
	}
	if locks["payment-reconcile"].releases != 0 {
		t.Fatal("a lock that was not acquired must not be released")
	}
}

func TestRunOnceRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ticks := []time.Time{start, start.Add(2 * time.Second), start.Add(3 * time.Second), start.Add(4 * time.Second)}
	clock := func() time.Time {
		next := ticks[0]
		ticks = ticks[1:]
		return next
	}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(&testJob{name: "ok"}, &testJob{name: "bad", err: errors.New("x")}),
		Locks:    fakeLocks{}.factory,
		Metrics:  metrics.NewCronJobMetrics(reg),
		Clock:    clock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	_ = service.RunOnce(context.Background())

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := map[string]bool{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				found[mf.GetName()+"/"+label.GetValue()] = true
				if mf.GetName() == "job_last_success_timestamp_seconds" && label.GetValue() == "ok" {
					if got := m.GetGauge().GetValue(); got != float64(start.Add(2*time.Second).Unix()) {
						t.Fatalf("unexpected last success %f", got)
					}
				}
			}
		}
	}
	for _, key := range []string{"job_success/ok", "job_failure/bad", "job_duration_seconds/ok", "job_last_success_timestamp_seconds/ok"} {
		if !found[key] {
			t.Fatalf("expected metric %s", key)
		}
	}
	if found["job_last_success_timestamp_seconds/bad"] {
		t.Fatal("failed job must not stamp last success")
	}
}

func TestNewServiceRequiresLocks(t *testing.T) {
	if _, err := NewService(ServiceParams{Logger: logger.Nop()}); err == nil {
		t.Fatal("expected error without lock factory")
	}
}
