package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
)

// Probe reports whether the broker and the required topic are reachable.
type Probe func(ctx context.Context) error

// TopicProbe dials the first broker and checks that the topic has at least
// one partition.
func TopicProbe(brokers []string, topic string) Probe {
	return func(ctx context.Context) error {
		conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
		if err != nil {
			return fmt.Errorf("dial broker: %w", err)
		}
		defer conn.Close()
		parts, err := conn.ReadPartitions(topic)
		if err != nil {
			return fmt.Errorf("read partitions: %w", err)
		}
		if len(parts) == 0 {
			return fmt.Errorf("topic %s has no partitions", topic)
		}
		return nil
	}
}

type MonitorConfig struct {
	Probe Probe
	// HealthyInterval is the probe period while healthy, UnhealthyInterval
	// while not. The schedule tightens on failure so recovery is noticed
	// fast.
	HealthyInterval   time.Duration
	UnhealthyInterval time.Duration
	ProbeTimeout      time.Duration
	// ShutdownGrace bounds how long Close waits for an in-flight probe.
	ShutdownGrace time.Duration
	// OnUp fires on every unhealthy->healthy transition, OnDown on the
	// reverse. The monitor is the only place that starts or stops
	// consumption.
	OnUp   func()
	OnDown func()
	Log    *slog.Logger
}

// Monitor probes channel health on an adaptive schedule and caches the
// result, so health endpoints never block on a live network probe.
type Monitor struct {
	cfg     MonitorConfig
	healthy atomic.Bool
	stop    chan struct{}
	done    chan struct{}
}

func NewMonitor(cfg MonitorConfig) *Monitor {
	if cfg.HealthyInterval <= 0 {
		cfg.HealthyInterval = 30 * time.Second
	}
	if cfg.UnhealthyInterval <= 0 {
		cfg.UnhealthyInterval = time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 3 * time.Second
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 5 * time.Second
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Monitor{
		cfg:  cfg,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Healthy returns the cached result of the last probe.
func (m *Monitor) Healthy() bool { return m.healthy.Load() }

func (m *Monitor) Start() { go m.loop() }

// Close stops scheduling new probes and waits for an in-flight probe up to
// the shutdown grace period.
func (m *Monitor) Close() {
	close(m.stop)
	select {
	case <-m.done:
	case <-time.After(m.cfg.ShutdownGrace):
		m.cfg.Log.Warn("connectivity monitor did not stop within grace period")
	}
}

func (m *Monitor) loop() {
	defer close(m.done)

	timer := time.NewTimer(0) // probe immediately on start
	defer timer.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-timer.C:
		}

		m.runProbe()

		if m.healthy.Load() {
			timer.Reset(m.cfg.HealthyInterval)
		} else {
			timer.Reset(m.cfg.UnhealthyInterval)
		}
	}
}

func (m *Monitor) runProbe() {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.ProbeTimeout)
	defer cancel()

	err := m.cfg.Probe(ctx)
	was := m.healthy.Load()
	now := err == nil
	m.healthy.Store(now)

	switch {
	case now && !was:
		m.cfg.Log.Info("channel healthy")
		if m.cfg.OnUp != nil {
			m.cfg.OnUp()
		}
	case !now && was:
		m.cfg.Log.Warn("channel unhealthy", "err", err)
		if m.cfg.OnDown != nil {
			m.cfg.OnDown()
		}
	case !now:
		m.cfg.Log.Debug("channel still unhealthy", "err", err)
	}
}
