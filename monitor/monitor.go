package monitor

import (
	"comfort-exporter/pmv"
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/syncromatics/go-kit/v2/log"
)

// Reading is the outcome of evaluating the monitored conditions once
type Reading struct {
	Time       time.Time
	Conditions pmv.Conditions
	// nil when Err is set
	Balance *pmv.HeatBalance
	Err     error
}

type ConditionsFunc func() (pmv.Conditions, error)

type Monitor struct {
	conditions ConditionsFunc
	interval   time.Duration
	readings   chan *Reading
	now        func() time.Time
}

func NewMonitor(
	conditions ConditionsFunc,
	interval time.Duration,
) *Monitor {
	readings := make(chan *Reading)
	return &Monitor{
		conditions: conditions,
		interval:   interval,
		readings:   readings,
		now:        time.Now,
	}
}

func (m *Monitor) Readings() <-chan *Reading {
	return m.readings
}

func (m *Monitor) Start(ctx context.Context) func() error {
	return func() error {
		defer close(m.readings)

		for {
			reading := m.evaluate()
			if reading.Err != nil {
				log.Warn("failed to evaluate comfort; will retry on next interval",
					"err", reading.Err,
					"interval", m.interval)
			}

			select {
			case m.readings <- reading:
			case <-ctx.Done():
				return nil
			}

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(m.interval):
			}
		}
	}
}

func (m *Monitor) evaluate() *Reading {
	reading := &Reading{
		Time: m.now(),
	}

	conditions, err := m.conditions()
	if err != nil {
		reading.Err = errors.Wrap(err, "failed to resolve conditions")
		return reading
	}
	reading.Conditions = conditions

	balance, err := pmv.Breakdown(conditions)
	if err != nil {
		reading.Err = errors.Wrap(err, "failed to evaluate conditions")
		return reading
	}
	reading.Balance = balance

	return reading
}
