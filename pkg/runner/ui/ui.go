package ui

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"tableflip.dev/declist/pkg/metrics"
	"tableflip.dev/declist/pkg/store"
	teaui "tableflip.dev/declist/pkg/tui/app"
)

// UI runs the interactive journal.
type UI struct {
	Persistence store.Persistence
	Config      store.Config
	Logger      *zap.Logger
}

func (d *UI) Do(ctx context.Context) error {
	if d.Persistence == nil {
		return errors.New("can not start ui, no persistence")
	}
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	reg := prometheus.NewRegistry()
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		return err
	}

	opts := teaui.Options{
		Logger:  log,
		Metrics: m,
	}
	if d.Config != nil {
		opts.FlashDuration = d.Config.FlashDuration()
		opts.SingleFlight = d.Config.SingleFlight()
	}
	err := teaui.Run(ctx, d.Persistence, opts)
	Report(log, reg)
	return err
}

// Report logs the value of every counter gathered from reg.
func Report(log *zap.Logger, reg prometheus.Gatherer) {
	families, err := reg.Gather()
	if err != nil {
		log.Warn("cannot gather metrics", zap.Error(err))
		return
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			fields := []zap.Field{zap.Float64("value", metric.GetCounter().GetValue())}
			for _, lp := range metric.GetLabel() {
				fields = append(fields, zap.String(lp.GetName(), lp.GetValue()))
			}
			log.Info(mf.GetName(), fields...)
		}
	}
}
