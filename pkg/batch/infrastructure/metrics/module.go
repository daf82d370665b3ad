package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/fx"

	config "github.com/tigerroll/sheetload/pkg/batch/core/config"
	metrics "github.com/tigerroll/sheetload/pkg/batch/core/metrics"
	logger "github.com/tigerroll/sheetload/pkg/batch/support/util/logger"
)

// ProviderParams defines the dependencies of the recorder and tracer providers.
type ProviderParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Config    *config.MetricsConfig
}

// NewMetricRecorderProvider selects the MetricRecorder configured under sheetload.metrics.
// A disabled configuration yields a NoOpMetricRecorder.
func NewMetricRecorderProvider(p ProviderParams) (metrics.MetricRecorder, error) {
	cfg := p.Config
	if !cfg.Enabled {
		logger.Debugf("Metrics are disabled. Using NoOpMetricRecorder.")
		return metrics.NewNoOpMetricRecorder(), nil
	}

	switch cfg.Backend {
	case "otel":
		mp, err := NewSDKMeterProvider(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		otel.SetMeterProvider(mp)
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				logger.Debugf("Shutting down OTel meter provider.")
				return mp.Shutdown(ctx)
			},
		})
		return NewOpenTelemetryRecorder(mp.Meter(TracerName))
	case "", "prometheus":
		recorder := NewPrometheusRecorder()
		if cfg.ListenAddress != "" {
			serveMetrics(p.Lifecycle, cfg.ListenAddress, recorder.Handler())
		}
		return recorder, nil
	default:
		logger.Warnf("Unknown metrics backend '%s'. Using NoOpMetricRecorder.", cfg.Backend)
		return metrics.NewNoOpMetricRecorder(), nil
	}
}

func serveMetrics(lc fx.Lifecycle, addr string, handler http.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Errorf("Metrics server stopped: %v", err)
				}
			}()
			logger.Infof("Serving Prometheus metrics on %s/metrics.", addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// NewTracerProvider returns an OpenTelemetryTracer when tracing is enabled, a NoOpTracer otherwise.
func NewTracerProvider(p ProviderParams) (metrics.Tracer, error) {
	cfg := p.Config
	if !cfg.Tracing.Enabled {
		return metrics.NewNoOpTracer(), nil
	}

	tp, err := NewSDKTracerProvider(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Debugf("Shutting down OTel tracer provider.")
			return tp.Shutdown(ctx)
		},
	})
	return NewOpenTelemetryTracer(tp), nil
}

// Module provides the configured MetricRecorder and Tracer.
var Module = fx.Options(
	fx.Provide(NewMetricRecorderProvider),
	fx.Provide(NewTracerProvider),
)
