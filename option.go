package distalgo

import (
	"time"

	"github.com/viant/afs/storage"
	"github.com/viant/x"

	"github.com/saquib-ali-khan/distalgo/service/correlation"
	"github.com/saquib-ali-khan/distalgo/service/event"
	"github.com/saquib-ali-khan/distalgo/service/scenario"
	"github.com/saquib-ali-khan/distalgo/service/transport"
	"github.com/saquib-ali-khan/distalgo/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customizes the runtime service.
type Option func(s *Service)

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithChannel injects a ready transport channel, bypassing the configured
// vendor. Useful for tests and for sharing one channel between runtimes.
func WithChannel(channel transport.Channel) Option {
	return func(s *Service) { s.channel = channel }
}

// WithBehaviorTypes registers behavior types during construction.
func WithBehaviorTypes(types ...*x.Type) Option {
	return func(s *Service) {
		s.behaviorTypes = append(s.behaviorTypes, types...)
	}
}

// WithEventService sets the event service transitions and progress updates
// are published to. Callers own attaching listeners; unconsumed queues grow.
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.eventService = service
	}
}

// WithProcInfoStore sets the process record store.
func WithProcInfoStore(store ProcInfoStore) Option {
	return func(s *Service) { s.procInfo = store }
}

// WithCorrelation sets the spawn tree registry.
func WithCorrelation(registry *correlation.Registry) Option {
	return func(s *Service) { s.correlation = registry }
}

// WithScenarioService sets the scenario loader.
func WithScenarioService(service *scenario.Service) Option {
	return func(s *Service) {
		s.scenarioService = service
	}
}

// WithScenarioBaseURL sets the base location relative scenario URLs resolve
// against.
func WithScenarioBaseURL(url string) Option {
	return func(s *Service) {
		s.scenarioBaseURL = url
	}
}

// WithScenarioFsOptions sets scenario loader file system options.
func WithScenarioFsOptions(options ...storage.Option) Option {
	return func(s *Service) {
		s.scenarioFsOptions = options
	}
}

// WithSpawnTimeout bounds how long a spawn waits for the child handshake,
// overriding the configured value. Zero waits forever.
func WithSpawnTimeout(timeout time.Duration) Option {
	return func(s *Service) { s.spawnTimeout = timeout }
}

// WithEventTimeout bounds blocking checkpoints that carry no explicit
// timeout, overriding the configured value. Zero blocks until an event
// arrives.
func WithEventTimeout(timeout time.Duration) Option {
	return func(s *Service) { s.eventTimeout = timeout }
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times – the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. This enables
// integrations with exporters other than the built-in stdout exporter, for example OTLP, Jaeger or
// Zipkin. The function is safe to call multiple times – the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
