package distalgo

import (
	"log"
	"path"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/x"

	"github.com/saquib-ali-khan/distalgo/extension"
	"github.com/saquib-ali-khan/distalgo/runtime/process"
	"github.com/saquib-ali-khan/distalgo/service/correlation"
	procmemory "github.com/saquib-ali-khan/distalgo/service/dao/procinfo/memory"
	"github.com/saquib-ali-khan/distalgo/service/event"
	"github.com/saquib-ali-khan/distalgo/service/messaging"
	fsqueue "github.com/saquib-ali-khan/distalgo/service/messaging/fs"
	"github.com/saquib-ali-khan/distalgo/service/scenario"
	"github.com/saquib-ali-khan/distalgo/service/transport"
)

// Service assembles the runtime: the configuration, the behavior registry and
// the shared collaborators every spawned process uses.
type Service struct {
	config            *Config
	runtime           *Runtime
	behaviors         *extension.Behaviors
	behaviorTypes     []*x.Type
	channel           transport.Channel
	eventService      *event.Service
	procInfo          ProcInfoStore
	correlation       *correlation.Registry
	scenarioService   *scenario.Service
	scenarioBaseURL   string
	scenarioFsOptions []storage.Option
	spawnTimeout      time.Duration
	eventTimeout      time.Duration
}

func (s *Service) init(options []Option) {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()
	for _, dataType := range s.behaviorTypes {
		if err := s.behaviors.RegisterType(dataType); err != nil {
			log.Printf("[distalgo] failed to register behavior type: %v", err)
		}
	}
	s.runtime = &Runtime{
		config:       s.config,
		behaviors:    s.behaviors,
		correlation:  s.correlation,
		procInfo:     s.procInfo,
		events:       s.eventService,
		scenarios:    s.scenarioService,
		channel:      s.channel,
		spawnTimeout: s.spawnTimeout,
		eventTimeout: s.eventTimeout,
		processes:    map[string]*process.Process{},
	}
}

func (s *Service) ensureBaseSetup() {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.behaviors == nil {
		s.behaviors = extension.NewBehaviors(nil)
	}
	if s.scenarioService == nil {
		s.scenarioService = scenario.New(afs.New(), s.scenarioBaseURL, s.scenarioFsOptions...)
	}
	if s.procInfo == nil {
		s.procInfo = procmemory.New()
	}
	if s.correlation == nil {
		s.correlation = correlation.New()
	}
	if s.eventService == nil && s.config.Events.Vendor != "" {
		events, err := newEventService(s.config)
		if err != nil {
			log.Printf("[distalgo] failed to initialise event service: %v", err)
		} else {
			s.eventService = events
		}
	}
	if s.spawnTimeout == 0 {
		s.spawnTimeout, _ = parseTimeout(s.config.SpawnTimeout)
	}
	if s.eventTimeout == 0 {
		s.eventTimeout, _ = parseTimeout(s.config.EventTimeout)
	}
}

// newEventService builds the event service the configuration selects.
func newEventService(config *Config) (*event.Service, error) {
	var options []event.Option
	if config.Events.BaseURL != "" {
		base := config.Events.BaseURL
		options = append(options, event.WithFsQueueConfig(func(name string) fsqueue.Config {
			return fsqueue.DefaultConfig(path.Join(base, name))
		}))
	}
	return event.New(messaging.Vendor(config.Events.Vendor), options...)
}

// RegisterBehavior registers a named behavior factory.
func (s *Service) RegisterBehavior(name string, factory extension.Factory) error {
	return s.behaviors.Register(name, factory)
}

// RegisterBehaviorTypes registers struct behavior types; fresh instances are
// created reflectively at spawn.
func (s *Service) RegisterBehaviorTypes(types ...*x.Type) error {
	for i := range types {
		if err := s.behaviors.RegisterType(types[i]); err != nil {
			return err
		}
	}
	return nil
}

// Behaviors returns the behavior registry.
func (s *Service) Behaviors() *extension.Behaviors {
	return s.behaviors
}

// EventService returns the event service, nil when events are disabled.
func (s *Service) EventService() *event.Service {
	return s.eventService
}

func (s *Service) Runtime() *Runtime {
	return s.runtime
}

func New(options ...Option) *Service {
	ret := &Service{}
	ret.init(options)
	return ret
}
