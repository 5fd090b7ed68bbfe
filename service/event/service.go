package event

import (
	"fmt"
	"os"
	"path"
	"reflect"
	"sync"

	"github.com/saquib-ali-khan/distalgo/service/messaging"
	"github.com/saquib-ali-khan/distalgo/service/messaging/fs"
	"github.com/saquib-ali-khan/distalgo/service/messaging/memory"
	"github.com/viant/afs"
)

// Service owns one queue per event payload type plus an untyped firehose
// queue that mirrors every publish.
type Service struct {
	publisher        *Publisher[any]
	listener         *Listener[any]
	typedPublishers  map[reflect.Type]any
	typedListener    map[reflect.Type]any
	mux              *sync.RWMutex
	queueVendor      messaging.Vendor
	fileService      afs.Service
	fsNewQueueConfig func(name string) fs.Config
}

// SetListener replaces the firehose listener.
func (s *Service) SetListener(handler func(*Event[any])) {
	if s.listener != nil {
		s.listener.Stop()
	}
	s.listener = NewListener[any](s.publisher, handler)
	s.listener.Start()
}

// Shutdown stops every running listener.
func (s *Service) Shutdown() {
	if s.listener != nil {
		s.listener.Stop()
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	for _, listener := range s.typedListener {
		if stoppable, ok := listener.(interface{ Stop() }); ok {
			stoppable.Stop()
		}
	}
}

// New creates an event service over the supplied queue vendor.
func New(queueVendor messaging.Vendor, opts ...Option) (*Service, error) {
	if queueVendor == "" {
		queueVendor = messaging.VendorMemory
	}
	ret := &Service{
		queueVendor:     queueVendor,
		typedPublishers: make(map[reflect.Type]any),
		typedListener:   make(map[reflect.Type]any),
		mux:             &sync.RWMutex{},
	}
	for _, opt := range opts {
		opt(ret)
	}

	switch queueVendor {
	case messaging.VendorFS:
		if ret.fileService == nil {
			ret.fileService = afs.New()
		}
		if ret.fsNewQueueConfig == nil {
			ret.fsNewQueueConfig = func(name string) fs.Config {
				return fs.DefaultConfig(path.Join(os.TempDir(), "distalgo", "events", name))
			}
		}
	case messaging.VendorMemory:
	default:
		return nil, fmt.Errorf("unsupported queue vendor: %s", queueVendor)
	}

	queue, err := QueueOf[Event[any]](ret, "any")
	if err != nil {
		return nil, err
	}
	ret.publisher = NewPublisher[any](queue)
	return ret, nil
}

// QueueOf creates a vendor-specific queue for the named event stream.
func QueueOf[T any](s *Service, name string) (messaging.Queue[T], error) {
	switch s.queueVendor {
	case messaging.VendorFS:
		return fs.NewQueue[T](s.fileService, s.fsNewQueueConfig(name))
	case messaging.VendorMemory:
		return memory.NewQueue[T](), nil
	}
	return nil, fmt.Errorf("unsupported queue vendor: %s", s.queueVendor)
}

func keyOf[T any]() reflect.Type {
	var t T
	rType := reflect.TypeOf(t)
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	return rType
}

// SetListenerOf registers a handler for events of type T, replacing any
// previous one.
func SetListenerOf[T any](s *Service, handler func(*Event[T])) error {
	key := keyOf[T]()
	s.mux.RLock()
	ret, ok := s.typedListener[key]
	s.mux.RUnlock()
	if ok {
		ret.(*Listener[T]).Stop()
	}
	publisher, err := PublisherOf[T](s)
	if err != nil {
		return err
	}
	listener := NewListener[T](publisher, handler)
	s.mux.Lock()
	s.typedListener[key] = listener
	listener.Start()
	s.mux.Unlock()
	return nil
}

// PublisherOf returns a publisher for the provided type.
func PublisherOf[T any](s *Service) (*Publisher[T], error) {
	key := keyOf[T]()
	s.mux.RLock()
	ret, ok := s.typedPublishers[key]
	s.mux.RUnlock()
	if !ok {
		queue, err := QueueOf[Event[T]](s, key.String())
		if err != nil {
			return nil, err
		}
		publisher := NewPublisher[T](queue)
		publisher.anyQueue = s.publisher.queue
		s.mux.Lock()
		s.typedPublishers[key] = publisher
		s.mux.Unlock()
		return publisher, nil
	}
	return ret.(*Publisher[T]), nil
}
