package distalgo

import (
	"fmt"
	"time"

	"github.com/saquib-ali-khan/distalgo/service/fault"
)

// Transport vendor names accepted in configuration and scenarios.
const (
	VendorMemory = "memory"
	VendorFS     = "fs"
	VendorNATS   = "nats"
)

// Config is a serialisable representation of the runtime configuration. It
// can be populated from JSON, YAML, environment variables, etc. The
// zero-value is useful – all nested fields inherit their package defaults.

type Config struct {
	Transport TransportConfig `json:"transport" yaml:"transport"`
	Events    EventsConfig    `json:"events,omitempty" yaml:"events,omitempty"`

	// Faults holds the default fault rates (percent per class) seeded into
	// every spawned process.
	Faults map[string]int `json:"faults,omitempty" yaml:"faults,omitempty"`

	// SpawnTimeout bounds how long a spawn waits for the child handshake,
	// e.g. "5s". Empty waits forever.
	SpawnTimeout string `json:"spawnTimeout,omitempty" yaml:"spawnTimeout,omitempty"`

	// EventTimeout bounds each blocking checkpoint wait, e.g. "250ms". Empty
	// blocks until an event arrives.
	EventTimeout string `json:"eventTimeout,omitempty" yaml:"eventTimeout,omitempty"`
}

// TransportConfig selects and parameterises the channel vendor.
type TransportConfig struct {
	// Vendor is one of memory, fs or nats; empty means memory.
	Vendor string `json:"vendor" yaml:"vendor"`

	// BaseURL roots the fs vendor spool directories.
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`

	// URL locates the nats server.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// SubjectPrefix namespaces the nats subjects.
	SubjectPrefix string `json:"subjectPrefix,omitempty" yaml:"subjectPrefix,omitempty"`
}

// EventsConfig selects the event queue vendor. Events are published only
// when a vendor is configured.
type EventsConfig struct {
	// Vendor is memory or fs; empty disables event publication.
	Vendor string `json:"vendor,omitempty" yaml:"vendor,omitempty"`

	// BaseURL roots the fs event queues.
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
}

// DefaultConfig returns a Config populated with the default values previously
// hard-coded in the constructors. Callers may modify the returned struct
// before passing it to New via WithConfig.
func DefaultConfig() *Config {
	return &Config{
		Transport: TransportConfig{Vendor: VendorMemory},
	}
}

// Validate returns an error describing the first invalid setting or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	switch c.Transport.Vendor {
	case "", VendorMemory, VendorFS, VendorNATS:
	default:
		return fmt.Errorf("unknown transport vendor %q", c.Transport.Vendor)
	}
	switch c.Events.Vendor {
	case "", VendorMemory, VendorFS:
	default:
		return fmt.Errorf("unknown events vendor %q", c.Events.Vendor)
	}
	for class, rate := range c.Faults {
		switch fault.Class(class) {
		case fault.Send, fault.Receive, fault.Crash:
		default:
			return fmt.Errorf("unknown fault class %q", class)
		}
		if rate < 0 || rate > 100 {
			return fmt.Errorf("fault rate %d for %q outside 0..100", rate, class)
		}
	}
	if _, err := parseTimeout(c.SpawnTimeout); err != nil {
		return fmt.Errorf("invalid spawnTimeout: %w", err)
	}
	if _, err := parseTimeout(c.EventTimeout); err != nil {
		return fmt.Errorf("invalid eventTimeout: %w", err)
	}
	return nil
}

// FaultRates converts the configured fault table to injector classes.
func (c *Config) FaultRates() map[fault.Class]int {
	if len(c.Faults) == 0 {
		return nil
	}
	ret := make(map[fault.Class]int, len(c.Faults))
	for class, rate := range c.Faults {
		ret[fault.Class(class)] = rate
	}
	return ret
}

func parseTimeout(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	return time.ParseDuration(value)
}
