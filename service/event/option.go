package event

import (
	"github.com/saquib-ali-khan/distalgo/service/messaging/fs"
	"github.com/viant/afs"
)

// Option customizes the event service.
type Option func(s *Service)

// WithFsQueueConfig sets the per-queue file system configuration factory used
// by the fs vendor.
func WithFsQueueConfig(newConfig func(name string) fs.Config) Option {
	return func(s *Service) {
		s.fsNewQueueConfig = newConfig
	}
}

// WithFS sets the file service backing fs queues.
func WithFS(fileService afs.Service) Option {
	return func(s *Service) {
		s.fileService = fileService
	}
}
