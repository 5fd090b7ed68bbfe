package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

// Save persists a run as JSON at the supplied URL.
func Save(ctx context.Context, fs afs.Service, URL string, run *Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run %v: %w", run.Name, err)
	}
	return fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data))
}

// Load reads a previously saved run from the supplied URL.
func Load(ctx context.Context, fs afs.Service, URL string) (*Run, error) {
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load run from %v: %w", URL, err)
	}
	run := &Run{}
	if err = json.Unmarshal(data, run); err != nil {
		return nil, fmt.Errorf("failed to decode run from %v: %w", URL, err)
	}
	return run, nil
}
