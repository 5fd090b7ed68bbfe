package trace

import (
	"context"
	"path"
	"strings"
	"testing"

	"github.com/saquib-ali-khan/distalgo/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

func TestRecorder(t *testing.T) {
	recorder := NewRecorder("run-a")
	recorder.RecordLabel("start", 0)
	recorder.RecordEvent(&pattern.Event{
		Kind:      pattern.KindReceived,
		Payload:   []interface{}{"request", 3},
		Timestamp: 3,
		Source:    "p2",
	}, 4)
	recorder.RecordLabel("cs", 4)

	run := recorder.Run()
	require.Equal(t, 3, len(run.Steps))
	assert.Equal(t, 3, recorder.Len())

	formatted := run.Format()
	assert.Contains(t, formatted, "label start clock=0")
	assert.Contains(t, formatted, `received ["request",3] ts=3 from=p2 clock=4`)
	assert.Equal(t, 3, strings.Count(formatted, "\n"))
}

func TestDiff(t *testing.T) {
	left := NewRecorder("run-a")
	right := NewRecorder("run-b")
	for _, recorder := range []*Recorder{left, right} {
		recorder.RecordLabel("start", 0)
		recorder.RecordLabel("request", 1)
	}

	same, err := Diff(left.Run(), right.Run())
	require.NoError(t, err)
	assert.Equal(t, "", same)

	right.RecordLabel("release", 5)
	changed, err := Diff(left.Run(), right.Run())
	require.NoError(t, err)
	assert.Contains(t, changed, "+label release clock=5")
}

func TestSaveLoad(t *testing.T) {
	recorder := NewRecorder("run-a")
	recorder.RecordLabel("start", 0)
	recorder.RecordEvent(&pattern.Event{Kind: pattern.KindSent, Payload: "ping", Timestamp: 1, Source: "p1"}, 1)

	ctx := context.Background()
	fs := afs.New()
	URL := path.Join(t.TempDir(), "run.json")
	require.NoError(t, Save(ctx, fs, URL, recorder.Run()))

	loaded, err := Load(ctx, fs, URL)
	require.NoError(t, err)
	assert.Equal(t, "run-a", loaded.Name)
	require.Equal(t, 2, len(loaded.Steps))
	assert.Equal(t, recorder.Run().Format(), loaded.Format())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(context.Background(), afs.New(), path.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
