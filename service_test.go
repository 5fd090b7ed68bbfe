package distalgo_test

import (
	"context"
	"embed"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/viant/afs/embed"

	"github.com/saquib-ali-khan/distalgo"
	"github.com/saquib-ali-khan/distalgo/model"
)

//go:embed testdata/*
var embedFS embed.FS

func TestService(t *testing.T) {
	srv := distalgo.New(
		distalgo.WithScenarioFsOptions(&embedFS),
		distalgo.WithScenarioBaseURL("embed:///testdata"),
	)

	runtime := srv.Runtime()
	ctx := context.Background()
	scenario, err := runtime.LoadScenario(ctx, "chorus")
	require.NoError(t, err)
	require.NotNil(t, scenario)

	assert.Equal(t, "chorus", scenario.Name)
	assert.Equal(t, 3, scenario.Total())
	require.Equal(t, 1, len(scenario.Groups))
	assert.Equal(t, "chorus", scenario.Groups[0].Type)
	assert.Equal(t, model.PeersOthers, scenario.Groups[0].Peers)
}
