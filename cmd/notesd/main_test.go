package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/notesd/internal/config"
	"github.com/fyrsmithlabs/notesd/internal/enrich"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "mcp", "version"})
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestVersionCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Version:    "+version)
	assert.Contains(t, out.String(), "Commit:")
}

func TestNewApp_MemoryBackend(t *testing.T) {
	cfg := config.Default()
	cfg.DB.Type = config.BackendMemory

	a, err := newApp(context.Background(), cfg, true)
	require.NoError(t, err)

	assert.Equal(t, "memory", a.registry.Notes().Name())
	assert.False(t, a.telemetry.IsEnabled())

	ctx := context.Background()
	n, err := a.registry.Notes().Create(ctx, "Renew passport before June")
	require.NoError(t, err)

	enriched, err := a.registry.EnrichNote(ctx, n.ID)
	require.NoError(t, err)
	require.NotNil(t, enriched.Summary)
	assert.Equal(t, "Renew passport before June", *enriched.Summary)

	svc, ok := a.registry.Enricher().(*enrich.Service)
	require.True(t, ok)
	assert.Equal(t, enrich.RuleBasedName, svc.Select().Name())

	require.NoError(t, a.Close())
}
