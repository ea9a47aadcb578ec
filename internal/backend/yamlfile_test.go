package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hostpool/internal/config"
	"hostpool/internal/model"
	"hostpool/internal/util"
)

func yamlBackend(t *testing.T) (Inventory, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedule.yaml")
	cfg := &config.Config{}
	cfg.Backend.Inventory = "yaml"
	cfg.Data.File = path
	inv, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	return inv, path
}

func TestYAMLLoadMissingFileGivesEmptyStore(t *testing.T) {
	inv, _ := yamlBackend(t)

	s, err := inv.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.Hosts)
	assert.Empty(t, s.Clouds)
}

func TestYAMLRoundTrip(t *testing.T) {
	inv, _ := yamlBackend(t)
	ctx := context.Background()

	start, err := util.ParseStamp("2024-03-01 00:00")
	require.NoError(t, err)
	end, err := util.ParseStamp("2024-03-05 00:00")
	require.NoError(t, err)

	s := model.NewStore()
	s.Clouds["cloud01"] = model.CloudMeta{
		Description: "general use",
		Owner:       "alice",
		CCUsers:     []string{"bob", "carol"},
		Ticket:      "123456",
		QinQ:        true,
	}
	s.Clouds["cloud02"] = model.CloudMeta{Owner: "nobody", Ticket: "000000"}
	s.Hosts["h1"] = &model.Host{
		Cloud: "cloud01",
		Schedule: map[int]model.Override{
			0: {Cloud: "cloud02", Start: start, End: end},
		},
	}
	s.History["h1"] = map[int64]string{0: "cloud01", 1700000000: "cloud02"}
	s.CloudHistory["cloud01"] = map[int64]model.CloudMeta{0: s.Clouds["cloud01"]}
	s.Assignments["h1"] = "cloud01"

	require.NoError(t, inv.Persist(ctx, s))

	loaded, err := inv.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, s.Clouds, loaded.Clouds)
	require.Contains(t, loaded.Hosts, "h1")
	assert.Equal(t, "cloud01", loaded.Hosts["h1"].Cloud)
	require.Contains(t, loaded.Hosts["h1"].Schedule, 0)
	o := loaded.Hosts["h1"].Schedule[0]
	assert.Equal(t, "cloud02", o.Cloud)
	assert.True(t, o.Start.Equal(start))
	assert.True(t, o.End.Equal(end))
	assert.Equal(t, s.History, loaded.History)
	assert.Equal(t, s.CloudHistory, loaded.CloudHistory)
	assert.Equal(t, s.Assignments, loaded.Assignments)
}

func TestYAMLLoadRejectsBadTimestamps(t *testing.T) {
	inv, path := yamlBackend(t)

	data := `hosts:
  h1:
    cloud: cloud01
    schedule:
      0:
        cloud: cloud02
        start: "not a time"
        end: "2024-03-05 00:00"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	_, err := inv.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "override 0")
}

func TestYAMLPersistReplacesAtomically(t *testing.T) {
	inv, path := yamlBackend(t)
	ctx := context.Background()

	s := model.NewStore()
	s.Clouds["cloud01"] = model.CloudMeta{Owner: "nobody", Ticket: "000000"}
	require.NoError(t, inv.Persist(ctx, s))
	require.NoError(t, inv.Persist(ctx, s))

	// No temp files left behind next to the data file.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
