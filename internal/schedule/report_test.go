package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostpool/internal/model"
)

func TestSummaryGroupsHostsByEffectiveCloud(t *testing.T) {
	s := testStore()
	s.Hosts["h2"] = &model.Host{Cloud: "cloud01", Schedule: make(map[int]model.Override)}
	s.Hosts["h2"].Schedule[0] = model.Override{
		Cloud: "cloud02",
		Start: stamp(t, "2024-03-01 00:00"),
		End:   stamp(t, "2024-03-05 00:00"),
	}
	now := stamp(t, "2024-06-01 00:00")

	rows := Summary(s, stamp(t, "2024-03-03 00:00"), now, false)
	require.Len(t, rows, 2)
	assert.Equal(t, "cloud01", rows[0].Cloud)
	assert.Equal(t, []string{"h1"}, rows[0].Hosts)
	assert.Equal(t, "cloud02", rows[1].Cloud)
	assert.Equal(t, []string{"h2"}, rows[1].Hosts)

	// Outside the override both hosts sit on cloud01 and cloud02 drops out.
	rows = Summary(s, stamp(t, "2024-03-06 00:00"), now, false)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"h1", "h2"}, rows[0].Hosts)
}

func TestSummaryFullIncludesEmptyClouds(t *testing.T) {
	s := testStore()
	now := stamp(t, "2024-06-01 00:00")

	rows := Summary(s, now, now, true)
	require.Len(t, rows, 2)
	assert.Equal(t, "cloud02", rows[1].Cloud)
	assert.Empty(t, rows[1].Hosts)
}

func TestSummaryDescriptionFollowsHistory(t *testing.T) {
	s := testStore()
	meta := s.Clouds["cloud01"]
	meta.Description = "new owner team"
	s.Clouds["cloud01"] = meta
	s.CloudHistory["cloud01"] = map[int64]model.CloudMeta{
		0: {Description: "original team", Owner: "nobody", Ticket: "000000"},
	}
	now := stamp(t, "2024-06-01 00:00")

	past := Summary(s, stamp(t, "2024-01-01 00:00"), now, false)
	require.Len(t, past, 1)
	assert.Equal(t, "original team", past[0].Description)

	current := Summary(s, now, now, false)
	require.Len(t, current, 1)
	assert.Equal(t, "new owner team", current[0].Description)
}

func TestHostListingIncludesAllOverrides(t *testing.T) {
	s := testStore()
	h := s.Hosts["h1"]
	h.Schedule[0] = model.Override{
		Cloud: "cloud02",
		Start: stamp(t, "2024-03-01 00:00"),
		End:   stamp(t, "2024-03-05 00:00"),
	}
	h.Schedule[1] = model.Override{
		Cloud: "cloud02",
		Start: stamp(t, "2024-04-01 00:00"),
		End:   stamp(t, "2024-04-05 00:00"),
	}
	now := stamp(t, "2024-06-01 00:00")

	listing := HostListing(s, "h1", stamp(t, "2024-03-02 00:00"), now)
	assert.True(t, listing.HasOverride)
	assert.Equal(t, 0, listing.OverrideID)
	require.Len(t, listing.Overrides, 2)
	assert.Equal(t, 0, listing.Overrides[0].ID)
	assert.Equal(t, 1, listing.Overrides[1].ID)
}

func TestHostListingUnknownHost(t *testing.T) {
	s := testStore()
	now := time.Now()

	listing := HostListing(s, "nosuch", now, now)
	assert.False(t, listing.Known)
	assert.Empty(t, listing.Overrides)
}
