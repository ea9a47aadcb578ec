package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostpool/internal/model"
	"hostpool/internal/util"
)

func stamp(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := util.ParseStamp(s)
	require.NoError(t, err)
	return ts
}

func testStore() *model.Store {
	s := model.NewStore()
	s.Clouds["cloud01"] = model.CloudMeta{Owner: "nobody", Ticket: "000000"}
	s.Clouds["cloud02"] = model.CloudMeta{Owner: "nobody", Ticket: "000000"}
	s.Hosts["h1"] = &model.Host{Cloud: "cloud01", Schedule: make(map[int]model.Override)}
	return s
}

func TestResolveDefaultOnly(t *testing.T) {
	s := testStore()
	now := stamp(t, "2024-06-01 12:00")

	for _, at := range []string{"2020-01-01 00:00", "2024-06-01 12:00", "2030-12-31 23:59"} {
		res := Resolve(s, "h1", stamp(t, at), now)
		assert.True(t, res.Known)
		assert.Equal(t, "cloud01", res.DefaultCloud)
		assert.Equal(t, "cloud01", res.CurrentCloud, "at %s", at)
		assert.False(t, res.HasOverride)
	}
}

func TestResolveUnknownHost(t *testing.T) {
	s := testStore()
	now := time.Now()

	res := Resolve(s, "nosuch", now, now)
	assert.Equal(t, Resolution{}, res)
}

func TestResolveOverrideBoundaries(t *testing.T) {
	s := testStore()
	s.Hosts["h1"].Schedule[0] = model.Override{
		Cloud: "cloud02",
		Start: stamp(t, "2024-03-01 00:00"),
		End:   stamp(t, "2024-03-05 00:00"),
	}
	now := stamp(t, "2024-06-01 00:00")

	tests := []struct {
		at       string
		cloud    string
		override bool
	}{
		{"2024-03-01 00:00", "cloud02", true}, // start inclusive
		{"2024-03-03 12:00", "cloud02", true},
		{"2024-03-04 23:59", "cloud02", true},
		{"2024-03-05 00:00", "cloud01", false}, // end exclusive
		{"2024-02-29 23:59", "cloud01", false},
	}
	for _, tt := range tests {
		t.Run(tt.at, func(t *testing.T) {
			res := Resolve(s, "h1", stamp(t, tt.at), now)
			assert.Equal(t, "cloud01", res.DefaultCloud)
			assert.Equal(t, tt.cloud, res.CurrentCloud)
			assert.Equal(t, tt.override, res.HasOverride)
			if tt.override {
				assert.Equal(t, 0, res.OverrideID)
			}
		})
	}
}

func TestResolveHistoryForPastQueries(t *testing.T) {
	s := testStore()
	s.Clouds["cloud04"] = model.CloudMeta{Owner: "nobody", Ticket: "000000"}

	// Default moved from cloud01 to cloud04 at changeTS.
	changeTS := int64(1700000000)
	s.Hosts["h1"].Cloud = "cloud04"
	s.History["h1"] = map[int64]string{0: "cloud01", changeTS: "cloud04"}

	now := time.Unix(changeTS+100, 0)

	before := Resolve(s, "h1", time.Unix(changeTS-1, 0), now)
	assert.Equal(t, "cloud01", before.CurrentCloud)

	after := Resolve(s, "h1", time.Unix(changeTS+1, 0), now)
	assert.Equal(t, "cloud04", after.CurrentCloud)
}

func TestResolveHistoryIgnoredAtOrAfterNow(t *testing.T) {
	s := testStore()
	// History disagrees with the live default; it must only matter for the
	// past.
	s.History["h1"] = map[int64]string{0: "cloud02"}
	now := stamp(t, "2024-06-01 12:00")

	atNow := Resolve(s, "h1", now, now)
	assert.Equal(t, "cloud01", atNow.CurrentCloud)

	future := Resolve(s, "h1", stamp(t, "2024-07-01 00:00"), now)
	assert.Equal(t, "cloud01", future.CurrentCloud)

	past := Resolve(s, "h1", stamp(t, "2024-01-01 00:00"), now)
	assert.Equal(t, "cloud02", past.CurrentCloud)
}
