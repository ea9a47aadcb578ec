package store

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

func TestAddScheduleAssignsMonotonicIDs(t *testing.T) {
	s := testStore()

	id, err := AddSchedule(s, "h1", "cloud02", stamp(t, "2024-03-01 00:00"), stamp(t, "2024-03-05 00:00"))
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	id, err = AddSchedule(s, "h1", "cloud02", stamp(t, "2024-04-01 00:00"), stamp(t, "2024-04-05 00:00"))
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	// Ids never go backwards, even after a removal.
	require.NoError(t, RemoveSchedule(s, "h1", 1))
	id, err = AddSchedule(s, "h1", "cloud02", stamp(t, "2024-05-01 00:00"), stamp(t, "2024-05-05 00:00"))
	require.NoError(t, err)
	assert.Equal(t, 1, id)
}

func TestAddScheduleValidation(t *testing.T) {
	s := testStore()

	_, err := AddSchedule(s, "h1", "cloud02", stamp(t, "2024-03-05 00:00"), stamp(t, "2024-03-01 00:00"))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)

	_, err = AddSchedule(s, "h1", "nosuch", stamp(t, "2024-03-01 00:00"), stamp(t, "2024-03-05 00:00"))
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "cloud", nfErr.Kind)

	_, err = AddSchedule(s, "nosuch", "cloud02", stamp(t, "2024-03-01 00:00"), stamp(t, "2024-03-05 00:00"))
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "host", nfErr.Kind)

	assert.Empty(t, s.Hosts["h1"].Schedule, "failed adds must not mutate the store")
}

func TestAddScheduleConflict(t *testing.T) {
	s := testStore()
	_, err := AddSchedule(s, "h1", "cloud02", stamp(t, "2024-03-01 00:00"), stamp(t, "2024-03-05 00:00"))
	require.NoError(t, err)

	_, err = AddSchedule(s, "h1", "cloud02", stamp(t, "2024-03-04 00:00"), stamp(t, "2024-03-06 00:00"))
	var cErr *ConflictError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, 0, cErr.Existing.ID)
	assert.Len(t, s.Hosts["h1"].Schedule, 1)
}

func TestRemoveScheduleUnknownID(t *testing.T) {
	s := testStore()
	var nfErr *NotFoundError
	require.ErrorAs(t, RemoveSchedule(s, "h1", 7), &nfErr)
	assert.Equal(t, "override", nfErr.Kind)
}

func TestModifySchedulePartialFields(t *testing.T) {
	s := testStore()
	_, err := AddSchedule(s, "h1", "cloud02", stamp(t, "2024-03-01 00:00"), stamp(t, "2024-03-05 00:00"))
	require.NoError(t, err)

	newStart := stamp(t, "2024-03-02 00:00")
	require.NoError(t, ModifySchedule(s, "h1", 0, nil, &newStart, nil))

	o := s.Hosts["h1"].Schedule[0]
	assert.Equal(t, newStart, o.Start)
	assert.Equal(t, stamp(t, "2024-03-05 00:00"), o.End)
	assert.Equal(t, "cloud02", o.Cloud)
}

func TestModifyScheduleToOwnValuesIsIdempotent(t *testing.T) {
	s := testStore()
	start, end := stamp(t, "2024-03-01 00:00"), stamp(t, "2024-03-05 00:00")
	_, err := AddSchedule(s, "h1", "cloud02", start, end)
	require.NoError(t, err)

	cloud := "cloud02"
	require.NoError(t, ModifySchedule(s, "h1", 0, &cloud, &start, &end))
	assert.Equal(t, model.Override{Cloud: "cloud02", Start: start, End: end}, s.Hosts["h1"].Schedule[0])
}

func TestModifyScheduleAtomic(t *testing.T) {
	s := testStore()
	start, end := stamp(t, "2024-03-01 00:00"), stamp(t, "2024-03-05 00:00")
	_, err := AddSchedule(s, "h1", "cloud02", start, end)
	require.NoError(t, err)

	// New end before the current start: rejected, nothing changes.
	badEnd := stamp(t, "2024-02-01 00:00")
	var vErr *ValidationError
	require.ErrorAs(t, ModifySchedule(s, "h1", 0, nil, nil, &badEnd), &vErr)
	assert.Equal(t, model.Override{Cloud: "cloud02", Start: start, End: end}, s.Hosts["h1"].Schedule[0])

	// Unknown cloud: rejected, nothing changes.
	bad := "nosuch"
	var nfErr *NotFoundError
	require.ErrorAs(t, ModifySchedule(s, "h1", 0, &bad, nil, nil), &nfErr)
	assert.Equal(t, "cloud02", s.Hosts["h1"].Schedule[0].Cloud)
}

func TestUpdateHostRecordsHistory(t *testing.T) {
	s := testStore()
	now := time.Now()

	// Fresh host: seeded at epoch zero with its resolved cloud.
	require.NoError(t, UpdateHost(s, "h2", "cloud01", false, now))
	assert.Equal(t, "cloud01", s.History["h2"][0])

	// Redefining requires force.
	var vErr *ValidationError
	require.ErrorAs(t, UpdateHost(s, "h2", "cloud02", false, now), &vErr)

	require.NoError(t, UpdateHost(s, "h2", "cloud02", true, now))
	assert.Equal(t, "cloud02", s.Hosts["h2"].Cloud)
	assert.Equal(t, "cloud02", s.History["h2"][now.Unix()])
}

func TestRemoveHostRefusedWithFutureOverride(t *testing.T) {
	s := testStore()
	now := stamp(t, "2024-06-01 00:00")
	_, err := AddSchedule(s, "h1", "cloud02", stamp(t, "2024-07-01 00:00"), stamp(t, "2024-07-05 00:00"))
	require.NoError(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, RemoveHost(s, "h1", now), &vErr)

	// A fully elapsed override does not block removal.
	require.NoError(t, RemoveSchedule(s, "h1", 0))
	_, err = AddSchedule(s, "h1", "cloud02", stamp(t, "2024-01-01 00:00"), stamp(t, "2024-01-05 00:00"))
	require.NoError(t, err)
	require.NoError(t, RemoveHost(s, "h1", now))
	assert.NotContains(t, s.Hosts, "h1")
	assert.NotContains(t, s.History, "h1")
}

func TestUpdateCloudDefaultsAndHistory(t *testing.T) {
	s := testStore()
	now := time.Now()

	require.NoError(t, UpdateCloud(s, "cloud03", model.CloudMeta{Description: "perf team"}, false, now))
	meta := s.Clouds["cloud03"]
	assert.Equal(t, model.DefaultOwner, meta.Owner)
	assert.Equal(t, model.DefaultTicket, meta.Ticket)
	assert.Equal(t, meta, s.CloudHistory["cloud03"][0])

	require.ErrorAs(t, UpdateCloud(s, "cloud03", model.CloudMeta{}, false, now), new(*ValidationError))

	updated := model.CloudMeta{Description: "perf team", Owner: "alice", Ticket: "123456"}
	require.NoError(t, UpdateCloud(s, "cloud03", updated, true, now))
	assert.Equal(t, "alice", s.Clouds["cloud03"].Owner)
	assert.Equal(t, updated, s.CloudHistory["cloud03"][now.Unix()])
}

func TestRemoveCloudRefusedWhileReferenced(t *testing.T) {
	s := testStore()
	var vErr *ValidationError

	// Default reference.
	require.ErrorAs(t, RemoveCloud(s, "cloud01"), &vErr)

	// Override reference.
	_, err := AddSchedule(s, "h1", "cloud02", stamp(t, "2024-03-01 00:00"), stamp(t, "2024-03-05 00:00"))
	require.NoError(t, err)
	require.ErrorAs(t, RemoveCloud(s, "cloud02"), &vErr)

	require.NoError(t, RemoveSchedule(s, "h1", 0))
	require.NoError(t, RemoveCloud(s, "cloud02"))
	assert.NotContains(t, s.Clouds, "cloud02")
}
