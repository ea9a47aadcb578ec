package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"hostpool/internal/backend"
	"hostpool/internal/directory"
	"hostpool/internal/model"
	"hostpool/internal/provision"
	"hostpool/internal/schedule"
	"hostpool/internal/store"
)

// Pool owns the record store and serializes every operation against it.
// There is no transaction mechanism below this layer: the mutex is what
// makes each load-mutate-persist cycle atomic with respect to the others.
type Pool struct {
	mu     sync.Mutex
	store  *model.Store
	inv    backend.Inventory
	driver provision.Driver
	dir    *directory.Client // nil when directory validation is disabled
	logger *zap.Logger
}

// New loads the store from the inventory backend, seeds missing histories
// and applied-assignment records, and persists the result best-effort.
func New(ctx context.Context, inv backend.Inventory, driver provision.Driver, dir *directory.Client, logger *zap.Logger) (*Pool, error) {
	st, err := inv.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}

	p := &Pool{store: st, inv: inv, driver: driver, dir: dir, logger: logger}

	now := time.Now()
	changed := store.SeedHistories(st, now)
	if store.SyncState(st, now) {
		changed = true
	}
	if changed {
		if err := inv.Persist(ctx, st); err != nil {
			logger.Warn("persist after init seeding failed", zap.Error(err))
		}
	}

	return p, nil
}

// persist writes the store through the backend. On failure the in-memory
// store is reloaded so a half-applied mutation never outlives the request
// that made it.
func (p *Pool) persist(ctx context.Context) error {
	if err := p.inv.Persist(ctx, p.store); err != nil {
		if st, lerr := p.inv.Load(ctx); lerr == nil {
			p.store = st
		} else {
			p.logger.Error("reload after failed persist also failed", zap.Error(lerr))
		}
		return fmt.Errorf("persist store: %w", err)
	}
	return nil
}

// queryTimes returns the pair (at, now) for one request, captured once so a
// whole report is internally consistent. A zero at means "now".
func queryTimes(at time.Time) (time.Time, time.Time) {
	now := time.Now()
	if at.IsZero() {
		at = now
	}
	return at, now
}

// Resolve answers which cloud owns host at instant at.
func (p *Pool) Resolve(host string, at time.Time) schedule.Resolution {
	at, now := queryTimes(at)
	p.mu.Lock()
	defer p.mu.Unlock()
	return schedule.Resolve(p.store, host, at, now)
}

// HostListing returns the resolution plus all defined overrides for host.
func (p *Pool) HostListing(host string, at time.Time) schedule.HostSchedule {
	at, now := queryTimes(at)
	p.mu.Lock()
	defer p.mu.Unlock()
	return schedule.HostListing(p.store, host, at, now)
}

// Summary groups hosts by effective cloud at instant at.
func (p *Pool) Summary(at time.Time, full bool) []schedule.CloudSummary {
	at, now := queryTimes(at)
	p.mu.Lock()
	defer p.mu.Unlock()
	return schedule.Summary(p.store, at, now, full)
}

// Grid resolves every host for each day of the month at midnight.
func (p *Pool) Grid(year int, month time.Month) map[string][]schedule.GridCell {
	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	return schedule.MonthGrid(p.store, year, month, now)
}

// Hosts lists all host names.
func (p *Pool) Hosts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.HostNames()
}

// HostsIn lists the hosts resolved to cloud at instant at.
func (p *Pool) HostsIn(cloud string, at time.Time) []string {
	at, now := queryTimes(at)
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0)
	for _, host := range p.store.HostNames() {
		if schedule.Resolve(p.store, host, at, now).CurrentCloud == cloud {
			out = append(out, host)
		}
	}
	return out
}

// CloudInfo is a cloud and its live metadata.
type CloudInfo struct {
	Name string
	Meta model.CloudMeta
}

// Clouds lists all clouds with their live metadata.
func (p *Pool) Clouds() []CloudInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]CloudInfo, 0, len(p.store.Clouds))
	for _, name := range p.store.CloudNames() {
		out = append(out, CloudInfo{Name: name, Meta: p.store.Clouds[name]})
	}
	return out
}

// Cloud returns one cloud's live metadata.
func (p *Pool) Cloud(name string) (model.CloudMeta, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	meta, ok := p.store.Clouds[name]
	return meta, ok
}

// UpdateHost defines a host or moves its default cloud.
func (p *Pool) UpdateHost(ctx context.Context, host, cloud string, force bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := store.UpdateHost(p.store, host, cloud, force, time.Now()); err != nil {
		return err
	}
	return p.persist(ctx)
}

// RemoveHost deletes a host with no active or future overrides.
func (p *Pool) RemoveHost(ctx context.Context, host string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := store.RemoveHost(p.store, host, time.Now()); err != nil {
		return err
	}
	return p.persist(ctx)
}

// UpdateCloud defines a cloud or updates its metadata. With directory
// validation enabled, the owner and cc users must exist in the directory.
func (p *Pool) UpdateCloud(ctx context.Context, cloud string, meta model.CloudMeta, force bool) error {
	if p.dir != nil {
		accounts := append([]string{meta.Owner}, meta.CCUsers...)
		if err := p.dir.VerifyAccounts(accounts...); err != nil {
			return &store.ValidationError{Reason: err.Error()}
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := store.UpdateCloud(p.store, cloud, meta, force, time.Now()); err != nil {
		return err
	}
	return p.persist(ctx)
}

// RemoveCloud deletes a cloud no host references.
func (p *Pool) RemoveCloud(ctx context.Context, cloud string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := store.RemoveCloud(p.store, cloud); err != nil {
		return err
	}
	return p.persist(ctx)
}

// AddSchedule inserts a new override and returns its id.
func (p *Pool) AddSchedule(ctx context.Context, host, cloud string, start, end time.Time) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, err := store.AddSchedule(p.store, host, cloud, start, end)
	if err != nil {
		return 0, err
	}
	return id, p.persist(ctx)
}

// RemoveSchedule deletes an override by id.
func (p *Pool) RemoveSchedule(ctx context.Context, host string, id int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := store.RemoveSchedule(p.store, host, id); err != nil {
		return err
	}
	return p.persist(ctx)
}

// ModifySchedule updates an override in place; nil fields keep their
// current values.
func (p *Pool) ModifySchedule(ctx context.Context, host string, id int, cloud *string, start, end *time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := store.ModifySchedule(p.store, host, id, cloud, start, end); err != nil {
		return err
	}
	return p.persist(ctx)
}

// PlanMoves computes the hosts whose applied assignment differs from their
// resolution at instant at, without touching anything.
func (p *Pool) PlanMoves(at time.Time) []provision.Move {
	at, now := queryTimes(at)
	p.mu.Lock()
	defer p.mu.Unlock()
	return provision.Plan(p.store, at, now)
}

// ApplyMoves plans and, unless dryRun is set, applies the pending moves
// through the provisioning driver. Applied state is persisted best-effort:
// a persist failure is reported and the moves stand, since the physical
// reconfiguration already happened.
func (p *Pool) ApplyMoves(ctx context.Context, at time.Time, dryRun bool) ([]provision.Move, error) {
	at, now := queryTimes(at)
	p.mu.Lock()
	defer p.mu.Unlock()

	moves := provision.Plan(p.store, at, now)
	if dryRun || len(moves) == 0 {
		return moves, nil
	}

	applied, err := provision.Apply(ctx, p.store, moves, p.driver, p.logger)
	if len(applied) > 0 {
		if perr := p.inv.Persist(ctx, p.store); perr != nil {
			p.logger.Warn("persist after applying moves failed", zap.Error(perr))
		}
	}
	if err != nil {
		return applied, fmt.Errorf("apply moves: %w", err)
	}
	return applied, nil
}
