package backend

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"go.uber.org/zap"

	"hostpool/internal/config"
	"hostpool/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type postgresBackend struct {
	conn   *sql.DB
	logger *zap.Logger
}

func newPostgres(cfg *config.Config, logger *zap.Logger) (Inventory, error) {
	conn, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &postgresBackend{conn: conn, logger: logger}, nil
}

func runMigrations(conn *sql.DB) error {
	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("an error occurred while syncing the database: %w", err)
	}
	return nil
}

func (b *postgresBackend) Load(ctx context.Context) (*model.Store, error) {
	s := model.NewStore()

	rows, err := b.conn.QueryContext(ctx,
		"SELECT name, description, owner, ccusers_json, ticket, qinq FROM clouds")
	if err != nil {
		return nil, fmt.Errorf("load clouds: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, ccJSON string
		var meta model.CloudMeta
		if err := rows.Scan(&name, &meta.Description, &meta.Owner, &ccJSON, &meta.Ticket, &meta.QinQ); err != nil {
			return nil, fmt.Errorf("load clouds: %w", err)
		}
		_ = json.Unmarshal([]byte(ccJSON), &meta.CCUsers)
		s.Clouds[name] = meta
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load clouds: %w", err)
	}

	hostRows, err := b.conn.QueryContext(ctx, "SELECT name, cloud FROM hosts")
	if err != nil {
		return nil, fmt.Errorf("load hosts: %w", err)
	}
	defer hostRows.Close()
	for hostRows.Next() {
		var name, cloud string
		if err := hostRows.Scan(&name, &cloud); err != nil {
			return nil, fmt.Errorf("load hosts: %w", err)
		}
		s.Hosts[name] = &model.Host{Cloud: cloud, Schedule: make(map[int]model.Override)}
	}
	if err := hostRows.Err(); err != nil {
		return nil, fmt.Errorf("load hosts: %w", err)
	}

	schedRows, err := b.conn.QueryContext(ctx,
		"SELECT host, id, cloud, start_at, end_at FROM schedules")
	if err != nil {
		return nil, fmt.Errorf("load schedules: %w", err)
	}
	defer schedRows.Close()
	for schedRows.Next() {
		var host, cloud string
		var id int
		var start, end time.Time
		if err := schedRows.Scan(&host, &id, &cloud, &start, &end); err != nil {
			return nil, fmt.Errorf("load schedules: %w", err)
		}
		h, ok := s.Hosts[host]
		if !ok {
			return nil, fmt.Errorf("load schedules: override %d references unknown host %q", id, host)
		}
		h.Schedule[id] = model.Override{Cloud: cloud, Start: start.Local(), End: end.Local()}
	}
	if err := schedRows.Err(); err != nil {
		return nil, fmt.Errorf("load schedules: %w", err)
	}

	histRows, err := b.conn.QueryContext(ctx,
		"SELECT host, ts, cloud FROM assignment_history")
	if err != nil {
		return nil, fmt.Errorf("load assignment history: %w", err)
	}
	defer histRows.Close()
	for histRows.Next() {
		var host, cloud string
		var ts int64
		if err := histRows.Scan(&host, &ts, &cloud); err != nil {
			return nil, fmt.Errorf("load assignment history: %w", err)
		}
		if s.History[host] == nil {
			s.History[host] = make(map[int64]string)
		}
		s.History[host][ts] = cloud
	}
	if err := histRows.Err(); err != nil {
		return nil, fmt.Errorf("load assignment history: %w", err)
	}

	cloudHistRows, err := b.conn.QueryContext(ctx,
		"SELECT cloud, ts, meta_json FROM cloud_history")
	if err != nil {
		return nil, fmt.Errorf("load cloud history: %w", err)
	}
	defer cloudHistRows.Close()
	for cloudHistRows.Next() {
		var cloud, metaJSON string
		var ts int64
		if err := cloudHistRows.Scan(&cloud, &ts, &metaJSON); err != nil {
			return nil, fmt.Errorf("load cloud history: %w", err)
		}
		var meta model.CloudMeta
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return nil, fmt.Errorf("load cloud history for %s at %d: %w", cloud, ts, err)
		}
		if s.CloudHistory[cloud] == nil {
			s.CloudHistory[cloud] = make(map[int64]model.CloudMeta)
		}
		s.CloudHistory[cloud][ts] = meta
	}
	if err := cloudHistRows.Err(); err != nil {
		return nil, fmt.Errorf("load cloud history: %w", err)
	}

	assignRows, err := b.conn.QueryContext(ctx, "SELECT host, cloud FROM assignments")
	if err != nil {
		return nil, fmt.Errorf("load assignments: %w", err)
	}
	defer assignRows.Close()
	for assignRows.Next() {
		var host, cloud string
		if err := assignRows.Scan(&host, &cloud); err != nil {
			return nil, fmt.Errorf("load assignments: %w", err)
		}
		s.Assignments[host] = cloud
	}
	if err := assignRows.Err(); err != nil {
		return nil, fmt.Errorf("load assignments: %w", err)
	}

	return s, nil
}

// Persist rewrites every table inside one transaction. The working set is
// tens to low hundreds of rows, so a full rewrite is simpler and safe.
func (b *postgresBackend) Persist(ctx context.Context, s *model.Store) error {
	tx, err := b.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"schedules", "assignment_history", "cloud_history", "assignments", "hosts", "clouds"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, name := range s.CloudNames() {
		meta := s.Clouds[name]
		ccJSON, _ := json.Marshal(meta.CCUsers)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO clouds (name, description, owner, ccusers_json, ticket, qinq)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			name, meta.Description, meta.Owner, string(ccJSON), meta.Ticket, meta.QinQ,
		); err != nil {
			return fmt.Errorf("persist cloud %s: %w", name, err)
		}
	}

	for _, name := range s.HostNames() {
		h := s.Hosts[name]
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO hosts (name, cloud) VALUES ($1, $2)", name, h.Cloud,
		); err != nil {
			return fmt.Errorf("persist host %s: %w", name, err)
		}
		for _, id := range h.ScheduleIDs() {
			o := h.Schedule[id]
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO schedules (host, id, cloud, start_at, end_at)
				 VALUES ($1, $2, $3, $4, $5)`,
				name, id, o.Cloud, o.Start, o.End,
			); err != nil {
				return fmt.Errorf("persist override %s/%d: %w", name, id, err)
			}
		}
	}

	for host, entries := range s.History {
		for ts, cloud := range entries {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO assignment_history (host, ts, cloud) VALUES ($1, $2, $3)",
				host, ts, cloud,
			); err != nil {
				return fmt.Errorf("persist history for %s: %w", host, err)
			}
		}
	}

	for cloud, entries := range s.CloudHistory {
		for ts, meta := range entries {
			metaJSON, _ := json.Marshal(meta)
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO cloud_history (cloud, ts, meta_json) VALUES ($1, $2, $3)",
				cloud, ts, string(metaJSON),
			); err != nil {
				return fmt.Errorf("persist cloud history for %s: %w", cloud, err)
			}
		}
	}

	for host, cloud := range s.Assignments {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO assignments (host, cloud) VALUES ($1, $2)", host, cloud,
		); err != nil {
			return fmt.Errorf("persist assignment for %s: %w", host, err)
		}
	}

	return tx.Commit()
}
