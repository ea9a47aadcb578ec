package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"hostpool/internal/config"
	"hostpool/internal/model"
	"hostpool/internal/util"
)

// yamlFile keeps the whole record store in a single YAML data file. Override
// windows are stored in the boundary timestamp format, history keys as epoch
// seconds.

type yamlOverride struct {
	Cloud string `yaml:"cloud"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type yamlHost struct {
	Cloud    string               `yaml:"cloud"`
	Schedule map[int]yamlOverride `yaml:"schedule"`
}

type yamlCloud struct {
	Description string   `yaml:"description"`
	Owner       string   `yaml:"owner"`
	CCUsers     []string `yaml:"ccusers,omitempty"`
	Ticket      string   `yaml:"ticket"`
	QinQ        bool     `yaml:"qinq"`
}

type yamlStore struct {
	Clouds       map[string]yamlCloud           `yaml:"clouds"`
	Hosts        map[string]yamlHost            `yaml:"hosts"`
	History      map[string]map[int64]string    `yaml:"history"`
	CloudHistory map[string]map[int64]yamlCloud `yaml:"cloud_history"`
	Assignments  map[string]string              `yaml:"assignments"`
}

type yamlFileBackend struct {
	path   string
	logger *zap.Logger
}

func newYAMLFile(cfg *config.Config, logger *zap.Logger) (Inventory, error) {
	return &yamlFileBackend{path: cfg.Data.File, logger: logger}, nil
}

func (b *yamlFileBackend) Load(ctx context.Context) (*model.Store, error) {
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		b.logger.Info("data file not found, starting with an empty store",
			zap.String("path", b.path))
		return model.NewStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}

	var raw yamlStore
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse data file %s: %w", b.path, err)
	}
	return rawToStore(&raw)
}

func (b *yamlFileBackend) Persist(ctx context.Context, s *model.Store) error {
	data, err := yaml.Marshal(storeToRaw(s))
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}

	// Write-and-rename so a crash mid-write never truncates the data file.
	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".hostpool-*")
	if err != nil {
		return fmt.Errorf("write data file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write data file: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

func rawToStore(raw *yamlStore) (*model.Store, error) {
	s := model.NewStore()

	for name, c := range raw.Clouds {
		s.Clouds[name] = model.CloudMeta{
			Description: c.Description,
			Owner:       c.Owner,
			CCUsers:     c.CCUsers,
			Ticket:      c.Ticket,
			QinQ:        c.QinQ,
		}.WithDefaults()
	}

	for name, h := range raw.Hosts {
		host := &model.Host{Cloud: h.Cloud, Schedule: make(map[int]model.Override)}
		for id, o := range h.Schedule {
			start, err := util.ParseStamp(o.Start)
			if err != nil {
				return nil, fmt.Errorf("host %s override %d: %w", name, id, err)
			}
			end, err := util.ParseStamp(o.End)
			if err != nil {
				return nil, fmt.Errorf("host %s override %d: %w", name, id, err)
			}
			host.Schedule[id] = model.Override{Cloud: o.Cloud, Start: start, End: end}
		}
		s.Hosts[name] = host
	}

	for host, entries := range raw.History {
		s.History[host] = make(map[int64]string, len(entries))
		for ts, cloud := range entries {
			s.History[host][ts] = cloud
		}
	}

	for cloud, entries := range raw.CloudHistory {
		s.CloudHistory[cloud] = make(map[int64]model.CloudMeta, len(entries))
		for ts, c := range entries {
			s.CloudHistory[cloud][ts] = model.CloudMeta{
				Description: c.Description,
				Owner:       c.Owner,
				CCUsers:     c.CCUsers,
				Ticket:      c.Ticket,
				QinQ:        c.QinQ,
			}
		}
	}

	for host, cloud := range raw.Assignments {
		s.Assignments[host] = cloud
	}

	return s, nil
}

func storeToRaw(s *model.Store) *yamlStore {
	raw := &yamlStore{
		Clouds:       make(map[string]yamlCloud, len(s.Clouds)),
		Hosts:        make(map[string]yamlHost, len(s.Hosts)),
		History:      make(map[string]map[int64]string, len(s.History)),
		CloudHistory: make(map[string]map[int64]yamlCloud, len(s.CloudHistory)),
		Assignments:  make(map[string]string, len(s.Assignments)),
	}

	for name, c := range s.Clouds {
		raw.Clouds[name] = yamlCloud{
			Description: c.Description,
			Owner:       c.Owner,
			CCUsers:     c.CCUsers,
			Ticket:      c.Ticket,
			QinQ:        c.QinQ,
		}
	}

	for name, h := range s.Hosts {
		yh := yamlHost{Cloud: h.Cloud, Schedule: make(map[int]yamlOverride, len(h.Schedule))}
		for id, o := range h.Schedule {
			yh.Schedule[id] = yamlOverride{
				Cloud: o.Cloud,
				Start: util.FormatStamp(o.Start),
				End:   util.FormatStamp(o.End),
			}
		}
		raw.Hosts[name] = yh
	}

	for host, entries := range s.History {
		raw.History[host] = make(map[int64]string, len(entries))
		for ts, cloud := range entries {
			raw.History[host][ts] = cloud
		}
	}

	for cloud, entries := range s.CloudHistory {
		raw.CloudHistory[cloud] = make(map[int64]yamlCloud, len(entries))
		for ts, c := range entries {
			raw.CloudHistory[cloud][ts] = yamlCloud{
				Description: c.Description,
				Owner:       c.Owner,
				CCUsers:     c.CCUsers,
				Ticket:      c.Ticket,
				QinQ:        c.QinQ,
			}
		}
	}

	for host, cloud := range s.Assignments {
		raw.Assignments[host] = cloud
	}

	return raw
}
