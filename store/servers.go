// ABOUTME: MCP server configuration persistence - CRUD plus versioned
// ABOUTME: export/import of the server list.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lunalab/mcpchat/mcpclient"
)

// ExportVersion tags exported configuration documents.
const ExportVersion = "1.0.0"

// ExportDoc is the export/import wire format for server configurations.
type ExportDoc struct {
	Version    string                   `json:"version"`
	ExportedAt int64                    `json:"exportedAt"`
	Servers    []mcpclient.ServerConfig `json:"servers"`
}

// ServerConfigs returns every stored server configuration, oldest first.
func (s *Store) ServerConfigs(ctx context.Context) ([]mcpclient.ServerConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, transport, command, args, env, url, created_at, updated_at
		 FROM mcp_servers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query server configs: %w", err)
	}
	defer rows.Close()

	configs := []mcpclient.ServerConfig{}
	for rows.Next() {
		cfg, err := scanServerConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// ServerConfig returns one stored configuration by id.
func (s *Store) ServerConfig(ctx context.Context, id string) (mcpclient.ServerConfig, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, transport, command, args, env, url, created_at, updated_at
		 FROM mcp_servers WHERE id = ?`, id)
	cfg, err := scanServerConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return mcpclient.ServerConfig{}, ErrNotFound
	}
	return cfg, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanServerConfig(row scanner) (mcpclient.ServerConfig, error) {
	var cfg mcpclient.ServerConfig
	var command, args, env, url sql.NullString
	if err := row.Scan(&cfg.ID, &cfg.Name, &cfg.Transport, &command, &args, &env, &url,
		&cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
		return mcpclient.ServerConfig{}, err
	}
	cfg.Command = command.String
	cfg.URL = url.String
	if args.Valid && args.String != "" {
		_ = json.Unmarshal([]byte(args.String), &cfg.Args)
	}
	if env.Valid && env.String != "" {
		_ = json.Unmarshal([]byte(env.String), &cfg.Env)
	}
	return cfg, nil
}

// AddServerConfig stores a new configuration, assigning id and timestamps
// when absent.
func (s *Store) AddServerConfig(ctx context.Context, cfg mcpclient.ServerConfig) (mcpclient.ServerConfig, error) {
	now := time.Now().UnixMilli()
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if cfg.CreatedAt == 0 {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	args, err := json.Marshal(cfg.Args)
	if err != nil {
		return mcpclient.ServerConfig{}, err
	}
	env, err := json.Marshal(cfg.Env)
	if err != nil {
		return mcpclient.ServerConfig{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO mcp_servers (id, name, transport, command, args, env, url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cfg.ID, cfg.Name, cfg.Transport, cfg.Command, string(args), string(env), cfg.URL,
		cfg.CreatedAt, cfg.UpdatedAt)
	if err != nil {
		return mcpclient.ServerConfig{}, fmt.Errorf("add server config: %w", err)
	}
	return cfg, nil
}

// UpdateServerConfig replaces the mutable fields of a stored configuration.
func (s *Store) UpdateServerConfig(ctx context.Context, id string, cfg mcpclient.ServerConfig) (mcpclient.ServerConfig, error) {
	existing, err := s.ServerConfig(ctx, id)
	if err != nil {
		return mcpclient.ServerConfig{}, err
	}

	cfg.ID = id
	cfg.CreatedAt = existing.CreatedAt
	cfg.UpdatedAt = time.Now().UnixMilli()

	args, err := json.Marshal(cfg.Args)
	if err != nil {
		return mcpclient.ServerConfig{}, err
	}
	env, err := json.Marshal(cfg.Env)
	if err != nil {
		return mcpclient.ServerConfig{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE mcp_servers
		 SET name = ?, transport = ?, command = ?, args = ?, env = ?, url = ?, updated_at = ?
		 WHERE id = ?`,
		cfg.Name, cfg.Transport, cfg.Command, string(args), string(env), cfg.URL,
		cfg.UpdatedAt, id)
	if err != nil {
		return mcpclient.ServerConfig{}, fmt.Errorf("update server config: %w", err)
	}
	return cfg, nil
}

// DeleteServerConfig removes a stored configuration.
func (s *Store) DeleteServerConfig(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mcp_servers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete server config: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ExportServerConfigs produces a versioned document with every stored config.
func (s *Store) ExportServerConfigs(ctx context.Context) (ExportDoc, error) {
	configs, err := s.ServerConfigs(ctx)
	if err != nil {
		return ExportDoc{}, err
	}
	return ExportDoc{
		Version:    ExportVersion,
		ExportedAt: time.Now().UnixMilli(),
		Servers:    configs,
	}, nil
}

// ImportServerConfigs loads configurations from an export document. With
// merge set, existing ids are updated in place; otherwise the table is
// cleared first. Entries missing a name or transport are skipped. Returns
// how many configs were added and how many updated.
func (s *Store) ImportServerConfigs(ctx context.Context, doc ExportDoc, merge bool) (added, updated int, err error) {
	if doc.Version == "" {
		return 0, 0, fmt.Errorf("invalid export document: missing version")
	}

	if !merge {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM mcp_servers`); err != nil {
			return 0, 0, fmt.Errorf("clear server configs: %w", err)
		}
	}

	for _, cfg := range doc.Servers {
		if cfg.Name == "" || cfg.Transport == "" {
			continue
		}
		if cfg.ID != "" {
			if _, err := s.ServerConfig(ctx, cfg.ID); err == nil {
				if _, err := s.UpdateServerConfig(ctx, cfg.ID, cfg); err != nil {
					return added, updated, err
				}
				updated++
				continue
			} else if !errors.Is(err, ErrNotFound) {
				return added, updated, err
			}
		}
		if _, err := s.AddServerConfig(ctx, cfg); err != nil {
			return added, updated, err
		}
		added++
	}
	return added, updated, nil
}
