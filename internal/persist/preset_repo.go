package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jackc/pgx/v5"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/config"
)

// PresetRow is a named simulation config stored as TOML text.
type PresetRow struct {
	Name      string
	Config    config.SimulationConfig
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PresetRepo struct {
	db *DB
}

func NewPresetRepo(db *DB) *PresetRepo {
	return &PresetRepo{db: db}
}

// Save upserts the preset name.
func (r *PresetRepo) Save(ctx context.Context, name string, cfg config.SimulationConfig) error {
	body, err := EncodePreset(cfg)
	if err != nil {
		return err
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO presets (name, body) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
		name, body,
	)
	if err != nil {
		return fmt.Errorf("save preset %q: %w", name, err)
	}
	return nil
}

// Load returns the preset, or nil when none is stored under name.
func (r *PresetRepo) Load(ctx context.Context, name string) (*PresetRow, error) {
	var body string
	row := &PresetRow{Name: name}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT body, created_at, updated_at FROM presets WHERE name = $1`, name,
	).Scan(&body, &row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load preset %q: %w", name, err)
	}
	cfg, err := DecodePreset(body)
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", name, err)
	}
	row.Config = cfg
	return row, nil
}

// Names lists stored presets alphabetically.
func (r *PresetRepo) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT name FROM presets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *PresetRepo) Delete(ctx context.Context, name string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM presets WHERE name = $1`, name)
	return err
}

// EncodePreset renders cfg in the same TOML form as the [simulation]
// section of the config file.
func EncodePreset(cfg config.SimulationConfig) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return "", fmt.Errorf("encode preset: %w", err)
	}
	return buf.String(), nil
}

// DecodePreset parses a preset body. Missing keys keep their defaults;
// unknown keys are an error.
func DecodePreset(body string) (config.SimulationConfig, error) {
	cfg := config.DefaultSimulation()
	md, err := toml.Decode(body, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("decode preset: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("decode preset: unknown keys %v", undecoded)
	}
	return cfg, nil
}
