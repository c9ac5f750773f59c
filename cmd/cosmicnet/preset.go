package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/persist"
)

// withPresets opens the configured database for a preset command.
func withPresets(ctx context.Context, configPath string, fn func(*persist.PresetRepo) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	cfg.Database.Enabled = true
	db, err := openDB(ctx, cfg.Database, zap.NewNop())
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	return fn(persist.NewPresetRepo(db))
}

func runPresetSave(ctx context.Context, configPath, name string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Simulation.Check(); err != nil {
		return err
	}
	return withPresets(ctx, configPath, func(r *persist.PresetRepo) error {
		if err := r.Save(ctx, name, cfg.Simulation); err != nil {
			return err
		}
		printOK(fmt.Sprintf("preset %q saved", name))
		return nil
	})
}

func runPresetShow(ctx context.Context, configPath, name string) error {
	return withPresets(ctx, configPath, func(r *persist.PresetRepo) error {
		row, err := r.Load(ctx, name)
		if err != nil {
			return err
		}
		if row == nil {
			return fmt.Errorf("preset %q not found", name)
		}
		body, err := persist.EncodePreset(row.Config)
		if err != nil {
			return err
		}
		fmt.Printf("# %s (updated %s)\n%s", row.Name, row.UpdatedAt.Format("2006-01-02 15:04"), body)
		return nil
	})
}

func runPresetList(ctx context.Context, configPath string) error {
	return withPresets(ctx, configPath, func(r *persist.PresetRepo) error {
		names, err := r.Names(ctx)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	})
}
