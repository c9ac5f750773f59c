package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/config"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/core/event"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/galaxy"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/persist"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/scripting"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/sim"
	"github.com/thebreadishard/CosmicNetworkSim1/internal/stream"
)

type runOptions struct {
	configPath string
	preset     string
	serve      bool
	maxRuntime time.Duration
	seed       int64
}

func runSim(parent context.Context, opts runOptions) error {
	if parent == nil {
		parent = context.Background()
	}

	// 1. Load config
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	table, err := galaxy.LoadTable(cfg.Galaxy.Table)
	if err != nil {
		return fmt.Errorf("load galaxy table: %w", err)
	}
	printBanner(cfg.Galaxy.Table, table.Count())

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Optional PostgreSQL: presets and stats samples
	simCfg := cfg.Simulation
	var statsRepo *persist.StatsRepo
	if cfg.Database.Enabled {
		printSection("database")
		db, err := openDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected, schema migrated")

		presets := persist.NewPresetRepo(db)
		if opts.preset != "" {
			row, err := presets.Load(ctx, opts.preset)
			if err != nil {
				return err
			}
			if row == nil {
				return fmt.Errorf("preset %q not found", opts.preset)
			}
			simCfg = row.Config
			printOK(fmt.Sprintf("preset %q loaded", opts.preset))
		} else if cfg.Database.Preset != "" {
			if err := presets.Save(ctx, cfg.Database.Preset, simCfg); err != nil {
				return err
			}
			printOK(fmt.Sprintf("config saved as preset %q", cfg.Database.Preset))
		}

		statsRepo = persist.NewStatsRepo(db, fmt.Sprintf("%s-%s", presetName(opts, cfg), time.Now().UTC().Format("20060102T150405")))
		printOK(fmt.Sprintf("recording stats as run %s", statsRepo.RunID()))
		fmt.Println()
	} else if opts.preset != "" {
		return errors.New("--preset needs database.enabled or COSMICNET_DSN")
	}
	if opts.seed != 0 {
		simCfg.Seed = opts.seed
	}
	simCfg = sanitize(simCfg, log)

	// 4. Build the engine and seed the galaxy
	printSection("galaxy")
	engineOpts := []sim.Option{
		sim.WithLogger(log.Named("sim")),
		sim.WithGrid(sanitizeGrid(cfg.Grid, log)),
	}
	if cfg.Galaxy.Script != "" {
		placer, err := scripting.NewEngine(cfg.Galaxy.Script, log.Named("lua"))
		if err != nil {
			return fmt.Errorf("load placement script: %w", err)
		}
		defer placer.Close()
		engineOpts = append(engineOpts, sim.WithPlacer(placer))
		printOK("placement script " + cfg.Galaxy.Script)
	}

	eng, err := sim.New(simCfg, engineOpts...)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if statsRepo != nil {
		eng.OnTerminalEvent(func(ev event.StarDied) {
			statsRepo.RecordSupernova(ev, eng.Now())
		})
	}
	if err := eng.InitializePopulation(table.Groups); err != nil {
		return err
	}
	st := eng.Stats()
	printStat("stars", st.Stars)
	printStat("dust clouds", st.Clouds)
	printStat("connection distance", fmt.Sprintf("%.1f", eng.ConnectionDistance()))
	fmt.Println()

	// 5. Optional viewer stream
	var hub *stream.Hub
	if cfg.Stream.Enabled || opts.serve {
		hub = stream.NewHub(cfg.Stream, eng.Bus(), log.Named("stream"))
		srv := stream.NewServer(hub)
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				log.Error("stream server stopped", zap.Error(err))
				stop()
			}
		}()
	}

	// 6. Frame loop
	maxRuntime := cfg.Loop.MaxRuntime
	if opts.maxRuntime > 0 {
		maxRuntime = opts.maxRuntime
	}
	var deadline <-chan time.Time
	if maxRuntime > 0 {
		timer := time.NewTimer(maxRuntime)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(cfg.Loop.TickRate)
	defer ticker.Stop()

	printSection("running")
	if hub != nil {
		printReady("viewer stream on ws://" + cfg.Stream.BindAddress + "/ws")
	}
	printReady(fmt.Sprintf("frame loop started (tick: %s)", cfg.Loop.TickRate))
	fmt.Println()

	statsCounter := 0
	for {
		select {
		case <-ticker.C:
			eng.Update(cfg.Loop.TickRate)
			if hub != nil {
				hub.Publish(eng)
			}
			statsCounter++
			if cfg.Loop.StatsEvery > 0 && statsCounter >= cfg.Loop.StatsEvery {
				statsCounter = 0
				reportStats(ctx, eng.Stats(), statsRepo, log)
			}

		case <-deadline:
			log.Info("max runtime reached", zap.Duration("runtime", maxRuntime))
			return shutdown(eng, statsRepo, log)

		case <-ctx.Done():
			log.Info("shutdown signal received")
			return shutdown(eng, statsRepo, log)
		}
	}
}

func reportStats(ctx context.Context, st sim.Stats, repo *persist.StatsRepo, log *zap.Logger) {
	log.Info("stats",
		zap.Int("stars", st.Stars),
		zap.Int("active", st.Active),
		zap.Int("connections", st.Connections),
		zap.Int("obscured", st.Obscured),
		zap.Int("births", st.Births),
		zap.Int("deaths", st.Deaths),
		zap.Int("supernovae", st.Supernovae),
		zap.Duration("sim_time", st.SimTime),
	)
	if repo == nil {
		return
	}
	repo.Record(st)
	flushCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := repo.Flush(flushCtx); err != nil {
		log.Warn("stats flush failed, keeping samples", zap.Int("pending", repo.Pending()), zap.Error(err))
	}
}

func shutdown(eng *sim.Engine, repo *persist.StatsRepo, log *zap.Logger) error {
	st := eng.Stats()
	if repo != nil {
		repo.Record(st)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repo.Flush(ctx); err != nil {
			log.Error("final stats flush", zap.Error(err))
		}
	}
	log.Info("simulation stopped",
		zap.Uint64("ticks", st.Ticks),
		zap.Duration("sim_time", st.SimTime),
		zap.Int("stars", st.Stars),
		zap.Int("connections", st.Connections),
	)
	return nil
}

func openDB(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*persist.DB, error) {
	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return persist.Open(openCtx, cfg, log.Named("db"))
}

func presetName(opts runOptions, cfg *config.Config) string {
	if opts.preset != "" {
		return opts.preset
	}
	if cfg.Database.Preset != "" {
		return cfg.Database.Preset
	}
	return "run"
}
