package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ecsdemos/runtime/internal/component"
	"github.com/ecsdemos/runtime/internal/config"
	"github.com/ecsdemos/runtime/internal/core/ecs"
	"github.com/ecsdemos/runtime/internal/core/root"
	"github.com/ecsdemos/runtime/internal/core/submit"
	coresys "github.com/ecsdemos/runtime/internal/core/system"
	"github.com/ecsdemos/runtime/internal/data"
	"github.com/ecsdemos/runtime/internal/scripting"
	"github.com/ecsdemos/runtime/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Host loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg := config.Default()
	cfgPath := "config/arena.toml"
	if p := os.Getenv("ARENA_CONFIG"); p != "" {
		cfgPath = p
	}
	if _, err := os.Stat(cfgPath); err == nil {
		if cfg, err = config.Load(cfgPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Declare groups from the catalog
	printSection("Groups")
	catalog, err := data.LoadGroupCatalog(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	schema := ecs.NewSchema()
	ids, err := catalog.Declare(schema, component.Descriptors())
	if err != nil {
		return fmt.Errorf("declare groups: %w", err)
	}
	for _, e := range catalog.Entries() {
		printStat(e.Name, e.Preallocate)
	}
	for _, name := range []string{"Enemies", "Dead"} {
		if _, ok := ids[name]; !ok {
			return fmt.Errorf("catalog %s: group %s not declared", cfg.Catalog.Path, name)
		}
	}
	groups := system.Groups{Enemies: ids["Enemies"], Dead: ids["Dead"]}

	// 4. Host-owned scheduler, handed to the root
	var (
		sched submit.Scheduler
		pump  *submit.Pump
	)
	switch cfg.Submission.Scheduler {
	case "pump":
		pump = submit.NewPump()
		sched = pump
	default:
		sched = submit.NewImmediate()
	}
	defer sched.Close()

	engines, err := root.New(schema, sched, log)
	if err != nil {
		return fmt.Errorf("engines root: %w", err)
	}
	defer engines.Dispose()

	factory := engines.Factory()
	for _, e := range catalog.Entries() {
		d, _ := schema.Descriptor(ids[e.Name])
		if err := factory.Preallocate(ids[e.Name], d, e.Preallocate); err != nil {
			return fmt.Errorf("preallocate %s: %w", e.Name, err)
		}
	}

	// 5. Formulas and engines
	formulas, err := scripting.NewEngine(cfg.Scripting.Formulas, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer formulas.Close()
	printOK("formulas loaded")

	spawn := system.NewSpawnEngine(factory, engines.Events(), groups, cfg.Arena, time.Now().UnixNano())
	combat := coresys.NewOrderedGroup("combat",
		system.NewDamageEngine(groups, formulas, cfg.Arena.HeroPower),
		system.NewDeathEngine(groups, engines.Functions()),
		system.NewDeathAnimEngine(groups, engines.Functions(), formulas),
	)
	for _, e := range []coresys.Engine{spawn, system.NewMotionEngine(groups, cfg.Parallel.Workers), combat} {
		if err := engines.AddEngine(e); err != nil {
			return fmt.Errorf("add engine: %w", err)
		}
	}
	printOK(fmt.Sprintf("loop ready (tick: %s, scheduler: %s)", cfg.Loop.TickRate, cfg.Submission.Scheduler))
	fmt.Println()

	// 6. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Loop.TickRate)
	defer ticker.Stop()

	const reportInterval = 100
	for {
		select {
		case <-ticker.C:
			if err := engines.Tick(cfg.Loop.TickRate); err != nil {
				return fmt.Errorf("tick: %w", err)
			}
			if pump != nil {
				if _, err := pump.Pump(); err != nil {
					return fmt.Errorf("pump: %w", err)
				}
			}
			n := engines.Ticks()
			if n%reportInterval == 0 {
				alive, _ := engines.DB().Count(groups.Enemies)
				dying, _ := engines.DB().Count(groups.Dead)
				log.Info("arena", zap.Uint64("tick", n), zap.Int("enemies", alive), zap.Int("dying", dying))
			}
			if cfg.Loop.MaxTicks > 0 && n >= uint64(cfg.Loop.MaxTicks) {
				log.Info("tick budget reached", zap.Uint64("ticks", n))
				return nil
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
