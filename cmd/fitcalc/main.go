// Package main provides the fitting calculator CLI: it evaluates a fitting
// file against the configured SDE snapshot and prints the validation and
// performance report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/korallis/eve-cortex/internal/config"
	"github.com/korallis/eve-cortex/internal/fitting"
	"github.com/korallis/eve-cortex/internal/observability"
	"github.com/korallis/eve-cortex/internal/sde"
	"github.com/korallis/eve-cortex/internal/storage/postgres"
)

// fitFile is the on-disk fitting format.
type fitFile struct {
	ShipTypeID int32 `yaml:"ship_type_id"`
	Modules    []struct {
		TypeID       int32  `yaml:"type_id"`
		Slot         string `yaml:"slot"`
		Index        int    `yaml:"index"`
		ChargeTypeID int32  `yaml:"charge_type_id"`
		Offline      bool   `yaml:"offline"`
		Online       bool   `yaml:"online"`
		Active       bool   `yaml:"active"`
	} `yaml:"modules"`
	Pilot struct {
		Skills []struct {
			TypeID int32 `yaml:"type_id"`
			Level  int   `yaml:"level"`
		} `yaml:"skills"`
	} `yaml:"pilot"`
	Implants []int32 `yaml:"implants"`
	Boosters []int32 `yaml:"boosters"`
}

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	fitPath := flag.String("fit", "", "path to fitting YAML file")
	flag.Parse()

	if *fitPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fitcalc -fit <file> [-config <file>]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	provider, cleanup, err := newProvider(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("initializing SDE provider", zap.Error(err))
	}
	defer cleanup()

	fit, err := loadFit(*fitPath)
	if err != nil {
		logger.Fatal("loading fitting file", zap.String("path", *fitPath), zap.Error(err))
	}

	engine := fitting.NewEngine(provider, cfg.Engine, logger)
	result := engine.CalculatePerformance(ctx, fit)
	printReport(result)

	logger.Info("fitting evaluated",
		zap.String("request_id", result.RequestID.String()),
		zap.Bool("success", result.Success),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// newProvider builds the configured SDE backend: a YAML snapshot store or
// the PostgreSQL type store.
func newProvider(ctx context.Context, cfg config.Config, logger *zap.Logger) (sde.Provider, func(), error) {
	switch cfg.SDE.Source {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		logger.Info("SDE provider ready", zap.String("source", "postgres"))
		return postgres.NewTypeStore(pool.DB()), pool.Close, nil
	default:
		store, err := sde.LoadDir(cfg.SDE.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("loading SDE directory: %w", err)
		}
		logger.Info("SDE provider ready", zap.String("source", "yaml"), zap.String("dir", cfg.SDE.Dir))
		return store, func() {}, nil
	}
}

func loadFit(path string) (*fitting.Fit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var ff fitFile
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parsing fitting file %s: %w", path, err)
	}

	fit := &fitting.Fit{
		ShipTypeID: ff.ShipTypeID,
		Implants:   ff.Implants,
		Boosters:   ff.Boosters,
	}
	for _, m := range ff.Modules {
		fit.Modules = append(fit.Modules, fitting.FittedModule{
			TypeID:       m.TypeID,
			Slot:         sde.SlotKind(m.Slot),
			Index:        m.Index,
			ChargeTypeID: m.ChargeTypeID,
			Offline:      m.Offline,
			Online:       m.Online,
			Active:       m.Active,
		})
	}
	for _, s := range ff.Pilot.Skills {
		fit.Pilot.Skills = append(fit.Pilot.Skills, fitting.TrainedSkill{TypeID: s.TypeID, Level: s.Level})
	}
	return fit, nil
}

func printReport(result *fitting.CalculationResult) {
	v := result.Validation
	fmt.Printf("valid: %v\n", v.Valid)
	fmt.Printf("cpu: %.2f / %.2f (%.1f%%)\n", v.Resources.CPU.Used, v.Resources.CPU.Available, v.Resources.CPU.Percent)
	fmt.Printf("powergrid: %.2f / %.2f (%.1f%%)\n", v.Resources.Powergrid.Used, v.Resources.Powergrid.Available, v.Resources.Powergrid.Percent)
	fmt.Printf("calibration: %.2f / %.2f (%.1f%%)\n", v.Resources.Calibration.Used, v.Resources.Calibration.Available, v.Resources.Calibration.Percent)

	p := result.Performance
	fmt.Printf("ehp: %.0f (shield %.0f / armor %.0f / hull %.0f)\n",
		p.Defense.TotalEHP, p.Defense.Shield.EHP, p.Defense.Armor.EHP, p.Defense.Hull.EHP)
	fmt.Printf("shield recharge: %.2f hp/s\n", p.Defense.ShieldRechargeRate)
	fmt.Printf("dps: %.1f (volley %.1f, %d weapons)\n", p.Offense.TotalDPS, p.Offense.Volley, len(p.Offense.Weapons))
	fmt.Printf("speed: %.1f m/s, align %.2f s\n", p.Mobility.MaxVelocity, p.Mobility.AlignTimeSeconds)
	if p.Capacitor.Stable {
		fmt.Printf("capacitor: stable (%.1f GJ, draw %.2f/s, peak %.2f/s)\n",
			p.Capacitor.Capacity, p.Capacitor.TotalDraw, p.Capacitor.PeakRecharge)
	} else {
		fmt.Printf("capacitor: depletes in %.0f s (draw %.2f/s, peak %.2f/s)\n",
			p.Capacitor.DepletionSeconds, p.Capacitor.TotalDraw, p.Capacitor.PeakRecharge)
	}
	fmt.Printf("targeting: %d targets, %.0f m range, scan res %.0f, sig %.0f\n",
		p.Targeting.MaxTargets, p.Targeting.MaxRangeMeters, p.Targeting.ScanResolution, p.Targeting.SignatureRadius)

	for _, iss := range result.Errors {
		fmt.Printf("error: %s\n", iss)
	}
	for _, iss := range result.Warnings {
		fmt.Printf("warning: %s\n", iss)
	}
	fmt.Printf("calculated in %.2f ms\n", result.CalculationTimeMs)
}
