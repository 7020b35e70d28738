// Package main imports a YAML SDE snapshot into the PostgreSQL type store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/korallis/eve-cortex/internal/config"
	"github.com/korallis/eve-cortex/internal/observability"
	"github.com/korallis/eve-cortex/internal/sde"
	"github.com/korallis/eve-cortex/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	sourceDir := flag.String("source", "", "path to YAML SDE directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *sourceDir == "" {
		*sourceDir = cfg.SDE.Dir
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	store, err := sde.LoadDir(*sourceDir)
	if err != nil {
		logger.Fatal("loading SDE snapshot", zap.String("dir", *sourceDir), zap.Error(err))
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()

	attrs, types, bonuses, err := importSnapshot(ctx, pool, store)
	if err != nil {
		logger.Fatal("importing snapshot", zap.Error(err))
	}

	logger.Info("SDE import complete",
		zap.Int("attributes", attrs),
		zap.Int("types", types),
		zap.Int("bonuses", bonuses),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// importSnapshot upserts every attribute definition, type template, and
// skill bonus row from the loaded store.
func importSnapshot(ctx context.Context, pool *postgres.Pool, store *sde.Store) (attrs, types, bonuses int, err error) {
	db := pool.DB()

	for _, def := range store.Attributes() {
		_, err = db.Exec(ctx, `
			INSERT INTO attribute_defs (id, name, display_name, default_value, high_is_good, stackable)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, display_name = EXCLUDED.display_name,
				default_value = EXCLUDED.default_value,
				high_is_good = EXCLUDED.high_is_good, stackable = EXCLUDED.stackable`,
			def.ID, def.Name, def.DisplayName, def.DefaultValue, def.HighIsGood, def.Stackable,
		)
		if err != nil {
			return attrs, types, bonuses, fmt.Errorf("upserting attribute %d: %w", def.ID, err)
		}
		attrs++
	}

	for _, t := range store.Types() {
		_, err = db.Exec(ctx, `
			INSERT INTO eve_types (id, name, group_id, category_id, slot, published)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, group_id = EXCLUDED.group_id,
				category_id = EXCLUDED.category_id, slot = EXCLUDED.slot,
				published = EXCLUDED.published`,
			t.ID, t.Name, t.GroupID, t.CategoryID, string(t.Slot), t.Published,
		)
		if err != nil {
			return attrs, types, bonuses, fmt.Errorf("upserting type %d: %w", t.ID, err)
		}

		if _, err = db.Exec(ctx, `DELETE FROM type_attributes WHERE type_id = $1`, t.ID); err != nil {
			return attrs, types, bonuses, fmt.Errorf("clearing attributes for type %d: %w", t.ID, err)
		}
		for attrID, value := range t.Attributes {
			if _, err = db.Exec(ctx, `
				INSERT INTO type_attributes (type_id, attribute_id, value) VALUES ($1,$2,$3)`,
				t.ID, attrID, value,
			); err != nil {
				return attrs, types, bonuses, fmt.Errorf("inserting attribute %d for type %d: %w", attrID, t.ID, err)
			}
		}

		if _, err = db.Exec(ctx, `DELETE FROM type_effects WHERE type_id = $1`, t.ID); err != nil {
			return attrs, types, bonuses, fmt.Errorf("clearing effects for type %d: %w", t.ID, err)
		}
		for _, eff := range t.Effects {
			if _, err = db.Exec(ctx, `
				INSERT INTO type_effects (type_id, name, category, attribute_id, op, value)
				VALUES ($1,$2,$3,$4,$5,$6)`,
				t.ID, eff.Name, string(eff.Category), eff.Attribute, eff.Op, eff.Value,
			); err != nil {
				return attrs, types, bonuses, fmt.Errorf("inserting effect %q for type %d: %w", eff.Name, t.ID, err)
			}
		}
		types++
	}

	for group, table := range store.Bonuses() {
		for _, b := range table {
			if _, err = db.Exec(ctx, `
				INSERT INTO skill_bonuses (ship_group_id, skill_type_id, attribute_id, kind, per_level, cap_level)
				VALUES ($1,$2,$3,$4,$5,$6)
				ON CONFLICT (ship_group_id, skill_type_id, attribute_id) DO UPDATE SET
					kind = EXCLUDED.kind, per_level = EXCLUDED.per_level, cap_level = EXCLUDED.cap_level`,
				group, b.SkillTypeID, b.Attribute, string(b.Kind), b.PerLevel, b.CapLevel,
			); err != nil {
				return attrs, types, bonuses, fmt.Errorf("upserting bonus for group %d skill %d: %w", group, b.SkillTypeID, err)
			}
			bonuses++
		}
	}

	return attrs, types, bonuses, nil
}
