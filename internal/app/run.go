package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vk/shaderplan/internal/compiler"
	"github.com/vk/shaderplan/internal/ctxlog"
	"github.com/vk/shaderplan/internal/fsutil"
	"github.com/vk/shaderplan/internal/model"
	"github.com/vk/shaderplan/internal/registry"
	"github.com/vk/shaderplan/internal/resolver"
)

// Run compiles the scene once, or keeps recompiling it on change when
// watching, until ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HTTPPort > 0 {
		if err := a.startPlanServer(ctx, a.config.HTTPPort); err != nil {
			return err
		}
		defer a.closePlanServer(ctx)
	}

	files, err := a.compileAndEmit(ctx)
	if a.config.Watch <= 0 {
		if err != nil {
			return err
		}
		a.logger.Debug("App.Run method finished.")
		return nil
	}
	if err != nil {
		a.logger.Error("Scene failed to compile, waiting for changes.", "error", err)
	}
	return a.watch(ctx, files)
}

// watch polls the scene files and recompiles when one changes. A failed
// compilation keeps the previous plan.
func (a *App) watch(ctx context.Context, files []string) error {
	a.logger.Info("Watching scene for changes.", "path", a.config.ScenePath, "interval", a.config.Watch)
	last := fsutil.LatestModTime(files)

	ticker := time.NewTicker(a.config.Watch)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("Watch stopped.")
			return nil
		case <-ticker.C:
		}

		// Newly added files only show up once the file list is refreshed.
		current, err := fsutil.FindFiles([]string{a.config.ScenePath}, ".hcl")
		if err == nil {
			files = current
		}
		mod := fsutil.LatestModTime(files)
		if mod == last {
			continue
		}
		last = mod

		a.logger.Info("Scene changed, recompiling.")
		next, err := a.compileAndEmit(ctx)
		if err != nil {
			a.logger.Error("Scene failed to compile, keeping the previous plan.", "error", err)
			continue
		}
		files = next
	}
}

// compileAndEmit compiles the scene, then writes and publishes the plan. It
// returns the scene files so the caller can watch them.
func (a *App) compileAndEmit(ctx context.Context) ([]string, error) {
	plan, files, err := a.Compile(ctx)
	if err != nil {
		return files, err
	}
	if err := a.writePlan(plan); err != nil {
		return files, err
	}
	if a.publisher != nil {
		if err := a.publisher.Publish(ctx, plan); err != nil {
			return files, fmt.Errorf("failed to publish plan: %w", err)
		}
	}
	return files, nil
}

// Compile loads the scene and compiles it into a plan. A fresh shader
// registry is used for every compilation.
func (a *App) Compile(ctx context.Context) (*model.Plan, []string, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	reg := registry.New()

	scene, err := a.loader.Load(ctx, reg, a.config.ScenePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load scene: %w", err)
	}

	start := time.Now()
	plan, err := compiler.New(reg).Compile(ctx, scene.Root)
	if err != nil {
		return nil, scene.Files, fmt.Errorf("failed to compile scene: %w", err)
	}
	if a.config.Verify {
		if err := resolver.Verify(plan); err != nil {
			return nil, scene.Files, fmt.Errorf("compiled plan is invalid: %w", err)
		}
	}

	a.setLastPlan(plan, reg)

	a.logger.Info("Compiled scene.",
		"passes", plan.Count(),
		"contents", len(plan.Contents),
		"preload_images", len(plan.PreloadImages),
		"duration", time.Since(start),
	)
	return plan, scene.Files, nil
}

func (a *App) writePlan(plan *model.Plan) error {
	switch a.config.Format {
	case FormatText:
		return writeText(a.outW, plan, a.shaderName)
	default:
		enc := json.NewEncoder(a.outW)
		enc.SetIndent("", "  ")
		if err := enc.Encode(plan); err != nil {
			return fmt.Errorf("failed to write plan: %w", err)
		}
		return nil
	}
}
