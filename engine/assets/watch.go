package assets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"github.com/hubastard/chartgfx/engine/gfx"
)

// ShaderRegistrar is satisfied by resources.Manager. CreateShader is only
// called from ops handed to RunOnRenderThread.
type ShaderRegistrar interface {
	RunOnRenderThread(op func() error)
	CreateShader(src gfx.ShaderSource) (gfx.Shader, error)
}

// WatchShaders reloads shaders of the family in dir when their files change
// and hands the new sources to the render thread. It blocks until ctx is
// done. reloaded, if not nil, is called after each queued reload.
func WatchShaders(ctx context.Context, dir string, wgsl bool, reg ShaderRegistrar, reloaded func(name string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("shader watch: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("shader watch %q: %w", dir, err)
	}
	gfx.Logger().Info("watching shaders", slog.String("dir", dir), slog.Bool("wgsl", wgsl))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			name := shaderName(ev.Name, wgsl)
			if name == "" {
				continue
			}
			src, err := LoadShader(dir, name, wgsl)
			if err != nil {
				// Editors often write one stage before the other.
				gfx.Logger().Debug("shader reload skipped", slog.String("shader", name), slog.Any("err", err))
				continue
			}
			reg.RunOnRenderThread(func() error {
				_, err := reg.CreateShader(src)
				return err
			})
			gfx.Logger().Info("shader reload queued", slog.String("shader", name))
			if reloaded != nil {
				reloaded(name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			gfx.Logger().Warn("shader watch error", slog.Any("err", err))
		}
	}
}
