// meshview displays a welded mesh in an OpenGL window.
//
// The source is an .obj file, a .mesh file or a shape name. Controls:
// drag to orbit, wheel to zoom, 1-5 to switch shaders, space to pause the
// spin, B to toggle the bounding ring, F5 to save the mesh, F12 for a PNG
// snapshot, Esc to quit.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/meshkit/internal/config"
	"github.com/Faultbox/meshkit/internal/engine/framebuffer"
	"github.com/Faultbox/meshkit/internal/engine/gpu/glctx"
	"github.com/Faultbox/meshkit/internal/engine/input"
	"github.com/Faultbox/meshkit/internal/engine/window"
	"github.com/Faultbox/meshkit/internal/logger"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	source := "torus"
	if args := config.Args(); len(args) > 0 {
		source = args[0]
	}

	if err := run(cfg, source); err != nil {
		logger.Error("meshview failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, source string) error {
	win, err := window.New(window.Config{
		Title:      "meshview - " + filepath.Base(source),
		Width:      cfg.Viewer.Width,
		Height:     cfg.Viewer.Height,
		Fullscreen: cfg.Viewer.Fullscreen,
		VSync:      cfg.Viewer.VSync,
	})
	if err != nil {
		return err
	}
	defer win.Close()

	ctx, err := glctx.New()
	if err != nil {
		return err
	}
	defer ctx.Close()

	sc, err := newScene(ctx, cfg)
	if err != nil {
		return err
	}
	defer sc.destroy()

	if err := sc.loadSource(source); err != nil {
		return err
	}

	w, h := win.GetDrawableSize()
	fb, err := framebuffer.New(int32(w), int32(h))
	if err != nil {
		return err
	}
	defer fb.Destroy()

	shots := framebuffer.NewSnapshotter(cfg.Viewer.SnapshotDir, "meshview")
	in := input.New()
	log := logger.Named("viewer")
	last := time.Now()

	for !in.Update() {
		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		if in.IsKeyPressed(sdl.SCANCODE_ESCAPE) {
			break
		}
		handleKeys(sc, in)
		if dx, dy := in.DragDelta(); dx != 0 || dy != 0 {
			sc.cam.HandleDrag(float32(dx), float32(dy))
		}
		if steps := in.Wheel(); steps != 0 {
			sc.cam.HandleZoom(float32(steps))
		}
		sc.update(dt)

		w, h = win.GetDrawableSize()
		fb.Resize(int32(w), int32(h))
		fb.Bind()
		fb.Clear(0.1, 0.1, 0.12, 1)
		gl.Enable(gl.DEPTH_TEST)
		if err := sc.draw(float32(w) / float32(max(h, 1))); err != nil {
			return err
		}
		fb.BlitToScreen(int32(w), int32(h))

		if in.IsKeyPressed(sdl.SCANCODE_F12) {
			if err := snapshot(fb, shots); err != nil {
				log.Warn("snapshot failed", zap.Error(err))
			}
		}
		if in.IsKeyPressed(sdl.SCANCODE_F5) {
			path := strings.TrimSuffix(shots.Filename(), ".png") + ".mesh"
			if err := sc.saveMesh(path); err != nil {
				log.Warn("saving mesh failed", zap.Error(err))
			}
		}

		win.SwapBuffers()
	}
	return nil
}

func handleKeys(sc *scene, in *input.Input) {
	for i := 0; i < len(viewShaders); i++ {
		if in.IsKeyPressed(sdl.Scancode(sdl.SCANCODE_1) + sdl.Scancode(i)) {
			sc.selectShader(i)
		}
	}
	if in.IsKeyPressed(sdl.SCANCODE_SPACE) {
		sc.spin = !sc.spin
	}
	if in.IsKeyPressed(sdl.SCANCODE_B) {
		sc.showRing = !sc.showRing
	}
	if in.IsKeyPressed(sdl.SCANCODE_R) {
		sc.cam.FitRadius(sc.mesh.BoundingRadius())
	}
}

func snapshot(fb *framebuffer.Framebuffer, shots *framebuffer.Snapshotter) error {
	img, err := fb.Image()
	if err != nil {
		return err
	}
	path, err := shots.Save(img)
	if err != nil {
		return err
	}
	logger.Named("viewer").Info("snapshot saved", zap.String("path", path))
	return nil
}
