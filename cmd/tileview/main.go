package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gekko3d/tilescene"
	"github.com/gekko3d/tilescene/scene"
)

func main() {
	_ = godotenv.Load(".env")

	var (
		configPath  = flag.String("config", envOr("TILESCENE_CONFIG", "tilescene.yaml"), "config file")
		cityID      = flag.String("city", "", "city id (default: first city)")
		styleID     = flag.String("style", "", "style id (default: the city's first 3d style)")
		scriptPath  = flag.String("script", "", "YAML replay of viewport steps")
		metricsAddr = flag.String("metrics-addr", os.Getenv("TILESCENE_METRICS_ADDR"), "serve /metrics on this address")
		debug       = flag.Bool("debug", envBool("TILESCENE_DEBUG"), "debug logging")
		fps         = flag.Int("fps", 60, "frames per second")
	)
	flag.Parse()

	logger := tilescene.NewDefaultLogger("tileview", *debug)
	if err := run(logger, *configPath, *cityID, *styleID, *scriptPath, *metricsAddr, *fps); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func run(logger tilescene.Logger, configPath, cityID, styleID, scriptPath, metricsAddr string, fps int) error {
	cfg, err := tilescene.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if len(cfg.Cities) == 0 {
		return errors.New("config has no cities")
	}
	if cityID == "" {
		cityID = cfg.Cities[0].ID
	}
	city, err := cfg.City(tilescene.CityByID(cityID))
	if err != nil {
		return err
	}
	sc, err := loadScript(scriptPath)
	if err != nil {
		return err
	}

	fetcher := tilescene.NewHTTPFetcher(30 * time.Second)
	renderer := scene.NewHeadlessRenderer()
	layer, style, err := openLayer(&cfg, city, styleID, fetcher, renderer, logger)
	if err != nil {
		return err
	}
	defer layer.Close()

	zoom := cfg.Map.Zoom
	if city.Zoom != 0 {
		zoom = city.Zoom
	}
	vp := newMercatorViewport(city.CenterLatLon(), zoom, tilescene.Size{X: sc.Size[0], Y: sc.Size[1]})
	if zmin, zmax, ok := cfg.ZoomRange(style); ok {
		vp.zoomMin, vp.zoomMax = zmin, zmax
		vp.SetZoom(zoom)
	}
	if err := layer.Attach(vp); err != nil {
		return err
	}
	if err := layer.SetVisibleTiles(vp.VisibleTiles()); err != nil {
		logger.Warnf("initial tiles: %v", err)
	}

	layer.OnProgress(func(ev tilescene.ProgressEvent) {
		logger.Debugf("progress %d%% (active %d, queued %d, done %d)", ev.Percent, ev.Active, ev.Queued, ev.Completed)
	})
	layer.OnComplete(func() {
		st := layer.Stats()
		logger.Infof("tiles complete: %d tiles, %d objects, %d buildings indexed, %d frames",
			st.Tiles, st.Objects, st.Dedup, st.Frames.Frames)
	})

	if metricsAddr != "" {
		go serveMetrics(metricsAddr, layer, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(time.Second / time.Duration(max(fps, 1)))
	defer ticker.Stop()

	go replay(ctx, stop, sc, layer, vp, logger, scriptPath != "")

	err = layer.Run(ctx, ticker.C)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func openLayer(cfg *tilescene.Config, city tilescene.City, styleID string, fetcher tilescene.Fetcher, r tilescene.Renderer, logger tilescene.Logger) (*tilescene.Layer, tilescene.Style, error) {
	candidates := city.Styles
	if styleID != "" {
		candidates = []string{styleID}
	}
	for _, id := range candidates {
		ref := tilescene.StyleByID(id)
		content, err := cfg.BuildContent(ref, fetcher, logger)
		if errors.Is(err, tilescene.ErrRasterStyle) {
			logger.Infof("style %s is a raster base layer, skipped", id)
			continue
		}
		if err != nil {
			continue
		}
		style, _ := cfg.Style(ref)
		return tilescene.NewLayer(content, r, cfg.LayerOptions(id, logger)), style, nil
	}
	return nil, tilescene.Style{}, fmt.Errorf("city %s: no 3d style among %v", city.ID, candidates)
}

func serveMetrics(addr string, layer *tilescene.Layer, logger tilescene.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(layer.Registry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Infof("metrics on http://%s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("metrics: %v", err)
	}
}

// replay applies script steps on the layer's loop. Without a script it
// keeps the initial view until interrupted.
func replay(ctx context.Context, stop context.CancelFunc, sc script, layer *tilescene.Layer, vp *mercatorViewport, logger tilescene.Logger, exit bool) {
	for i, st := range sc.Steps {
		select {
		case <-ctx.Done():
			return
		case <-time.After(st.Wait):
		}
		layer.Post(func() {
			if err := apply(st, layer, vp); err != nil {
				logger.Warnf("step %d: %v", i, err)
			}
		})
	}
	if exit {
		// let the last step's fetches settle
		done := make(chan struct{})
		layer.Post(func() {
			if layer.Stats().Active+layer.Stats().Queued == 0 {
				close(done)
				return
			}
			layer.OnComplete(func() {
				select {
				case <-done:
				default:
					close(done)
				}
			})
		})
		select {
		case <-ctx.Done():
		case <-done:
		}
		stop()
	}
}

func apply(st step, layer *tilescene.Layer, vp *mercatorViewport) error {
	if st.Resize != nil {
		vp.size = tilescene.Size{X: st.Resize[0], Y: st.Resize[1]}
		if err := layer.Resize(); err != nil {
			return err
		}
	}
	if st.Pointer != nil {
		layer.SetPointer(st.Pointer[0], st.Pointer[1])
	}
	moved := st.Resize != nil
	if st.Center != nil {
		vp.center = tilescene.LatLon{Lat: st.Center[0], Lon: st.Center[1]}
		moved = true
	}
	if st.Zoom != nil {
		vp.SetZoom(*st.Zoom)
		moved = true
	}
	if st.Angle != nil {
		vp.angle = *st.Angle
		moved = true
	}
	if !moved {
		return nil
	}
	return layer.SetVisibleTiles(vp.VisibleTiles())
}
