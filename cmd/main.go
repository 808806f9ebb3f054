package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/bugsnag/panicwrap"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"imgsizer/container"
	"imgsizer/internal/configure"
	"imgsizer/internal/global"
	"imgsizer/internal/health"
	"imgsizer/internal/monitoring"
	"imgsizer/internal/pipeline"
	"imgsizer/internal/resize"
	"imgsizer/internal/server"
	"imgsizer/internal/svc/prometheus"
)

var (
	Version = "development"
	Unix    = ""
	Time    = "unknown"
	User    = "unknown"
)

var (
	flagWidth  = pflag.Int("width", 0, "Target width in pixels (convert)")
	flagHeight = pflag.Int("height", 0, "Target height in pixels (convert)")
	flagScale  = pflag.Float64("scale", 0, "Uniform scale factor (convert)")
)

func init() {
	debug.SetGCPercent(2000)
	if i, err := strconv.Atoi(Unix); err == nil {
		Time = time.Unix(int64(i), 0).Format(time.RFC3339)
	}
}

func main() {
	config := configure.New()

	exitStatus, err := panicwrap.BasicWrap(func(s string) {
		zap.S().Error("panic: ", s)
	})
	if err != nil {
		zap.S().Errorw("failed to setup panic handler: ",
			"error", err,
		)
		os.Exit(2)
	}

	if exitStatus >= 0 {
		os.Exit(exitStatus)
	}

	if !config.NoHeader {
		zap.S().Info("imgsizer")
		zap.S().Infof("Version: %s", Version)
		zap.S().Infof("build.Time: %s", Time)
		zap.S().Infof("build.User: %s", User)
	}

	zap.S().Debug("MaxProcs: ", runtime.GOMAXPROCS(0))

	validateEncodeConfig(config)

	args := pflag.Args()
	if len(args) == 0 {
		zap.S().Fatal("usage: imgsizer [flags] <server | convert SOURCE OUTPUT>")
	}

	switch args[0] {
	case "server":
		runServer(config)
	case "convert":
		runConvert(config, args[1:])
	default:
		zap.S().Fatalf("unknown command %q", args[0])
	}
}

func validateEncodeConfig(config *configure.Config) {
	if config.Encode.Quality < 1 || config.Encode.Quality > 100 {
		zap.S().Fatalf("quality %g out of range 1-100", config.Encode.Quality)
	}
	if config.Encode.Speed < 1 || config.Encode.Speed > 10 {
		zap.S().Fatalf("speed %d out of range 1-10", config.Encode.Speed)
	}
	if _, err := resize.ParseFilter(config.Encode.Filter); err != nil {
		zap.S().Fatalw("bad filter",
			"error", err,
		)
	}
}

func runServer(config *configure.Config) {
	if info, err := os.Stat(config.Server.ImageDir); err != nil || !info.IsDir() {
		zap.S().Fatalw("image dir is not a directory",
			"image_dir", config.Server.ImageDir,
			"error", err,
		)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	gCtx, cancel := global.WithCancel(global.New(context.Background(), config))

	gCtx.Inst().Prometheus = prometheus.New(prometheus.Options{
		Labels: config.Monitoring.Labels.ToPrometheus(),
	})

	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-server.New(gCtx)
	}()

	if gCtx.Config().Health.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-health.New(gCtx)
		}()
	}
	if gCtx.Config().Monitoring.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-monitoring.New(gCtx)
		}()
	}

	done := make(chan struct{})
	go func() {
		<-sig
		cancel()
		go func() {
			select {
			case <-time.After(time.Minute):
			case <-sig:
			}
			zap.S().Fatal("force shutdown")
		}()

		zap.S().Info("shutting down")

		wg.Wait()

		close(done)
	}()

	zap.S().Info("running")

	<-done

	zap.S().Info("shutdown")
	os.Exit(0)
}

func runConvert(config *configure.Config, args []string) {
	if len(args) != 2 {
		zap.S().Fatal("usage: imgsizer convert [flags] SOURCE OUTPUT")
	}
	source, output := args[0], args[1]

	var spec resize.Spec
	switch {
	case *flagScale > 0 && *flagWidth == 0 && *flagHeight == 0:
		spec = resize.Scale(*flagScale)
	case *flagScale == 0 && *flagWidth > 0 && *flagHeight > 0:
		spec = resize.WidthAndHeight(*flagWidth, *flagHeight)
	case *flagScale == 0 && *flagWidth > 0:
		spec = resize.Width(*flagWidth)
	case *flagScale == 0 && *flagHeight > 0:
		spec = resize.Height(*flagHeight)
	default:
		zap.S().Fatal("provide one or both of --width and --height, or only --scale")
	}

	encoding, err := outputEncoding(output)
	if err != nil {
		zap.S().Fatalw("bad output path",
			"error", err,
		)
	}

	gCtx := global.New(context.Background(), config)
	gCtx.Inst().Prometheus = prometheus.New(prometheus.Options{})

	out, err := pipeline.Process(gCtx, pipeline.Request{
		Source:   source,
		Spec:     spec,
		Encoding: encoding,
	})
	if err != nil {
		zap.S().Fatalw("conversion failed",
			"source", source,
			"error", err,
		)
	}

	begin := time.Now()
	if err := os.WriteFile(output, out.Bytes, 0644); err != nil {
		zap.S().Fatalw("failed to write output",
			"output", output,
			"error", err,
		)
	}

	zap.S().Debugw("wrote",
		"elapsed", time.Since(begin),
		"output", output,
		"kilobytes", float64(len(out.Bytes))/1024.0,
	)
}

// outputEncoding picks the encoder from the output extension. No extension
// means AVIF, the primary target.
func outputEncoding(output string) (container.Encoding, error) {
	ext := strings.ToLower(filepath.Ext(output))
	switch ext {
	case "", ".avif":
		return container.EncodingAVIF, nil
	case ".jpg", ".jpeg":
		return container.EncodingJPEG, nil
	default:
		return container.ParseEncoding(strings.TrimPrefix(ext, "."))
	}
}
