package health

import (
	"os"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"imgsizer/internal/global"
)

func New(gCtx global.Context) <-chan struct{} {
	done := make(chan struct{})

	srv := fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			defer func() {
				if err := recover(); err != nil {
					zap.S().Errorw("panic in health",
						"panic", err,
					)
				}
			}()

			info, err := os.Stat(gCtx.Config().Server.ImageDir)
			if err != nil || !info.IsDir() {
				zap.S().Warnw("image directory is not available",
					"image_dir", gCtx.Config().Server.ImageDir,
					"error", err,
				)
				ctx.SetStatusCode(500)
			}
		},
	}

	go func() {
		defer close(done)
		zap.S().Infow("Health enabled",
			"bind", gCtx.Config().Health.Bind,
		)

		if err := srv.ListenAndServe(gCtx.Config().Health.Bind); err != nil {
			zap.S().Fatalw("failed to bind health",
				"error", err,
			)
		}
	}()

	go func() {
		<-gCtx.Done()

		_ = srv.Shutdown()
	}()

	return done
}
