// Package server is the HTTP front end: it turns a request path into a
// pipeline request, runs it behind the concurrency gate and renders the
// result. The accept loop never runs pipeline work; fasthttp hands every
// request its own goroutine.
package server

import (
	"errors"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"imgsizer/internal/gate"
	"imgsizer/internal/global"
	"imgsizer/internal/pipeline"
)

func New(gCtx global.Context) <-chan struct{} {
	g := gate.New(gCtx.Config().Server.Concurrency)

	srv := fasthttp.Server{
		Name:    "imgsizer",
		GetOnly: true,
		Handler: func(ctx *fasthttp.RequestCtx) {
			handle(gCtx, g, ctx)
		},
	}

	done := make(chan struct{})

	go func() {
		defer close(done)
		zap.S().Infow("serving",
			"bind", gCtx.Config().Server.Bind,
			"image_dir", gCtx.Config().Server.ImageDir,
			"concurrency", g.Limit(),
		)

		if err := srv.ListenAndServe(gCtx.Config().Server.Bind); err != nil {
			zap.S().Fatalw("failed to bind server",
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

func handle(gCtx global.Context, g *gate.Gate, ctx *fasthttp.RequestCtx) {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Errorw("panic in handler",
				"panic", err,
			)
			ctx.Error("internal error", fasthttp.StatusInternalServerError)
		}
	}()

	spec, image, encoding, err := parsePath(string(ctx.Path()))
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusBadRequest)
		return
	}

	// The image segment must name a file directly inside the image dir.
	if escapes(image) {
		ctx.Error("not found", fasthttp.StatusNotFound)
		return
	}

	requestID := uuid.New().String()

	// Admission waits are bounded by process shutdown, not by the client
	// connection; a dropped connection does not preempt the wait.
	if err := g.Acquire(gCtx); err != nil {
		zap.S().Debugw("request abandoned before admission",
			"request_id", requestID,
			"error", err,
		)
		return
	}
	defer g.Release()

	out, err := pipeline.Process(gCtx, pipeline.Request{
		ID:       requestID,
		Source:   filepath.Join(gCtx.Config().Server.ImageDir, image),
		Spec:     spec,
		Encoding: encoding,
	})
	if err != nil {
		renderError(ctx, requestID, err)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.Response.Header.SetContentType(out.Encoding.Mime())
	ctx.Response.Header.Set(fasthttp.HeaderContentDisposition, `inline; filename="`+out.Name+`"`)
	ctx.Response.Header.Set(fasthttp.HeaderETag, `"`+out.ETag+`"`)
	ctx.SetBody(out.Bytes)
}

func renderError(ctx *fasthttp.RequestCtx, requestID string, err error) {
	zap.S().Errorw("request failed",
		"request_id", requestID,
		"error", err,
	)

	if errors.Is(err, pipeline.ErrNotFound) {
		ctx.Error("not found", fasthttp.StatusNotFound)
		return
	}

	var rerr *pipeline.ResizeError
	if errors.As(err, &rerr) {
		ctx.Error(rerr.Message, fasthttp.StatusInternalServerError)
		return
	}

	ctx.Error("internal error", fasthttp.StatusInternalServerError)
}
