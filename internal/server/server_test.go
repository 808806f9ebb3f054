package server

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"imgsizer/container"
	"imgsizer/internal/configure"
	"imgsizer/internal/gate"
	"imgsizer/internal/global"
	"imgsizer/internal/svc/prometheus"
)

func testContext(t *testing.T, imageDir string) global.Context {
	t.Helper()

	config := &configure.Config{}
	config.Encode.Quality = 80
	config.Encode.Speed = 9
	config.Encode.Filter = "lanczos3"
	config.Server.ImageDir = imageDir
	config.Server.Concurrency = 4

	gCtx := global.New(context.Background(), config)
	gCtx.Inst().Prometheus = prometheus.New(prometheus.Options{})

	return gCtx
}

func writeFixture(t *testing.T, dir, name string, width, height int) {
	t.Helper()

	img := imaging.New(width, height, color.NRGBA{R: 120, G: 30, B: 200, A: 255})
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func doRequest(gCtx global.Context, g *gate.Gate, uri string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	ctx.Request.SetRequestURI(uri)

	handle(gCtx, g, ctx)

	return ctx
}

func TestHandleResize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFixture(t, dir, "box.png", 200, 100)

	gCtx := testContext(t, dir)
	g := gate.New(gCtx.Config().Server.Concurrency)

	ctx := doRequest(gCtx, g, "http://localhost/images/resized/scale/0.5/box.png/jpeg")

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, container.MimeJPEG, string(ctx.Response.Header.ContentType()))
	assert.Equal(t, `inline; filename="box.jpg"`, string(ctx.Response.Header.Peek(fasthttp.HeaderContentDisposition)))
	assert.NotEmpty(t, ctx.Response.Header.Peek(fasthttp.HeaderETag))

	decoded, err := imaging.Decode(bytes.NewReader(ctx.Response.Body()))
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Bounds().Dx())
	assert.Equal(t, 50, decoded.Bounds().Dy())
}

func TestHandleDefaultsToAVIF(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFixture(t, dir, "box.png", 64, 64)

	gCtx := testContext(t, dir)
	g := gate.New(gCtx.Config().Server.Concurrency)

	ctx := doRequest(gCtx, g, "http://localhost/images/resized/32/32/box.png")

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, container.MimeAVIF, string(ctx.Response.Header.ContentType()))
	assert.Equal(t, container.TypeAvif, container.Match(ctx.Response.Body()))
}

func TestHandleMissingImage(t *testing.T) {
	t.Parallel()

	gCtx := testContext(t, t.TempDir())
	g := gate.New(gCtx.Config().Server.Concurrency)

	ctx := doRequest(gCtx, g, "http://localhost/images/resized/width/100/absent.png/jpeg")

	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	assert.Equal(t, "not found", string(ctx.Response.Body()))
}

func TestHandleBadPath(t *testing.T) {
	t.Parallel()

	gCtx := testContext(t, t.TempDir())
	g := gate.New(gCtx.Config().Server.Concurrency)

	ctx := doRequest(gCtx, g, "http://localhost/images/resized/abc/def/box.png")
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

	ctx = doRequest(gCtx, g, "http://localhost/somewhere/else")
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestHandleInvalidDimensions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFixture(t, dir, "box.png", 64, 64)

	gCtx := testContext(t, dir)
	g := gate.New(gCtx.Config().Server.Concurrency)

	// Parses fine, fails spec validation; no pipeline stage runs.
	ctx := doRequest(gCtx, g, "http://localhost/images/resized/0/100/box.png/jpeg")
	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "positive")
}

// Admission must select on the process context; a RequestCtx outside a
// served connection has no usable Done channel.
func TestHandleWaitsForPermit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFixture(t, dir, "box.png", 64, 64)

	gCtx := testContext(t, dir)
	g := gate.New(1)

	require.NoError(t, g.Acquire(context.Background()))
	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Release()
	}()

	ctx := doRequest(gCtx, g, "http://localhost/images/resized/32/32/box.png/jpeg")

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
}

func TestServerLifecycle(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "box.png", 80, 40)

	gCtx := testContext(t, dir)
	gCtx.Config().Server.Bind = "127.0.0.1:13417"

	gCtx, cancel := global.WithCancel(gCtx)

	done := New(gCtx)

	time.Sleep(time.Millisecond * 50)

	resp, err := http.Get("http://127.0.0.1:13417/images/resized/width/40/box.png/jpeg")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, container.MimeJPEG, resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, body)

	cancel()

	<-done
}
