package middleware

import (
    "bytes"
    "context"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/cardbook/crm-frontend/internal/config"
)

// ResponseCache caches successful JSON GET responses in Redis for cfg.TTL.
// It is applied only to the public pricing routes: plans are identical for
// every visitor and change rarely, so a short shared TTL removes most of
// the backend round trips.  Anything session-dependent must never go
// through this.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error { return next(c) }
        }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if c.Request().Method != http.MethodGet {
                return next(c)
            }
            key := cfg.Prefix + ":" + c.Request().URL.RequestURI()
            ctx := c.Request().Context()

            if body, err := rdb.Get(ctx, key).Bytes(); err == nil {
                c.Response().Header().Set("X-Cache", "HIT")
                return c.JSONBlob(http.StatusOK, body)
            }

            rec := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if rec.status == http.StatusOK && rec.buf.Len() > 0 {
                // Write-behind with a detached context: the response is
                // already out, a failed cache fill is not the client's
                // problem.
                _ = rdb.SetEx(context.WithoutCancel(ctx), key, rec.buf.Bytes(), cfg.TTL).Err()
            }
            return nil
        }
    }
}

// captureWriter tees the response body so a successful payload can be
// stored after it has been sent.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
}

func (w *captureWriter) WriteHeader(status int) {
    w.status = status
    w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(b []byte) (int, error) {
    if w.status == http.StatusOK {
        w.buf.Write(b)
    }
    return w.ResponseWriter.Write(b)
}
