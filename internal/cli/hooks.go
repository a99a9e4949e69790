package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/seqrender/seqrender/pkg/observability"
)

// logHooks reports pipeline and cache events to the diagnostic logger at
// debug level. Registered by --debug.
type logHooks struct {
	logger *log.Logger
}

func registerLogHooks(l *log.Logger) {
	h := logHooks{logger: l}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
}

func (h logHooks) OnRenderStart(_ context.Context, file string) {
	h.logger.Debug("render start", "file", file)
}

func (h logHooks) OnRenderComplete(_ context.Context, file string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "file", file, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	h.logger.Debug("render done", "file", file, "duration", d.Round(time.Millisecond))
}

func (h logHooks) OnArtifactWritten(_ context.Context, format, path string, size int) {
	h.logger.Debug("wrote artifact", "format", format, "path", path, "bytes", size)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

var (
	_ observability.PipelineHooks = logHooks{}
	_ observability.CacheHooks    = logHooks{}
)
