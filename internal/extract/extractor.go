package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"study-backend/internal/llm"
	"study-backend/internal/shared/metrics"
	"study-backend/internal/shared/storage/object"
	"study-backend/internal/shared/telemetry"
)

const defaultMaxFileBytes = 20 << 20

// Source describes the content of one job as the extractor sees it.
type Source struct {
	ImageDataURL    string
	FileURL         string
	NeedsExtraction bool
	Text            string
}

// RequiresProvider reports whether Extract will call the model to obtain text.
func (s Source) RequiresProvider() bool {
	return s.ImageDataURL != "" || (s.FileURL != "" && s.NeedsExtraction)
}

// Extractor turns a Source into normalized study text.
type Extractor struct {
	Store    object.ObjectStore
	Gateway  llm.Completer
	Bucket   string
	Cache    Cache
	CacheTTL time.Duration
	MaxBytes int64
}

// Extract applies, in order: inline image through the vision prompt, stored file pending
// extraction, and passthrough of the existing text.
func (e *Extractor) Extract(ctx context.Context, src Source) (string, error) {
	switch {
	case src.ImageDataURL != "":
		if !strings.HasPrefix(src.ImageDataURL, "data:image/") {
			return "", &ExtractionError{Source: SourceImage, Err: ErrInvalidImage}
		}
		return e.cached(ctx, SourceImage, src.ImageDataURL, func(ctx context.Context) (string, error) {
			text, err := e.Gateway.Complete(ctx, visionRequest(src.ImageDataURL))
			if err != nil {
				return "", &ExtractionError{Source: SourceImage, Err: err}
			}
			return text, nil
		})
	case src.FileURL != "" && src.NeedsExtraction:
		key := KeyFromURL(src.FileURL, e.Bucket)
		if key == "" {
			return "", &ExtractionError{Source: SourceFile, Err: fmt.Errorf("invalid file reference %q", src.FileURL)}
		}
		return e.cached(ctx, SourceFile, key, func(ctx context.Context) (string, error) {
			return e.extractFile(ctx, key)
		})
	default:
		return src.Text, nil
	}
}

func (e *Extractor) extractFile(ctx context.Context, key string) (string, error) {
	fail := func(err error) (string, error) {
		return "", &ExtractionError{Source: SourceFile, Key: key, Err: err}
	}

	ext := Extension(key)
	mime, isImage := ImageMIME(ext)
	if ext != "pdf" && !isImage {
		return fail(&UnsupportedFileTypeError{Ext: ext})
	}

	data, err := e.download(ctx, key)
	if err != nil {
		return fail(err)
	}

	var req llm.Request
	if isImage {
		req = visionRequest("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data))
	} else {
		layer, err := TextFromPDF(data)
		if err != nil {
			telemetry.Warn("extract.pdf_text_layer", map[string]any{"key": key, "err": err})
			layer = ""
		}
		req = documentRequest(path.Base(key), layer)
	}

	text, err := e.Gateway.Complete(ctx, req)
	if err != nil {
		return fail(err)
	}
	return text, nil
}

func (e *Extractor) download(ctx context.Context, key string) ([]byte, error) {
	if e.Store == nil {
		return nil, fmt.Errorf("failed to download file: no object store configured")
	}
	rc, err := e.Store.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer rc.Close()

	limit := e.MaxBytes
	if limit <= 0 {
		limit = defaultMaxFileBytes
	}
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file exceeds %d bytes", limit)
	}
	return data, nil
}

func (e *Extractor) cached(ctx context.Context, source, ref string, run func(context.Context) (string, error)) (string, error) {
	if e.Cache == nil {
		metrics.IncExtraction(false)
		return run(ctx)
	}
	key := CacheKey(source, ref)
	if text, ok, err := e.Cache.Get(ctx, key); err != nil {
		telemetry.Warn("extract.cache_get", map[string]any{"source": source, "err": err})
	} else if ok {
		metrics.IncExtraction(true)
		return text, nil
	}

	metrics.IncExtraction(false)
	text, err := run(ctx)
	if err != nil {
		return "", err
	}
	if err := e.Cache.Set(ctx, key, text, e.CacheTTL); err != nil {
		telemetry.Warn("extract.cache_set", map[string]any{"source": source, "err": err})
	}
	return text, nil
}
