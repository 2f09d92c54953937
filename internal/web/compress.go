package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
)

type BrotliConfig struct {
	Quality   int
	MinLength int
}

var DefaultBrotliConfig = BrotliConfig{
	Quality:   brotli.DefaultCompression,
	MinLength: 1024,
}

// brotliWriter buffers until MinLength bytes are written, then decides
// between compressing and passing through. WriteHeader is deferred until
// that decision so Content-Encoding can still be set.
type brotliWriter struct {
	http.ResponseWriter
	quality   int
	minLength int

	bw          *brotli.Writer
	buf         []byte
	status      int
	wroteHeader bool
}

func (w *brotliWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
}

func (w *brotliWriter) Write(p []byte) (int, error) {
	if w.bw != nil {
		return w.bw.Write(p)
	}
	if w.wroteHeader {
		return w.ResponseWriter.Write(p)
	}
	w.buf = append(w.buf, p...)
	if len(w.buf) >= w.minLength {
		w.start(true)
		if err := w.drain(); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Flush is called by streaming endpoints.
func (w *brotliWriter) Flush() {
	w.start(false)
	_ = w.drain()
	if w.bw != nil {
		_ = w.bw.Flush()
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *brotliWriter) start(compress bool) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	h := w.Header()
	if compress && h.Get("Content-Encoding") == "" && compressible(h.Get("Content-Type")) {
		h.Set("Content-Encoding", "br")
		h.Del("Content-Length")
		w.bw = brotli.NewWriterLevel(w.ResponseWriter, w.quality)
	}
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.ResponseWriter.WriteHeader(w.status)
}

func (w *brotliWriter) drain() error {
	if len(w.buf) == 0 {
		return nil
	}
	var err error
	if w.bw != nil {
		_, err = w.bw.Write(w.buf)
	} else {
		_, err = w.ResponseWriter.Write(w.buf)
	}
	w.buf = w.buf[:0]
	return err
}

func (w *brotliWriter) finish() error {
	w.start(false)
	if err := w.drain(); err != nil {
		return err
	}
	if w.bw != nil {
		return w.bw.Close()
	}
	return nil
}

func Brotli() func(http.Handler) http.Handler {
	return BrotliWithConfig(DefaultBrotliConfig)
}

func BrotliWithConfig(cfg BrotliConfig) func(http.Handler) http.Handler {
	if cfg.Quality < 0 || cfg.Quality > 11 {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkip(r) || !acceptsBrotli(r) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Add("Vary", "Accept-Encoding")
			bw := &brotliWriter{ResponseWriter: w, quality: cfg.Quality, minLength: cfg.MinLength}
			defer func() { _ = bw.finish() }()
			next.ServeHTTP(bw, r)
		})
	}
}

// shouldSkip returns true for requests that must stream unbuffered.
func shouldSkip(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		return true
	}
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// acceptsBrotli reports whether br is listed with a non-zero quality.
func acceptsBrotli(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		enc, params, _ := strings.Cut(part, ";")
		if !strings.EqualFold(strings.TrimSpace(enc), "br") {
			continue
		}
		for _, p := range strings.Split(params, ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
			if !ok || !strings.EqualFold(strings.TrimSpace(k), "q") {
				continue
			}
			q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil || q <= 0 {
				return false
			}
		}
		return true
	}
	return false
}

// compressible skips formats that are already compressed.
func compressible(contentType string) bool {
	switch {
	case strings.HasPrefix(contentType, "image/"),
		strings.HasPrefix(contentType, "application/vnd.openxmlformats"),
		strings.HasPrefix(contentType, "application/zip"):
		return false
	}
	return true
}
