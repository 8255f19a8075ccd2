package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

const brotliMinLength = 1024

// Brotli compresses response bodies for clients that advertise "br" in
// Accept-Encoding. Bodies under a kilobyte are sent as-is since the
// compression header overhead outweighs the savings at that size.
func Brotli() gin.HandlerFunc {
	return BrotliLevel(brotli.DefaultCompression, brotliMinLength)
}

// BrotliLevel is Brotli with an explicit quality (0..11) and minimum
// body length in bytes.
func BrotliLevel(quality, minLength int) gin.HandlerFunc {
	if quality < brotli.BestSpeed || quality > brotli.BestCompression {
		quality = brotli.DefaultCompression
	}
	if minLength <= 0 {
		minLength = brotliMinLength
	}

	return func(c *gin.Context) {
		if passthrough(c) || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		w := &brotliWriter{
			ResponseWriter: c.Writer,
			br:             brotli.NewWriterLevel(c.Writer, quality),
			minLength:      minLength,
		}
		c.Writer = w
		defer func() {
			if err := w.finish(); err != nil {
				_ = c.Error(err)
			}
		}()

		c.Next()
	}
}

// brotliWriter buffers the body until it knows whether the response is
// worth compressing. Small responses are written through uncompressed.
type brotliWriter struct {
	gin.ResponseWriter
	br        *brotli.Writer
	buf       []byte
	minLength int
	headerSet sync.Once
	encoding  bool
}

func (w *brotliWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	if len(w.buf) < w.minLength {
		return len(p), nil
	}

	w.headerSet.Do(func() {
		w.encoding = true
		w.ResponseWriter.Header().Set("Content-Encoding", "br")
		w.ResponseWriter.Header().Del("Content-Length")
	})
	n, err := w.br.Write(w.buf)
	w.buf = w.buf[:0]
	return n, err
}

func (w *brotliWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Flush supports streaming handlers. Anything still buffered goes out
// uncompressed, since a partial brotli stream cannot be decoded.
func (w *brotliWriter) Flush() {
	if len(w.buf) > 0 {
		_, _ = w.ResponseWriter.Write(w.buf)
		w.buf = w.buf[:0]
	}
	w.ResponseWriter.Flush()
}

func (w *brotliWriter) finish() error {
	if len(w.buf) > 0 {
		if _, err := w.ResponseWriter.Write(w.buf); err != nil {
			return err
		}
		w.buf = nil
	}
	if w.encoding {
		return w.br.Close()
	}
	return nil
}

// passthrough reports protocols that must not be wrapped or buffered.
func passthrough(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		return true
	}
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		if strings.TrimSpace(strings.ToLower(enc)) == "br" {
			return true
		}
	}
	return false
}
