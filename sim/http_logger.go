package sim

// based on https://github.com/unrolled/logger, but expanded to optionally
// dump the req/resp body

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// HTTPLogger can be used to log http requests
type HTTPLogger struct {
	entry *log.Entry
	dump  bool
}

// NewHTTPLogger returns a http logger. With dump set the request and
// response bodies are logged too.
func NewHTTPLogger(component string, dump bool) *HTTPLogger {
	return &HTTPLogger{
		entry: log.WithField("component", component),
		dump:  dump,
	}
}

// Handler wraps an HTTP handler and logs the request as necessary.
func (l *HTTPLogger) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody []byte
		if l.dump && r.Body != nil {
			buf, err := io.ReadAll(r.Body)
			if err == nil {
				reqBody = buf
				r.Body = io.NopCloser(bytes.NewBuffer(buf))
			}
		}

		start := time.Now()
		crw := newCustomResponseWriter(w, l.dump)
		next.ServeHTTP(crw, r)

		e := l.entry.WithFields(log.Fields{
			"remote":   r.RemoteAddr,
			"method":   r.Method,
			"uri":      r.RequestURI,
			"status":   crw.status,
			"size":     crw.size,
			"duration": time.Since(start),
		})
		if l.dump {
			e = e.WithFields(log.Fields{
				"request":  string(reqBody),
				"response": crw.buf.String(),
			})
		}
		e.Debug("http request")
	})
}

type customResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
	dump   bool
	buf    bytes.Buffer
}

func (c *customResponseWriter) WriteHeader(status int) {
	c.status = status
	c.ResponseWriter.WriteHeader(status)
}

func (c *customResponseWriter) Write(b []byte) (int, error) {
	size, err := c.ResponseWriter.Write(b)
	if c.dump {
		c.buf.Write(b)
	}
	c.size += size
	return size, err
}

func (c *customResponseWriter) Flush() {
	if f, ok := c.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (c *customResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := c.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, fmt.Errorf("ResponseWriter does not implement the Hijacker interface")
}

func newCustomResponseWriter(w http.ResponseWriter, dump bool) *customResponseWriter {
	// When WriteHeader is not called, it's safe to assume the status will be 200.
	return &customResponseWriter{
		ResponseWriter: w,
		status:         200,
		dump:           dump,
	}
}
