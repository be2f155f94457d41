package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/xyz-asif/citycare/internal/pkg/logger"
)

// LoggerConfig controls the request logger.
type LoggerConfig struct {
	LogRequestBody  bool
	LogResponseBody bool  // error responses are always logged
	MaxBodySize     int64 // max body size to capture, in bytes
	SkipPaths       []string
	Logger          *logger.Logger
}

func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		LogRequestBody:  true,
		LogResponseBody: false,
		MaxBodySize:     2048,
		SkipPaths:       []string{"/api/health", "/metrics"},
	}
}

func Logger() gin.HandlerFunc {
	return LoggerWithConfig(DefaultLoggerConfig())
}

// LoggerWithConfig logs one structured line per request. Only JSON request
// bodies are captured; multipart uploads are never read.
func LoggerWithConfig(config LoggerConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		contentType := c.GetHeader("Content-Type")

		var requestBody string
		if config.LogRequestBody && isJSON(contentType) && c.Request.Body != nil && c.Request.ContentLength > 0 {
			if c.Request.ContentLength > config.MaxBodySize {
				requestBody = "[body too large to log]"
			} else {
				bodyBytes, err := io.ReadAll(io.LimitReader(c.Request.Body, config.MaxBodySize))
				if err == nil {
					c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
					requestBody = sanitizeBody(bodyBytes)
				}
			}
		}

		writer := &limitedResponseWriter{
			ResponseWriter: c.Writer,
			maxSize:        config.MaxBodySize,
		}
		c.Writer = writer

		c.Next()

		status := writer.Status()
		zl := config.Logger
		if zl == nil {
			zl = logger.Default()
		}

		event := levelFor(zl.Zerolog(), status).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("size", formatSize(writer.size)).
			Str("ip", c.ClientIP())

		if q := c.Request.URL.RawQuery; q != "" {
			event = event.Str("query", truncateString(q, 100))
		}
		if strings.HasPrefix(contentType, "multipart/") {
			event = event.Str("body", "[multipart omitted]")
		} else if requestBody != "" {
			event = event.Str("body", requestBody)
		}
		if admin := c.GetString("adminSubject"); admin != "" {
			event = event.Str("admin", admin)
		}
		if writer.body.Len() > 0 && (config.LogResponseBody || status >= 400) {
			event = event.Str("response", truncateString(writer.body.String(), 500))
		}

		event.Msg(statusFlag(status))
	}
}

func levelFor(zl *zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= 500:
		return zl.Error()
	case status >= 400:
		return zl.Warn()
	default:
		return zl.Info()
	}
}

func statusFlag(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "SUCCESS"
	case status >= 300 && status < 400:
		return "REDIRECT"
	case status >= 400 && status < 500:
		return "CLIENT ERROR"
	case status >= 500:
		return "SERVER ERROR"
	default:
		return "UNKNOWN"
	}
}

// limitedResponseWriter captures at most maxSize bytes of the response.
type limitedResponseWriter struct {
	gin.ResponseWriter
	body    bytes.Buffer
	size    int64
	maxSize int64
}

func (w *limitedResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)

	if w.size+int64(len(b)) <= w.maxSize {
		w.body.Write(b[:n])
	}
	w.size += int64(n)

	return n, err
}

func (w *limitedResponseWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func isJSON(contentType string) bool {
	return strings.Contains(contentType, "application/json")
}

func formatSize(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%dB", bytes)
	} else if bytes < 1024*1024 {
		return fmt.Sprintf("%.1fKB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%.1fMB", float64(bytes)/(1024*1024))
}

func sanitizeBody(body []byte) string {
	if len(body) > 1024 {
		return "[body too large to log]"
	}

	var jsonData interface{}
	if json.Unmarshal(body, &jsonData) == nil {
		if formatted, err := json.Marshal(hideSensitiveFields(jsonData)); err == nil {
			return string(formatted)
		}
	}

	return truncateString(string(body), 200)
}

func hideSensitiveFields(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isSensitiveField(strings.ToLower(key)) {
				result[key] = "********"
			} else {
				result[key] = hideSensitiveFields(value)
			}
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = hideSensitiveFields(item)
		}
		return result
	default:
		return v
	}
}

func isSensitiveField(field string) bool {
	for _, s := range []string{"password", "token", "secret", "key", "auth", "credential"} {
		if strings.Contains(field, s) {
			return true
		}
	}
	return false
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
