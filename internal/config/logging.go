package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

type LoggerConfig struct {
	Level          string      `env:"LEVEL"         envDefault:"info"`   // trace|debug|info|warn|error
	Format         string      `env:"FORMAT"        envDefault:"auto"`   // auto|json|text|pretty
	Output         string      `env:"OUTPUT"        envDefault:"stdout"` // stdout|stderr|file|multi
	FilePath       string      `env:"FILE_PATH"`                         // required if Output=file or includes file
	FileMode       os.FileMode `env:"FILE_MODE"     envDefault:"0644"`
	ExtraFieldsRaw string      `env:"FIELDS"`                            // key1=val1,key2=val2
	OTELExporter   string      `env:"OTEL_EXPORTER" envDefault:"none"`   // none|otlp-http|otlp-grpc
	OTELEndpoint   string      `env:"OTEL_ENDPOINT"`

	file    io.Writer
	fileMut sync.Mutex
}

// Writer returns the combined log destination. Multiple configured
// outputs are fanned out through a single io.MultiWriter.
func (c *Config) Writer() io.Writer {
	writers := c.Writers()
	switch len(writers) {
	case 0:
		return os.Stdout
	case 1:
		return writers[0]
	default:
		return io.MultiWriter(writers...)
	}
}

// Writers returns a slice of io.Writer for multi-output support.
// LOG_OUTPUT examples:
//
//	stdout
//	stderr
//	file (uses LOG_FILE_PATH)
//	file:/var/log/canopyd.log
//	stdout,file             (comma-separated)
//	stdout,file:/tmp/canopyd.log,stderr
//
// Unknown tokens are ignored with a warning.
func (c *Config) Writers() []io.Writer {
	outputs := strings.TrimSpace(c.Logger.Output)
	if outputs == "" {
		return []io.Writer{os.Stdout}
	}
	parts := strings.Split(outputs, ",")
	writers := make([]io.Writer, 0, len(parts))
	seen := make(map[string]struct{})

	addWriter := func(key string, w io.Writer) {
		if w == nil {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		writers = append(writers, w)
	}

	for _, raw := range parts {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		lower := strings.ToLower(raw)
		// Support file:/path override syntax
		if strings.HasPrefix(lower, "file:") {
			path := strings.TrimPrefix(raw, "file:")
			w := c.openFile(path)
			addWriter("file:"+path, w)
			continue
		}
		switch lower {
		case "stdout":
			addWriter("stdout", os.Stdout)
		case "stderr":
			addWriter("stderr", os.Stderr)
		case "file":
			// Use configured FilePath
			if c.Logger.FilePath == "" {
				slog.Warn("LOG_OUTPUT includes 'file' but LOG_FILE_PATH not set; skipping")
				continue
			}
			w := c.openFile(c.Logger.FilePath)
			addWriter("file:"+c.Logger.FilePath, w)
		default:
			slog.Warn("unknown log output entry", "entry", raw)
		}
	}

	if len(writers) == 0 { // fallback
		return []io.Writer{os.Stdout}
	}
	return writers
}

// openFile opens or reuses a file writer.
func (c *Config) openFile(path string) io.Writer {
	if path == "" {
		return nil
	}
	// Reuse a single file handle; extend to a map if multiple distinct paths are needed.
	if c.Logger.file != nil && c.Logger.FilePath == path {
		return c.Logger.file
	}
	c.Logger.fileMut.Lock()
	defer c.Logger.fileMut.Unlock()
	if c.Logger.file != nil && c.Logger.FilePath == path {
		return c.Logger.file
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, c.Logger.FileMode)
	if err != nil {
		slog.Warn("cannot open file for log output", "path", path, "error", err)
		return nil
	}
	c.Logger.FilePath = path
	c.Logger.file = f
	return f
}

// ParseExtraFields parses ExtraFieldsRaw into a map.
func (lc *LoggerConfig) ParseExtraFields() map[string]string {
	res := make(map[string]string)
	if lc == nil || lc.ExtraFieldsRaw == "" {
		return res
	}
	pairs := strings.Split(lc.ExtraFieldsRaw, ",")
	for _, p := range pairs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		k := strings.TrimSpace(kv[0])
		v := strings.TrimSpace(kv[1])
		if k != "" {
			res[k] = v
		}
	}
	return res
}

func (lc *LoggerConfig) ParseLevel() string {
	if lc == nil {
		return "info"
	}
	lvl := strings.ToLower(strings.TrimSpace(lc.Level))
	switch lvl {
	case "trace", "debug", "info", "warn", "error":
		return lvl
	default:
		return "info"
	}
}

// Interface compliance helpers for logger.Options
func (c *Config) LogLevel() slog.Level {
	switch c.Logger.ParseLevel() {
	case "trace":
		return slog.Level(-8)
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) LogFormat() string              { return c.Logger.Format }
func (c *Config) OTELExporter() string           { return c.Logger.OTELExporter }
func (c *Config) OTELEndpoint() string           { return c.Logger.OTELEndpoint }
func (c *Config) ExtraFields() map[string]string { return c.Logger.ParseExtraFields() }
func (c *Config) ModeField() Mode                { return c.Mode }
