package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/woodline-crm/woodquota/internal/config"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the global logger: stdout always, plus a size-rotated
// file when one is configured.
func Setup(cfg config.Config) {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetLevel(log.InfoLevel)

	file := strings.TrimSpace(cfg.Log.File)
	if file == "" {
		log.SetOutput(os.Stdout)
		return
	}

	if dir := filepath.Dir(file); dir != "." && dir != "" {
		if errMkdir := os.MkdirAll(dir, 0755); errMkdir != nil {
			log.WithError(errMkdir).Warnf("create log dir %s failed, logging to stdout only", dir)
			log.SetOutput(os.Stdout)
			return
		}
	}

	rotated := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotated))
}
