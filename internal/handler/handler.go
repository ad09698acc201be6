// Package handler contains the echo handlers for the inspection service.
// Handlers that send email are constructed with the mail client; the rest
// are package-level functions over the shared database handle.
package handler

import (
	"time"

	"inspection-service/pkg/config"
)

var (
	cacheCountTTL   time.Duration
	uploadDir       string
	uploadURLPrefix string
	uploadMaxBytes  int64
)

// Init stores the handler-level settings from config. Call once from main
// before registering routes.
func Init(cfg *config.Config) {
	cacheCountTTL = cfg.Redis.CountTTL
	uploadDir = cfg.Upload.Dir
	uploadURLPrefix = cfg.Upload.URLPrefix
	uploadMaxBytes = cfg.Upload.MaxBytes
}
