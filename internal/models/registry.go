package models

import (
	"context"
	"sync"
)

// FileURLGenerator resolves a stored media path to a URL
type FileURLGenerator interface {
	URL(ctx context.Context, path string) (string, error)
}

var (
	urlGenerator FileURLGenerator
	registryMu   sync.RWMutex
)

// RegisterFileURLGenerator sets the URL generator for media rows
func RegisterFileURLGenerator(generator FileURLGenerator) {
	registryMu.Lock()
	defer registryMu.Unlock()
	urlGenerator = generator
}
