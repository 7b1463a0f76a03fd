package urn

import (
	"log/slog"
	"sync/atomic"
)

// Casing holds the dataset name casing rule. The zero value keeps names as given.
type Casing struct {
	lower atomic.Bool
}

func NewCasing(lower bool) *Casing {
	c := &Casing{}
	c.lower.Store(lower)
	return c
}

func (c *Casing) SetLower(lower bool) {
	if c == nil {
		return
	}
	if c.lower.Swap(lower) != lower {
		slog.Info("Dataset urn casing changed", "lower", lower)
	}
}

func (c *Casing) Lower() bool {
	if c == nil {
		return false
	}
	return c.lower.Load()
}

func (c *Casing) Reset() {
	c.SetLower(false)
}

var defaultCasing = &Casing{}

// DefaultCasing returns the process-wide casing settings. It is set once at run
// start from the metadata service config and reset with ResetDefault.
func DefaultCasing() *Casing {
	return defaultCasing
}

func ResetDefault() {
	defaultCasing.Reset()
}
