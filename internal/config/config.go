package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Log       LogConfig       `mapstructure:"log" validate:"required"`
	Storage   StorageConfig   `mapstructure:"storage" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Sync      SyncConfig      `mapstructure:"sync" validate:"required"`
}

// ServerConfig contains the settings of the local collaborator API.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig contains logging settings. When File is set, logs are also
// written to a size-rotated file.
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

// StorageConfig contains embedded database settings.
type StorageConfig struct {
	Path string `mapstructure:"path" validate:"required"`
	// Timezone defines calendar-day boundaries for statistics. Empty means local time.
	Timezone string `mapstructure:"timezone"`
}

// Location resolves the configured timezone.
func (s StorageConfig) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// SchedulerConfig contains the review interval ladder.
type SchedulerConfig struct {
	IntervalsDays []int `mapstructure:"intervals_days" validate:"required,min=1,dive,gt=0"`
}

// SyncConfig contains replication settings. An empty Endpoint disables
// remote pushes; mutations still accumulate in the local queue.
type SyncConfig struct {
	Endpoint        string        `mapstructure:"endpoint" validate:"omitempty,url"`
	Interval        time.Duration `mapstructure:"interval" validate:"gt=0"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gt=0"`
	HealthURL       string        `mapstructure:"health_url" validate:"omitempty,url"`
	ProbeInterval   time.Duration `mapstructure:"probe_interval" validate:"gt=0"`
	TrackedEntities []string      `mapstructure:"tracked_entities" validate:"dive,oneof=wrong_question note"`
}

// Tracks reports whether mutations of the named entity type are queued.
func (s SyncConfig) Tracks(entityType string) bool {
	for _, t := range s.TrackedEntities {
		if t == entityType {
			return true
		}
	}
	return false
}
