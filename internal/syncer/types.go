package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/phrazzld/errbook/internal/connectivity"
	"github.com/phrazzld/errbook/internal/domain"
)

var (
	// ErrOffline is returned by Flush while connectivity is lost.
	ErrOffline = errors.New("remote endpoint is offline")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("coordinator already started")
)

// Status is the coordinator's replication status.
type Status string

// Possible statuses
const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusError   Status = "error"
	StatusOffline Status = "offline"
)

// State is a snapshot of the coordinator.
type State struct {
	Status      Status     `json:"status"`
	LastSyncAt  *time.Time `json:"lastSyncAt,omitempty"`
	FailedCount int        `json:"failedCount"`

	// Connectivity is StateUnknown when no notifier is configured.
	Connectivity connectivity.State `json:"connectivity"`

	// Error describes the last failed or interrupted flush. It is cleared by
	// a fully successful one.
	Error string `json:"error,omitempty"`
}

// Result describes one flush request.
type Result struct {
	// Skipped is set when another flush was already running.
	Skipped bool   `json:"skipped"`
	Status  Status `json:"status"`
	Pushed  int    `json:"pushed"`
	Failed  int    `json:"failed"`
}

// BatchItem is one queued change in a remote batch.
type BatchItem struct {
	Operation domain.Operation `json:"operation"`
	RecordID  string           `json:"recordId"`
	Data      json.RawMessage  `json:"data"`
}

// Batch is the body of one remote push: every pending item of one entity type.
type Batch struct {
	Type  domain.EntityType `json:"type"`
	Items []BatchItem       `json:"items"`
}

// Transport delivers a batch to the remote endpoint. A nil error means the
// whole batch was accepted.
type Transport interface {
	Push(ctx context.Context, batch Batch) error
}

// ConnectivityNotifier reports reachability of the remote endpoint.
type ConnectivityNotifier interface {
	Current() connectivity.State
	Subscribe(fn func(connectivity.State)) (unsubscribe func())
}
