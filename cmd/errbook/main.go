// Package main implements the errbook command: an offline-first notebook of
// wrongly answered questions with spaced review and background replication.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
