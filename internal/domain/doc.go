// Package domain contains the core entities of the wrong-question notebook:
// captured questions with their review history, notes with ordered blocks,
// and the mutations queued for replication to the remote system of record.
// It is independent of any storage engine or delivery mechanism.
package domain
