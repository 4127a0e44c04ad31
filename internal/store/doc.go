// Package store defines interfaces for local persistence: question and note
// records, the durable mutation queue and scalar sync metadata. The
// interfaces keep the record services independent of the embedded database
// that implements them.
package store
