// Package service holds the local record services.
//
// QuestionService and NoteService keep the full record set in memory and are
// the only writers of the record tables. Every mutating call commits the
// record change and, when the entity type is sync-tracked, the matching
// mutation queue item in one SQLite transaction. The in-memory copy is
// replaced only after that transaction commits, so a failed write leaves the
// visible state untouched.
//
// Calls on an id the service does not know are no-ops that return a nil
// record and a nil error.
package service
