// Package schema versions the persisted JSON documents of local records.
//
// Each stored document carries the version it was written with. On load the
// document is walked forward through a table of pure migrations keyed by the
// stored version, then normalised into the current domain type. Decoding never
// fails: missing arrays become empty, missing counters become 0, and a
// document that cannot be parsed at all is rebuilt from its indexed columns.
//
// Question document history:
//
//	v1  answer, nextReview/createdAt/updatedAt as epoch milliseconds,
//	    archived and favorite flags
//	v2  answer renamed correctAnswer, timestamps as RFC 3339 strings,
//	    tags, reviewHistory and reviewCount added
//	v3  archived replaced by status, favorite renamed isFavorite,
//	    errorType and lastReviewedAt added
package schema
