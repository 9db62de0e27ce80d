// Package quiz holds the question bank: the ordered, read-only sequence of
// question records that runs page through with the progress cursor.
//
// Records that cannot be sent as a Telegram quiz poll (too few or too many
// options, an answer letter that does not resolve to an option) are kept in
// the bank so cursor positions stay stable; Validate reports why, and the
// dispatcher skips them.
package quiz
