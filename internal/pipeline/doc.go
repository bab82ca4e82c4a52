// Package pipeline assembles the media pipeline from configuration: the
// three reference capabilities, the strategies and retry policy around them,
// and the run store that records every turn.
//
// Open takes the state-directory lock before touching the database, so two
// mediaflow processes never interleave turns against the same store.
package pipeline
