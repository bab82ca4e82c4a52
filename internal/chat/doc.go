// Package chat holds the shared transcript the orchestrator appends to: one
// seed message per job followed by one message per completed turn.
//
// Messages are immutable once appended and History never reorders them.
// Content uses the "<AUTHOR> > <body>" convention so transcripts stay
// readable when printed or persisted.
package chat
