// Package content implements the ContentAnalyst capability.
//
// The analyst walks the organized tree, asks a Detector for object labels on
// every still image it has not analysed before, and appends one record per
// pass to a dated audit log under the log directory. Each line of a record
// carries the image's path relative to the target, its labels, and how long
// detection took:
//
//	2019/August/summer.jpg | beach, person | 1.2s
//
// Previously analysed files are remembered through an Index so repeated
// passes only pick up new arrivals. Transient detector failures abort the
// pass after flushing what was already analysed, leaving the retry policy to
// resume where it stopped.
package content
