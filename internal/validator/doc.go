// Package validator implements the MediaValidator capability.
//
// It walks a job's source directory, classifies each file by content
// (never by extension) into valid media, non-media, or defective, and moves
// the latter two into their quarantine directories. Valid media stays in
// place for the metadata stage, so re-running over a classified directory
// moves nothing and reports the same counts.
package validator
