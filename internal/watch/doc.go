// Package watch triggers work when files land in an inbox directory.
//
// A Watcher subscribes to filesystem events with fsnotify, waits until the
// directory has been quiet for a configurable period, then invokes a callback
// once for the whole burst. Newly created subdirectories are added to the
// watch set so nested drops are noticed too.
package watch
