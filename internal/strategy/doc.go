// Package strategy decides who speaks next and when a job is finished.
//
// Sequential walks a fixed capability chain, restarting at the head after
// each seed and after the chain's last stage. Approval stops a job when the
// latest message signals that no further work is needed, when the latest
// turn failed, or when the iteration ceiling is reached.
package strategy
