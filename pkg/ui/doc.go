// Package ui renders fetch results and status lines for the terminal.
//
// Text output prints every tweet and then every user with fixed field
// labels, each entry followed by a separator line. JSON output prints one
// object per subject.
package ui
