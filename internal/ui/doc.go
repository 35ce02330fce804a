// Package ui renders pipeline output for the terminal with lipgloss styles.
//
//   - [RenderReport] : run summary with outcome counts and removal intents
//   - [RenderProgress] : one line per [tasks.ProgressUpdate]
//   - [ProgressPrinter] : a [tasks.ProgressFunc] writing rendered progress lines
//
// Dry runs are labelled in the warning color so a report can never be mistaken for an applied run.
package ui
