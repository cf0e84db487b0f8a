// Package ui provides terminal output components for the non-interactive
// inkwell commands.
//
// Components follow a "run once and exit" pattern. They render styled
// output but take no input, except Confirm.
//
//   - Header: command banner showing the operation name and parameters
//   - Progress: progress bar with a step list
//   - Result: success, warning and failure boxes
//   - TextBox: free text in a titled box
//
// Runner ties them together for batch commands such as `inkwell upload`:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:   "Upload",
//	    Command: "inkwell upload",
//	    Params:  []ui.Param{{Key: "Store", Value: store.BaseURL}},
//	})
//	err := runner.Run(ctx, tasks)
//
// The editor shares the colour palette and the styles in styles.go.
//
// Logging is controlled by INKWELL_LOG_LEVEL. When unset, zap is silent so
// the curated output is displayed cleanly.
package ui
