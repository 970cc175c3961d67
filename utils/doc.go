// Package utils provides internal utility functions for the prognosis engine.
// This package is not intended to be imported by external code.
//
// It contains:
//   - Minute-of-day conversion and formatting
//   - The warning aggregator shared by the import, translation and ingestion
//     paths
package utils
