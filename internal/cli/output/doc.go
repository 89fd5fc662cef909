// Package output renders command results for supertracker-cli.
//
// Three formats are supported: an aligned table (the default), indented
// JSON and YAML. Structs are rendered through their json tags in every
// format, so the column names of a table match the keys of the JSON and
// YAML output.
package output
