// Package scanner detects source-file modifications by comparing file
// modification times against a previously stored mapping. Walking the
// filesystem and diffing are separate steps so the comparison stays a pure
// function and persistence of the next mapping is an explicit caller step.
package scanner
