// Package model contains the in-memory representation of scenario
// definitions used by the runtime and the CLI.
//
// A scenario is typically loaded from a YAML document into the structures
// defined here and in the `state` sub-package, validated, and handed to the
// runtime's scenario runner.
package model
