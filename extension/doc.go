// Package extension provides run-time registries that allow the runtime to
// work with user-defined behavior types.
//
// The registries are normally modified through the public APIs under the
// root distalgo package, therefore most applications do not need to import
// this package directly.
package extension
