// Package types defines the cargo entity types, the Registry and Backend
// interfaces, configuration, and the standard error values shared by every
// cargohold package.
package types
