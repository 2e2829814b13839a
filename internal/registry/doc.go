// Package registry provides Item Registry implementations.
//
// Manifest keeps installed add-ons in a YAML file and rewrites it on every
// status change; Memory keeps them in process and records every toggle.
// Both hide the host's own entry and any item whose kind is not the
// candidate kind.
package registry
