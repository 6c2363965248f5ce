// Package manifest loads application descriptors from YAML, TOML or JSON
// files and injects them into the layout store.
package manifest
