// Package content defines the plain-data records the loom engine operates
// on: templates, choices, conditions, rules, events, and the caller-supplied
// context.
//
// All records are JSON-compatible. Templates reference each other by string
// id only (extends, mixins, composition) - never by live pointer - so the
// resolver can linearize arbitrary graphs with a visited set instead of
// chasing object references.
//
// The package also provides the canonical JSON serialization used for
// generation-cache keys and golden snapshots. Canonical output is
// deterministic: object keys sorted, strings NFC-normalized, numbers
// rendered without redundant precision.
package content
