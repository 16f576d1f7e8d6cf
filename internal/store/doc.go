// Package store persists loom content in SQLite: the template catalog, the
// rule set, and an archive of generated events.
//
// The store is an external collaborator of the engine, not part of the
// generation pipeline. The engine's own registry and caches are in-memory
// and rebuilt per process; the CLI loads the catalog into an engine at
// startup and archives emitted events afterwards. Nothing here persists
// engine state across restarts.
package store
