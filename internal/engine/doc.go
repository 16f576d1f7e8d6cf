// Package engine orchestrates the loom generation pipeline.
//
// One Engine instance owns its template registry, rule set, and both cache
// tiers. The pipeline per generation call is linear, with no branching back:
//
//	Stored -> Resolved -> Composed -> Dynamic-Fielded -> [cached] ->
//	Choice-Filtered -> Emitted
//
// Rule processing (ProcessEvent) is the separate post-stage the surrounding
// orchestrator runs on emitted events.
//
// Every stage degrades to "skip and continue" on missing or invalid input.
// The single exception is an unknown template id at generation time, which
// terminates the pipeline by returning nil.
//
// CONCURRENCY: the engine is single-owner. Generation is synchronous and
// sub-millisecond; callers fanning out across workers own one engine (with
// its own registry, rules, and caches) per worker, so no locking protocol
// exists here. Registry and rule mutations are expected between generation
// bursts, not concurrently with them.
package engine
