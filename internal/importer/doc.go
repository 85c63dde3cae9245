// Package importer turns a returned distribution archive into graded
// results: extraction, deduplication, anomaly detection, operator-driven
// resolution, and the final transform against the session's stored question
// mappings. Every step up to the final store write is side-effect free, so a
// failed import can simply be re-run.
package importer
