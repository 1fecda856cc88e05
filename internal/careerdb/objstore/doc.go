// Package objstore provides the remote object store client used to share
// the career database between independent automation runs.
//
// The store holds exactly two keys that matter to the sync protocol: the
// database snapshot and its lock marker. Everything else (rendered site
// pages, cover letters) lives under separate prefixes and is written by
// higher layers through the same client.
//
// Three implementations are provided:
//
//   - S3: any S3-compatible bucket (the production backend)
//   - Dir: a plain directory, for shared-filesystem setups and local use
//   - Memory: an in-process fake for tests
//
// The contract is intentionally minimal: per-key put/get/delete/exists with
// whole-object writes. No conditional puts are assumed, which is why the
// lock layer above this one is advisory rather than fenced.
package objstore
