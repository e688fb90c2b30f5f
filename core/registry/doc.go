// Package registry provides the client for the authoritative remote tile
// registry: the store of tile name → position → id assignments for every
// tilesheet family, plus the asset store for composed sheet images.
//
// # Client Interface
//
// The Client interface abstracts the registry API, making it easy to mock
// registry interactions for unit testing (see core/registry/mocks). The
// concrete implementation speaks the registry's JSON API over HTTP with
// bearer-token authentication.
//
// # Responsibilities
//
// The client owns authentication, tile-listing pagination, and per-request
// timeouts. It does NOT own batching or retry policy: callers submit
// already-chunked AddTiles/DeleteTiles batches, and upload-warning
// negotiation (resume via FileKey, single ignore-warnings retry) is driven
// by the caller from the classified UploadResult.
package registry
