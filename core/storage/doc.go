// Package storage provides an abstraction layer for the composed-sheet
// archive: an object-storage bucket holding a revision of every sheet raster
// produced by a run, independent of the registry's asset store.
//
// It wraps the MinIO Go client to provide a simplified interface for the
// operations the archive needs. This abstraction supports both AWS S3 and
// self-hosted MinIO instances.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it
// easier to mock storage interactions for unit testing (as seen in
// core/storage/mocks).
//
// # Operations
//
//   - BucketExists: Verifies access to the archive bucket.
//   - MakeBucket: Creates the bucket on first use.
//   - PutObject: Uploads a sheet revision.
//   - GetObject: Retrieves a previously archived revision as a stream.
//
// Archiving is optional and controlled by Config.Enabled; a run with no
// archive configured skips this package entirely.
package storage
