package tilesheet

// DefaultChunkSize caps registry add/delete batch sizes when the
// configuration leaves the chunk size unset.
const DefaultChunkSize = 50

// Config holds configuration for the reconciliation run.
type Config struct {
	// Root is the local work directory holding per-family source images.
	Root string `mapstructure:"root" default:"work/tilesheets"`
	// LayerCapacity is the ring bound per layer; when the allocator's ring
	// reaches it, allocation moves to the next layer.
	LayerCapacity int `mapstructure:"layer_capacity" default:"64"`
	// ChunkSize caps how many tile additions or deletions are sent to the
	// registry in one call.
	ChunkSize int `mapstructure:"chunk_size" default:"50"`
	// Optimizer is an external command run on each composed sheet before
	// upload (e.g. optipng). Empty disables optimization.
	Optimizer string `mapstructure:"optimizer" default:""`
	// Comment is attached to registry asset uploads.
	Comment string `mapstructure:"comment" default:"Updated tilesheet"`
}
