package registry

import "context"

// Family describes one tilesheet family known to the registry and the output
// resolutions it is rendered at.
type Family struct {
	Name  string `json:"name"`
	Sizes []int  `json:"sizes"`
}

// TileRecord is one committed tile assignment as stored by the registry.
type TileRecord struct {
	Name string `json:"name"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Z    int    `json:"z"`
	ID   int64  `json:"id"`
}

// TileEntry is a not-yet-committed tile assignment submitted to the registry.
// The registry assigns the persistent ID.
type TileEntry struct {
	Name string `json:"name"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Z    int    `json:"z"`
}

// UploadStatus classifies the registry's response to an asset upload.
type UploadStatus string

const (
	// UploadSuccess means the asset was stored.
	UploadSuccess UploadStatus = "success"
	// UploadWarning means the registry held the upload pending confirmation.
	// The result carries a FileKey that resumes the upload without
	// re-transferring the data.
	UploadWarning UploadStatus = "warning"
	// UploadError means the registry rejected the upload.
	UploadError UploadStatus = "error"
)

// UploadRequest carries one asset upload. FileKey and IgnoreWarnings are set
// only on the single retry attempt after a warning.
type UploadRequest struct {
	Name           string
	Data           []byte
	Comment        string
	FileKey        string
	IgnoreWarnings bool
}

// UploadResult is the registry's classified response to an upload.
type UploadResult struct {
	Status   UploadStatus      `json:"result"`
	FileKey  string            `json:"filekey,omitempty"`
	Warnings map[string]string `json:"warnings,omitempty"`
	Errors   []APIError        `json:"errors,omitempty"`
}

// OnlyExists reports whether the result's warnings consist solely of the
// "asset already exists" warning. Overwriting an existing sheet is the
// intended operation, so this case is resumed without asking.
func (r *UploadResult) OnlyExists() bool {
	if len(r.Warnings) == 0 {
		return false
	}
	for code := range r.Warnings {
		if code != "exists" {
			return false
		}
	}
	return true
}

// APIError is a per-item error reported by the registry.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e APIError) Error() string {
	return e.Code + ": " + e.Info
}

// Client is the remote tile registry. Implementations own authentication,
// pagination, and request timeouts; callers own batching and retry policy.
type Client interface {
	// ListFamilies returns every tilesheet family the registry knows.
	ListFamilies(ctx context.Context) ([]Family, error)
	// CreateFamily registers a new family with the given output sizes.
	CreateFamily(ctx context.Context, name string, sizes []int) error
	// ListTiles returns every committed tile assignment for a family.
	ListTiles(ctx context.Context, family string) ([]TileRecord, error)
	// AddTiles commits a batch of new tile assignments.
	AddTiles(ctx context.Context, family string, tiles []TileEntry) error
	// DeleteTiles removes committed tiles by registry ID.
	DeleteTiles(ctx context.Context, ids []int64) error
	// DownloadAsset fetches a stored asset. A missing asset returns
	// (nil, nil).
	DownloadAsset(ctx context.Context, name string) ([]byte, error)
	// UploadAsset stores an asset, classifying the registry's response.
	UploadAsset(ctx context.Context, req UploadRequest) (*UploadResult, error)
}
