package tilesheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"tilesheet-manager/core/imaging"
	"tilesheet-manager/core/registry"
	"tilesheet-manager/core/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Inspection list names, regenerated under the work root each run.
const (
	AdditionsList = "additions.txt"
	MissingList   = "missing.txt"
	ToDeleteList  = "todelete.txt"
)

// ErrAborted is returned when the human declines the confirmation gate. No
// side effects have been committed at that point.
var ErrAborted = errors.New("reconciliation aborted at confirmation gate")

// errStructural marks an upload response outside the registry's contract.
var errStructural = errors.New("unrecognized registry upload response")

// Manager drives one reconciliation run: import the registry's tile table,
// diff it against the local source directory, gate on human confirmation,
// then compose and publish the updated sheets and registry deltas. All
// mutation happens on the calling goroutine; once past the gate the run
// proceeds to completion.
type Manager struct {
	family  string
	cfg     Config
	log     *zap.Logger
	reg     registry.Client
	archive storage.Client
	bucket  string
	ws      *Workspace
	confirm Confirmer
	opt     Optimizer

	alloc    *Allocator
	renames  Renames
	tiles    map[string]*Tile
	sheets   []*Sheet
	added    []string
	missing  map[string]struct{}
	deleted  []int64
	newTiles []registry.TileEntry
}

// ManagerOptions bundles the collaborators for one run.
type ManagerOptions struct {
	// Family is the tilesheet family to reconcile.
	Family string
	// Config holds run parameters (work root, chunk size, layer capacity).
	Config Config
	// Logger receives structured progress and error events.
	Logger *zap.Logger
	// Registry is the authoritative remote tile registry.
	Registry registry.Client
	// Archive, when non-nil, receives a copy of every composed sheet.
	Archive storage.Client
	// ArchiveBucket is the archive bucket name.
	ArchiveBucket string
	// Confirmer is the human decision channel.
	Confirmer Confirmer
	// Optimizer post-processes composed sheet files. Nil disables it.
	Optimizer Optimizer
}

// NewManager creates a Manager for one reconciliation run. Managers are
// single-use; allocator and diff state belong to the run.
func NewManager(opts ManagerOptions) *Manager {
	opt := opts.Optimizer
	if opt == nil {
		opt = NewNopOptimizer()
	}
	return &Manager{
		family:  opts.Family,
		cfg:     opts.Config,
		log:     opts.Logger.With(zap.String("family", opts.Family), zap.String("run_id", uuid.NewString())),
		reg:     opts.Registry,
		archive: opts.Archive,
		bucket:  opts.ArchiveBucket,
		ws:      NewWorkspace(opts.Config.Root, opts.Family),
		confirm: opts.Confirmer,
		opt:     opt,
		alloc:   NewAllocator(opts.Config.LayerCapacity),
		tiles:   make(map[string]*Tile),
		missing: make(map[string]struct{}),
	}
}

// Run executes the full reconciliation pipeline.
func (m *Manager) Run(ctx context.Context) error {
	renames, err := LoadRenames(m.ws.RenamesPath())
	if err != nil {
		return fmt.Errorf("failed to load renames: %w", err)
	}
	m.renames = renames

	m.log.Info("importing registry state")
	if err := m.importState(ctx); err != nil {
		return err
	}
	m.log.Info("scanning local inventory")
	if err := m.scanInventory(); err != nil {
		return err
	}
	if err := m.confirmGate(); err != nil {
		return err
	}
	if err := m.applyDeletions(); err != nil {
		return err
	}
	m.log.Info("composing sheets")
	if err := m.compose(); err != nil {
		return err
	}
	m.log.Info("saving and publishing")
	if err := m.finalize(ctx); err != nil {
		return err
	}
	m.log.Info("done",
		zap.Int("added", len(m.newTiles)),
		zap.Int("deleted", len(m.deleted)),
	)
	return nil
}

// importState loads the family's sizes and tile table from the registry,
// prompting to create the family when it does not exist yet, and seeds the
// allocator and the missing set. Existing sheet rasters are loaded so prior
// pixel content carries over.
func (m *Manager) importState(ctx context.Context) error {
	families, err := m.reg.ListFamilies(ctx)
	if err != nil {
		return fmt.Errorf("failed to list families: %w", err)
	}
	var sizes []int
	for _, f := range families {
		if f.Name == m.family {
			sizes = f.Sizes
			break
		}
	}
	if sizes == nil {
		line, err := m.confirm.ReadLine(fmt.Sprintf("Family %q is not registered. Enter comma-separated sheet sizes to create it:", m.family))
		if err != nil {
			return err
		}
		sizes, err = parseSizes(line)
		if err != nil {
			return err
		}
		if err := m.reg.CreateFamily(ctx, m.family, sizes); err != nil {
			return err
		}
		m.log.Info("created family", zap.Ints("sizes", sizes))
	}

	for _, size := range sizes {
		sheet, err := NewSheet(size)
		if err != nil {
			return err
		}
		if err := m.loadSheetLayers(ctx, sheet); err != nil {
			return err
		}
		m.sheets = append(m.sheets, sheet)
	}

	records, err := m.reg.ListTiles(ctx, m.family)
	if err != nil {
		return fmt.Errorf("failed to list tiles: %w", err)
	}
	for _, r := range records {
		pos := TilePos{X: r.X, Y: r.Y, Z: r.Z}
		m.tiles[r.Name] = &Tile{Name: r.Name, Pos: pos, ID: r.ID}
		m.alloc.Claim(r.Name, pos)
		m.missing[r.Name] = struct{}{}
	}
	m.log.Info("imported registry state", zap.Int("tiles", len(records)), zap.Ints("sizes", sizes))
	return nil
}

// loadSheetLayers resumes a sheet from prior output: each layer comes from
// the local work directory, falling back to the registry's asset store.
func (m *Manager) loadSheetLayers(ctx context.Context, sheet *Sheet) error {
	for z := 0; ; z++ {
		path := m.ws.SheetPath(sheet.Size(), z)
		raw, err := imaging.Load(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return err
			}
			data, dlErr := m.reg.DownloadAsset(ctx, filepath.Base(path))
			if dlErr != nil {
				return fmt.Errorf("failed to download %s: %w", filepath.Base(path), dlErr)
			}
			if data == nil {
				return nil
			}
			raw, err = imaging.Decode(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
		}
		if err := sheet.SetLayer(z, imaging.ToNRGBA(raw)); err != nil {
			return err
		}
	}
}

// scanInventory walks the local sources once to compute the added and
// missing sets. Illegal names are fatal before anything is allocated.
func (m *Manager) scanInventory() error {
	paths, err := m.ws.ScanSources()
	if err != nil {
		return err
	}
	seen := make(map[string]struct{})
	for _, path := range paths {
		name, keep := m.renames.Resolve(Stem(path))
		if !keep {
			continue
		}
		if err := CheckName(name); err != nil {
			return err
		}
		delete(m.missing, name)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if _, known := m.tiles[name]; !known {
			m.added = append(m.added, name)
		}
	}
	m.log.Info("scanned local inventory",
		zap.Int("files", len(paths)),
		zap.Int("added", len(m.added)),
		zap.Int("missing", len(m.missing)),
	)
	return nil
}

// confirmGate persists the diff for inspection and blocks until the human
// acknowledges. Declining leaves the registry untouched.
func (m *Manager) confirmGate() error {
	if err := m.ws.WriteList(AdditionsList, m.added); err != nil {
		return err
	}
	missingNames := make([]string, 0, len(m.missing))
	for name := range m.missing {
		missingNames = append(missingNames, name)
	}
	sort.Strings(missingNames)
	if err := m.ws.WriteList(MissingList, missingNames); err != nil {
		return err
	}
	if err := m.ws.WriteList(ToDeleteList, nil); err != nil {
		return err
	}
	ok, err := m.confirm.Acknowledge(fmt.Sprintf(
		"Review %s and %s, list tiles to delete in %s, then type 'continue' to proceed:",
		m.ws.ListPath(AdditionsList), m.ws.ListPath(MissingList), m.ws.ListPath(ToDeleteList)))
	if err != nil {
		return err
	}
	if !ok {
		return ErrAborted
	}
	return nil
}

// applyDeletions records the registry ids of the human-listed tiles and
// frees their positions. An unknown name is reported and skipped; it must
// not sink the rest of the batch.
func (m *Manager) applyDeletions() error {
	names, err := m.ws.ReadList(ToDeleteList)
	if err != nil {
		return err
	}
	for _, name := range names {
		t, ok := m.tiles[name]
		if !ok {
			m.log.Error("cannot delete unknown tile", zap.String("tile", name))
			continue
		}
		m.deleted = append(m.deleted, t.ID)
		m.alloc.Free(name)
		delete(m.tiles, name)
	}
	if len(m.deleted) > 0 {
		m.log.Info("marked tiles for deletion", zap.Int("count", len(m.deleted)))
	}
	return nil
}

// compose re-walks the sources, resolves every tile's position, and inserts
// the resampled tile into every sheet. Files are processed strictly one at a
// time; the allocator cursor and the sheet buffers are not safe for
// concurrent mutation.
func (m *Manager) compose() error {
	paths, err := m.ws.ScanSources()
	if err != nil {
		return err
	}
	for _, path := range paths {
		name, keep := m.renames.Resolve(Stem(path))
		if !keep {
			continue
		}
		if err := CheckName(name); err != nil {
			return err
		}
		raw, err := imaging.Load(path)
		if err != nil {
			m.log.Error("failed to decode tile", zap.String("path", path), zap.Error(err))
			continue
		}
		img := imaging.DecodeSRGB(raw)
		imaging.CorrectTranslucency(img)

		pos := m.alloc.Allocate(name)
		if _, known := m.tiles[name]; !known {
			m.tiles[name] = &Tile{Name: name, Pos: pos}
			m.newTiles = append(m.newTiles, registry.TileEntry{Name: name, X: pos.X, Y: pos.Y, Z: pos.Z})
		}
		for _, sheet := range m.sheets {
			if err := sheet.Insert(pos, img); err != nil {
				return fmt.Errorf("failed to insert %q at %s: %w", name, pos, err)
			}
		}
	}
	return nil
}

// finalize saves and publishes every sheet layer, then hands the registry
// its delta in fixed-size chunks. Per-chunk and per-asset failures are
// logged and the remaining work continues; only a contract violation from
// the upload collaborator aborts.
func (m *Manager) finalize(ctx context.Context) error {
	for _, sheet := range m.sheets {
		for z := 0; z < sheet.LayerCount(); z++ {
			path := m.ws.SheetPath(sheet.Size(), z)
			if err := imaging.SavePNG(path, sheet.Layer(z)); err != nil {
				return err
			}
			if err := m.opt.Optimize(ctx, path); err != nil {
				m.log.Warn("optimizer failed, uploading unoptimized sheet", zap.String("path", path), zap.Error(err))
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			name := filepath.Base(path)
			if err := m.uploadAsset(ctx, name, data); err != nil {
				if errors.Is(err, errStructural) {
					return err
				}
				m.log.Error("failed to upload sheet", zap.String("asset", name), zap.Error(err))
			}
			if m.archive != nil {
				if err := storage.Archive(ctx, m.archive, m.bucket, m.family+"/"+name, data); err != nil {
					m.log.Error("failed to archive sheet", zap.String("asset", name), zap.Error(err))
				}
			}
		}
	}

	if err := m.writeTileList(); err != nil {
		return err
	}

	for _, batch := range chunk(m.newTiles, m.cfg.ChunkSize) {
		if err := m.reg.AddTiles(ctx, m.family, batch); err != nil {
			m.log.Error("failed to add tile chunk", zap.Int("size", len(batch)), zap.Error(err))
		}
	}
	for _, batch := range chunk(m.deleted, m.cfg.ChunkSize) {
		if err := m.reg.DeleteTiles(ctx, batch); err != nil {
			m.log.Error("failed to delete tile chunk", zap.Int("size", len(batch)), zap.Error(err))
		}
	}
	return nil
}

// uploadAsset drives the upload warning negotiation: at most one retry,
// resumed via the registry's filekey. The "exists" warning is resumed
// without asking since overwriting the previous sheet revision is the whole
// point; any other warning needs explicit human consent.
func (m *Manager) uploadAsset(ctx context.Context, name string, data []byte) error {
	req := registry.UploadRequest{Name: name, Data: data, Comment: m.cfg.Comment}
	for attempt := 0; ; attempt++ {
		res, err := m.reg.UploadAsset(ctx, req)
		if err != nil {
			return err
		}
		switch res.Status {
		case registry.UploadSuccess:
			return nil
		case registry.UploadError:
			for _, apiErr := range res.Errors {
				m.log.Error("registry rejected upload",
					zap.String("asset", name),
					zap.String("code", apiErr.Code),
					zap.String("info", apiErr.Info),
				)
			}
			return fmt.Errorf("upload of %q failed with %d errors", name, len(res.Errors))
		case registry.UploadWarning:
			if attempt >= 1 {
				return fmt.Errorf("upload of %q warned again after retry", name)
			}
			if !res.OnlyExists() {
				for _, code := range sortedKeys(res.Warnings) {
					m.log.Warn("upload warning",
						zap.String("asset", name),
						zap.String("code", code),
						zap.String("info", res.Warnings[code]),
					)
				}
				reply, err := m.confirm.ReadLine(fmt.Sprintf("Upload of %q warned (see log). Type 'y' to ignore and retry:", name))
				if err != nil {
					return err
				}
				if !strings.EqualFold(reply, "y") && !strings.EqualFold(reply, "yes") {
					return fmt.Errorf("upload of %q skipped after warnings", name)
				}
			}
			// The registry holds the data under the filekey; resume
			// instead of re-transferring.
			req.FileKey = res.FileKey
			req.IgnoreWarnings = true
			req.Data = nil
		default:
			return fmt.Errorf("%w: %q", errStructural, res.Status)
		}
	}
}

// writeTileList dumps the committed tile table for manual auditing.
func (m *Manager) writeTileList() error {
	tiles := make([]*Tile, 0, len(m.tiles))
	for _, t := range m.tiles {
		tiles = append(tiles, t)
	}
	sort.Slice(tiles, func(i, j int) bool {
		a, b := tiles[i].Pos, tiles[j].Pos
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	lines := make([]string, len(tiles))
	for i, t := range tiles {
		lines[i] = fmt.Sprintf("%d %d %d %s", t.Pos.X, t.Pos.Y, t.Pos.Z, t.Name)
	}
	return m.ws.WriteTileList(lines)
}

// chunk splits items into runs of at most size elements, preserving order.
func chunk[T any](items []T, size int) [][]T {
	if size < 1 {
		size = DefaultChunkSize
	}
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

// parseSizes parses a comma-separated list of sheet sizes.
func parseSizes(line string) ([]int, error) {
	var sizes []int
	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		size, err := strconv.Atoi(part)
		if err != nil || size < 1 {
			return nil, fmt.Errorf("invalid sheet size %q", part)
		}
		sizes = append(sizes, size)
	}
	if len(sizes) == 0 {
		return nil, errors.New("no sheet sizes given")
	}
	return sizes, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
