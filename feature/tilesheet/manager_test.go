package tilesheet

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"tilesheet-manager/core/imaging"
	"tilesheet-manager/core/registry"
	"tilesheet-manager/core/registry/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// funcConfirmer scripts the human decision channel. The ack hook runs while
// the manager is blocked at the gate, which is when a real operator would
// edit the to-delete list.
type funcConfirmer struct {
	ack  func(prompt string) (bool, error)
	read func(prompt string) (string, error)
}

func (c *funcConfirmer) Acknowledge(prompt string) (bool, error) {
	if c.ack == nil {
		return true, nil
	}
	return c.ack(prompt)
}

func (c *funcConfirmer) ReadLine(prompt string) (string, error) {
	if c.read == nil {
		return "", errors.New("unexpected prompt: " + prompt)
	}
	return c.read(prompt)
}

func writeTilePNG(t *testing.T, path string, c color.NRGBA, size int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func newTestManager(root, family string, reg registry.Client, confirm Confirmer) *Manager {
	return NewManager(ManagerOptions{
		Family:    family,
		Config:    Config{Root: root, LayerCapacity: DefaultLayerCapacity, ChunkSize: DefaultChunkSize},
		Logger:    zap.NewNop(),
		Registry:  reg,
		Confirmer: confirm,
	})
}

func stubSheetAssets(reg *mocks.Client) {
	reg.On("DownloadAsset", mock.Anything, mock.Anything).Return(nil, nil)
}

// TestManager_DiffSets verifies the added/missing computation: registry
// tiles {A,B,C} against local files {A,C,D} yields added={D}, missing={B}.
// The run is declined at the gate, so nothing is committed.
func TestManager_DiffSets(t *testing.T) {
	root := t.TempDir()
	ws := NewWorkspace(root, "Blocks")
	writeTilePNG(t, filepath.Join(ws.SourceDir(), "A.png"), color.NRGBA{R: 255, A: 255}, 4)
	writeTilePNG(t, filepath.Join(ws.SourceDir(), "C.png"), color.NRGBA{G: 255, A: 255}, 4)
	writeTilePNG(t, filepath.Join(ws.SourceDir(), "D.png"), color.NRGBA{B: 255, A: 255}, 4)

	reg := new(mocks.Client)
	reg.On("ListFamilies", mock.Anything).Return([]registry.Family{{Name: "Blocks", Sizes: []int{16}}}, nil)
	stubSheetAssets(reg)
	reg.On("ListTiles", mock.Anything, "Blocks").Return([]registry.TileRecord{
		{Name: "A", X: 0, Y: 0, Z: 0, ID: 1},
		{Name: "B", X: 1, Y: 0, Z: 0, ID: 2},
		{Name: "C", X: 0, Y: 1, Z: 0, ID: 3},
	}, nil)

	confirm := &funcConfirmer{ack: func(string) (bool, error) { return false, nil }}
	m := newTestManager(root, "Blocks", reg, confirm)

	err := m.Run(context.Background())
	assert.ErrorIs(t, err, ErrAborted)

	added, err := ws.ReadList(AdditionsList)
	require.NoError(t, err)
	assert.Equal(t, []string{"D"}, added)

	missing, err := ws.ReadList(MissingList)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, missing)

	reg.AssertNotCalled(t, "AddTiles", mock.Anything, mock.Anything, mock.Anything)
	reg.AssertNotCalled(t, "DeleteTiles", mock.Anything, mock.Anything)
	reg.AssertNotCalled(t, "UploadAsset", mock.Anything, mock.Anything)
}

// TestManager_IllegalNameIsFatal verifies that a local file whose resolved
// name carries an illegal character terminates the run before the gate and
// before any allocation.
func TestManager_IllegalNameIsFatal(t *testing.T) {
	root := t.TempDir()
	ws := NewWorkspace(root, "Blocks")
	writeTilePNG(t, filepath.Join(ws.SourceDir(), "foo_bar.png"), color.NRGBA{R: 255, A: 255}, 4)

	reg := new(mocks.Client)
	reg.On("ListFamilies", mock.Anything).Return([]registry.Family{{Name: "Blocks", Sizes: []int{16}}}, nil)
	stubSheetAssets(reg)
	reg.On("ListTiles", mock.Anything, "Blocks").Return([]registry.TileRecord{}, nil)

	gateReached := false
	confirm := &funcConfirmer{ack: func(string) (bool, error) { gateReached = true; return true, nil }}
	m := newTestManager(root, "Blocks", reg, confirm)

	err := m.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "illegal character")
	assert.False(t, gateReached)
	reg.AssertNotCalled(t, "AddTiles", mock.Anything, mock.Anything, mock.Anything)
}

// TestManager_EndToEnd runs a full reconciliation for a single-size family
// with no prior tiles: two local tiles land at (0,0,0) and (1,0,0), the
// composed 32x16 sheet holds both resampled cells, and the additions are
// committed in one chunk.
func TestManager_EndToEnd(t *testing.T) {
	root := t.TempDir()
	ws := NewWorkspace(root, "Blocks")
	writeTilePNG(t, filepath.Join(ws.SourceDir(), "tile1.png"), color.NRGBA{R: 255, A: 255}, 8)
	writeTilePNG(t, filepath.Join(ws.SourceDir(), "tile2.png"), color.NRGBA{B: 255, A: 255}, 8)

	reg := new(mocks.Client)
	reg.On("ListFamilies", mock.Anything).Return([]registry.Family{{Name: "Blocks", Sizes: []int{16}}}, nil)
	stubSheetAssets(reg)
	reg.On("ListTiles", mock.Anything, "Blocks").Return([]registry.TileRecord{}, nil)
	reg.On("UploadAsset", mock.Anything, mock.Anything).Return(&registry.UploadResult{Status: registry.UploadSuccess}, nil)

	var added []registry.TileEntry
	reg.On("AddTiles", mock.Anything, "Blocks", mock.Anything).Run(func(args mock.Arguments) {
		added = append(added, args.Get(2).([]registry.TileEntry)...)
	}).Return(nil)

	m := newTestManager(root, "Blocks", reg, &funcConfirmer{})
	require.NoError(t, m.Run(context.Background()))

	assert.Equal(t, []registry.TileEntry{
		{Name: "tile1", X: 0, Y: 0, Z: 0},
		{Name: "tile2", X: 1, Y: 0, Z: 0},
	}, added)
	reg.AssertNumberOfCalls(t, "AddTiles", 1)
	reg.AssertNumberOfCalls(t, "UploadAsset", 1)
	reg.AssertNotCalled(t, "DeleteTiles", mock.Anything, mock.Anything)

	raw, err := imaging.Load(ws.SheetPath(16, 0))
	require.NoError(t, err)
	sheet := imaging.ToNRGBA(raw)
	assert.Equal(t, image.Rect(0, 0, 32, 16), sheet.Bounds())
	assert.InDelta(t, 255, float64(sheet.NRGBAAt(8, 8).R), 1)
	assert.InDelta(t, 255, float64(sheet.NRGBAAt(24, 8).B), 1)

	// The audit dump lists both committed tiles.
	lines, err := ws.ReadList(filepath.Base(ws.TileListPath()))
	require.NoError(t, err)
	assert.Equal(t, []string{"0 0 0 tile1", "1 0 0 tile2"}, lines)
}

// TestManager_Deletions verifies a to-delete entry frees the position for
// the next new tile and lands in the delete delta, while unknown names are
// reported and skipped.
func TestManager_Deletions(t *testing.T) {
	root := t.TempDir()
	ws := NewWorkspace(root, "Blocks")
	writeTilePNG(t, filepath.Join(ws.SourceDir(), "A.png"), color.NRGBA{R: 255, A: 255}, 4)
	writeTilePNG(t, filepath.Join(ws.SourceDir(), "C.png"), color.NRGBA{G: 255, A: 255}, 4)

	reg := new(mocks.Client)
	reg.On("ListFamilies", mock.Anything).Return([]registry.Family{{Name: "Blocks", Sizes: []int{16}}}, nil)
	stubSheetAssets(reg)
	reg.On("ListTiles", mock.Anything, "Blocks").Return([]registry.TileRecord{
		{Name: "A", X: 0, Y: 0, Z: 0, ID: 1},
		{Name: "B", X: 1, Y: 0, Z: 0, ID: 2},
	}, nil)
	reg.On("UploadAsset", mock.Anything, mock.Anything).Return(&registry.UploadResult{Status: registry.UploadSuccess}, nil)

	var added []registry.TileEntry
	reg.On("AddTiles", mock.Anything, "Blocks", mock.Anything).Run(func(args mock.Arguments) {
		added = append(added, args.Get(2).([]registry.TileEntry)...)
	}).Return(nil)
	var deleted []int64
	reg.On("DeleteTiles", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		deleted = append(deleted, args.Get(1).([]int64)...)
	}).Return(nil)

	// The operator lists B (and a bogus name) for deletion while the run
	// is blocked at the gate.
	confirm := &funcConfirmer{ack: func(string) (bool, error) {
		if err := ws.WriteList(ToDeleteList, []string{"B", "no-such-tile"}); err != nil {
			return false, err
		}
		return true, nil
	}}

	m := newTestManager(root, "Blocks", reg, confirm)
	require.NoError(t, m.Run(context.Background()))

	assert.Equal(t, []int64{2}, deleted)
	// C takes B's freed slot.
	assert.Equal(t, []registry.TileEntry{{Name: "C", X: 1, Y: 0, Z: 0}}, added)
}

// TestManager_AdditionChunking verifies 120 additions are committed in
// exactly three calls of 50, 50, and 20 entries.
func TestManager_AdditionChunking(t *testing.T) {
	root := t.TempDir()
	ws := NewWorkspace(root, "Blocks")
	for i := 1; i <= 120; i++ {
		writeTilePNG(t, filepath.Join(ws.SourceDir(), fmt.Sprintf("t%03d.png", i)), color.NRGBA{R: uint8(i), A: 255}, 2)
	}

	reg := new(mocks.Client)
	reg.On("ListFamilies", mock.Anything).Return([]registry.Family{{Name: "Blocks", Sizes: []int{16}}}, nil)
	stubSheetAssets(reg)
	reg.On("ListTiles", mock.Anything, "Blocks").Return([]registry.TileRecord{}, nil)
	reg.On("UploadAsset", mock.Anything, mock.Anything).Return(&registry.UploadResult{Status: registry.UploadSuccess}, nil)

	var batchSizes []int
	reg.On("AddTiles", mock.Anything, "Blocks", mock.Anything).Run(func(args mock.Arguments) {
		batchSizes = append(batchSizes, len(args.Get(2).([]registry.TileEntry)))
	}).Return(nil)

	m := newTestManager(root, "Blocks", reg, &funcConfirmer{})
	require.NoError(t, m.Run(context.Background()))

	assert.Equal(t, []int{50, 50, 20}, batchSizes)
}

// TestManager_CreatesMissingFamily verifies the sizes prompt path when the
// registry does not know the family yet.
func TestManager_CreatesMissingFamily(t *testing.T) {
	root := t.TempDir()
	ws := NewWorkspace(root, "Fluids")
	writeTilePNG(t, filepath.Join(ws.SourceDir(), "water.png"), color.NRGBA{B: 255, A: 255}, 4)

	reg := new(mocks.Client)
	reg.On("ListFamilies", mock.Anything).Return([]registry.Family{}, nil)
	reg.On("CreateFamily", mock.Anything, "Fluids", []int{16, 32}).Return(nil)
	stubSheetAssets(reg)
	reg.On("ListTiles", mock.Anything, "Fluids").Return([]registry.TileRecord{}, nil)
	reg.On("UploadAsset", mock.Anything, mock.Anything).Return(&registry.UploadResult{Status: registry.UploadSuccess}, nil)
	reg.On("AddTiles", mock.Anything, "Fluids", mock.Anything).Return(nil)

	confirm := &funcConfirmer{read: func(string) (string, error) { return "16, 32", nil }}
	m := newTestManager(root, "Fluids", reg, confirm)
	require.NoError(t, m.Run(context.Background()))

	reg.AssertCalled(t, "CreateFamily", mock.Anything, "Fluids", []int{16, 32})
	// One upload per size.
	reg.AssertNumberOfCalls(t, "UploadAsset", 2)
}

// TestManager_RenamesApplied verifies rename resolution and the ignore
// marker run before the diff.
func TestManager_RenamesApplied(t *testing.T) {
	root := t.TempDir()
	ws := NewWorkspace(root, "Blocks")
	writeTilePNG(t, filepath.Join(ws.SourceDir(), "old_name.png"), color.NRGBA{R: 255, A: 255}, 4)
	writeTilePNG(t, filepath.Join(ws.SourceDir(), "junk.png"), color.NRGBA{G: 255, A: 255}, 4)
	require.NoError(t, os.WriteFile(ws.RenamesPath(), []byte("old_name=Shiny Block\njunk=\n"), 0o644))

	reg := new(mocks.Client)
	reg.On("ListFamilies", mock.Anything).Return([]registry.Family{{Name: "Blocks", Sizes: []int{16}}}, nil)
	stubSheetAssets(reg)
	reg.On("ListTiles", mock.Anything, "Blocks").Return([]registry.TileRecord{}, nil)

	confirm := &funcConfirmer{ack: func(string) (bool, error) { return false, nil }}
	m := newTestManager(root, "Blocks", reg, confirm)
	assert.ErrorIs(t, m.Run(context.Background()), ErrAborted)

	added, err := ws.ReadList(AdditionsList)
	require.NoError(t, err)
	assert.Equal(t, []string{"Shiny Block"}, added)
}

// TestManager_UploadWarningFlow exercises the upload retry state machine.
func TestManager_UploadWarningFlow(t *testing.T) {
	t.Run("ExistsWarningResumesWithoutAsking", func(t *testing.T) {
		reg := new(mocks.Client)
		reg.On("UploadAsset", mock.Anything, mock.MatchedBy(func(r registry.UploadRequest) bool {
			return r.FileKey == ""
		})).Return(&registry.UploadResult{
			Status:   registry.UploadWarning,
			FileKey:  "key-1",
			Warnings: map[string]string{"exists": "Tilesheet Blocks 16.png"},
		}, nil).Once()
		reg.On("UploadAsset", mock.Anything, mock.MatchedBy(func(r registry.UploadRequest) bool {
			return r.FileKey == "key-1" && r.IgnoreWarnings && r.Data == nil
		})).Return(&registry.UploadResult{Status: registry.UploadSuccess}, nil).Once()

		m := newTestManager(t.TempDir(), "Blocks", reg, &funcConfirmer{})
		assert.NoError(t, m.uploadAsset(context.Background(), "Tilesheet Blocks 16.png", []byte{1}))
		reg.AssertExpectations(t)
	})

	t.Run("OtherWarningNeedsConsent", func(t *testing.T) {
		reg := new(mocks.Client)
		reg.On("UploadAsset", mock.Anything, mock.Anything).Return(&registry.UploadResult{
			Status:   registry.UploadWarning,
			FileKey:  "key-2",
			Warnings: map[string]string{"duplicate": "same content as another asset"},
		}, nil)

		declined := &funcConfirmer{read: func(string) (string, error) { return "n", nil }}
		m := newTestManager(t.TempDir(), "Blocks", reg, declined)
		err := m.uploadAsset(context.Background(), "x.png", []byte{1})
		assert.ErrorContains(t, err, "skipped after warnings")
		reg.AssertNumberOfCalls(t, "UploadAsset", 1)
	})

	t.Run("ConsentRetriesOnce", func(t *testing.T) {
		reg := new(mocks.Client)
		reg.On("UploadAsset", mock.Anything, mock.Anything).Return(&registry.UploadResult{
			Status:   registry.UploadWarning,
			FileKey:  "key-3",
			Warnings: map[string]string{"duplicate": "same content as another asset"},
		}, nil)

		consenting := &funcConfirmer{read: func(string) (string, error) { return "y", nil }}
		m := newTestManager(t.TempDir(), "Blocks", reg, consenting)
		err := m.uploadAsset(context.Background(), "x.png", []byte{1})
		// The retry warned again; the attempt cap stops the loop.
		assert.ErrorContains(t, err, "warned again after retry")
		reg.AssertNumberOfCalls(t, "UploadAsset", 2)
	})

	t.Run("UnknownStatusIsStructural", func(t *testing.T) {
		reg := new(mocks.Client)
		reg.On("UploadAsset", mock.Anything, mock.Anything).Return(&registry.UploadResult{Status: "bogus"}, nil)

		m := newTestManager(t.TempDir(), "Blocks", reg, &funcConfirmer{})
		err := m.uploadAsset(context.Background(), "x.png", []byte{1})
		assert.ErrorIs(t, err, errStructural)
	})
}

// TestChunk covers the batch splitting helper directly.
func TestChunk(t *testing.T) {
	items := make([]int, 120)
	chunks := chunk(items, 50)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 50)
	assert.Len(t, chunks[1], 50)
	assert.Len(t, chunks[2], 20)

	assert.Empty(t, chunk([]int{}, 50))
	assert.Len(t, chunk(make([]int, 50), 50), 1)
}

func TestParseSizes(t *testing.T) {
	sizes, err := parseSizes("16, 32,64")
	require.NoError(t, err)
	assert.Equal(t, []int{16, 32, 64}, sizes)

	_, err = parseSizes("")
	assert.Error(t, err)
	_, err = parseSizes("16,zero")
	assert.Error(t, err)
}
