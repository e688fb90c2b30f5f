package mocks

import (
	"context"

	"tilesheet-manager/core/registry"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of registry.Client
type Client struct {
	mock.Mock
}

func (m *Client) ListFamilies(ctx context.Context) ([]registry.Family, error) {
	args := m.Called(ctx)
	if families, ok := args.Get(0).([]registry.Family); ok {
		return families, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) CreateFamily(ctx context.Context, name string, sizes []int) error {
	args := m.Called(ctx, name, sizes)
	return args.Error(0)
}

func (m *Client) ListTiles(ctx context.Context, family string) ([]registry.TileRecord, error) {
	args := m.Called(ctx, family)
	if tiles, ok := args.Get(0).([]registry.TileRecord); ok {
		return tiles, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) AddTiles(ctx context.Context, family string, tiles []registry.TileEntry) error {
	args := m.Called(ctx, family, tiles)
	return args.Error(0)
}

func (m *Client) DeleteTiles(ctx context.Context, ids []int64) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *Client) DownloadAsset(ctx context.Context, name string) ([]byte, error) {
	args := m.Called(ctx, name)
	if data, ok := args.Get(0).([]byte); ok {
		return data, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) UploadAsset(ctx context.Context, req registry.UploadRequest) (*registry.UploadResult, error) {
	args := m.Called(ctx, req)
	if res, ok := args.Get(0).(*registry.UploadResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}
