// Package tilesheet maintains sprite-atlas images for a catalog of square
// icon tiles and keeps the remote tile registry in sync with the local
// source directory.
//
// # Components
//
// 1. Allocator: assigns every tile name a stable (x, y, z) grid position
// using a growing-square spiral, deterministic for a given occupancy set.
// Already-assigned names are looked up, never reallocated, so positions are
// stable across runs.
//
// 2. Sheet: one raster buffer per layer per output resolution. Buffers grow
// on demand without disturbing existing pixels; tiles are resampled in
// linear color (core/imaging) before insertion.
//
// 3. Manager: the reconciliation pipeline. It imports the registry's tile
// table, diffs it against the local sources, writes the additions/missing/
// to-delete inspection lists, blocks on human confirmation, then composes
// the sheets and hands the registry its delta in fixed-size chunks.
//
// # Ordering
//
// When several new tiles arrive in one run, their relative positions follow
// directory-walk order of the source files. The walk is lexical within each
// directory but the overall ordering is an artifact of the traversal, not a
// canonical sort.
//
// # Concurrency
//
// The pipeline is strictly sequential. The allocator cursor and the sheet
// buffers are mutated from a single goroutine; no internal locking exists.
package tilesheet
