// Package imaging provides the raster primitives for tilesheet composition:
// decoding source icons, converting between gamma-encoded sRGB and a linear
// floating-point working space, and resampling in that space.
//
// # Color correctness
//
// Stored images are gamma-encoded. Averaging gamma-encoded samples (which is
// what any resampling kernel does) darkens mixed edges, so every tile is
// linearized with DecodeSRGB before scaling and re-encoded with EncodeSRGB
// only when written into a sheet buffer.
//
// # Resampling
//
// Resample uses the Catmull-Rom kernel from golang.org/x/image/draw over a
// 16-bit intermediate, keeping quantization error far below one 8-bit step.
package imaging
