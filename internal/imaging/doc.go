// Package imaging decodes coin photographs and derives the signals the
// curation engine works with: 64-bit difference hashes, Hamming distances,
// and the split ratio of combined obverse/reverse images.
//
// Decoding understands JPEG, PNG, GIF, WebP and BMP. Hashes are cached per
// path, optionally persisted to a JSON file keyed by path, size and
// modification time so edits on disk invalidate stale entries.
package imaging
