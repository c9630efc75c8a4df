// Package tempfiles names, writes, copies and removes the scratch files that
// hold a transform's preview.
//
// A preview is always stored next to the original image, named after the
// full original path plus a suffix that identifies the transform:
//
//	photo.jpg  ->  photo.jpg.gray.tmp.png
//	           ->  photo.jpg.threshold.tmp.png
//	           ->  photo.jpg.cleanup.tmp.png
//
// Previews are always PNG, whatever the original format. Nothing in this
// package writes to the original path except Copy, which the staging store
// uses only on commit.
package tempfiles
