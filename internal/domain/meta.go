package domain

// ImageMeta is the intrinsic metadata of a decoded source image.
// Density is the resolution multiplier of the source asset; raster
// sources without a declared density report 1.
type ImageMeta struct {
	Width   int
	Height  int
	Density float64
}

// VariantMeta describes one produced variant's encoded output.
type VariantMeta struct {
	Format string
	Width  int
	Height int
}
