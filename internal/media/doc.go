// Package media prepares images for similarity search and inspects the
// thumbnails the indexing service embeds in listings.
//
// PreparePasted accepts JPEG, PNG, GIF, WebP, BMP and TIFF data, applies
// EXIF orientation, downscales to MaxImageDimension and MaxImagePixels and
// returns base64 JPEG:
//
//	img, err := media.PreparePastedFile("/tmp/screenshot.png")
//	if err != nil {
//		return err
//	}
//	viewer.RunSemantic(ctx, history.ImageTarget(img), api.SimilarToPasted)
package media
