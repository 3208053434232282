// Package mediatypes provides the file-type vocabulary shared by the API
// client, the suggestion engine and the terminal front end.
//
// This package is dependency-free so any other package can import it without
// creating import cycles.
//
// # File Types
//
//	mediatypes.FileTypeImage // image files, eligible for visual similarity
//	mediatypes.FileTypeVideo // video files
//	mediatypes.FileTypeAudio // audio files, searchable by transcript
//	mediatypes.FileTypeOther // anything else
//
// # Extension Detection
//
// GetFileType classifies a local file by extension, which is how a pasted
// image file is validated before it is decoded:
//
//	ext := strings.ToLower(filepath.Ext(filename))
//	if mediatypes.GetFileType(ext) != mediatypes.FileTypeImage {
//	    // reject
//	}
package mediatypes
