package api

import (
	"math"
	"strconv"

	"media-explorer/internal/mediatypes"
)

// FileID identifies a file within one registered directory.
type FileID int64

// FileMetadata is one indexed file as reported by the service.
type FileMetadata struct {
	ID              FileID              `json:"id"`
	Name            string              `json:"name"`
	FileType        mediatypes.FileType `json:"fileType"`
	Description     string              `json:"description"`
	OCRText         string              `json:"ocrText,omitempty"`
	Transcript      string              `json:"transcript,omitempty"`
	LLMDescription  string              `json:"llmDescription,omitempty"`
	IsScreenshot    bool                `json:"isScreenshot"`
	ThumbnailBase64 string              `json:"thumbnailBase64,omitempty"`
}

// ScoredFile is a search or similarity hit. Scores are absent when the
// service did not compute them for this result.
type ScoredFile struct {
	File         FileMetadata `json:"file"`
	DenseScore   *float64     `json:"denseScore,omitempty"`
	LexicalScore *float64     `json:"lexicalScore,omitempty"`
	TotalScore   *float64     `json:"totalScore,omitempty"`
}

// Caption renders the score line shown under a result, for example
// "s: 0.87 l: 0.5 d: none ". It is empty when there is no total score.
func (s ScoredFile) Caption() string {
	if s.TotalScore == nil {
		return ""
	}
	return "s: " + formatScore(s.TotalScore) +
		" l: " + formatScore(s.LexicalScore) +
		" d: " + formatScore(s.DenseScore) + " "
}

func formatScore(x *float64) string {
	if x == nil {
		return "none"
	}
	return strconv.FormatFloat(math.Round(*x*100)/100, 'f', -1, 64)
}

// FilePage is one page of the unfiltered file listing.
type FilePage struct {
	Files  []FileMetadata `json:"files"`
	Offset int            `json:"offset"`
	Total  int            `json:"total"`
}

// SearchPage is one page of text search results.
type SearchPage struct {
	Results []ScoredFile `json:"results"`
	Offset  int          `json:"offset"`
	Total   int          `json:"total"`
}

// DirectoryStatus is the initialization state of one registered directory.
type DirectoryStatus struct {
	Name                    string  `json:"name"`
	Ready                   bool    `json:"ready"`
	Failed                  bool    `json:"failed"`
	InitProgress            float64 `json:"initProgress"`
	InitProgressDescription string  `json:"initProgressDescription"`
}

// InProgress reports whether initialization is neither finished nor failed.
func (d DirectoryStatus) InProgress() bool {
	return !d.Ready && !d.Failed
}

// RegisterRequest describes a directory to register with the service.
type RegisterRequest struct {
	Name                          string `json:"name"`
	Path                          string `json:"path"`
	PrimaryLanguage               string `json:"primaryLanguage"`
	ShouldGenerateLLMDescriptions bool   `json:"shouldGenerateLlmDescriptions"`
}

// NewRegisterRequest returns a request with the service defaults filled in.
func NewRegisterRequest(name, path string) RegisterRequest {
	return RegisterRequest{
		Name:            name,
		Path:            path,
		PrimaryLanguage: "en",
	}
}

// SelectDirectoryResponse is the result of the service's native folder picker.
// SelectedPath is empty when nothing was chosen.
type SelectDirectoryResponse struct {
	SelectedPath string `json:"selectedPath,omitempty"`
	Canceled     bool   `json:"canceled"`
}

// Variant selects a similarity operation.
type Variant string

const (
	SimilarDescription    Variant = "similar-description"
	SimilarMetadata       Variant = "similar-metadata"
	SimilarLLMDescription Variant = "similar-llm-description"
	SimilarImages         Variant = "similar-images"
	SimilarVideos         Variant = "similar-videos"
	SimilarToPasted       Variant = "similar-to-pasted"
)

// Variants lists every similarity operation in menu order.
var Variants = []Variant{
	SimilarDescription,
	SimilarMetadata,
	SimilarLLMDescription,
	SimilarImages,
	SimilarVideos,
	SimilarToPasted,
}

// Valid reports whether v names a known similarity operation.
func (v Variant) Valid() bool {
	for _, known := range Variants {
		if v == known {
			return true
		}
	}
	return false
}

// Caption is the human-readable label of the operation.
func (v Variant) Caption() string {
	switch v {
	case SimilarDescription:
		return "find items with similar description"
	case SimilarMetadata:
		return "find items with similar metadata"
	case SimilarLLMDescription:
		return "find items with similar LLM description"
	case SimilarImages:
		return "find similar images"
	case SimilarVideos:
		return "find similar videos"
	case SimilarToPasted:
		return "find images similar to pasted image"
	default:
		return string(v)
	}
}

// AvailableVariants returns the file-based similarity operations that apply
// to f. Visual similarity is offered for images only, including the video
// variant, which searches videos by an image's visual embedding.
func AvailableVariants(f FileMetadata) []Variant {
	var out []Variant
	if f.Description != "" {
		out = append(out, SimilarDescription)
	}
	if f.Description != "" || f.OCRText != "" || f.Transcript != "" {
		out = append(out, SimilarMetadata)
	}
	if f.LLMDescription != "" {
		out = append(out, SimilarLLMDescription)
	}
	if f.FileType == mediatypes.FileTypeImage {
		out = append(out, SimilarImages, SimilarVideos)
	}
	return out
}
