package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

const (
	pathFiles                  = "/files/"
	pathSearch                 = "/files/search"
	pathSimilarDescription     = "/files/find-with-similar-description"
	pathSimilarMetadata        = "/files/find-with-similar-metadata"
	pathSimilarLLMText         = "/files/find-with-similar-llm-text"
	pathVisuallySimilarImages  = "/files/find-visually-similar-images"
	pathVisuallySimilarVideos  = "/files/find-visually-similar-videos"
	pathSimilarToUploadedImage = "/files/find-similar-to-uploaded-image"
)

type searchRequest struct {
	Query string `json:"query"`
}

type findSimilarRequest struct {
	FileID FileID `json:"fileId"`
}

type findSimilarToImageRequest struct {
	ImageDataBase64 string `json:"imageDataBase64"`
}

func pageQuery(offset, limit int) url.Values {
	return url.Values{
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
	}
}

// ListFiles returns one page of every file in directory.
func (c *Client) ListFiles(ctx context.Context, directory string, offset, limit int) (FilePage, error) {
	const op = "list files"
	var page FilePage
	if err := required(op, "directory", directory); err != nil {
		return page, err
	}

	err := c.do(ctx, request{
		operation: op,
		method:    http.MethodGet,
		path:      pathFiles,
		query:     pageQuery(offset, limit),
		directory: directory,
	}, &page)
	return page, err
}

// SearchFiles returns one page of results for query in directory.
func (c *Client) SearchFiles(ctx context.Context, directory, query string, offset, limit int) (SearchPage, error) {
	const op = "search files"
	var page SearchPage
	if err := required(op, "directory", directory); err != nil {
		return page, err
	}

	err := c.do(ctx, request{
		operation: op,
		method:    http.MethodPost,
		path:      pathSearch,
		query:     pageQuery(offset, limit),
		directory: directory,
		body:      searchRequest{Query: query},
	}, &page)
	return page, err
}

// FindSimilar runs a file-based similarity operation. SimilarToPasted is not
// file-based; use FindSimilarToImage for it.
func (c *Client) FindSimilar(ctx context.Context, directory string, variant Variant, fileID FileID) ([]ScoredFile, error) {
	op := "find " + string(variant)
	if err := required(op, "directory", directory); err != nil {
		return nil, err
	}

	var path string
	switch variant {
	case SimilarDescription:
		path = pathSimilarDescription
	case SimilarMetadata:
		path = pathSimilarMetadata
	case SimilarLLMDescription:
		path = pathSimilarLLMText
	case SimilarImages:
		path = pathVisuallySimilarImages
	case SimilarVideos:
		path = pathVisuallySimilarVideos
	default:
		return nil, &ValidationError{Operation: op, Field: "variant"}
	}

	var results []ScoredFile
	err := c.do(ctx, request{
		operation: op,
		method:    http.MethodPost,
		path:      path,
		directory: directory,
		body:      findSimilarRequest{FileID: fileID},
	}, &results)
	return results, err
}

// FindSimilarToImage returns images visually similar to a base64-encoded image.
func (c *Client) FindSimilarToImage(ctx context.Context, directory, imageBase64 string) ([]ScoredFile, error) {
	const op = "find similar-to-pasted"
	if err := required(op, "directory", directory); err != nil {
		return nil, err
	}
	if err := required(op, "imageDataBase64", imageBase64); err != nil {
		return nil, err
	}

	var results []ScoredFile
	err := c.do(ctx, request{
		operation: op,
		method:    http.MethodPost,
		path:      pathSimilarToUploadedImage,
		directory: directory,
		body:      findSimilarToImageRequest{ImageDataBase64: imageBase64},
	}, &results)
	return results, err
}
