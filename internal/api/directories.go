package api

import (
	"context"
	"net/http"
	"net/url"
)

const (
	pathDirectory          = "/directory/"
	pathCancelInitPrefix   = "/directory/cancel-initialization/"
	pathAccessOpen         = "/access/open"
	pathAccessOpenInDir    = "/access/open-in-directory"
	pathAccessSelectFolder = "/access/select-directory"
)

type unregisterRequest struct {
	Name string `json:"name"`
}

type openFileRequest struct {
	FileID FileID `json:"fileId"`
}

// ListDirectories returns the status of every registered directory.
func (c *Client) ListDirectories(ctx context.Context) ([]DirectoryStatus, error) {
	var dirs []DirectoryStatus
	err := c.do(ctx, request{
		operation: "list directories",
		method:    http.MethodGet,
		path:      pathDirectory,
	}, &dirs)
	if dirs == nil && err == nil {
		dirs = []DirectoryStatus{}
	}
	return dirs, err
}

// RegisterDirectory registers a directory and returns its initial status.
func (c *Client) RegisterDirectory(ctx context.Context, req RegisterRequest) (DirectoryStatus, error) {
	const op = "register directory"
	var status DirectoryStatus
	if err := required(op, "name", req.Name); err != nil {
		return status, err
	}
	if err := required(op, "path", req.Path); err != nil {
		return status, err
	}
	if req.PrimaryLanguage == "" {
		req.PrimaryLanguage = "en"
	}

	err := c.do(ctx, request{
		operation: op,
		method:    http.MethodPost,
		path:      pathDirectory,
		body:      req,
	}, &status)
	return status, err
}

// UnregisterDirectory removes a directory from the service.
func (c *Client) UnregisterDirectory(ctx context.Context, name string) error {
	const op = "unregister directory"
	if err := required(op, "name", name); err != nil {
		return err
	}
	return c.do(ctx, request{
		operation: op,
		method:    http.MethodDelete,
		path:      pathDirectory,
		body:      unregisterRequest{Name: name},
	}, nil)
}

// CancelInitialization stops an in-progress directory initialization.
func (c *Client) CancelInitialization(ctx context.Context, name string) error {
	const op = "cancel initialization"
	if err := required(op, "directoryName", name); err != nil {
		return err
	}
	return c.do(ctx, request{
		operation: op,
		method:    http.MethodPost,
		path:      pathCancelInitPrefix + url.PathEscape(name),
	}, nil)
}

// OpenFile asks the service host to open a file with its default application.
func (c *Client) OpenFile(ctx context.Context, directory string, id FileID) error {
	const op = "open file"
	if err := required(op, "directory", directory); err != nil {
		return err
	}
	return c.do(ctx, request{
		operation: op,
		method:    http.MethodPost,
		path:      pathAccessOpen,
		directory: directory,
		body:      openFileRequest{FileID: id},
	}, nil)
}

// OpenInDirectory asks the service host to reveal a file in its file manager.
func (c *Client) OpenInDirectory(ctx context.Context, directory string, id FileID) error {
	const op = "open in directory"
	if err := required(op, "directory", directory); err != nil {
		return err
	}
	return c.do(ctx, request{
		operation: op,
		method:    http.MethodPost,
		path:      pathAccessOpenInDir,
		directory: directory,
		body:      openFileRequest{FileID: id},
	}, nil)
}

// SelectDirectory opens the native folder picker on the service host.
func (c *Client) SelectDirectory(ctx context.Context) (SelectDirectoryResponse, error) {
	var resp SelectDirectoryResponse
	err := c.do(ctx, request{
		operation: "select directory",
		method:    http.MethodPost,
		path:      pathAccessSelectFolder,
	}, &resp)
	return resp, err
}
