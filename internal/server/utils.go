package server

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

var errOutsideRoot = errors.New("server: uri outside workspace root")

// relativePath returns the slash-separated path of uri relative to root.
func relativePath(root, uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("failed to parse uri: %w", err)
	}

	r, err := url.Parse(root)
	if err != nil {
		return "", fmt.Errorf("failed to parse root uri: %w", err)
	}

	if u.Scheme != r.Scheme || u.Host != r.Host {
		return "", fmt.Errorf("uri and root uri do not share the same scheme or host")
	}

	prefix := strings.TrimSuffix(r.Path, "/") + "/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", fmt.Errorf("%w: %s", errOutsideRoot, uri)
	}
	return strings.TrimPrefix(u.Path, prefix), nil
}

// joinURI appends a slash-separated relative path to a root URI. The path
// is not cleaned, so ".." segments stay in the result.
func joinURI(root, relpath string) (string, error) {
	r, err := url.Parse(root)
	if err != nil {
		return "", fmt.Errorf("failed to parse root uri: %w", err)
	}

	r.Path = strings.TrimSuffix(r.Path, "/") + "/" + relpath
	r.RawPath = ""

	return r.String(), nil
}

func pathToURI(p string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(filepath.Clean(p)),
	}
	return u.String()
}
