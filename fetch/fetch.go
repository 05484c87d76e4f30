// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package fetch defines how raw document content is retrieved by source key.
//
// A source key is an opaque stable identifier for a document. The filesystem
// implementation treats it as a path relative to a root directory; other
// implementations (object stores, HTTP) can map it however they like.
package fetch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound indicates no content exists for the given source key.
	ErrNotFound = errors.New("content not found")

	// ErrInvalidSourceKey indicates the source key cannot be mapped to content.
	ErrInvalidSourceKey = errors.New("invalid source key")
)

// Fetcher retrieves raw document content by source key.
type Fetcher interface {
	// Fetch returns the raw content for sourceKey.
	// Returns ErrNotFound if no content exists for the key.
	Fetch(ctx context.Context, sourceKey string) ([]byte, error)
}

// FSFetcher reads documents from a directory tree. The source key is
// interpreted as a slash-separated path relative to the root.
type FSFetcher struct {
	root string
}

// NewFSFetcher creates a filesystem fetcher rooted at dir.
func NewFSFetcher(dir string) (*FSFetcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("fetch root is not a directory")
	}
	return &FSFetcher{root: dir}, nil
}

// Fetch reads the file addressed by sourceKey.
// Keys that escape the root directory are rejected.
func (f *FSFetcher) Fetch(ctx context.Context, sourceKey string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, err := safeRelPath(sourceKey)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(f.root, rel))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// safeRelPath validates a source key and converts it to a platform path.
func safeRelPath(sourceKey string) (string, error) {
	if sourceKey == "" {
		return "", ErrInvalidSourceKey
	}
	cleaned := filepath.Clean(filepath.FromSlash(sourceKey))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", ErrInvalidSourceKey
	}
	return cleaned, nil
}
