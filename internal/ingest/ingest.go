// Package ingest discovers input files on the local filesystem for batch runs.
package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/backlog-forge/constants"
	"github.com/joseph-ayodele/backlog-forge/internal/common"
	"github.com/joseph-ayodele/backlog-forge/internal/extract"
)

// Candidate is a file eligible for processing.
type Candidate struct {
	Path string
	Ext  string // lowercased, without '.'
	Kind constants.SourceKind
	Size int64
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
	Failed  uint32
}

// ScanDirectory walks root and returns the files whose extension is in
// includeExts (or every extension the extractor understands when empty),
// sorted by path. Unreadable entries are counted and skipped.
func ScanDirectory(root string, includeExts []string, skipHidden bool) ([]Candidate, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	exts := extSet(includeExts)

	var (
		out   []Candidate
		stats DirStats
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++

		ext := constants.NormalizeExt(filepath.Ext(path))
		kind, known := constants.KindFromExt(ext)
		if _, ok := exts[ext]; !ok || !known {
			stats.Skipped++
			return nil
		}
		info, err := d.Info()
		if err != nil {
			stats.Failed++
			return nil
		}
		stats.Matched++
		out = append(out, Candidate{Path: path, Ext: ext, Kind: kind, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("walk: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, stats, nil
}

// LoadFile reads path into an extractor File. Files larger than maxBytes
// (when positive) are rejected.
func LoadFile(path string, maxBytes int64) (extract.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return extract.File{}, err
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return extract.File{}, common.MalformedInputError(
			fmt.Sprintf("file %s: size %d exceeds %d bytes", filepath.Base(path), info.Size(), maxBytes), common.ErrInvalidInput)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return extract.File{}, err
	}
	return extract.File{
		Name:     filepath.Base(path),
		MIMEType: mime.TypeByExtension(filepath.Ext(path)),
		Data:     data,
	}, nil
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func extSet(includeExts []string) map[string]struct{} {
	if len(includeExts) == 0 {
		return constants.AllowedExtensions()
	}
	exts := make(map[string]struct{}, len(includeExts))
	for _, e := range includeExts {
		if e = constants.NormalizeExt(e); e != "" {
			exts[e] = struct{}{}
		}
	}
	return exts
}

func allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}
