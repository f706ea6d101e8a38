// Copyright 2025 Tom Barlow
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

package blockref

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxFileSize bounds a resolved secret file's size.
const MaxFileSize = 64 * 1024

// FileProviderConfig controls the FileProvider's security posture. It is
// disabled and allowlist-empty by default: both must be set explicitly
// before any path resolves.
type FileProviderConfig struct {
	Enabled   bool
	Allowlist []string
	MaxSize   int64
}

// FileProvider resolves "file:/absolute/path" references, reading the
// referenced file's trimmed contents as the value.
type FileProvider struct {
	cfg FileProviderConfig
}

// NewFileProvider creates a FileProvider from cfg, defaulting MaxSize to
// MaxFileSize if unset.
func NewFileProvider(cfg FileProviderConfig) *FileProvider {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = MaxFileSize
	}
	return &FileProvider{cfg: cfg}
}

func (p *FileProvider) Scheme() string { return "file" }

func (p *FileProvider) Resolve(_ context.Context, reference string) (string, error) {
	if !p.cfg.Enabled {
		return "", NewValueResolutionError(ErrorCategoryAccessDenied, "file:"+reference, "file",
			"file provider is disabled", nil)
	}
	if !filepath.IsAbs(reference) {
		return "", NewValueResolutionError(ErrorCategoryInvalidSyntax, "file:"+reference, "file",
			"path must be absolute", nil)
	}
	resolved, err := resolvePath(reference)
	if err != nil {
		return "", NewValueResolutionError(ErrorCategoryAccessDenied, "file:"+reference, "file",
			"path resolution failed", err)
	}
	if !p.isAllowed(reference) && !p.isAllowed(resolved) {
		return "", NewValueResolutionError(ErrorCategoryAccessDenied, "file:"+reference, "file",
			"path not in allowlist", nil)
	}

	stat, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", NewValueResolutionError(ErrorCategoryNotFound, "file:"+reference, "file",
				"file not found", err)
		}
		return "", NewValueResolutionError(ErrorCategoryAccessDenied, "file:"+reference, "file",
			"file stat failed", err)
	}
	if stat.Size() > p.cfg.MaxSize {
		return "", NewValueResolutionError(ErrorCategoryInvalidSyntax, "file:"+reference, "file",
			fmt.Sprintf("file too large (max %d bytes)", p.cfg.MaxSize), nil)
	}

	contents, err := os.ReadFile(resolved)
	if err != nil {
		return "", NewValueResolutionError(ErrorCategoryAccessDenied, "file:"+reference, "file",
			"failed to read file", err)
	}
	value := strings.TrimSpace(string(contents))
	if value == "" {
		return "", NewValueResolutionError(ErrorCategoryNotFound, "file:"+reference, "file",
			"file is empty", nil)
	}
	return value, nil
}

func resolvePath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			return filepath.Abs(filepath.Clean(path))
		}
		return "", err
	}
	return filepath.Clean(resolved), nil
}

func (p *FileProvider) isAllowed(path string) bool {
	if len(p.cfg.Allowlist) == 0 {
		return false
	}
	cleaned := filepath.Clean(path)
	for _, allowed := range p.cfg.Allowlist {
		allowed = filepath.Clean(allowed)
		if cleaned == allowed || strings.HasPrefix(cleaned, allowed+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
