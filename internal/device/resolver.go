package device

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/TheChilliPL/docker-io-reporter/internal/hostfs"
)

const DefaultRoot = "/sys/dev/block"

var ErrResolution = errors.New("device resolution failed")

// Resolver maps a "MAJ:MIN" block device identifier to its kernel name by
// following the symlink in the device registry (/sys/dev/block/8:0 ->
// ../../devices/.../block/sda).
type Resolver struct {
	root string
	fs   hostfs.FileSystem
}

func NewResolver(root string, fs hostfs.FileSystem) *Resolver {
	if root == "" {
		root = DefaultRoot
	}
	return &Resolver{
		root: root,
		fs:   fs,
	}
}

func (r *Resolver) Resolve(majorMinor string) (string, error) {
	linkPath := filepath.Join(r.root, majorMinor)

	target, err := r.fs.Readlink(linkPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrResolution, majorMinor, err)
	}

	name := filepath.Base(target)
	if name == "." || name == string(filepath.Separator) || name == ".." || strings.ContainsRune(name, filepath.Separator) {
		return "", fmt.Errorf("%w: %s: link target %q has no file name", ErrResolution, majorMinor, target)
	}
	if !utf8.ValidString(name) {
		return "", fmt.Errorf("%w: %s: device name is not valid UTF-8", ErrResolution, majorMinor)
	}

	return name, nil
}
