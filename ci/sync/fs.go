package sync

import (
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sidkik/dropletctl/pkg/errors"
)

type file struct {
	path     string
	contents string
}

func (f file) WithContents(contents string) file {
	f.contents = contents
	return f
}

func randomFile(path string) file {
	return file{
		path:     path,
		contents: strconv.Itoa(rand.Int()),
	}
}

// mockFs is a temporary directory tree used as the local side of a sync.
type mockFs struct {
	root string
}

type fsOp func(mockFs) error

func newMockFs() (mockFs, error) {
	root, err := os.MkdirTemp("", "dropletctl-sync-test")
	if err != nil {
		return mockFs{}, errors.WithContext(err, "make root dir")
	}
	return mockFs{root: root}, nil
}

func (fs mockFs) path(rel string) string {
	return filepath.Join(fs.root, filepath.FromSlash(rel))
}

func (fs mockFs) cleanup() error {
	return os.RemoveAll(fs.root)
}

// snapshot returns the contents of every regular file in the tree, keyed by
// its slash-separated path relative to the root.
func (fs mockFs) snapshot() (map[string]string, error) {
	files := map[string]string{}
	err := filepath.Walk(fs.root, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.Mode().IsRegular() {
			return err
		}

		rel, err := filepath.Rel(fs.root, path)
		if err != nil {
			return err
		}

		contents, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(contents)
		return nil
	})
	return files, err
}

func createFile(toCreate file) fsOp {
	return func(fs mockFs) error {
		path := fs.path(toCreate.path)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return errors.WithContext(err, "make parent")
		}

		if err := os.WriteFile(path, []byte(toCreate.contents), 0644); err != nil {
			return errors.WithContext(err, "write")
		}
		return nil
	}
}

func createDir(dir string) fsOp {
	return func(fs mockFs) error {
		return os.MkdirAll(fs.path(dir), 0755)
	}
}

func apply(fs mockFs, ops ...fsOp) error {
	for _, op := range ops {
		if err := op(fs); err != nil {
			return err
		}
	}
	return nil
}
