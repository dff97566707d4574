package transfer

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/sidkik/dropletctl/pkg/remote"
)

// fakeRemote is an in-memory remote host. Its file channel is stricter than
// necessary: it refuses to create anything whose parent directory doesn't
// exist yet, on either side, so that ordering mistakes show up as failures.
type fakeRemote struct {
	fs afero.Fs

	// calls records every primitive invoked, in order.
	calls []string

	// failOn makes the primitive whose call string matches fail.
	failOn map[string]error

	// findOutput overrides the output of the find command when set.
	findOutput []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{fs: afero.NewMemMapFs(), failOn: map[string]error{}}
}

func (r *fakeRemote) record(call string) error {
	r.calls = append(r.calls, call)
	return r.failOn[call]
}

func (r *fakeRemote) Run(cmd string) (remote.Lines, error) {
	if err := r.record("run " + cmd); err != nil {
		return nil, err
	}

	if r.findOutput != nil {
		return &sliceLines{lines: r.findOutput}, nil
	}

	const prefix, suffix = "find '", "' -type f"
	if !strings.HasPrefix(cmd, prefix) || !strings.HasSuffix(cmd, suffix) {
		return &sliceLines{closeErr: fmt.Errorf("unsupported command %q", cmd)}, nil
	}
	root := strings.TrimSuffix(strings.TrimPrefix(cmd, prefix), suffix)

	var files []string
	err := afero.Walk(r.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			files = append(files, p+"\n")
		}
		return nil
	})
	if err != nil {
		return &sliceLines{closeErr: fmt.Errorf("find: %s", err)}, nil
	}
	return &sliceLines{lines: files}, nil
}

func (r *fakeRemote) OpenFileChannel() (remote.FileChannel, error) {
	if err := r.record("open"); err != nil {
		return nil, err
	}
	return fakeChannel{r}, nil
}

func (r *fakeRemote) snapshot() map[string]string {
	files := map[string]string{}
	afero.Walk(r.fs, "/", func(p string, info os.FileInfo, err error) error {
		if err == nil && info.Mode().IsRegular() {
			contents, _ := afero.ReadFile(r.fs, p)
			files[p] = string(contents)
		}
		return nil
	})
	return files
}

type fakeChannel struct {
	r *fakeRemote
}

func requireDir(fs afero.Fs, dir string) error {
	info, err := fs.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

func (ch fakeChannel) MakeDirectory(p string) error {
	if err := ch.r.record("mkdir " + p); err != nil {
		return err
	}

	if info, err := ch.r.fs.Stat(p); err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("%s is a file", p)
	}

	if err := requireDir(ch.r.fs, path.Dir(p)); err != nil {
		return err
	}
	return ch.r.fs.Mkdir(p, 0755)
}

func (ch fakeChannel) PutFile(localPath, remotePath string) error {
	if err := ch.r.record("put " + remotePath); err != nil {
		return err
	}

	if err := requireDir(ch.r.fs, path.Dir(remotePath)); err != nil {
		return err
	}

	contents, err := afero.ReadFile(fs, localPath)
	if err != nil {
		return err
	}
	return afero.WriteFile(ch.r.fs, remotePath, contents, 0644)
}

func (ch fakeChannel) GetFile(remotePath, localPath string) error {
	if err := ch.r.record("get " + remotePath); err != nil {
		return err
	}

	if err := requireDir(fs, filepath.Dir(localPath)); err != nil {
		return err
	}

	contents, err := afero.ReadFile(ch.r.fs, remotePath)
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, localPath, contents, 0644)
}

func (ch fakeChannel) Close() error {
	ch.r.calls = append(ch.r.calls, "close")
	return nil
}

type sliceLines struct {
	lines    []string
	pos      int
	closeErr error
}

func (l *sliceLines) Next() bool {
	if l.pos >= len(l.lines) {
		return false
	}
	l.pos++
	return true
}

func (l *sliceLines) Text() string {
	return strings.TrimRight(l.lines[l.pos-1], " \t\r\n")
}

func (l *sliceLines) Err() error {
	return nil
}

func (l *sliceLines) Close() error {
	return l.closeErr
}
