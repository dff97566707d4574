package upload

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/dropletctl/cmd/util"
	"github.com/sidkik/dropletctl/pkg/digitalocean"
	"github.com/sidkik/dropletctl/pkg/errors"
	"github.com/sidkik/dropletctl/pkg/remote"
)

type fakeSession struct {
	closed bool
}

func (s *fakeSession) Run(string) (remote.Lines, error)                                 { return nil, nil }
func (s *fakeSession) OpenFileChannel() (remote.FileChannel, error)                     { return nil, nil }
func (s *fakeSession) Shell(remote.TerminalSize, io.Reader, io.Writer, io.Writer) error { return nil }

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type uploadCall struct {
	localDir, remoteDir string
}

func mockUpload(t *testing.T, errs ...error) (*fakeSession, *[]uploadCall, *bytes.Buffer) {
	session := &fakeSession{}
	connectToDroplet = func(ref string) (util.Session, digitalocean.Droplet, error) {
		assert.Equal(t, "web", ref)
		return session, digitalocean.Droplet{ID: 1, Name: "web"}, nil
	}

	var calls []uploadCall
	upload = func(localDir, remoteDir string, r remote.Remote) error {
		assert.Equal(t, session, r)
		calls = append(calls, uploadCall{localDir, remoteDir})
		if len(errs) == 0 {
			return nil
		}
		err := errs[0]
		errs = errs[1:]
		return err
	}

	out := bytes.NewBuffer(nil)
	stdout = out
	return session, &calls, out
}

func TestUpload(t *testing.T) {
	dir := t.TempDir()
	session, calls, out := mockUpload(t)
	watchDir = func(string) (<-chan struct{}, func() error, error) {
		t.Fatal("unexpected watch")
		return nil, nil, nil
	}

	require.NoError(t, run("web", dir, "/srv/app", false, nil))
	assert.Equal(t, []uploadCall{{dir, "/srv/app"}}, *calls)
	assert.Contains(t, out.String(), "Uploaded "+dir+" to web:/srv/app\n")
	assert.True(t, session.closed)
}

func TestUploadFails(t *testing.T) {
	dir := t.TempDir()
	uploadErr := errors.TransferError{Op: "put", Path: "/srv/app/x", Err: errors.New("disk full")}
	session, _, _ := mockUpload(t, uploadErr)

	assert.Equal(t, errors.WithContext(uploadErr, "upload"), run("web", dir, "/srv/app", true, nil))
	assert.True(t, session.closed)
}

func TestUploadValidatesBeforeConnecting(t *testing.T) {
	dir := t.TempDir()
	connectToDroplet = func(string) (util.Session, digitalocean.Droplet, error) {
		t.Fatal("unexpected connection")
		return nil, digitalocean.Droplet{}, nil
	}

	assert.Equal(t, errors.PathKindError{Path: "srv", Reason: "is not an absolute remote path"},
		run("web", dir, "srv", false, nil))

	missing := dir + "/missing"
	assert.Equal(t, errors.PathKindError{Path: missing, Reason: "does not exist"},
		run("web", missing, "/srv", false, nil))
}

func TestUploadWatch(t *testing.T) {
	dir := t.TempDir()
	session, calls, _ := mockUpload(t, nil, errors.New("connection reset"))

	triggers := make(chan struct{})
	var watchClosed bool
	watchDir = func(watched string) (<-chan struct{}, func() error, error) {
		assert.Equal(t, dir, watched)
		return triggers, func() error {
			watchClosed = true
			return nil
		}, nil
	}

	stop := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- run("web", dir, "/srv/app", true, stop)
	}()

	// The second upload fails, but the watch keeps going.
	triggers <- struct{}{}
	triggers <- struct{}{}
	close(stop)

	assert.NoError(t, <-done)
	assert.Len(t, *calls, 3)
	assert.True(t, watchClosed)
	assert.True(t, session.closed)
}

func TestUploadWatchFails(t *testing.T) {
	dir := t.TempDir()
	session, _, _ := mockUpload(t)

	watchErr := errors.New("too many open files")
	watchDir = func(string) (<-chan struct{}, func() error, error) {
		return nil, nil, watchErr
	}

	assert.Equal(t, errors.WithContext(watchErr, "watch"), run("web", dir, "/srv/app", true, nil))
	assert.True(t, session.closed)
}
