package remote

import (
	"io"
	"os"

	"github.com/pkg/sftp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"

	"github.com/sidkik/dropletctl/pkg/errors"
)

// fs is the local filesystem that files are read from and written to. It's
// replaced by afero.NewMemMapFs() in the tests.
var fs = afero.NewOsFs()

// FileChannel transfers files to and from the remote host. Remote paths use
// forward slashes regardless of the local OS.
type FileChannel interface {
	// MakeDirectory creates a single remote directory. The parent must
	// already exist. Creating a directory that already exists is a no-op.
	MakeDirectory(remotePath string) error

	// PutFile copies a local file to the remote host, overwriting the remote
	// file if it exists.
	PutFile(localPath, remotePath string) error

	// GetFile copies a remote file to the local machine, overwriting the
	// local file if it exists.
	GetFile(remotePath, localPath string) error

	Close() error
}

type sftpChannel struct {
	client *sftp.Client
}

func newSFTPChannel(conn *ssh.Client) (*sftpChannel, error) {
	client, err := sftp.NewClient(conn)
	if err != nil {
		return nil, errors.WithContext(err, "start sftp")
	}
	return &sftpChannel{client: client}, nil
}

// NewFileChannel wraps an already established SFTP client.
func NewFileChannel(client *sftp.Client) FileChannel {
	return &sftpChannel{client: client}
}

func (ch *sftpChannel) MakeDirectory(remotePath string) error {
	mkdirErr := ch.client.Mkdir(remotePath)
	if mkdirErr == nil {
		return nil
	}

	// SFTP servers report a failed mkdir on an existing path with a generic
	// failure code, so check what's actually there.
	info, err := ch.client.Stat(remotePath)
	if err == nil && info.IsDir() {
		log.WithField("path", remotePath).Debug("Remote directory already exists")
		return nil
	}
	return mkdirErr
}

func (ch *sftpChannel) PutFile(localPath, remotePath string) error {
	src, err := fs.Open(localPath)
	if err != nil {
		return errors.WithContext(err, "open local")
	}
	defer src.Close()

	dst, err := ch.client.Create(remotePath)
	if err != nil {
		return errors.WithContext(err, "create remote")
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return errors.WithContext(err, "copy")
	}
	return errors.WithContext(dst.Close(), "close remote")
}

func (ch *sftpChannel) GetFile(remotePath, localPath string) error {
	src, err := ch.client.Open(remotePath)
	if err != nil {
		return errors.WithContext(err, "open remote")
	}
	defer src.Close()

	dst, err := fs.OpenFile(localPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.WithContext(err, "create local")
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return errors.WithContext(err, "copy")
	}
	return errors.WithContext(dst.Close(), "close local")
}

func (ch *sftpChannel) Close() error {
	return ch.client.Close()
}
