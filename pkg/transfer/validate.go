package transfer

import (
	"os"
	"path"

	"github.com/sidkik/dropletctl/pkg/errors"
)

// ValidateLocalDirectory returns a PathKindError if `localPath` exists but
// isn't a directory. Paths that don't exist yet are allowed.
func ValidateLocalDirectory(localPath string) error {
	info, err := fs.Stat(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.WithContext(err, "stat")
	}

	if !info.IsDir() {
		return errors.PathKindError{Path: localPath, Reason: "is not a directory"}
	}
	return nil
}

// ValidateLocalSource returns a PathKindError unless `localPath` is an
// existing directory.
func ValidateLocalSource(localPath string) error {
	info, err := fs.Stat(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.PathKindError{Path: localPath, Reason: "does not exist"}
		}
		return errors.WithContext(err, "stat")
	}

	if !info.IsDir() {
		return errors.PathKindError{Path: localPath, Reason: "is not a directory"}
	}
	return nil
}

// ValidateAbsoluteRemote returns a PathKindError if `remotePath` isn't an
// absolute POSIX path.
func ValidateAbsoluteRemote(remotePath string) error {
	if !path.IsAbs(remotePath) {
		return errors.PathKindError{Path: remotePath, Reason: "is not an absolute remote path"}
	}
	return nil
}
