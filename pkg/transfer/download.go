package transfer

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/dropletctl/pkg/errors"
	"github.com/sidkik/dropletctl/pkg/remote"
)

// Download replicates the tree rooted at `remoteDir` onto `localDir`. Missing
// local directories are created, and existing local files are overwritten.
// Local files that don't exist remotely are left alone.
//
// If `localDir` is `/home/foobar`, `remoteDir` is `/foo/bar`, and
// `/foo/bar/test.txt` exists, then it's downloaded to `/home/foobar/test.txt`.
//
// The remote host must have `find` installed.
func Download(remoteDir, localDir string, session remote.Remote) error {
	if err := ValidateAbsoluteRemote(remoteDir); err != nil {
		return err
	}
	if err := ValidateLocalDirectory(localDir); err != nil {
		return err
	}

	if err := fs.MkdirAll(localDir, 0755); err != nil {
		return errors.TransferError{Op: MakeDir.String(), Path: localDir, Err: err}
	}

	remoteFiles, err := ListRemoteFiles(session, remoteDir)
	if err != nil {
		return err
	}

	plan, err := PlanDownload(remoteDir, localDir, remoteFiles)
	if err != nil {
		return err
	}

	ch, err := session.OpenFileChannel()
	if err != nil {
		return errors.WithContext(err, "open file channel")
	}
	defer ch.Close()

	if err := plan.Execute(ch); err != nil {
		return err
	}

	stats := plan.Stats()
	log.WithFields(log.Fields{
		"local":  localDir,
		"remote": remoteDir,
	}).Infof("Downloaded %d files into %d directories.", stats.Files, stats.Directories)
	return nil
}

// FindCommand returns the shell command that lists every regular file under
// `remoteDir`, one absolute path per line.
func FindCommand(remoteDir string) string {
	return fmt.Sprintf("find %s -type f", shellQuote(remoteDir))
}

func shellQuote(s string) string {
	return "'" + strings.Replace(s, "'", `'\''`, -1) + "'"
}

// ListRemoteFiles returns the absolute paths of the regular files under
// `remoteDir`, in the order that `find` reports them. The command's output is
// fully read before returning, so the session is free for other operations.
func ListRemoteFiles(session remote.Remote, remoteDir string) ([]string, error) {
	lines, err := session.Run(FindCommand(remoteDir))
	if err != nil {
		return nil, errors.TransferError{Op: "find", Path: remoteDir, Err: err}
	}

	var files []string
	for lines.Next() {
		if line := lines.Text(); line != "" {
			files = append(files, line)
		}
	}

	readErr := lines.Err()
	closeErr := lines.Close()
	if readErr != nil {
		return nil, errors.TransferError{Op: "find", Path: remoteDir, Err: readErr}
	}
	if closeErr != nil {
		return nil, errors.TransferError{Op: "find", Path: remoteDir, Err: closeErr}
	}
	return files, nil
}

// PlanDownload returns the steps for downloading `remoteFiles`, which must
// all be inside `remoteDir`, to `localDir`.
func PlanDownload(remoteDir, localDir string, remoteFiles []string) (Plan, error) {
	if err := ValidateAbsoluteRemote(remoteDir); err != nil {
		return Plan{}, err
	}

	localDir = filepath.Clean(localDir)
	plan := Plan{Direction: ToLocal}
	plan.makeDir(localDir)

	root := path.Clean(remoteDir)
	created := map[string]struct{}{}
	for _, remoteFile := range remoteFiles {
		rel, err := remoteRelative(root, remoteFile)
		if err != nil {
			return Plan{}, errors.TransferError{Op: GetFile.String(), Path: remoteFile, Err: err}
		}

		localPath := filepath.Join(localDir, filepath.FromSlash(rel))
		localRel, err := filepath.Rel(localDir, localPath)
		if err != nil || localRel == "." || localRel == ".." ||
			strings.HasPrefix(localRel, ".."+string(filepath.Separator)) {
			return Plan{}, errors.TransferError{
				Op:   GetFile.String(),
				Path: remoteFile,
				Err:  fmt.Errorf("resolves outside of %q", localDir),
			}
		}

		// Create each ancestor, from the root down, before the file itself.
		segments := strings.Split(rel, "/")
		for i := 1; i < len(segments); i++ {
			dir := filepath.Join(localDir, filepath.FromSlash(path.Join(segments[:i]...)))
			if _, ok := created[dir]; ok {
				continue
			}
			created[dir] = struct{}{}
			plan.makeDir(dir)
		}

		plan.get(path.Join(root, rel), localPath)
	}
	return plan, nil
}

// remoteRelative returns `remotePath` relative to `root`. Both must be
// absolute, `remotePath` must be strictly inside of `root`, and it may not
// contain `..` segments.
func remoteRelative(root, remotePath string) (string, error) {
	if !path.IsAbs(remotePath) {
		return "", fmt.Errorf("%q is not absolute", remotePath)
	}

	for _, segment := range strings.Split(remotePath, "/") {
		if segment == ".." {
			return "", fmt.Errorf("%q contains a `..` segment", remotePath)
		}
	}

	cleaned := path.Clean(remotePath)
	prefix := root
	if prefix != "/" {
		prefix += "/"
	}

	if !strings.HasPrefix(cleaned, prefix) {
		return "", fmt.Errorf("%q is outside of %q", remotePath, root)
	}

	rel := strings.TrimPrefix(cleaned, prefix)
	if rel == "" {
		return "", fmt.Errorf("%q is not inside of %q", remotePath, root)
	}
	return rel, nil
}
