package transfer

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/dropletctl/pkg/errors"
	"github.com/sidkik/dropletctl/pkg/remote"
)

// Upload replicates the tree rooted at `localDir` onto `remoteDir`. Missing
// remote directories are created, and existing remote files are overwritten.
// Remote files that don't exist locally are left alone.
//
// If `localDir` is `/home/foobar`, `remoteDir` is `/foo/bar`, and
// `/home/foobar/test.txt` exists, then it's uploaded to `/foo/bar/test.txt`.
func Upload(localDir, remoteDir string, session remote.Remote) error {
	plan, err := PlanUpload(localDir, remoteDir)
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
	}).Infof("Uploaded %d files into %d directories.", stats.Files, stats.Directories)
	return nil
}

// PlanUpload returns the steps for uploading `localDir` to `remoteDir`
// without touching the remote host.
func PlanUpload(localDir, remoteDir string) (Plan, error) {
	if err := ValidateLocalSource(localDir); err != nil {
		return Plan{}, err
	}
	if err := ValidateAbsoluteRemote(remoteDir); err != nil {
		return Plan{}, err
	}

	plan := Plan{Direction: ToRemote}

	// The intermediate directories of the remote root might not exist yet,
	// so create the full prefix before copying anything.
	remoteDir = path.Clean(remoteDir)
	for _, dir := range remoteAncestors(remoteDir) {
		plan.makeDir(dir)
	}

	if err := planUploadDir(&plan, localDir, remoteDir); err != nil {
		return Plan{}, errors.WithContext(err, "walk local directory")
	}
	return plan, nil
}

// planUploadDir adds the contents of `localDir` to the plan. Each directory's
// children are created before its files are copied and before descending
// into any of them.
func planUploadDir(plan *Plan, localDir, remoteDir string) error {
	entries, err := afero.ReadDir(fs, localDir)
	if err != nil {
		return err
	}

	var subdirs []os.FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			plan.makeDir(path.Join(remoteDir, entry.Name()))
			subdirs = append(subdirs, entry)
		}
	}

	for _, entry := range entries {
		localPath := filepath.Join(localDir, entry.Name())
		switch {
		case entry.IsDir():
		case entry.Mode().IsRegular():
			plan.put(localPath, path.Join(remoteDir, entry.Name()))
		default:
			log.WithField("path", localPath).Debug("Skipping file that isn't a regular file")
		}
	}

	for _, dir := range subdirs {
		err := planUploadDir(plan,
			filepath.Join(localDir, dir.Name()),
			path.Join(remoteDir, dir.Name()))
		if err != nil {
			return err
		}
	}
	return nil
}

// remoteAncestors returns every directory from just below the filesystem
// root down to and including `dir`. For example, `/srv/app` returns
// `/srv` and `/srv/app`.
func remoteAncestors(dir string) (dirs []string) {
	curr := ""
	for _, segment := range strings.Split(dir, "/") {
		if segment == "" {
			continue
		}
		curr += "/" + segment
		dirs = append(dirs, curr)
	}
	return dirs
}
