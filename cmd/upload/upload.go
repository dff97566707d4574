package upload

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/dropletctl/cmd/util"
	"github.com/sidkik/dropletctl/pkg/errors"
	"github.com/sidkik/dropletctl/pkg/fswatch"
	"github.com/sidkik/dropletctl/pkg/transfer"
)

// Mocked for unit testing.
var (
	stdout           io.Writer = os.Stdout
	connectToDroplet           = util.ConnectToDroplet
	upload                     = transfer.Upload
	watchDir                   = func(dir string) (<-chan struct{}, func() error, error) {
		watcher, err := fswatch.Watch(dir)
		if err != nil {
			return nil, nil, err
		}
		return watcher.Triggers, watcher.Close, nil
	}
)

// New creates a new `upload` command.
func New() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "upload DROPLET LOCAL_DIR REMOTE_DIR",
		Short: "Copy a local directory tree to a droplet",
		Long: "Copy every file under LOCAL_DIR to REMOTE_DIR on the droplet, creating\n" +
			"directories as needed. Existing remote files are overwritten, and remote\n" +
			"files that don't exist locally are left alone. REMOTE_DIR must be absolute.",
		Args: cobra.ExactArgs(3),
		Run: func(_ *cobra.Command, args []string) {
			stop := make(chan struct{})
			signals := make(chan os.Signal, 1)
			signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-signals
				close(stop)
			}()

			if err := run(args[0], args[1], args[2], watch, stop); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false,
		"Keep running, and upload again whenever the local directory changes.")
	return cmd
}

func run(ref, localDir, remoteDir string, watch bool, stop <-chan struct{}) error {
	if err := transfer.ValidateLocalSource(localDir); err != nil {
		return err
	}
	if err := transfer.ValidateAbsoluteRemote(remoteDir); err != nil {
		return err
	}

	session, droplet, err := connectToDroplet(ref)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.WithError(err).Debug("Failed to close session")
		}
	}()

	pp := util.NewProgressPrinter(stdout, fmt.Sprintf("Uploading to %s", droplet.Name))
	go pp.Run()
	err = upload(localDir, remoteDir, session)
	pp.StopWithPrint(util.ClearProgress)
	if err != nil {
		return errors.WithContext(err, "upload")
	}
	fmt.Fprintf(stdout, "Uploaded %s to %s:%s\n", localDir, droplet.Name, remoteDir)

	if !watch {
		return nil
	}

	triggers, closeWatch, err := watchDir(localDir)
	if err != nil {
		return errors.WithContext(err, "watch")
	}
	defer func() {
		if err := closeWatch(); err != nil {
			log.WithError(err).Warn("Failed to close file watcher")
		}
	}()

	fmt.Fprintln(stdout, "Watching for changes. Press Ctrl-C to stop.")
	for {
		select {
		case <-stop:
			return nil
		case _, ok := <-triggers:
			if !ok {
				return nil
			}

			// A failed upload is retried on the next change.
			if err := upload(localDir, remoteDir, session); err != nil {
				log.WithError(err).Warn("Upload failed")
				continue
			}
			log.WithField("droplet", droplet.Name).Info("Uploaded changes")
		}
	}
}
