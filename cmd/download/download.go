package download

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/dropletctl/cmd/util"
	"github.com/sidkik/dropletctl/pkg/errors"
	"github.com/sidkik/dropletctl/pkg/transfer"
)

// Mocked for unit testing.
var (
	stdout           io.Writer = os.Stdout
	connectToDroplet           = util.ConnectToDroplet
	download                   = transfer.Download
)

// New creates a new `download` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "download DROPLET REMOTE_DIR LOCAL_DIR",
		Short: "Copy a directory tree from a droplet",
		Long: "Copy every file under REMOTE_DIR on the droplet into LOCAL_DIR, creating\n" +
			"directories as needed. Existing local files are overwritten, and local\n" +
			"files that don't exist remotely are left alone. REMOTE_DIR must be absolute.",
		Args: cobra.ExactArgs(3),
		Run: func(_ *cobra.Command, args []string) {
			if err := run(args[0], args[1], args[2]); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run(ref, remoteDir, localDir string) error {
	if err := transfer.ValidateAbsoluteRemote(remoteDir); err != nil {
		return err
	}
	if err := transfer.ValidateLocalDirectory(localDir); err != nil {
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

	pp := util.NewProgressPrinter(stdout, fmt.Sprintf("Downloading from %s", droplet.Name))
	go pp.Run()
	err = download(remoteDir, localDir, session)
	pp.StopWithPrint(util.ClearProgress)
	if err != nil {
		return errors.WithContext(err, "download")
	}

	fmt.Fprintf(stdout, "Downloaded %s:%s to %s\n", droplet.Name, remoteDir, localDir)
	return nil
}
