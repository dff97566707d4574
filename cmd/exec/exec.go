package exec

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/dropletctl/cmd/util"
	"github.com/sidkik/dropletctl/pkg/errors"
)

// Mocked for unit testing.
var (
	stdout           io.Writer = os.Stdout
	connectToDroplet           = util.ConnectToDroplet
)

// New creates a new `exec` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "exec DROPLET -- COMMAND [ARGS...]",
		Short: "Run a command on a droplet",
		Long: "Run a command on a droplet as root and print its output. DROPLET is\n" +
			"the droplet's ID or name. The command is interpreted by the remote shell.",
		Args: cobra.MinimumNArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			if err := run(args[0], strings.Join(args[1:], " ")); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run(ref, command string) error {
	session, droplet, err := connectToDroplet(ref)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			log.WithError(closeErr).Debug("Failed to close session")
		}
	}()

	log.WithFields(log.Fields{
		"droplet": droplet.Name,
		"command": command,
	}).Debug("Running command")

	lines, err := session.Run(command)
	if err != nil {
		return errors.WithContext(err, "run")
	}

	for lines.Next() {
		fmt.Fprintln(stdout, lines.Text())
	}

	if err := lines.Err(); err != nil {
		_ = lines.Close()
		return errors.WithContext(err, "read output")
	}
	return lines.Close()
}
