package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/dropletctl/cmd/autodelete"
	configCmd "github.com/sidkik/dropletctl/cmd/config"
	"github.com/sidkik/dropletctl/cmd/create"
	"github.com/sidkik/dropletctl/cmd/download"
	"github.com/sidkik/dropletctl/cmd/exec"
	"github.com/sidkik/dropletctl/cmd/keys"
	"github.com/sidkik/dropletctl/cmd/list"
	"github.com/sidkik/dropletctl/cmd/ssh"
	"github.com/sidkik/dropletctl/cmd/upload"
	"github.com/sidkik/dropletctl/cmd/util"
	"github.com/sidkik/dropletctl/cmd/version"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "DROPLETCTL_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:   "dropletctl",
		Short: "Create DigitalOcean droplets and sync directories with them",
		Long: "dropletctl creates short-lived DigitalOcean droplets, and copies\n" +
			"directory trees between the local machine and droplets over SSH.",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		autodelete.New(),
		configCmd.New(),
		create.New(),
		download.New(),
		exec.New(),
		keys.New(),
		list.New(),
		ssh.New(),
		upload.New(),
		version.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}
