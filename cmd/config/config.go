package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/dropletctl/cmd/util"
	"github.com/sidkik/dropletctl/pkg/config"
	"github.com/sidkik/dropletctl/pkg/errors"
)

// defaultRegion is suggested when the user hasn't picked a region yet.
const defaultRegion = "nyc3"

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	stdin           io.Reader = os.Stdin
	parseUserConfig           = config.ParseUser
	writeUserConfig           = config.WriteUser
)

// New creates a new `config` command.
func New() *cobra.Command {
	var cliOpts config.User
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Setup the dropletctl user configuration",
		Run: func(_ *cobra.Command, _ []string) {
			if err := SetupConfig(cliOpts); err != nil {
				err = errors.NewFriendlyError("Failed to setup configuration:\n%s", err)
				util.HandleFatalError(err)
			}
		},
	}
	flagHelp := "Optional: If not set, `dropletctl config` will interactively prompt."
	cmd.Flags().StringVar(&cliOpts.Token, "token", "",
		"Set the DigitalOcean API token in the config. "+flagHelp)
	cmd.Flags().StringVar(&cliOpts.KeyPath, "key-path", "",
		"Set the path of the SSH key used to access droplets. "+flagHelp)
	cmd.Flags().StringVar(&cliOpts.Region, "region", "",
		"Set the default region for new droplets. "+flagHelp)
	cmd.Flags().StringVar(&cliOpts.Size, "size", "",
		"Set the default size for new droplets. "+flagHelp)
	cmd.Flags().StringVar(&cliOpts.Image, "image", "",
		"Set the default image for new droplets. "+flagHelp)

	// Setup the commands for querying the contents of the user config.
	type getterSpec struct {
		use, short string
		fn         func(config.User) string
	}

	getters := []getterSpec{
		{
			use:   "get-region",
			short: "Get the default region for new droplets",
			fn:    func(cfg config.User) string { return cfg.Region },
		},
		{
			use:   "get-key-path",
			short: "Get the path of the SSH key used to access droplets",
			fn:    func(cfg config.User) string { return cfg.KeyPath },
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Run: func(_ *cobra.Command, _ []string) {
				cfg, err := parseUserConfig()
				if err != nil {
					err = errors.WithContext(err, "read config")
					util.HandleFatalError(err)
				}

				fmt.Fprintln(stdout, getter.fn(cfg))
			},
		})
	}

	return cmd
}

// SetupConfig prompts for any settings that aren't in `cliOpts`, and writes
// the result to the user config.
func SetupConfig(cliOpts config.User) error {
	cfg, err := generateConfig(cliOpts)
	if err != nil {
		return errors.WithContext(err, "generate config")
	}

	if err := writeUserConfig(cfg); err != nil {
		return errors.WithContext(err, "write config")
	}

	path, err := config.GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "get user config path")
	}

	fmt.Fprintf(stdout, "Wrote config to %s\n", path)
	return nil
}

var (
	tokenRegexp = regexp.MustCompile(`^(dop_v1_)?[0-9a-f]{64}$`)
	slugRegexp  = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)
)

func tokenValidationFn(token string) (string, bool) {
	if tokenRegexp.MatchString(token) {
		return "", true
	}
	return "This doesn't look like a DigitalOcean API token. " +
		"Tokens can be generated at https://cloud.digitalocean.com/account/api/tokens.", false
}

func slugValidationFn(slug string) (string, bool) {
	if slugRegexp.MatchString(slug) {
		return "", true
	}
	return "Slugs only contain lowercase letters, numbers, and `-`, " +
		"and don't start or end with `-`. " +
		"Run `dropletctl list` to see the valid choices.", false
}

type prompt struct {
	helpString, prompt, defaultAnswer, currAnswer string
	field                                         *string
	validationFn                                  func(string) (string, bool)
}

// generateConfig interacts with the user to decide what the user's desired
// configuration is.
// It suggests reasonable defaults, and allows users to explicitly override
// them if desired.
func generateConfig(cliOpts config.User) (config.User, error) {
	currConfig, err := parseUserConfig()
	if err != nil {
		currConfig = config.User{}
		log.WithError(err).Debug("Failed to read current config")
	}

	cfg := cliOpts
	var prompts []prompt
	if cliOpts.Token == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the DigitalOcean API token.\n" +
				"It needs read and write access to create and delete droplets.",
			prompt:       "API token",
			currAnswer:   currConfig.Token,
			field:        &cfg.Token,
			validationFn: tokenValidationFn,
		})
	}

	if cliOpts.KeyPath == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the path of the SSH key used to access droplets.\n" +
				"It's generated if it doesn't exist.",
			prompt:        "SSH key path",
			defaultAnswer: config.DefaultKeyPath,
			currAnswer:    currConfig.KeyPath,
			field:         &cfg.KeyPath,
		})
	}

	if cliOpts.Region == "" {
		prompts = append(prompts, prompt{
			helpString:    "Enter the region to create droplets in by default.",
			prompt:        "Region",
			defaultAnswer: defaultRegion,
			currAnswer:    currConfig.Region,
			field:         &cfg.Region,
			validationFn:  slugValidationFn,
		})
	}

	if cliOpts.Size == "" {
		prompts = append(prompts, prompt{
			helpString:    "Enter the size of droplets to create by default.",
			prompt:        "Size",
			defaultAnswer: config.DefaultSize,
			currAnswer:    currConfig.Size,
			field:         &cfg.Size,
			validationFn:  slugValidationFn,
		})
	}

	if cliOpts.Image == "" {
		prompts = append(prompts, prompt{
			helpString:    "Enter the image that droplets boot from by default.",
			prompt:        "Image",
			defaultAnswer: config.DefaultImage,
			currAnswer:    currConfig.Image,
			field:         &cfg.Image,
			validationFn:  slugValidationFn,
		})
	}

	for _, prompt := range prompts {
		var resp string
		for {
			resp, err = promptUser(prompt.helpString, prompt.prompt,
				prompt.defaultAnswer, prompt.currAnswer)
			if err != nil {
				return config.User{}, errors.WithContext(err, "read response")
			}

			if prompt.validationFn == nil {
				break
			}

			validationErr, ok := prompt.validationFn(resp)
			if ok {
				break
			}

			fmt.Fprintln(stdout, validationErr)
		}

		*prompt.field = resp
	}

	return cfg, nil
}

func promptUser(helpString, prompt, defaultAnswer, currAnswer string) (string, error) {
	// Display a new line at the end to separate different fields to make it
	// look clearer.
	defer fmt.Fprintln(stdout)

	options := []string{}
	if defaultAnswer != "" {
		options = append(options, defaultAnswer)
	}
	if currAnswer != "" && currAnswer != defaultAnswer {
		options = append(options, currAnswer)
	}
	options = append(options, "(Enter manually)")

	fmt.Fprintln(stdout, helpString+"\n"+prompt+":")

	stdinReader := bufio.NewReader(stdin)

	if nOptions := len(options); nOptions > 1 {
		// defaultAnswer or currAnswer exists.
		fmt.Fprintln(stdout)
		for i, option := range options {
			if i == 0 {
				option = fmt.Sprintf("%s (recommended)", option)
			}
			fmt.Fprintf(stdout, "\t%d. %s\n", i+1, option)
		}
		fmt.Fprintln(stdout)

		for {
			fmt.Fprintf(stdout, "Please choose one [1-%d]: ", nOptions)
			choiceStr, err := stdinReader.ReadString('\n')
			if err != nil {
				return "", err
			}

			var choice int
			choiceStr = strings.TrimRight(choiceStr, "\n")

			// Default to the first choice if user doesn't enter anything.
			if choiceStr == "" {
				choice = 1
			} else {
				choice, err = strconv.Atoi(choiceStr)
				if err != nil || choice < 1 || choice > nOptions {
					// Try again if the input is invalid.
					continue
				}
			}

			if choice == nOptions {
				// Enter manually.
				break
			}

			return options[choice-1], nil
		}
	}

	fmt.Fprint(stdout, "Please enter manually: ")
	resp, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimRight(resp, "\n"), nil
}
