package config

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"

	"github.com/sidkik/dropletctl/pkg/errors"
)

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// parseConfigErrTemplate is shown when a config file isn't valid YAML, has
// fields of the wrong type, or has fields that don't exist. The parser's
// error message is appended since it's the only detail we have.
const parseConfigErrTemplate = "Configuration file could not be parsed. " +
	"Please review %q.\n" +
	"Common pitfalls include:\n" +
	" - Using the wrong types for fields\n" +
	" - Having extra fields inside the config file\n\n" +
	"For reference, here is the error from the parser:\n" +
	"%s"

// versioned is implemented by every config file format.
type versioned interface {
	getVersion() string
}

type incompatibleVersionError struct {
	path, exp, actual string
}

func (err incompatibleVersionError) Error() string {
	return err.FriendlyMessage()
}

func (err incompatibleVersionError) FriendlyMessage() string {
	return fmt.Sprintf("The configuration file %q is incompatible "+
		"with this version of dropletctl.\n"+
		"Expected version %q, but got %q.", err.path, err.exp, err.actual)
}

// parseConfig reads the YAML file at `path` into `config`. A missing file
// results in an errors.FileNotFound. The version is checked before unknown
// fields are rejected, so that files written by a newer release report the
// version mismatch rather than the new fields.
func parseConfig(path string, config versioned, expVersion string) error {
	contents, err := afero.ReadFile(fs, path)
	switch {
	case os.IsNotExist(err):
		return errors.FileNotFound{Path: path}
	case err != nil:
		return errors.WithContext(err, "read file")
	}

	if err := yaml.Unmarshal(contents, config); err != nil {
		return errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}

	if actual := config.getVersion(); actual != expVersion {
		return incompatibleVersionError{path: path, exp: expVersion, actual: actual}
	}

	if err := yaml.UnmarshalStrict(contents, config, yaml.DisallowUnknownFields); err != nil {
		return errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}
	return nil
}
