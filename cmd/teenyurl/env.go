package main

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// EnvironmentVariablePrefix prefixes the variables that may set CLI flags.
const EnvironmentVariablePrefix = "TEENYURL_"

// setFlagsFromEnvVariables sets each flag from its environment variable, if
// present, so --env-file can also be given as TEENYURL_ENV_FILE. Flags given
// on the command line are parsed later and take precedence.
func setFlagsFromEnvVariables(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if val, present := os.LookupEnv(flagToEnvVarName(f)); present {
			_ = fs.Set(f.Name, val)
		}
	})
}

func flagToEnvVarName(f *pflag.Flag) string {
	return EnvironmentVariablePrefix + strings.ReplaceAll(strings.ToUpper(f.Name), "-", "_")
}
