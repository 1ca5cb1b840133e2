package env

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const DefaultEnvFile = ".env"

// InitConfig fills config from the process environment. Variables found in
// files (DefaultEnvFile when none given) are loaded first without overriding
// variables that are already set. Missing files are ignored.
func InitConfig(config any, files ...string) error {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}
	for _, f := range files {
		// nolint:errcheck // env files are optional
		_ = godotenv.Load(f)
	}

	if err := envconfig.Process("", config); err != nil {
		return errors.Wrap(err, "failed to envconfig.Process")
	}

	return nil
}
