package conf

import (
	stderrors "errors"

	"github.com/spf13/viper"
)

// asConfigFileNotFound reports whether err is viper's config-file-not-found error.
func asConfigFileNotFound(err error, target *viper.ConfigFileNotFoundError) bool {
	return stderrors.As(err, target)
}
