//go:build !dlib

package face

import (
	"errors"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/config"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/provider"
)

func newDlibProvider(_ *config.Config) (provider.FaceProvider, error) {
	return nil, domain.ErrConfiguration.WithError(errors.New("dlib provider requires a build with -tags dlib"))
}
