//go:build dlib

package face

import (
	"github.com/saturnino-fabrica-de-software/smartmark/internal/config"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/provider"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/provider/dlib"
)

func newDlibProvider(cfg *config.Config) (provider.FaceProvider, error) {
	return dlib.NewProvider(cfg.DlibModelsDir)
}
