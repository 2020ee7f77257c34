package rekognition

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/smithy-go"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

const (
	errCodeAccessDenied        = "AccessDeniedException"
	errCodeInvalidParameter    = "InvalidParameterException"
	errCodeInvalidImageFormat  = "InvalidImageFormatException"
	errCodeImageTooLarge       = "ImageTooLargeException"
	errCodeThroughputExceeded  = "ProvisionedThroughputExceededException"
	errCodeThrottlingException = "ThrottlingException"
)

// DetectFacesAPI is the subset of the Rekognition client used by Provider
type DetectFacesAPI interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// NewClient creates a Rekognition client using the AWS default credential chain
func NewClient(ctx context.Context, cfg Config) (*rekognition.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return rekognition.NewFromConfig(awsCfg), nil
}

// mapAPIError translates Rekognition error codes into domain errors
func mapAPIError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case errCodeInvalidParameter, errCodeInvalidImageFormat, errCodeImageTooLarge:
			return domain.ErrInvalidImage.WithError(fmt.Errorf("%w: %s", ErrInvalidImage, apiErr.ErrorMessage()))
		case errCodeAccessDenied:
			return domain.ErrConfiguration.WithError(ErrInvalidCredentials)
		case errCodeThroughputExceeded, errCodeThrottlingException:
			return domain.ErrProviderUnavailable.WithError(ErrThrottled)
		}
	}
	return domain.ErrProviderUnavailable.WithError(fmt.Errorf("detect faces: %w", err))
}
