package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medrecords-api/pkg/circuitbreaker"
)

type uploadFunc func(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)

// CloudinaryStore uploads images to a Cloudinary account.
type CloudinaryStore struct {
	upload        uploadFunc
	cb            *circuitbreaker.CircuitBreaker
	defaultFolder string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

func NewCloudinaryStore(cfg CloudinaryConfig) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	return newCloudinaryStore(cld.Upload.Upload, cfg.Folder), nil
}

func newCloudinaryStore(fn uploadFunc, folder string) *CloudinaryStore {
	return &CloudinaryStore{
		upload: fn,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:                "cloudinary",
			MaxRequests:         1,
			Interval:            time.Minute,
			Timeout:             30 * time.Second,
			ConsecutiveFailures: 5,
			OnStateChange: func(name, from, to string) {
				log.Warn().Str("breaker", name).Str("from", from).Str("to", to).Msg("circuit breaker state changed")
			},
		}),
		defaultFolder: folder,
	}
}

func (s *CloudinaryStore) UploadImage(ctx context.Context, r io.Reader, opts UploadOptions) (*UploadResult, error) {
	folder := opts.Folder
	if folder == "" {
		folder = s.defaultFolder
	}

	params := uploader.UploadParams{
		Folder:       folder,
		ResourceType: "image",
	}
	if opts.Filename != "" {
		params.Context = api.CldAPIMap{"filename": opts.Filename}
	}

	var resp *uploader.UploadResult
	err := s.cb.Execute(func() error {
		var err error
		resp, err = s.upload(ctx, r, params)
		if err != nil {
			return err
		}
		if resp == nil {
			return errors.New("empty upload response")
		}
		if resp.Error.Message != "" {
			return errors.New(resp.Error.Message)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload failed: %w", err)
	}

	return &UploadResult{
		URL:      resp.SecureURL,
		PublicID: resp.PublicID,
		Bytes:    resp.Bytes,
	}, nil
}
