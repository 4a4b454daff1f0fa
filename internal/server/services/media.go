package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/rustytech/internal/common"
	"github.com/dmitrijs2005/rustytech/internal/server/media"
)

// MediaService backs the standalone image and video endpoints.
type MediaService struct {
	store MediaStore
}

func NewMediaService(store MediaStore) *MediaService {
	return &MediaService{store: store}
}

func (s *MediaService) UploadImage(ctx context.Context, f File) (*media.Uploaded, error) {
	if len(f.Data) == 0 {
		return nil, badRequest(common.MsgDataRecheck)
	}
	up, err := s.store.UploadImage(ctx, f.Data)
	if err != nil {
		return nil, uploadFailure(err)
	}
	return up, nil
}

func (s *MediaService) UploadVideo(ctx context.Context, f File) (*media.Uploaded, error) {
	if len(f.Data) == 0 {
		return nil, badRequest(common.MsgDataRecheck)
	}
	up, err := s.store.UploadVideo(ctx, f.Name, f.Data)
	if err != nil {
		return nil, uploadFailure(err)
	}
	return up, nil
}

func (s *MediaService) ImageMetadata(f File) (*media.ImageMetadata, error) {
	if _, err := media.Detect(f.Data, media.KindImage); err != nil {
		return nil, uploadFailure(err)
	}
	meta, err := media.ReadImageMetadata(f.Data)
	if err != nil {
		return nil, badRequest(common.MsgUnsupportedMedia)
	}
	return &meta, nil
}

func (s *MediaService) VideoMetadata(f File) (*media.VideoMetadata, error) {
	m, err := media.Detect(f.Data, media.KindVideo)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedType) {
			return nil, badRequest(common.MsgUnsupportedMedia)
		}
		return nil, err
	}
	return &media.VideoMetadata{
		Name:        f.Name,
		ContentType: m.String(),
		Size:        int64(len(f.Data)),
	}, nil
}
