package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/edenhall/corecrm/internal/config"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	FileFolderProfilePicture = "profile-picture"
	FileFolderWorkspaceLogo  = "workspace-logo"

	maxImageBytes = 10 << 20
)

// FileService stores uploaded files in object storage, namespaced per
// workspace.
type FileService struct {
	client *minio.Client
	bucket string
	http   *http.Client
}

func NewFileService(cfg config.MinIOConfig) (*FileService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &FileService{
		client: client,
		bucket: cfg.Bucket,
		http:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *FileService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

type UploadImageInput struct {
	File        []byte
	Filename    string
	MimeType    string
	FileFolder  string
	WorkspaceID uuid.UUID
}

func (s *FileService) UploadImage(ctx context.Context, input UploadImageInput) ([]string, error) {
	objectName := path.Join(input.WorkspaceID.String(), input.FileFolder, input.Filename)

	_, err := s.client.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(input.File), int64(len(input.File)),
		minio.PutObjectOptions{ContentType: input.MimeType})
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	return []string{objectName}, nil
}

// UploadPictureFromURL fetches a remote image (an SSO provider avatar) and
// stores it under the workspace's profile-picture folder.
func (s *FileService) UploadPictureFromURL(ctx context.Context, pictureURL string, workspaceID uuid.UUID) (*string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pictureURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid picture url: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch picture: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("picture fetch returned status %d", resp.StatusCode)
	}

	buf, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read picture: %w", err)
	}

	mimeType := http.DetectContentType(buf)
	ext := "img"
	switch mimeType {
	case "image/png":
		ext = "png"
	case "image/jpeg":
		ext = "jpg"
	case "image/gif":
		ext = "gif"
	case "image/webp":
		ext = "webp"
	}

	paths, err := s.UploadImage(ctx, UploadImageInput{
		File:        buf,
		Filename:    fmt.Sprintf("%s.%s", uuid.New(), ext),
		MimeType:    mimeType,
		FileFolder:  FileFolderProfilePicture,
		WorkspaceID: workspaceID,
	})
	if err != nil {
		return nil, err
	}

	return &paths[0], nil
}
