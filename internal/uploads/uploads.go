// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

// Package uploads implements the two-step media upload contract: presign a
// time-limited PUT URL against S3-compatible storage, then confirm the key
// into a public URL. Validation happens before any URL is issued.
package uploads

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/nestling-app/nestling/internal/config"
)

// Validation errors, surfaced to the client before any presigned URL exists.
var (
	ErrMIMENotAllowed = errors.New("content type is not allowed")
	ErrFileTooLarge   = errors.New("file exceeds the size limit for its type")
	ErrEmptyFile      = errors.New("file size must be positive")
	ErrKeyNotOwned    = errors.New("storage key does not belong to this user")
)

// PresignedUpload is the response to a presign request.
type PresignedUpload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// putObjectPresigner is the slice of the S3 presign client we use. Tests
// substitute a fake.
type putObjectPresigner interface {
	PresignPutObject(ctx context.Context, input *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4PresignedRequest, error)
}

// v4PresignedRequest mirrors the fields we need from the SDK's presigned
// request.
type v4PresignedRequest struct {
	URL    string
	Method string
}

// sdkPresigner adapts s3.PresignClient to putObjectPresigner.
type sdkPresigner struct {
	client *s3.PresignClient
	ttl    time.Duration
}

func (p *sdkPresigner) PresignPutObject(ctx context.Context, input *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4PresignedRequest, error) {
	req, err := p.client.PresignPutObject(ctx, input, append(optFns, s3.WithPresignExpires(p.ttl))...)
	if err != nil {
		return nil, err
	}
	return &v4PresignedRequest{URL: req.URL, Method: req.Method}, nil
}

// Service issues presigned upload URLs and confirms completed uploads.
type Service struct {
	cfg       *config.UploadsConfig
	presigner putObjectPresigner
}

// NewService builds the upload service against the configured S3-compatible
// endpoint (AWS, MinIO, or R2).
func NewService(ctx context.Context, cfg *config.UploadsConfig) (*Service, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage credentials: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &Service{
		cfg:       cfg,
		presigner: &sdkPresigner{client: s3.NewPresignClient(client), ttl: cfg.URLTTL},
	}, nil
}

// newServiceWithPresigner wires a custom presigner. Test use only.
func newServiceWithPresigner(cfg *config.UploadsConfig, p putObjectPresigner) *Service {
	return &Service{cfg: cfg, presigner: p}
}

// Presign validates the declared file and returns a time-limited PUT URL.
// MIME allow-list and size caps are enforced here, before issuance; the
// declared content type and length are baked into the signature so storage
// rejects a mismatched upload.
func (s *Service) Presign(ctx context.Context, userID uuid.UUID, fileName, contentType string, sizeBytes int64) (*PresignedUpload, error) {
	if err := s.validate(contentType, sizeBytes); err != nil {
		return nil, err
	}

	key, err := buildKey(userID, fileName)
	if err != nil {
		return nil, err
	}

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(sizeBytes),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &PresignedUpload{
		Key:       key,
		URL:       req.URL,
		Method:    req.Method,
		ExpiresAt: time.Now().Add(s.cfg.URLTTL),
	}, nil
}

// Confirm verifies the key belongs to the caller and returns the final
// public URL for storing on a record.
func (s *Service) Confirm(userID uuid.UUID, key string) (string, error) {
	if !strings.HasPrefix(key, keyPrefix(userID)) || strings.Contains(key, "..") {
		return "", ErrKeyNotOwned
	}
	return strings.TrimSuffix(s.cfg.PublicBaseURL, "/") + "/" + key, nil
}

// validate checks the declared type and size against the allow-list and caps.
func (s *Service) validate(contentType string, sizeBytes int64) error {
	if sizeBytes <= 0 {
		return ErrEmptyFile
	}

	allowed := false
	for _, mime := range s.cfg.AllowedMIMEs {
		if strings.EqualFold(mime, contentType) {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrMIMENotAllowed
	}

	limit := s.cfg.MaxImageBytes
	if strings.HasPrefix(strings.ToLower(contentType), "video/") {
		limit = s.cfg.MaxVideoBytes
	}
	if sizeBytes > limit {
		return ErrFileTooLarge
	}
	return nil
}

// keyPrefix is the per-user namespace all of a user's uploads live under.
func keyPrefix(userID uuid.UUID) string {
	return "uploads/" + userID.String() + "/"
}

// buildKey generates a collision-resistant storage key:
// uploads/{user_id}/{yyyymmdd}/{unix_nano}_{random8}{ext}
func buildKey(userID uuid.UUID, fileName string) (string, error) {
	randBytes := make([]byte, 4)
	if _, err := rand.Read(randBytes); err != nil {
		return "", fmt.Errorf("failed to generate key suffix: %w", err)
	}

	now := time.Now().UTC()
	ext := strings.ToLower(path.Ext(fileName))

	return fmt.Sprintf("%s%s/%d_%s%s",
		keyPrefix(userID),
		now.Format("20060102"),
		now.UnixNano(),
		hex.EncodeToString(randBytes),
		ext,
	), nil
}
