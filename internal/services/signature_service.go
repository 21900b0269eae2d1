package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"campus-approvals/internal/models"
	"campus-approvals/internal/repository"
)

var (
	ErrNoFile       = errors.New("no signature file provided")
	ErrBadFileType  = errors.New("signature must be a png or jpeg image")
	ErrFileTooLarge = errors.New("signature file exceeds the size limit")
)

// MaxSignatureSize is the largest accepted signature upload.
const MaxSignatureSize = 2 << 20 // 2 MiB

var allowedSignatureTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
}

var allowedSignatureExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// SignatureService stores one signature image per user under the upload root.
type SignatureService struct {
	users     repository.UserRepositoryInterface
	uploadDir string
	logger    *logrus.Entry
}

// NewSignatureService creates a new SignatureService
func NewSignatureService(users repository.UserRepositoryInterface, uploadDir string) *SignatureService {
	return &SignatureService{
		users:     users,
		uploadDir: uploadDir,
		logger:    logrus.WithField("component", "signature_service"),
	}
}

// Get returns the user's stored signature, or repository.ErrNotFound.
func (s *SignatureService) Get(ctx context.Context, userID uuid.UUID) (*models.Signature, error) {
	return s.users.GetSignatureByUserID(ctx, userID)
}

// Upload validates the file and replaces the user's signature. The upload is
// accepted only when the filename extension, the declared content type and
// the actual file bytes all agree on png or jpeg.
func (s *SignatureService) Upload(ctx context.Context, userID uuid.UUID, fileHeader *multipart.FileHeader) (*models.Signature, error) {
	if fileHeader == nil || fileHeader.Filename == "" {
		return nil, ErrNoFile
	}
	if fileHeader.Size > MaxSignatureSize {
		return nil, ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedSignatureExts[ext] {
		return nil, ErrBadFileType
	}

	declared := strings.ToLower(strings.TrimSpace(strings.Split(fileHeader.Header.Get("Content-Type"), ";")[0]))
	if !allowedSignatureTypes[declared] {
		return nil, ErrBadFileType
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, MaxSignatureSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxSignatureSize {
		return nil, ErrFileTooLarge
	}

	sniffed := sniffImageType(data)
	if sniffed != declared {
		return nil, ErrBadFileType
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s%s", userID, time.Now().UTC().Format("20060102150405"), ext)
	fullPath := filepath.Join(s.uploadDir, filename)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to store signature: %w", err)
	}

	prevPath := ""
	if prev, err := s.users.GetSignatureByUserID(ctx, userID); err == nil && prev.ImagePath != filename {
		prevPath = prev.ImagePath
	}

	sig := &models.Signature{
		UserID:     userID,
		ImagePath:  filename,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.users.UpsertSignature(ctx, sig); err != nil {
		// The DB row still points at the old file; drop the orphaned new one.
		if rmErr := os.Remove(fullPath); rmErr != nil && !os.IsNotExist(rmErr) {
			s.logger.WithError(rmErr).Warn("Failed to remove unsaved signature file")
		}
		return nil, fmt.Errorf("failed to save signature: %w", err)
	}

	// Only now is the old image on disk unreferenced and safe to remove.
	if prevPath != "" {
		if rmErr := os.Remove(filepath.Join(s.uploadDir, filepath.Base(prevPath))); rmErr != nil && !os.IsNotExist(rmErr) {
			s.logger.WithError(rmErr).Warn("Failed to remove previous signature file")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"file":    filename,
	}).Info("Signature uploaded")

	return sig, nil
}

// ResolvePath maps a stored signature filename to its on-disk location,
// refusing anything that escapes the upload root.
func (s *SignatureService) ResolvePath(filename string) (string, error) {
	if filename == "" || filename == "." || filename == ".." || filepath.Base(filename) != filename {
		return "", repository.ErrNotFound
	}
	full := filepath.Join(s.uploadDir, filename)
	if _, err := os.Stat(full); err != nil {
		return "", repository.ErrNotFound
	}
	return full, nil
}

var (
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
)

// sniffImageType inspects the leading bytes and returns the detected image
// content type, or an empty string when the format is not recognized.
func sniffImageType(data []byte) string {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return "image/png"
	case bytes.HasPrefix(data, jpegMagic):
		return "image/jpeg"
	default:
		return ""
	}
}
