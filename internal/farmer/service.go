package farmer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"path/filepath"
	"strings"
	"time"

	"farm-to-keells/internal/auth"
	"farm-to-keells/internal/logger"

	"go.uber.org/zap"
)

const (
	maxAvatarBytes    = 2 << 20
	minPasswordLength = 6
)

// ObjectStore is the public file bucket holding profile images.
type ObjectStore interface {
	Upload(ctx context.Context, path, contentType string, body io.Reader) (string, error)
	Remove(ctx context.Context, path string) error
	PathFromURL(publicURL string) (string, bool)
}

type Service interface {
	Register(ctx context.Context, in RegisterInput) (string, *Farmer, error)
	Login(ctx context.Context, username, password string) (string, *Farmer, error)
	GetByID(ctx context.Context, id int64) (*Farmer, error)
	GetByEmail(ctx context.Context, email string) (*Farmer, error)
	DisplayName(ctx context.Context, id int64) (string, error)
	UpdateProfile(ctx context.Context, id int64, u ProfileUpdate) (*Farmer, error)
	UploadAvatar(ctx context.Context, id int64, meta Avatar, body io.Reader) (*Farmer, error)
	Browse(ctx context.Context, district District, search string) ([]Summary, error)
}

type service struct {
	repo  Repository
	store ObjectStore
	now   func() time.Time
}

func NewService(repo Repository, store ObjectStore) Service {
	return &service{repo: repo, store: store, now: time.Now}
}

// normalizeEmail gives the stored form of an address; lookups and the
// unique index compare it lowercased.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (in *RegisterInput) normalize() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
}

func (in RegisterInput) Validate() error {
	if in.FullName == "" || in.Email == "" || in.Username == "" || in.Location == "" || in.Password == "" {
		return ErrMissingFields
	}
	if in.Password != in.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if len(in.Password) < minPasswordLength {
		return ErrWeakPassword
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return ErrInvalidEmail
	}
	if !in.Location.Valid() {
		return ErrInvalidDistrict
	}
	return nil
}

func (s *service) Register(ctx context.Context, in RegisterInput) (string, *Farmer, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Register"),
	)

	in.normalize()
	if err := in.Validate(); err != nil {
		return "", nil, err
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return "", nil, err
	}

	f, err := s.repo.Create(ctx, &Farmer{
		FullName:    in.FullName,
		Email:       in.Email,
		Username:    in.Username,
		Password:    hashed,
		Location:    in.Location,
		PhoneNumber: in.PhoneNumber,
	})
	if err != nil {
		return "", nil, err
	}

	token, err := auth.GenerateJWT(&f.ID, f.Username, auth.RoleFarmer)
	if err != nil {
		log.Error("failed to generate jwt", zap.Int64("farmer_id", f.ID), zap.Error(err))
		return "", nil, err
	}

	log.Info("farmer registered", zap.Int64("farmer_id", f.ID))
	return token, f, nil
}

func (s *service) Login(ctx context.Context, username, password string) (string, *Farmer, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Login"),
	)

	f, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrFarmerNotFound) {
			log.Info("unknown username")
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !auth.CheckPasswordHash(password, f.Password) {
		log.Info("password mismatch", zap.Int64("farmer_id", f.ID))
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateJWT(&f.ID, f.Username, auth.RoleFarmer)
	if err != nil {
		return "", nil, err
	}
	return token, f, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*Farmer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByEmail(ctx context.Context, email string) (*Farmer, error) {
	return s.repo.GetByEmail(ctx, normalizeEmail(email))
}

// DisplayName reads the farmer's full name from the stored record.
func (s *service) DisplayName(ctx context.Context, id int64) (string, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return f.FullName, nil
}

func (s *service) UpdateProfile(ctx context.Context, id int64, u ProfileUpdate) (*Farmer, error) {
	if u.FullName != nil && strings.TrimSpace(*u.FullName) == "" {
		return nil, ErrMissingFields
	}
	if u.Email != nil {
		email := normalizeEmail(*u.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, ErrInvalidEmail
		}
		u.Email = &email
	}
	if u.Location != nil && !u.Location.Valid() {
		return nil, ErrInvalidDistrict
	}
	return s.repo.UpdateProfile(ctx, id, u)
}

// UploadAvatar stores a new profile image as <id>-<unix>.<ext>, points the
// farmer at it and then drops the previous image. Removing the old image is
// best effort.
func (s *service) UploadAvatar(ctx context.Context, id int64, meta Avatar, body io.Reader) (*Farmer, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UploadAvatar"),
		zap.Int64("farmer_id", id),
	)

	if !strings.HasPrefix(meta.ContentType, "image/") {
		return nil, ErrInvalidImage
	}
	if meta.Size > maxAvatarBytes {
		return nil, ErrImageTooLarge
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("%d-%d.%s", id, s.now().Unix(), avatarExt(meta))
	url, err := s.store.Upload(ctx, path, meta.ContentType, io.LimitReader(body, maxAvatarBytes+1))
	if err != nil {
		log.Error("avatar upload failed", zap.Error(err))
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	updated, err := s.repo.UpdateProfile(ctx, id, ProfileUpdate{AvatarURL: &url})
	if err != nil {
		return nil, err
	}

	if old, ok := s.store.PathFromURL(current.AvatarURL); ok && old != path {
		if err := s.store.Remove(ctx, old); err != nil {
			log.Warn("failed to remove previous avatar", zap.String("path", old), zap.Error(err))
		}
	}

	log.Info("avatar updated", zap.String("path", path))
	return updated, nil
}

func avatarExt(meta Avatar) string {
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(meta.Filename)), "."); ext != "" {
		return ext
	}
	return strings.TrimPrefix(meta.ContentType, "image/")
}

func (s *service) Browse(ctx context.Context, district District, search string) ([]Summary, error) {
	if district != "" && !district.Valid() {
		return nil, ErrInvalidDistrict
	}
	return s.repo.ListByDistrict(ctx, district, strings.TrimSpace(search))
}
