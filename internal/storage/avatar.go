package storage

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var ErrInvalidImage = errors.New("file is not a supported image")

// AvatarStore keeps one square JPEG per user under a base directory.
type AvatarStore struct {
	fs   afero.Fs
	size int
}

// NewAvatarStore roots the store at dir on the local filesystem.
func NewAvatarStore(dir string, size int) (*AvatarStore, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create avatar dir: %w", err)
	}
	return NewAvatarStoreFs(afero.NewBasePathFs(osFs, dir), size), nil
}

func NewAvatarStoreFs(fs afero.Fs, size int) *AvatarStore {
	if size <= 0 {
		size = 256
	}
	return &AvatarStore{fs: fs, size: size}
}

// Name returns the stored file name for a user's avatar.
func Name(userID uuid.UUID) string {
	return userID.String() + ".jpg"
}

// Save decodes r, crops it to a centered square and writes it as the user's
// avatar. It returns the stored file name.
func (s *AvatarStore) Save(userID uuid.UUID, r io.Reader) (string, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", ErrInvalidImage
	}
	thumb := imaging.Fill(img, s.size, s.size, imaging.Center, imaging.Lanczos)

	name := Name(userID)
	tmp := name + ".tmp"
	f, err := s.fs.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create avatar file: %w", err)
	}
	if err := imaging.Encode(f, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		f.Close()
		_ = s.fs.Remove(tmp)
		return "", fmt.Errorf("failed to encode avatar: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	if err := s.fs.Rename(tmp, name); err != nil {
		return "", fmt.Errorf("failed to store avatar: %w", err)
	}
	return name, nil
}

// Open returns the stored avatar. The caller closes it.
func (s *AvatarStore) Open(name string) (afero.File, error) {
	return s.fs.Open(name)
}

func (s *AvatarStore) Delete(name string) error {
	err := s.fs.Remove(name)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
