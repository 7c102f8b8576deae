package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) *bytes.Buffer {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf
}

func TestAvatarSaveCropsToSquare(t *testing.T) {
	store := NewAvatarStoreFs(afero.NewMemMapFs(), 64)
	id := uuid.New()

	name, err := store.Save(id, pngBytes(t, 300, 120))
	require.NoError(t, err)
	assert.Equal(t, Name(id), name)

	f, err := store.Open(name)
	require.NoError(t, err)
	defer f.Close()

	img, err := imaging.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())
}

func TestAvatarSaveRejectsNonImage(t *testing.T) {
	store := NewAvatarStoreFs(afero.NewMemMapFs(), 64)
	_, err := store.Save(uuid.New(), strings.NewReader("not an image"))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestAvatarDeleteMissing(t *testing.T) {
	store := NewAvatarStoreFs(afero.NewMemMapFs(), 64)
	assert.NoError(t, store.Delete("missing.jpg"))
}
