package preview

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/binzume/mmdmorph/converter"
	"github.com/binzume/mmdmorph/logger"
	"github.com/blezek/tga"
	_ "github.com/oov/psd"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"go.uber.org/zap"
)

// DecodeTexture decodes png, jpeg, gif, bmp, psd or tga data.
// name is only used to detect tga, which has no signature.
func DecodeTexture(r io.ReadSeeker, name string) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil && strings.ToLower(filepath.Ext(name)) == ".tga" {
		if _, serr := r.Seek(0, io.SeekStart); serr != nil {
			return nil, serr
		}
		img, err = tga.Decode(r)
	}
	return img, err
}

func loadTexture(dir string, mat *converter.Material) (image.Image, error) {
	if len(mat.TextureData) > 0 {
		return DecodeTexture(bytes.NewReader(mat.TextureData), mat.Texture)
	}
	// PMD: "diffuse.bmp*sphere.spa"
	name := strings.SplitN(mat.Texture, "*", 2)[0]
	f, err := os.Open(filepath.Join(dir, filepath.FromSlash(name)))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeTexture(f, name)
}

// LoadTextures decodes the texture of each material. dir is the directory of
// the model file. Materials without a readable texture get nil and render flat.
func LoadTextures(model *converter.Model, dir string) []image.Image {
	textures := make([]image.Image, len(model.Materials))
	cache := map[string]image.Image{}
	for i, mat := range model.Materials {
		if mat.Texture == "" && len(mat.TextureData) == 0 {
			continue
		}
		if img, ok := cache[mat.Texture]; ok && len(mat.TextureData) == 0 {
			textures[i] = img
			continue
		}
		img, err := loadTexture(dir, mat)
		if err != nil {
			img = nil
			logger.Warn("texture not loaded", zap.String("material", mat.Name), zap.String("texture", mat.Texture), zap.Error(err))
		}
		if len(mat.TextureData) == 0 {
			cache[mat.Texture] = img
		}
		textures[i] = img
	}
	return textures
}

// sampler does nearest-neighbor lookups with repeat wrapping.
type sampler struct {
	img *image.NRGBA
}

func newSampler(img image.Image) *sampler {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	if b.Empty() {
		return nil
	}
	dst, ok := img.(*image.NRGBA)
	if !ok || b.Min != (image.Point{}) {
		dst = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	}
	return &sampler{img: dst}
}

func wrap(v float64, n int) int {
	i := int(math.Floor((v - math.Floor(v)) * float64(n)))
	if i >= n {
		i = n - 1
	}
	return i
}

func (s *sampler) at(u, v float64) color.NRGBA {
	b := s.img.Bounds()
	return s.img.NRGBAAt(wrap(u, b.Dx()), wrap(v, b.Dy()))
}
