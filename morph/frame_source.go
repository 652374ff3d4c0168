package morph

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// FrameProvider is the interface for image sources shown and warped by editors.
type FrameProvider interface {
	// GetFrame returns image for the given frame number
	GetFrame(frameNum uint32) (image.Image, error)
}

var (
	placeholderDark  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	placeholderLight = color.RGBA{R: 255, G: 0, B: 255, A: 255}
)

const placeholderTiles = 8

// NullImageProvider returns the same "missing asset" checkerboard for every frame.
type NullImageProvider struct {
	img image.Image
}

// NewNullImageProvider creates placeholder provider. Empty size defaults to 256x256.
func NewNullImageProvider(size image.Point) *NullImageProvider {
	if size.X <= 0 || size.Y <= 0 {
		size = image.Pt(256, 256)
	}
	tile := image.NewRGBA(image.Rect(0, 0, placeholderTiles, placeholderTiles))
	for y := 0; y < placeholderTiles; y++ {
		for x := 0; x < placeholderTiles; x++ {
			c := placeholderDark
			if (x+y)%2 == 0 {
				c = placeholderLight
			}
			tile.SetRGBA(x, y, c)
		}
	}
	img := image.NewRGBA(image.Rectangle{Max: size})
	draw.NearestNeighbor.Scale(img, img.Bounds(), tile, tile.Bounds(), draw.Src, nil)
	return &NullImageProvider{
		img: img,
	}
}

// GetFrame never fails
func (p *NullImageProvider) GetFrame(_ uint32) (image.Image, error) {
	return p.img, nil
}

// StaticImageProvider returns one image for every frame.
type StaticImageProvider struct {
	img image.Image
}

func NewStaticImageProvider(img image.Image) *StaticImageProvider {
	return &StaticImageProvider{
		img: img,
	}
}

// NewStaticImageProviderFromFile decodes png, jpeg, gif, bmp, tiff or webp file
func NewStaticImageProviderFromFile(filename string) (*StaticImageProvider, error) {
	img, err := decodeImageFile(filename)
	if err != nil {
		return nil, err
	}
	return NewStaticImageProvider(img), nil
}

func (p *StaticImageProvider) GetFrame(_ uint32) (image.Image, error) {
	return p.img, nil
}

// SequenceImageProvider reads one file per frame. File names come from a fmt pattern
// with a single integer verb, e.g. "frames/%04d.png". Decoded frames stay cached for a while.
type SequenceImageProvider struct {
	pattern string
	frames  *cache.Cache
}

// NewSequenceImageProvider creates file-backed provider. Decoded frames expire after expiration.
func NewSequenceImageProvider(pattern string, expiration time.Duration) (*SequenceImageProvider, error) {
	if !strings.Contains(pattern, "%") {
		return nil, errors.Wrapf(ErrInvalidConfig, "frame pattern %q has no frame number verb", pattern)
	}
	if expiration <= 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "cache expiration must be positive, got %s", expiration)
	}
	return &SequenceImageProvider{
		pattern: pattern,
		frames:  cache.New(expiration, 2*expiration),
	}, nil
}

// FramePath returns file name of the frame
func (p *SequenceImageProvider) FramePath(frameNum uint32) string {
	return fmt.Sprintf(p.pattern, frameNum)
}

func (p *SequenceImageProvider) GetFrame(frameNum uint32) (image.Image, error) {
	key := strconv.FormatUint(uint64(frameNum), 10)
	if cached, ok := p.frames.Get(key); ok {
		return cached.(image.Image), nil
	}
	img, err := decodeImageFile(p.FramePath(frameNum))
	if err != nil {
		return nil, errors.Wrapf(err, "Can't load frame %d", frameNum)
	}
	p.frames.Set(key, img, cache.DefaultExpiration)
	return img, nil
}

// OpenImageSource picks SequenceImageProvider when path holds a frame number verb and StaticImageProvider otherwise.
func OpenImageSource(path string) (FrameProvider, error) {
	if strings.Contains(path, "%") {
		return NewSequenceImageProvider(path, time.Minute)
	}
	return NewStaticImageProviderFromFile(path)
}

func decodeImageFile(filename string) (image.Image, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "image %s", filename)
		}
		return nil, errors.Wrapf(err, "Can't open image %s", filename)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't decode image %s", filename)
	}
	return img, nil
}
