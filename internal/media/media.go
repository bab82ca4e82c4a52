package media

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rwcarlsen/goexif/exif"
)

// Kind is the coarse media class of a file.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindOther Kind = "other"
)

var (
	// ErrEmpty marks zero-length files.
	ErrEmpty = errors.New("empty file")
	// ErrCorrupt marks files whose headers cannot be decoded.
	ErrCorrupt = errors.New("corrupt media")
	// ErrNoCaptureTime marks images without a usable DateTimeOriginal tag.
	ErrNoCaptureTime = errors.New("no capture time")
)

// ExifTimeLayout is the EXIF DateTimeOriginal format.
const ExifTimeLayout = "2006:01:02 15:04:05"

// Info describes a probed file.
type Info struct {
	Path      string
	MIME      string
	Extension string
	Kind      Kind
	Size      int64
}

// IsMedia reports whether the file is an image or a video.
func (i Info) IsMedia() bool {
	return i.Kind == KindImage || i.Kind == KindVideo
}

// Probe sniffs the file's content type.
func Probe(path string) (Info, error) {
	info := Info{Path: path, Kind: KindOther}
	stat, err := os.Stat(path)
	if err != nil {
		return info, err
	}
	info.Size = stat.Size()
	if info.Size == 0 {
		return info, ErrEmpty
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return info, fmt.Errorf("detect content type: %w", err)
	}
	info.MIME = mt.String()
	info.Extension = mt.Extension()
	info.Kind = kindOf(mt)
	return info, nil
}

func kindOf(mt *mimetype.MIME) Kind {
	for m := mt; m != nil; m = m.Parent() {
		base, _, _ := strings.Cut(m.String(), ";")
		switch {
		case strings.HasPrefix(base, "image/"):
			return KindImage
		case strings.HasPrefix(base, "video/"):
			return KindVideo
		}
	}
	return KindOther
}

// VerifyImage decodes the image header. Formats without a registered decoder
// pass unchecked.
func VerifyImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if errors.Is(err, image.ErrFormat) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrCorrupt, cfg.Width, cfg.Height)
	}
	return nil
}

// CaptureTime returns the EXIF DateTimeOriginal of an image, interpreted in
// the local time zone.
func CaptureTime(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrNoCaptureTime, err)
	}
	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrNoCaptureTime, err)
	}
	raw, err := tag.StringVal()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrNoCaptureTime, err)
	}
	ts, err := time.ParseInLocation(ExifTimeLayout, strings.TrimRight(strings.TrimSpace(raw), "\x00"), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrNoCaptureTime, err)
	}
	return ts, nil
}
