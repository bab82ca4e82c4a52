package testsupport

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size < 0 writes a single byte; zero creates an
// empty file.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size < 0 {
		size = 1
	}
	data := bytes.Repeat([]byte{0x42}, int(size))
	writeBytes(t, path, data)
}

// WriteText writes a plain text file.
func WriteText(t testing.TB, path, body string) {
	t.Helper()
	writeBytes(t, path, []byte(body))
}

// WriteJPEG writes a small JPEG. When captured is non-zero an EXIF segment
// carrying DateTimeOriginal is embedded.
func WriteJPEG(t testing.TB, path string, captured time.Time) {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, sampleImage(), &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	data := buf.Bytes()
	if !captured.IsZero() {
		data = withExif(data, captured)
	}
	writeBytes(t, path, data)
}

// WritePNG writes a small PNG without metadata.
func WritePNG(t testing.TB, path string) {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, sampleImage()); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	writeBytes(t, path, buf.Bytes())
}

// WriteMP4 writes a file with an ISO base media header, enough for content
// sniffing to classify it as video.
func WriteMP4(t testing.TB, path string) {
	t.Helper()

	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, uint32(24))
	buf.WriteString("ftypisom")
	_ = binary.Write(&buf, binary.BigEndian, uint32(0x200))
	buf.WriteString("isommp41")
	_ = binary.Write(&buf, binary.BigEndian, uint32(8))
	buf.WriteString("free")
	writeBytes(t, path, buf.Bytes())
}

// WriteTruncatedJPEG writes a JPEG cut off before its frame header.
func WriteTruncatedJPEG(t testing.TB, path string) {
	t.Helper()
	writeBytes(t, path, []byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00, 0x43, 0x00})
}

func sampleImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 32), G: uint8(y * 32), B: 128, A: 255})
		}
	}
	return img
}

// withExif inserts an APP1 segment right after SOI. The TIFF body holds IFD0
// with a single ExifIFDPointer, and the Exif IFD with DateTimeOriginal.
func withExif(jpegData []byte, captured time.Time) []byte {
	const (
		ifd0Offset = 8
		ifdSize    = 2 + 12 + 4
		exifOffset = ifd0Offset + ifdSize
		dataOffset = exifOffset + ifdSize
	)
	stamp := append([]byte(captured.Format("2006:01:02 15:04:05")), 0)

	le := binary.LittleEndian
	var tiff bytes.Buffer
	tiff.WriteString("II")
	_ = binary.Write(&tiff, le, uint16(42))
	_ = binary.Write(&tiff, le, uint32(ifd0Offset))

	// IFD0: ExifIFDPointer (LONG).
	_ = binary.Write(&tiff, le, uint16(1))
	_ = binary.Write(&tiff, le, uint16(0x8769))
	_ = binary.Write(&tiff, le, uint16(4))
	_ = binary.Write(&tiff, le, uint32(1))
	_ = binary.Write(&tiff, le, uint32(exifOffset))
	_ = binary.Write(&tiff, le, uint32(0))

	// Exif IFD: DateTimeOriginal (ASCII).
	_ = binary.Write(&tiff, le, uint16(1))
	_ = binary.Write(&tiff, le, uint16(0x9003))
	_ = binary.Write(&tiff, le, uint16(2))
	_ = binary.Write(&tiff, le, uint32(len(stamp)))
	_ = binary.Write(&tiff, le, uint32(dataOffset))
	_ = binary.Write(&tiff, le, uint32(0))
	tiff.Write(stamp)

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	var out bytes.Buffer
	out.Write(jpegData[:2])
	out.Write([]byte{0xFF, 0xE1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(jpegData[2:])
	return out.Bytes()
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
