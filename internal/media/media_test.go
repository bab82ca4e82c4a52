package media_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mediaflow/internal/media"
	"mediaflow/internal/testsupport"
)

func TestProbeClassifiesByContent(t *testing.T) {
	dir := t.TempDir()
	jpg := filepath.Join(dir, "photo.dat")
	pngPath := filepath.Join(dir, "shot.jpg")
	mp4 := filepath.Join(dir, "clip.bin")
	txt := filepath.Join(dir, "readme.png")
	testsupport.WriteJPEG(t, jpg, time.Time{})
	testsupport.WritePNG(t, pngPath)
	testsupport.WriteMP4(t, mp4)
	testsupport.WriteText(t, txt, "just some notes\n")

	cases := map[string]media.Kind{
		jpg:     media.KindImage,
		pngPath: media.KindImage,
		mp4:     media.KindVideo,
		txt:     media.KindOther,
	}
	for path, want := range cases {
		info, err := media.Probe(path)
		if err != nil {
			t.Fatalf("Probe(%s) returned error: %v", filepath.Base(path), err)
		}
		if info.Kind != want {
			t.Fatalf("Probe(%s) kind = %s (%s), want %s", filepath.Base(path), info.Kind, info.MIME, want)
		}
	}
}

func TestProbeRejectsEmptyFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jpg")
	testsupport.WriteFile(t, path, 0)
	if _, err := media.Probe(path); !errors.Is(err, media.ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestVerifyImage(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.jpg")
	bad := filepath.Join(dir, "bad.jpg")
	testsupport.WriteJPEG(t, good, time.Time{})
	testsupport.WriteTruncatedJPEG(t, bad)

	if err := media.VerifyImage(good); err != nil {
		t.Fatalf("expected valid image, got %v", err)
	}
	if err := media.VerifyImage(bad); !errors.Is(err, media.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestCaptureTime(t *testing.T) {
	dir := t.TempDir()
	want := time.Date(2021, time.July, 14, 9, 30, 0, 0, time.Local)
	tagged := filepath.Join(dir, "tagged.jpg")
	plain := filepath.Join(dir, "plain.jpg")
	testsupport.WriteJPEG(t, tagged, want)
	testsupport.WriteJPEG(t, plain, time.Time{})

	got, err := media.CaptureTime(tagged)
	if err != nil {
		t.Fatalf("CaptureTime returned error: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("CaptureTime = %s, want %s", got, want)
	}
	if _, err := media.CaptureTime(plain); !errors.Is(err, media.ErrNoCaptureTime) {
		t.Fatalf("expected ErrNoCaptureTime, got %v", err)
	}
	if err := media.VerifyImage(tagged); err != nil {
		t.Fatalf("EXIF segment must not break decoding: %v", err)
	}
}
