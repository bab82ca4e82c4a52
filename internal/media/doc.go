// Package media inspects files on disk for the capabilities.
//
// Key types:
//   - Info: detected MIME type, kind, and size for one file
//   - Kind: coarse classification (image, video, other)
//
// Primary entry points:
//   - Probe: sniff content with mimetype (extensions are ignored)
//   - VerifyImage: decode image headers to catch truncated or corrupt files
//   - CaptureTime: read EXIF DateTimeOriginal via goexif
package media
