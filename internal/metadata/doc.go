// Package metadata implements the MetadataAnalyst capability: it stamps each
// image's modification time with its EXIF capture time and files everything
// into a <target>/<year>/<Month> tree without ever replacing an existing file.
package metadata
