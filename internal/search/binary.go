package search

import (
	"path/filepath"
	"strings"
)

// binaryExtensions are file name extensions assumed to hold non-text content. Files with
// these extensions are never opened by the scanner or shown in directory listings.
var binaryExtensions = map[string]bool{
	// executables and object code
	"exe": true, "dll": true, "bin": true, "obj": true, "so": true, "class": true,
	"jar": true, "pyc": true, "pyo": true, "apk": true, "msi": true, "cab": true, "sys": true,

	// images
	"png": true, "jpg": true, "jpeg": true, "gif": true, "bmp": true, "ico": true,
	"icns": true, "svg": true, "pdf": true,

	// archives and disk images
	"zip": true, "tar": true, "gz": true, "7z": true, "rar": true, "dmg": true,
	"iso": true, "img": true,

	// audio and video
	"mp3": true, "mp4": true, "avi": true, "mov": true, "mkv": true, "wav": true,
	"ogg": true, "webm": true,

	// fonts
	"ttf": true, "otf": true, "woff": true, "woff2": true, "eot": true,

	// data, logs, scratch files
	"dat": true, "db": true, "sqlite": true, "log": true, "tmp": true, "bak": true,
	"swp": true, "lock": true,
}

// IsBinaryPath reports whether path has an extension on the binary denylist. The check
// looks at the name only; the file is never opened.
func IsBinaryPath(path string) bool {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	// Dot files such as ".lock" have no extension.
	if ext == "" || ext == base {
		return false
	}
	return binaryExtensions[strings.ToLower(ext[1:])]
}
