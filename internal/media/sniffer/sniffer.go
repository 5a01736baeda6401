package sniffer

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Format is an accepted image format, named after the file extension it is
// stored under.
type Format string

const (
	FormatJPEG Format = "jpg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
	FormatWEBP Format = "webp"
	FormatAVIF Format = "avif"
	FormatSVG  Format = "svg"
)

var (
	ErrUnknownType  = errors.New("not a supported image")
	ErrTypeMismatch = errors.New("declared content type does not match content")
)

type Result struct {
	Format Format
	MIME   string
}

// Ext is the stored file extension, with the leading dot.
func (r Result) Ext() string {
	return "." + string(r.Format)
}

var mimeAliases = map[string]string{
	"image/jpg":   "image/jpeg",
	"image/pjpeg": "image/jpeg",
	"image/x-png": "image/png",
	"image/svg":   "image/svg+xml",
}

// Accepts reports whether a client supplied content type is compatible with
// the sniffed one. Empty and generic types are accepted.
func (r Result) Accepts(declared string) bool {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared == "" || declared == "application/octet-stream" {
		return true
	}
	if alias, ok := mimeAliases[declared]; ok {
		declared = alias
	}
	return declared == r.MIME
}

// Sniff classifies data by its leading bytes, checks it against the declared
// type and returns the bytes to store. SVG documents come back sanitized.
func Sniff(data []byte, declared string) (Result, []byte, error) {
	result, err := DetectHead(head(data))
	if err != nil {
		return Result{}, nil, err
	}
	if !result.Accepts(declared) {
		return Result{}, nil, fmt.Errorf("%w: declared %s, detected %s", ErrTypeMismatch, declared, result.MIME)
	}
	if result.Format == FormatSVG {
		clean, err := SanitizeSVG(data)
		if err != nil {
			return Result{}, nil, err
		}
		return result, clean, nil
	}
	return result, data, nil
}

func DetectHead(head []byte) (Result, error) {
	switch {
	case len(head) == 0:
		return Result{}, ErrUnknownType
	case isJPEG(head):
		return Result{Format: FormatJPEG, MIME: "image/jpeg"}, nil
	case isPNG(head):
		return Result{Format: FormatPNG, MIME: "image/png"}, nil
	case isGIF(head):
		return Result{Format: FormatGIF, MIME: "image/gif"}, nil
	case isWEBP(head):
		return Result{Format: FormatWEBP, MIME: "image/webp"}, nil
	case isAVIF(head):
		return Result{Format: FormatAVIF, MIME: "image/avif"}, nil
	case isSVG(head):
		return Result{Format: FormatSVG, MIME: "image/svg+xml"}, nil
	}
	return Result{}, ErrUnknownType
}

func head(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func isJPEG(head []byte) bool {
	return len(head) > 3 && head[0] == 0xff && head[1] == 0xd8 && head[2] == 0xff
}

func isPNG(head []byte) bool {
	return bytes.HasPrefix(head, pngMagic)
}

func isGIF(head []byte) bool {
	return bytes.HasPrefix(head, []byte("GIF87a")) || bytes.HasPrefix(head, []byte("GIF89a"))
}

func isWEBP(head []byte) bool {
	return len(head) >= 12 && bytes.Equal(head[:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WEBP"))
}

func isAVIF(head []byte) bool {
	return len(head) >= 12 && string(head[4:8]) == "ftyp" && bytes.Contains(head[8:], []byte("avif"))
}

// An XML prolog alone is not enough; the root element has to show up in the
// sniffed window.
func isSVG(head []byte) bool {
	trimmed := bytes.ToLower(bytes.TrimSpace(head))
	if bytes.HasPrefix(trimmed, []byte("<svg")) {
		return true
	}
	return bytes.HasPrefix(trimmed, []byte("<?xml")) && bytes.Contains(trimmed, []byte("<svg"))
}

var (
	scriptTagPattern  = regexp.MustCompile(`(?is)<\s*script[\s>].*?<\s*/\s*script\s*>`)
	foreignObjPattern = regexp.MustCompile(`(?is)<\s*foreignObject[\s>].*?<\s*/\s*foreignObject\s*>`)
	eventAttrPattern  = regexp.MustCompile(`(?is)\son[a-z]+\s*=\s*("[^"]*"|'[^']*')`)
	jsHrefAttrPattern = regexp.MustCompile(`(?is)\s(xlink:)?href\s*=\s*("\s*javascript:[^"]*"|'\s*javascript:[^']*')`)
)

// SanitizeSVG removes anything in an SVG document that can execute when the
// file is opened directly from the bucket.
func SanitizeSVG(input []byte) ([]byte, error) {
	if !bytes.Contains(bytes.ToLower(input), []byte("<svg")) {
		return nil, ErrUnknownType
	}
	clean := scriptTagPattern.ReplaceAll(input, nil)
	clean = foreignObjPattern.ReplaceAll(clean, nil)
	clean = eventAttrPattern.ReplaceAll(clean, nil)
	clean = jsHrefAttrPattern.ReplaceAll(clean, nil)
	return clean, nil
}

// MimeTypeFromHTTP returns the media type of a part header without parameters.
func MimeTypeFromHTTP(header http.Header) string {
	contentType := header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(contentType)
}
