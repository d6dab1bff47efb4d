package convert

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	xtransform "golang.org/x/text/transform"
)

// srcEncoding enumerates Unicode encodings we recognize by their byte order
// mark. Anything else is encUnknown and left for the XML parser to sort out
// from the document declaration.
type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

// sniffLen bounds how many bytes from the start of a file participate in
// content detection.
const sniffLen = 512

// svgType is registered with the filetype library so SVG text is detected
// through the same matcher registry as archive magic.
var svgType = filetype.NewType("svg", "image/svg+xml")

func init() {
	filetype.AddMatcher(svgType, func(buf []byte) bool {
		return bytes.Contains(buf, []byte("<svg"))
	})
}

func isUTF8BOM3(buf []byte) bool {
	return len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xFE
}

func isUTF32BigEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

// detectUTF recognizes Unicode byte order marks. UTF-32 LE shares its first
// two bytes with UTF-16 LE so the longer marks are checked first.
func detectUTF(buf []byte) srcEncoding {
	if isUTF32BigEndianBOM4(buf) {
		return encUTF32BigEndian
	}
	if isUTF32LittleEndianBOM4(buf) {
		return encUTF32LittleEndian
	}
	if isUTF8BOM3(buf) {
		return encUTF8
	}
	if isUTF16BigEndianBOM2(buf) {
		return encUTF16BigEndian
	}
	if isUTF16LittleEndianBOM2(buf) {
		return encUTF16LittleEndian
	}
	return encUnknown
}

// selectReader wraps r with a decoder for the detected encoding. Without a
// BOM the input passes through untouched, single byte encodings declared in
// the XML prolog are handled later by the document reader itself.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUnknown:
		return r
	case encUTF8:
		return xtransform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	case encUTF16BigEndian:
		return xtransform.NewReader(r, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder())
	case encUTF16LittleEndian:
		return xtransform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder())
	case encUTF32BigEndian:
		return xtransform.NewReader(r, utf32.UTF32(utf32.BigEndian, utf32.UseBOM).NewDecoder())
	case encUTF32LittleEndian:
		return xtransform.NewReader(r, utf32.UTF32(utf32.LittleEndian, utf32.UseBOM).NewDecoder())
	default:
		// this should never happen
		panic("unsupported source encoding")
	}
}

// encodingDecl matches the encoding pseudo attribute of an XML declaration.
var encodingDecl = regexp.MustCompile(`(<\?xml[^>]*?)\s+encoding\s*=\s*("[^"]*"|'[^']*')`)

// readSource drains the already decoded input. When the source was
// transcoded from a UTF-16/32 variant the declared encoding no longer
// matches the bytes, so the stale declaration attribute is dropped.
func readSource(r io.Reader, enc srcEncoding) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	switch enc {
	case encUTF16BigEndian, encUTF16LittleEndian, encUTF32BigEndian, encUTF32LittleEndian:
		return encodingDecl.ReplaceAll(data, []byte("$1")), nil
	}
	return data, nil
}

// isArchiveFile reports whether path names a zip archive, checking both the
// extension and the content signature.
func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, err
	}
	return filetype.IsType(buf[:n], matchers.TypeZip), nil
}

// isSVGFile reports whether path names an SVG document we can rewrite and
// which Unicode encoding its BOM announces.
func isSVGFile(path string) (bool, srcEncoding, error) {
	if !strings.EqualFold(filepath.Ext(path), ".svg") {
		return false, encUnknown, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, encUnknown, err
	}
	defer f.Close()

	return sniffSVG(f)
}

// isSVGInArchive is isSVGFile for a zip entry.
func isSVGInArchive(f *zip.File) (bool, srcEncoding, error) {
	if !strings.EqualFold(filepath.Ext(f.FileHeader.Name), ".svg") {
		return false, encUnknown, nil
	}

	r, err := f.Open()
	if err != nil {
		return false, encUnknown, err
	}
	defer r.Close()

	return sniffSVG(r)
}

// sniffSVG examines the head of already extension-vetted content. ASCII
// compatible input must actually contain an svg tag, multibyte encodings
// hide the tag from a byte scan so the extension is trusted.
func sniffSVG(r io.Reader) (bool, srcEncoding, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, encUnknown, err
	}
	buf = buf[:n]

	enc := detectUTF(buf)
	switch enc {
	case encUTF16BigEndian, encUTF16LittleEndian, encUTF32BigEndian, encUTF32LittleEndian:
		return true, enc, nil
	default:
		return filetype.IsType(buf, svgType), enc, nil
	}
}
