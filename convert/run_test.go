package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	xtransform "golang.org/x/text/transform"

	"svgc/config"
	"svgc/state"
)

const sampleSVGPath = "../testdata/_Test.svg"

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	return ctx, env
}

func loadSampleSVG(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(sampleSVGPath)
	if err != nil {
		t.Fatalf("read sample SVG: %v", err)
	}
	return data
}

func readerForEncoding(t *testing.T, data []byte, enc srcEncoding) *bytes.Reader {
	t.Helper()
	var encoded []byte
	switch enc {
	case encUnknown:
		encoded = data
	case encUTF8:
		encoded = append([]byte{0xEF, 0xBB, 0xBF}, data...)
	case encUTF16BigEndian:
		encoded = encodeWithTransformer(t, data, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder())
	case encUTF16LittleEndian:
		encoded = encodeWithTransformer(t, data, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder())
	case encUTF32BigEndian:
		encoded = encodeWithTransformer(t, data, utf32.UTF32(utf32.BigEndian, utf32.UseBOM).NewEncoder())
	case encUTF32LittleEndian:
		encoded = encodeWithTransformer(t, data, utf32.UTF32(utf32.LittleEndian, utf32.UseBOM).NewEncoder())
	default:
		t.Fatalf("unsupported encoding: %v", enc)
	}
	return bytes.NewReader(encoded)
}

func encodeWithTransformer(t *testing.T, data []byte, encoder xtransform.Transformer) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := xtransform.NewWriter(&buf, encoder)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("encode sample: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("finalize encoded sample: %v", err)
	}
	return buf.Bytes()
}

// sampleSVGContent is a small well-formed document for batch tests.
func sampleSVGContent() []byte {
	return []byte(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24">
<defs><style>.a{fill:red;}</style></defs>
<path class="a" d="M0 0h24v24H0z"/>
</svg>`)
}

// paddedSVGContent is sampleSVGContent stretched past the sniff window so
// detection inside archives always has enough bytes to look at.
func paddedSVGContent() []byte {
	base := `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24">
<defs><style>.a{fill:red;}</style></defs>
<desc>This is test content that needs to be long enough for proper detection. `
	tail := `</desc><path class="a" d="M0 0h24v24H0z"/></svg>`
	padding := make([]byte, 512-len(base)-len(tail))
	for i := range padding {
		padding[i] = byte('A' + (i % 26))
	}
	return []byte(base + string(padding) + tail)
}

// makeZip creates a zip archive with the given entries.
func makeZip(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()

	zipFile, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	w := zip.NewWriter(zipFile)
	for name, content := range entries {
		f, err := w.CreateHeader(&zip.FileHeader{
			Name:   name,
			Method: zip.Store,
		})
		if err != nil {
			t.Fatalf("Failed to create file in zip: %v", err)
		}
		if _, err := f.Write(content); err != nil {
			t.Fatalf("Failed to write to zip: %v", err)
		}
	}
	w.Close()
	zipFile.Close()
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected output file %s: %v", path, err)
	}
}

// TestProcess_NonExistentPath tests process with non-existent path
func TestProcess_NonExistentPath(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	err := process(ctx, "/nonexistent/path/file.svg", "/tmp", logger)
	if err == nil {
		t.Fatal("Expected error for non-existent path, got nil")
	}
	expectedMsg := "input source was not found"
	if !strings.Contains(err.Error(), expectedMsg) {
		t.Errorf("Expected error containing '%s', got: %v", expectedMsg, err)
	}
}

// TestProcess_CancelledContext tests process with cancelled context
func TestProcess_CancelledContext(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	cancelCtx, cancel := context.WithCancel(ctx)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cancel() // Cancel immediately

	tmpDir := t.TempDir()
	err := process(cancelCtx, tmpDir, tmpDir, logger)
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled error, got %v", err)
	}
}

// TestProcess_Directory tests process with a directory
func TestProcess_Directory(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	tmpDir := t.TempDir()
	dstDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "test.svg")
	if err := os.WriteFile(testFile, sampleSVGContent(), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	err := process(ctx, tmpDir, dstDir, logger)
	if err != nil {
		t.Errorf("process() error = %v", err)
	}
	assertFileExists(t, filepath.Join(dstDir, "test-inline.svg"))
}

// TestProcess_DirectoryWithTail tests process with directory path that has a tail
func TestProcess_DirectoryWithTail(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	tmpDir := t.TempDir()
	// Create a directory with a tail (invalid case)
	invalidPath := filepath.Join(tmpDir, "subdir")
	if err := os.MkdirAll(invalidPath, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	// Add a non-existent tail to the directory path
	pathWithTail := filepath.Join(invalidPath, "nonexistent.svg")

	err := process(ctx, pathWithTail, tmpDir, logger)
	if err == nil {
		t.Fatal("Expected error for directory with tail, got nil")
	}
}

// TestProcess_SingleFile tests process with a single SVG file and an
// existing destination directory
func TestProcess_SingleFile(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	tmpDir := t.TempDir()
	dstDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "icon.svg")
	if err := os.WriteFile(testFile, sampleSVGContent(), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	err := process(ctx, testFile, dstDir, logger)
	if err != nil {
		t.Errorf("process() error = %v", err)
	}
	assertFileExists(t, filepath.Join(dstDir, "icon-inline.svg"))
}

// TestProcess_SingleFileSibling tests that without a destination the output
// lands next to the source
func TestProcess_SingleFileSibling(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "icon.svg")
	if err := os.WriteFile(testFile, sampleSVGContent(), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	err := process(ctx, testFile, "", logger)
	if err != nil {
		t.Errorf("process() error = %v", err)
	}
	assertFileExists(t, filepath.Join(tmpDir, "icon-inline.svg"))
}

// TestProcess_SingleFileSiblingRenameMode tests the mode suffix of derived
// sibling outputs
func TestProcess_SingleFileSiblingRenameMode(t *testing.T) {
	ctx, env := setupTestEnv(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	env.Rename = true

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "icon.svg")
	if err := os.WriteFile(testFile, sampleSVGContent(), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	err := process(ctx, testFile, "", logger)
	if err != nil {
		t.Errorf("process() error = %v", err)
	}
	assertFileExists(t, filepath.Join(tmpDir, "icon-rn.svg"))

	data, err := os.ReadFile(filepath.Join(tmpDir, "icon-rn.svg"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Contains(data, []byte("<Path")) {
		t.Errorf("renamed output missing component tags: %s", data)
	}
}

// TestProcess_SingleFileExplicitOutput tests that a destination naming a
// file is used verbatim
func TestProcess_SingleFileExplicitOutput(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	tmpDir := t.TempDir()
	dstDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "icon.svg")
	if err := os.WriteFile(testFile, sampleSVGContent(), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	out := filepath.Join(dstDir, "custom-name.svg")
	err := process(ctx, testFile, out, logger)
	if err != nil {
		t.Errorf("process() error = %v", err)
	}
	assertFileExists(t, out)
}

// TestProcess_SingleFileOverwrite tests overwrite protection for single
// file conversions
func TestProcess_SingleFileOverwrite(t *testing.T) {
	ctx, env := setupTestEnv(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "icon.svg")
	if err := os.WriteFile(testFile, sampleSVGContent(), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if err := process(ctx, testFile, "", logger); err != nil {
		t.Fatalf("first process() error = %v", err)
	}

	err := process(ctx, testFile, "", logger)
	if err == nil {
		t.Fatal("Expected error for existing output, got nil")
	}
	if !strings.Contains(err.Error(), "output file already exists") {
		t.Errorf("Expected overwrite protection error, got: %v", err)
	}

	env.Overwrite = true
	if err := process(ctx, testFile, "", logger); err != nil {
		t.Errorf("process() with overwrite error = %v", err)
	}
}

// TestProcess_Archive tests process with a ZIP archive
func TestProcess_Archive(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	tmpDir := t.TempDir()
	dstDir := t.TempDir()

	zipPath := filepath.Join(tmpDir, "icons.zip")
	makeZip(t, zipPath, map[string][]byte{
		"icon.svg": paddedSVGContent(),
	})

	err := process(ctx, zipPath, dstDir, logger)
	if err != nil {
		t.Errorf("process() error = %v", err)
	}
	assertFileExists(t, filepath.Join(dstDir, "icon-inline.svg"))
}

// TestProcess_ArchiveWithPath tests process with path inside archive
func TestProcess_ArchiveWithPath(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	tmpDir := t.TempDir()
	dstDir := t.TempDir()

	zipPath := filepath.Join(tmpDir, "icons.zip")
	makeZip(t, zipPath, map[string][]byte{
		"outline/icon.svg": paddedSVGContent(),
		"filled/other.svg": paddedSVGContent(),
	})

	// Process with a path inside the archive
	pathInArchive := zipPath + string(filepath.Separator) + "outline"
	err := process(ctx, pathInArchive, dstDir, logger)
	if err != nil {
		t.Errorf("process() error = %v", err)
	}
	assertFileExists(t, filepath.Join(dstDir, "outline", "icon-inline.svg"))
	if _, err := os.Stat(filepath.Join(dstDir, "filled", "other-inline.svg")); err == nil {
		t.Error("entry outside the archive path was converted")
	}
}

// TestProcess_NonSVGFile tests process with non-SVG file
func TestProcess_NonSVGFile(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	tmpDir := t.TempDir()

	// Create a non-SVG file
	testFile := filepath.Join(tmpDir, "test.txt")
	if err := os.WriteFile(testFile, []byte("not an SVG document"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	err := process(ctx, testFile, tmpDir, logger)
	if err == nil {
		t.Fatal("Expected error for non-SVG file, got nil")
	}
	expectedMsg := "input was not recognized as SVG document"
	if !strings.Contains(err.Error(), expectedMsg) {
		t.Errorf("Expected error containing '%s', got: %v", expectedMsg, err)
	}
}

// TestProcess_EmptyDirectory tests process with empty directory
func TestProcess_EmptyDirectory(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	tmpDir := t.TempDir()
	dstDir := t.TempDir()

	err := process(ctx, tmpDir, dstDir, logger)
	if err != nil {
		t.Errorf("process() should handle empty directory, got error: %v", err)
	}
}

// TestProcessDir_EmptyDir tests processDir with empty directory
func TestProcessDir_EmptyDir(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	tmpDir := t.TempDir()

	err := processDir(ctx, tmpDir, tmpDir, logger)
	if err != nil {
		t.Errorf("Expected no error for empty directory, got %v", err)
	}
}

// TestProcessDir_NonExistent tests processDir with non-existent directory
func TestProcessDir_NonExistent(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	// processDir logs a warning for the unreadable root and finishes
	err := processDir(ctx, "/nonexistent-dir-12345", "/tmp", logger)
	if err != nil {
		t.Errorf("processDir() error = %v", err)
	}
}

// TestProcessDir_WithCancelledContext tests processDir with cancelled context
func TestProcessDir_WithCancelledContext(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	cancelCtx, cancel := context.WithCancel(ctx)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.svg")
	if err := os.WriteFile(testFile, sampleSVGContent(), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	cancel() // Cancel context

	err := processDir(cancelCtx, tmpDir, tmpDir, logger)
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled error, got %v", err)
	}
}

// TestProcessDir_ContinuesOnFailure tests that one failing document does not
// stop the batch and the failure count comes back as an error
func TestProcessDir_ContinuesOnFailure(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	tmpDir := t.TempDir()
	dstDir := t.TempDir()

	for _, name := range []string{"a.svg", "b.svg"} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), sampleSVGContent(), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}
	// block the first output, overwrite protection fails that document
	if err := os.WriteFile(filepath.Join(dstDir, "a-inline.svg"), []byte("occupied"), 0644); err != nil {
		t.Fatalf("Failed to create blocking file: %v", err)
	}

	err := processDir(ctx, tmpDir, dstDir, logger)
	if err == nil {
		t.Fatal("Expected failure count error, got nil")
	}
	if !strings.Contains(err.Error(), "1 of 2 documents failed") {
		t.Errorf("Expected '1 of 2 documents failed', got: %v", err)
	}
	assertFileExists(t, filepath.Join(dstDir, "b-inline.svg"))
}

// TestProcessDir_MixedFilesAndArchives tests a directory holding both loose
// documents and archives
func TestProcessDir_MixedFilesAndArchives(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	tmpDir := t.TempDir()
	dstDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(tmpDir, "loose.svg"), sampleSVGContent(), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	makeZip(t, filepath.Join(tmpDir, "packed.zip"), map[string][]byte{
		"inner.svg": paddedSVGContent(),
	})

	err := processDir(ctx, tmpDir, dstDir, logger)
	if err != nil {
		t.Errorf("processDir() error = %v", err)
	}
	assertFileExists(t, filepath.Join(dstDir, "loose-inline.svg"))
	assertFileExists(t, filepath.Join(dstDir, "inner-inline.svg"))
}

// TestProcessFile tests processFile with basic inputs
func TestProcessFile(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	sample := loadSampleSVG(t)
	sampleName := filepath.Base(sampleSVGPath)

	// Basic UTF-8 without BOM
	out := filepath.Join(t.TempDir(), "out.svg")
	err := processFile(ctx, selectReader(readerForEncoding(t, sample, encUnknown), encUnknown), encUnknown, sampleName, out, logger)
	if err != nil {
		t.Errorf("processFile() error = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Contains(data, []byte(`style="`)) {
		t.Errorf("output has no inlined styles: %s", data)
	}
	if bytes.Contains(data, []byte("cls-2")) {
		t.Errorf("consumed class survived in output: %s", data)
	}

	// Test with different encodings
	encodings := []srcEncoding{encUTF8, encUTF16BigEndian, encUTF16LittleEndian, encUTF32BigEndian, encUTF32LittleEndian}
	for i, enc := range encodings {
		testName := "encoding_" + string(rune('0'+i))
		t.Run(testName, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "out.svg")
			err := processFile(ctx, selectReader(readerForEncoding(t, sample, enc), enc), enc, sampleName, out, logger)
			if err != nil {
				t.Errorf("processFile() with encoding %v error = %v", enc, err)
			}
			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatalf("read output: %v", err)
			}
			if !bytes.Contains(data, []byte(`style="`)) {
				t.Errorf("output has no inlined styles: %s", data)
			}
		})
	}
}

// TestProcessFile_WithPanic tests processFile panic recovery
func TestProcessFile_WithPanic(t *testing.T) {
	ctx, _ := setupTestEnv(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	sample := loadSampleSVG(t)
	sampleName := filepath.Base(sampleSVGPath)

	// Conversion panics must be contained inside processFile
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("processFile() should not panic, but got: %v", r)
		}
	}()

	out := filepath.Join(t.TempDir(), "out.svg")
	err := processFile(ctx, selectReader(readerForEncoding(t, sample, encUnknown), encUnknown), encUnknown, sampleName, out, logger)
	_ = err
}

// TestProcessFile_Report tests that conversions are attached to the debug
// report when one is active
func TestProcessFile_Report(t *testing.T) {
	ctx, env := setupTestEnv(t)
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	sample := loadSampleSVG(t)
	sampleName := filepath.Base(sampleSVGPath)

	rptPath := filepath.Join(t.TempDir(), "report.zip")
	rpt, err := (&config.ReporterConfig{Destination: rptPath}).Prepare()
	if err != nil {
		t.Fatalf("prepare report: %v", err)
	}
	env.Rpt = rpt

	out := filepath.Join(t.TempDir(), "out.svg")
	if err := processFile(ctx, selectReader(readerForEncoding(t, sample, encUnknown), encUnknown), encUnknown, sampleName, out, logger); err != nil {
		t.Fatalf("processFile() error = %v", err)
	}
	if err := rpt.Close(); err != nil {
		t.Fatalf("close report: %v", err)
	}
	env.Rpt = nil

	r, err := zip.OpenReader(rptPath)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer r.Close()

	var hasOriginal, hasConverted bool
	for _, f := range r.File {
		if strings.HasPrefix(f.Name, "original/") && strings.HasSuffix(f.Name, "-_Test.svg") {
			hasOriginal = true
		}
		if strings.HasPrefix(f.Name, "converted/") && strings.HasSuffix(f.Name, "-_Test.svg") {
			hasConverted = true
		}
	}
	if !hasOriginal {
		t.Error("report is missing the original document")
	}
	if !hasConverted {
		t.Error("report is missing the converted document")
	}
}

// TestWriteFileAtomic tests staging and renaming of output files
func TestWriteFileAtomic(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "out.svg")
	content := []byte(`<svg><path style="fill:red;"/></svg>`)

	if err := writeFileAtomic(target, content); err != nil {
		t.Fatalf("writeFileAtomic() error = %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Errorf("content = %s, want %s", data, content)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("left %d entries in output directory, want 1", len(entries))
	}
}

// TestWriteFileAtomic_NoDirectory tests failure when the target directory
// is missing
func TestWriteFileAtomic_NoDirectory(t *testing.T) {
	err := writeFileAtomic(filepath.Join(t.TempDir(), "missing", "out.svg"), []byte("data"))
	if err == nil {
		t.Error("Expected error for missing directory, got nil")
	}
}
