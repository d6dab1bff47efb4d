package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"svgc/archive"
	"svgc/state"
	"svgc/utils/images"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) != 0 {
		if dst, err = filepath.Abs(dst); err != nil {
			return err
		}
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Rename = env.Cfg.Document.ReactNative || cmd.Bool("react-native")
	env.Overwrite = env.Cfg.Document.Overwrite || cmd.Bool("overwrite")
	env.NoDirs = cmd.Bool("nodirs")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	log.Info("Processing starting",
		zap.String("source", src), zap.String("destination", dst), zap.Bool("rename", env.Rename), zap.Stringer("run_id", env.RunID))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process handles the core conversion logic independently of CLI framework.
// It determines the input type (directory, archive, or single file) and
// processes accordingly. For batch inputs dst is the destination directory
// (current directory when empty), for a single file it may also name the
// output file itself.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exist - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if len(dst) == 0 {
				if dst, err = os.Getwd(); err != nil {
					return fmt.Errorf("unable to get working directory: %w", err)
				}
			}
			if err := processDir(ctx, head, dst, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		arc, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if arc {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if len(dst) == 0 {
				if dst, err = os.Getwd(); err != nil {
					return fmt.Errorf("unable to get working directory: %w", err)
				}
			}
			failed, total, err := processArchive(ctx, head, tail, "", dst, log)
			if err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			if failed != 0 {
				return fmt.Errorf("%d of %d documents failed", failed, total)
			}
			break
		}

		doc, enc, err := isSVGFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if doc && len(tail) == 0 {
			out, err := resolveSingleOutput(ctx, head, dst)
			if err != nil {
				return err
			}
			file, err := os.Open(head)
			if err != nil {
				return fmt.Errorf("unable to open input: %w", err)
			}
			defer file.Close()
			if err := processFile(ctx, selectReader(file, enc), enc, filepath.Base(head), out, log); err != nil {
				return fmt.Errorf("unable to process file (%s): %w", head, err)
			}
			break
		}
		return fmt.Errorf("input was not recognized as SVG document (%s)", head)

	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// batchEntry keeps the sniffed encoding together with the path so a
// collected file is not opened twice.
type batchEntry struct {
	path string
	enc  srcEncoding
}

// processDir walks the directory tree collecting SVG documents and archives,
// then converts them in natural name order so icon-2 sorts before icon-10.
// A failing document is counted and logged, it does not stop the batch.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	var (
		files    []batchEntry
		archives []string
	)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		arc, err := isArchiveFile(path)
		if err != nil {
			// checking format - but cannot open target file
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if arc {
			archives = append(archives, path)
			return nil
		}

		doc, enc, err := isSVGFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !doc {
			log.Debug("Skipping file, not recognized as SVG or archive", zap.String("file", path))
			return nil
		}

		files = append(files, batchEntry{path: path, enc: enc})
		return nil
	})
	if err != nil {
		return err
	}

	if len(files) == 0 && len(archives) == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
		return nil
	}

	sort.Slice(files, func(i, j int) bool { return natural.Less(files[i].path, files[j].path) })
	sort.Sort(natural.StringSlice(archives))

	failed, total := 0, 0
	for _, entry := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		total++

		file, err := os.Open(entry.path)
		if err != nil {
			log.Error("Unable to process file", zap.String("file", entry.path), zap.Error(err))
			failed++
			continue
		}

		src := strings.TrimPrefix(strings.TrimPrefix(entry.path, dir), string(filepath.Separator))
		out := buildOutputPath(src, dst, env)
		if err := processFile(ctx, selectReader(file, entry.enc), entry.enc, src, out, log); err != nil {
			log.Error("Unable to process file", zap.String("file", entry.path), zap.Error(err))
			failed++
		}
		file.Close()
	}

	for _, arc := range archives {
		if err := ctx.Err(); err != nil {
			return err
		}

		af, at, err := processArchive(ctx, arc, "", filepath.Dir(strings.TrimPrefix(arc, dir)), dst, log)
		if err != nil {
			log.Error("Unable to process archive", zap.String("file", arc), zap.Error(err))
			failed++
			total++
			continue
		}
		failed += af
		total += at
	}

	if failed != 0 {
		return fmt.Errorf("%d of %d documents failed", failed, total)
	}
	return nil
}

// processArchive converts all SVG entries inside the archive under "pathIn".
// "pathOut" keeps the archive's own position relative to a directory batch
// so outputs from nested archives land next to their siblings.
func processArchive(ctx context.Context, arcPath, pathIn, pathOut, dst string, log *zap.Logger) (failed, total int, err error) {
	env := state.EnvFromContext(ctx)

	defer func() {
		if err == nil && total == 0 {
			log.Debug("Nothing to process", zap.String("archive", arcPath))
		}
	}()

	err = archive.Walk(arcPath, pathIn, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc, enc, err := isSVGInArchive(f)
		if err != nil {
			log.Warn("Skipping file in archive",
				zap.String("archive", arc), zap.String("path", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		if !doc {
			log.Debug("Skipping file, not recognized as SVG", zap.String("archive", arc), zap.String("file", f.FileHeader.Name))
			return nil
		}

		total++

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
			failed++
			return nil
		}
		defer r.Close()

		pathInArchive := f.FileHeader.Name
		if cp := env.CodePage; cp != nil && f.FileHeader.NonUTF8 {
			// forcing zip file name encoding
			if n, err := cp.NewDecoder().String(pathInArchive); err == nil {
				pathInArchive = n
			} else {
				n, _ = ianaindex.IANA.Name(cp)
				log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", n), zap.String("path", pathInArchive), zap.Error(err))
			}
		}

		src := filepath.Join(pathOut, filepath.FromSlash(pathInArchive))
		out := buildOutputPath(src, dst, env)
		if err := processFile(ctx, selectReader(r, enc), enc, src, out, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
			failed++
		}
		return nil
	})
	return failed, total, err
}

// processFile converts a single SVG document. "src" is the part of the
// source path relative to the original input (just the base name when an
// actual file was specified, the relative path inside a directory or
// archive otherwise) and feeds logging and report naming. "outputName" is
// the complete destination path.
func processFile(ctx context.Context, r io.Reader, enc srcEncoding, src, outputName string, log *zap.Logger) (rerr error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)

	log.Info("Conversion starting", zap.String("from", src))
	defer func(start time.Time) {
		// NOTE: a single bad document should never take the whole batch
		// down, keep panics contained here.
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
		} else {
			log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	data, err := readSource(r, enc)
	if err != nil {
		return fmt.Errorf("unable to read source (%s): %w", src, err)
	}

	// Check if output file already exists
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		if err = os.Remove(outputName); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	out, v := transform(data, env.Rename, log)
	log.Debug("Rewrite finished", zap.Stringer("pipeline", v), zap.Int("in", len(data)), zap.Int("out", len(out)))

	if err := writeFileAtomic(outputName, out); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}

	reportConversion(env, src, data, out, log)
	return nil
}

// writeFileAtomic stages content in a temporary file next to the target and
// renames it into place, so a failed conversion never leaves partial output.
func writeFileAtomic(name string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(name), filepath.Base(name)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, name); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// reportSeq keeps report entries from different containers with identical
// relative paths apart.
var reportSeq atomic.Uint32

// reportConversion attaches the original and converted documents to the
// debug report together with raster previews when the documents rasterize.
func reportConversion(env *state.LocalEnv, src string, original, converted []byte, log *zap.Logger) {
	if env.Rpt == nil {
		return
	}

	name := fmt.Sprintf("%04d-%s", reportSeq.Add(1), strings.NewReplacer("/", "_", "\\", "_").Replace(filepath.ToSlash(src)))

	env.Rpt.StoreData(path.Join("original", name), original)
	env.Rpt.StoreData(path.Join("converted", name), converted)

	previews := []struct {
		kind string
		data []byte
	}{
		{"original", original},
		{"converted", converted},
	}
	for _, p := range previews {
		png, err := images.PreviewPNG(p.data)
		if err != nil {
			// renamed tags are unknown to the rasterizer, preview is best effort
			log.Debug("Unable to rasterize preview", zap.String("file", name), zap.String("kind", p.kind), zap.Error(err))
			continue
		}
		env.Rpt.StoreData(path.Join("previews", strings.TrimSuffix(name, filepath.Ext(name))+"-"+p.kind+".png"), png)
	}
}
