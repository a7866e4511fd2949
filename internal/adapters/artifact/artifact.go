// Package artifact stores trained boosters on disk
//
// A model directory holds model.xgb. Packaging wraps it as model.tar.gz, the
// form the evaluation step and the registry consume. Loading accepts either
// form, or a directory holding one of them
package artifact

import (
	"archive/tar"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"churnops/internal/core/gbdt"
	perr "churnops/internal/platform/errors"
	"churnops/internal/platform/fsx"

	"github.com/klauspost/compress/gzip"
)

const (
	// ModelFile is the serialized booster
	ModelFile = "model.xgb"
	// PackageFile is the gzip tarball holding ModelFile
	PackageFile = "model.tar.gz"

	maxModelBytes = 256 << 20
)

// SaveModel writes b to dir/model.xgb and returns the path
func SaveModel(dir string, b *gbdt.Booster) (string, error) {
	p := filepath.Join(dir, ModelFile)
	if err := fsx.WriteFileAtomic(p, b.Save); err != nil {
		return "", err
	}
	return p, nil
}

// LoadModel reads a booster from a model.xgb, a model.tar.gz, or a directory
// holding either; the plain file wins when both are present
func LoadModel(p string) (*gbdt.Booster, error) {
	st, err := os.Stat(p)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeModelLoad, "stat model %s", p)
	}
	if st.IsDir() {
		for _, name := range []string{ModelFile, PackageFile} {
			if _, err := os.Stat(filepath.Join(p, name)); err == nil {
				return LoadModel(filepath.Join(p, name))
			}
		}
		return nil, perr.ModelLoadf("no %s or %s in %s", ModelFile, PackageFile, p)
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeModelLoad, "open model %s", p)
	}
	defer func() { _ = f.Close() }()

	if isPackage(p) {
		return loadPackage(f)
	}
	b, err := gbdt.Load(io.LimitReader(f, maxModelBytes))
	if err != nil {
		return nil, perr.WithOp(err, p)
	}
	return b, nil
}

func isPackage(p string) bool {
	return strings.HasSuffix(p, ".tar.gz") || strings.HasSuffix(p, ".tgz")
}

func loadPackage(r io.Reader) (*gbdt.Booster, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeModelLoad, "open model package")
	}
	defer func() { _ = zr.Close() }()

	tr := tar.NewReader(zr)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			return nil, perr.ModelLoadf("model package has no %s", ModelFile)
		}
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeModelLoad, "read model package")
		}
		if h.Typeflag == tar.TypeReg && path.Base(h.Name) == ModelFile {
			return gbdt.Load(io.LimitReader(tr, maxModelBytes))
		}
	}
}

// Pack writes model.tar.gz holding modelPath as model.xgb
func Pack(modelPath, dst string) error {
	src, err := os.Open(modelPath)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeModelLoad, "open model %s", modelPath)
	}
	defer func() { _ = src.Close() }()
	st, err := src.Stat()
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeModelLoad, "stat model %s", modelPath)
	}

	return fsx.WriteFileAtomic(dst, func(w io.Writer) error {
		zw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
		if err != nil {
			return err
		}
		tw := tar.NewWriter(zw)
		h := &tar.Header{
			Name:     ModelFile,
			Mode:     0o644,
			Size:     st.Size(),
			ModTime:  st.ModTime().UTC().Truncate(time.Second),
			Typeflag: tar.TypeReg,
			Format:   tar.FormatPAX,
		}
		if err := tw.WriteHeader(h); err != nil {
			return err
		}
		if _, err := io.Copy(tw, src); err != nil {
			return err
		}
		if err := tw.Close(); err != nil {
			return err
		}
		return zw.Close()
	})
}

// Extract unpacks model.xgb from pkg into dir and returns its path
// other entries are ignored
func Extract(pkg, dir string) (string, error) {
	f, err := os.Open(pkg)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeModelLoad, "open model package %s", pkg)
	}
	defer func() { _ = f.Close() }()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeModelLoad, "open model package")
	}
	defer func() { _ = zr.Close() }()

	tr := tar.NewReader(zr)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			return "", perr.ModelLoadf("model package %s has no %s", pkg, ModelFile)
		}
		if err != nil {
			return "", perr.Wrap(err, perr.ErrorCodeModelLoad, "read model package")
		}
		if h.Typeflag != tar.TypeReg || path.Base(h.Name) != ModelFile {
			continue
		}
		out := filepath.Join(dir, ModelFile)
		err = fsx.WriteFileAtomic(out, func(w io.Writer) error {
			n, err := io.Copy(w, io.LimitReader(tr, maxModelBytes+1))
			if err == nil && n > maxModelBytes {
				return perr.ModelLoadf("%s exceeds %d bytes", ModelFile, maxModelBytes)
			}
			return err
		})
		if err != nil {
			return "", perr.Wrap(err, perr.ErrorCodeModelLoad, "extract model")
		}
		return out, nil
	}
}

// Digest is the hex sha256 of a file, recorded with registered packages
func Digest(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeNotFound, "open %s", p)
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "hash %s", p)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
