// Package backup provides tar.gz-based backup and restore for the catalog
// database and its config file.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HerbHall/videocatalog/internal/store"
	"github.com/HerbHall/videocatalog/internal/version"
)

// ManifestName is the archive entry describing the other entries. It is
// always written first.
const ManifestName = "manifest.json"

// FormatVersion is the manifest format written by Backup.
const FormatVersion = 1

// File roles recorded in the manifest.
const (
	RoleDatabase = "database"
	RoleConfig   = "config"
)

var (
	ErrInvalidArchive = errors.New("invalid backup archive")
	ErrTargetExists   = errors.New("restore target already exists")
)

// Manifest lists the files in an archive with their checksums.
type Manifest struct {
	FormatVersion int            `json:"format_version"`
	AppVersion    string         `json:"app_version"`
	CreatedAt     time.Time      `json:"created_at"`
	Files         []ManifestFile `json:"files"`
}

// ManifestFile describes one archived file.
type ManifestFile struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

type source struct {
	path string
	file ManifestFile
}

// Backup creates a tar.gz archive at outputPath containing the SQLite
// database and, when configPath names an existing file, the config. The WAL
// is checkpointed first so the database file is self-contained. The archive
// is written to a temporary file and renamed into place.
func Backup(ctx context.Context, dbPath, configPath, outputPath string) (Manifest, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return Manifest{}, fmt.Errorf("database file not found: %w", err)
	}
	if err := checkpoint(ctx, dbPath); err != nil {
		return Manifest{}, fmt.Errorf("WAL checkpoint failed: %w", err)
	}

	sources := []source{{path: dbPath, file: ManifestFile{Name: filepath.Base(dbPath), Role: RoleDatabase}}}
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			sources = append(sources, source{path: configPath, file: ManifestFile{Name: filepath.Base(configPath), Role: RoleConfig}})
		}
	}
	if len(sources) == 2 && sources[0].file.Name == sources[1].file.Name {
		return Manifest{}, fmt.Errorf("database and config share the name %q", sources[0].file.Name)
	}

	manifest := Manifest{
		FormatVersion: FormatVersion,
		AppVersion:    version.Short(),
		CreatedAt:     time.Now().UTC(),
	}
	for i := range sources {
		size, sum, err := digestFile(sources[i].path)
		if err != nil {
			return Manifest{}, fmt.Errorf("hashing %s: %w", sources[i].path, err)
		}
		sources[i].file.Size = size
		sources[i].file.SHA256 = sum
		manifest.Files = append(manifest.Files, sources[i].file)
	}

	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".backup-*.tar.gz")
	if err != nil {
		return Manifest{}, fmt.Errorf("creating output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeArchive(ctx, tmp, manifest, sources); err != nil {
		tmp.Close()
		return Manifest{}, err
	}
	if err := tmp.Close(); err != nil {
		return Manifest{}, fmt.Errorf("closing output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), outputPath); err != nil {
		return Manifest{}, fmt.Errorf("moving archive into place: %w", err)
	}
	return manifest, nil
}

func checkpoint(ctx context.Context, dbPath string) error {
	st, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.Checkpoint(ctx)
}

func writeArchive(ctx context.Context, w io.Writer, manifest Manifest, sources []source) error {
	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)

	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	hdr := &tar.Header{
		Name:    ManifestName,
		Mode:    0o644,
		Size:    int64(len(raw)),
		ModTime: manifest.CreatedAt,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if _, err := tw.Write(raw); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := addFileToTar(tw, src.path, src.file); err != nil {
			return fmt.Errorf("adding %s to archive: %w", src.file.Role, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finishing tar stream: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("finishing gzip stream: %w", err)
	}
	return nil
}

// addFileToTar copies exactly the manifest's size so a file growing after
// hashing cannot corrupt the stream.
func addFileToTar(tw *tar.Writer, filePath string, mf ManifestFile) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = mf.Name
	hdr.Size = mf.Size

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.CopyN(tw, f, mf.Size)
	return err
}

func digestFile(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}

// Restore extracts an archive written by Backup into dataDir. Every file is
// verified against the manifest before anything is moved into place. Existing
// files are replaced only when force is set; a replaced database also loses
// its stale -wal and -shm companions.
func Restore(ctx context.Context, archivePath, dataDir string, force bool) (Manifest, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return Manifest{}, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return Manifest{}, fmt.Errorf("creating data dir: %w", err)
	}

	gr, err := gzip.NewReader(f)
	if err != nil {
		return Manifest{}, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}
	defer gr.Close()
	tr := tar.NewReader(gr)

	manifest, err := readManifest(tr)
	if err != nil {
		return Manifest{}, err
	}
	expected := make(map[string]ManifestFile, len(manifest.Files))
	for _, mf := range manifest.Files {
		if !safeName(mf.Name) {
			return Manifest{}, fmt.Errorf("%w: unsafe file name %q", ErrInvalidArchive, mf.Name)
		}
		expected[mf.Name] = mf
	}

	if !force {
		for name := range expected {
			if _, err := os.Stat(filepath.Join(dataDir, name)); err == nil {
				return Manifest{}, fmt.Errorf("%w: %s (use force to overwrite)", ErrTargetExists, name)
			}
		}
	}

	staged := make(map[string]string, len(expected))
	defer func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return Manifest{}, err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Manifest{}, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
		}
		mf, ok := expected[hdr.Name]
		if !ok || hdr.Typeflag != tar.TypeReg {
			return Manifest{}, fmt.Errorf("%w: unexpected entry %q", ErrInvalidArchive, hdr.Name)
		}
		if _, dup := staged[hdr.Name]; dup {
			return Manifest{}, fmt.Errorf("%w: duplicate entry %q", ErrInvalidArchive, hdr.Name)
		}
		tmp, err := stageFile(tr, dataDir, mf)
		if err != nil {
			return Manifest{}, err
		}
		staged[hdr.Name] = tmp
	}

	for name := range expected {
		if _, ok := staged[name]; !ok {
			return Manifest{}, fmt.Errorf("%w: missing entry %q", ErrInvalidArchive, name)
		}
	}

	for name, tmp := range staged {
		target := filepath.Join(dataDir, name)
		if expected[name].Role == RoleDatabase {
			for _, suffix := range []string{"-wal", "-shm"} {
				if err := os.Remove(target + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
					return Manifest{}, fmt.Errorf("removing %s%s: %w", name, suffix, err)
				}
			}
		}
		if err := os.Rename(tmp, target); err != nil {
			return Manifest{}, fmt.Errorf("restoring %s: %w", name, err)
		}
		delete(staged, name)
	}
	return manifest, nil
}

func readManifest(tr *tar.Reader) (Manifest, error) {
	hdr, err := tr.Next()
	if err != nil {
		return Manifest{}, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}
	if hdr.Name != ManifestName {
		return Manifest{}, fmt.Errorf("%w: first entry is %q, want %s", ErrInvalidArchive, hdr.Name, ManifestName)
	}
	var m Manifest
	if err := json.NewDecoder(io.LimitReader(tr, 1<<20)).Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("%w: decoding manifest: %w", ErrInvalidArchive, err)
	}
	if m.FormatVersion != FormatVersion {
		return Manifest{}, fmt.Errorf("%w: unsupported format version %d", ErrInvalidArchive, m.FormatVersion)
	}
	if len(m.Files) == 0 {
		return Manifest{}, fmt.Errorf("%w: manifest lists no files", ErrInvalidArchive)
	}
	return m, nil
}

// stageFile writes one entry to a temp file in dir and checks its size and
// digest against mf.
func stageFile(r io.Reader, dir string, mf ManifestFile) (string, error) {
	tmp, err := os.CreateTemp(dir, ".restore-*")
	if err != nil {
		return "", fmt.Errorf("staging %s: %w", mf.Name, err)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), io.LimitReader(r, mf.Size+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("staging %s: %w", mf.Name, err)
	}
	if n != mf.Size || hex.EncodeToString(h.Sum(nil)) != mf.SHA256 {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: checksum mismatch for %s", ErrInvalidArchive, mf.Name)
	}
	return tmp.Name(), nil
}

// safeName accepts plain file names only.
func safeName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
