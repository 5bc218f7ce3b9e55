package dumpstore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/obs"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/pathsafe"
)

const (
	dumpFileName     = "dump"
	metadataFileName = "metadata.json"
	sniffWindow      = 4096
	// magicSniffLen only needs the leading bytes used by detectFormat/detectArch.
	magicSniffLen = 64
)

// OpenSessions reports whether a dump id is currently open in any live
// session, used by Delete to refuse removal per spec.md §4.1.
type OpenSessions interface {
	IsDumpOpen(dumpID string) bool
}

// Store implements the dump store described in spec.md §4.1.
type Store struct {
	root   string
	sess   OpenSessions
	cache  *lru.Cache[string, DumpInfo]
	logger obs.Logger
}

// New constructs a Store rooted at root/dumps. sess may be nil during tests
// that do not exercise Delete's in-use check.
func New(root string, sess OpenSessions) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, "dumps"), 0o755); err != nil {
		return nil, fmt.Errorf("create dumps root: %w", err)
	}
	cache, err := lru.New[string, DumpInfo](256)
	if err != nil {
		return nil, err
	}
	return &Store{
		root:   root,
		sess:   sess,
		cache:  cache,
		logger: obs.NewComponentLogger("DumpStore"),
	}, nil
}

func (s *Store) userDir(userID string) string {
	return filepath.Join(s.root, "dumps", userID)
}

func (s *Store) dumpDir(userID, dumpID string) string {
	return filepath.Join(s.userDir(userID), dumpID)
}

func cacheKey(userID, dumpID string) string { return userID + "/" + dumpID }

// Put streams bytes into content-addressed storage, validates the dump
// format, and writes metadata.json, per spec.md §4.1.
func (s *Store) Put(userID, fileName string, r io.Reader, maxBytes int64, description string) (DumpInfo, error) {
	if err := pathsafe.ValidateComponent(userID); err != nil {
		return DumpInfo{}, apperr.Wrap(apperr.KindValidation, "invalid user id", err)
	}
	if err := pathsafe.ValidateComponent(fileName); err != nil {
		return DumpInfo{}, apperr.Wrap(apperr.KindValidation, "invalid file name", err)
	}

	dumpID := newID()
	dir := s.dumpDir(userID, dumpID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return DumpInfo{}, apperr.Wrap(apperr.KindTransient, "create dump directory", err)
	}

	tmp, err := os.CreateTemp(dir, "upload-*.tmp")
	if err != nil {
		return DumpInfo{}, apperr.Wrap(apperr.KindTransient, "create temp file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	hasher := sha256.New()
	limited := io.LimitReader(r, maxBytes+1)
	written, err := io.Copy(io.MultiWriter(tmp, hasher), limited)
	if err != nil {
		tmp.Close()
		return DumpInfo{}, apperr.Wrap(apperr.KindTransient, "write dump bytes", err)
	}
	if err := tmp.Close(); err != nil {
		return DumpInfo{}, apperr.Wrap(apperr.KindTransient, "close temp file", err)
	}
	if written > maxBytes {
		os.RemoveAll(dir)
		return DumpInfo{}, apperr.New(apperr.KindTooLarge, "dump exceeds maximum request body size")
	}

	head, err := readHead(tmpPath, magicSniffLen)
	if err != nil {
		os.RemoveAll(dir)
		return DumpInfo{}, apperr.Wrap(apperr.KindTransient, "read dump head", err)
	}
	format := detectFormat(head)
	if format == FormatUnknown {
		os.RemoveAll(dir)
		return DumpInfo{}, apperr.New(apperr.KindFormatInvalid, "unrecognized dump format")
	}
	arch := detectArch(format, head)

	var isMusl *bool
	var runtimeVersion string
	if format == FormatLinuxELFCore {
		window, rerr := readHead(tmpPath, sniffWindowSize(written))
		if rerr == nil {
			musl, version := scanRodataStrings(window)
			isMusl = &musl
			runtimeVersion = version
		}
	}

	finalPath := filepath.Join(dir, dumpFileName)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.RemoveAll(dir)
		return DumpInfo{}, apperr.Wrap(apperr.KindTransient, "finalize dump file", err)
	}

	info := DumpInfo{
		SchemaVersion:  currentSchemaVersion,
		ID:             dumpID,
		UserID:         userID,
		FileName:       fileName,
		Size:           written,
		Format:         format,
		Arch:           arch,
		IsMusl:         isMusl,
		RuntimeVersion: runtimeVersion,
		Description:    description,
		ContentHash:    hex.EncodeToString(hasher.Sum(nil)),
		UploadedAt:     time.Now().UTC(),
	}
	if err := writeMetadata(dir, info); err != nil {
		os.RemoveAll(dir)
		return DumpInfo{}, err
	}

	s.cache.Add(cacheKey(userID, dumpID), info)
	s.logger.Info("stored dump %s for user %s (%s, %s, %d bytes)", dumpID, userID, format, arch, written)
	return info, nil
}

func sniffWindowSize(total int64) int64 {
	if total < sniffWindow {
		return total
	}
	return sniffWindow
}

func readHead(path string, n int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:read], nil
}

func writeMetadata(dir string, info DumpInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "marshal metadata", err)
	}
	tmp := filepath.Join(dir, metadataFileName+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperr.Wrap(apperr.KindTransient, "write metadata", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, metadataFileName)); err != nil {
		return apperr.Wrap(apperr.KindTransient, "rename metadata", err)
	}
	return nil
}

// Get returns metadata for a dump, failing NotFound on owner mismatch or
// absence per spec.md §4.1 and the authorization property in spec.md §8.
func (s *Store) Get(userID, dumpID string) (DumpInfo, error) {
	if err := pathsafe.ValidateComponent(userID); err != nil {
		return DumpInfo{}, apperr.Wrap(apperr.KindValidation, "invalid user id", err)
	}
	if err := pathsafe.ValidateComponent(dumpID); err != nil {
		return DumpInfo{}, apperr.Wrap(apperr.KindValidation, "invalid dump id", err)
	}

	if info, ok := s.cache.Get(cacheKey(userID, dumpID)); ok {
		return info, nil
	}

	data, err := os.ReadFile(filepath.Join(s.dumpDir(userID, dumpID), metadataFileName))
	if err != nil {
		return DumpInfo{}, apperr.New(apperr.KindNotFound, "dump not found")
	}
	var info DumpInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return DumpInfo{}, apperr.Wrap(apperr.KindInternal, "corrupt dump metadata", err)
	}
	if info.UserID != userID {
		return DumpInfo{}, apperr.New(apperr.KindNotFound, "dump not found")
	}
	s.cache.Add(cacheKey(userID, dumpID), info)
	return info, nil
}

// Path returns the on-disk path to the raw dump bytes, for the debugger
// driver to open directly. It re-validates ownership first.
func (s *Store) Path(userID, dumpID string) (string, error) {
	if _, err := s.Get(userID, dumpID); err != nil {
		return "", err
	}
	return filepath.Join(s.dumpDir(userID, dumpID), dumpFileName), nil
}

// Delete removes a dump's directory, refusing while any session has it
// open.
func (s *Store) Delete(userID, dumpID string) error {
	if _, err := s.Get(userID, dumpID); err != nil {
		return err
	}
	if s.sess != nil && s.sess.IsDumpOpen(dumpID) {
		return apperr.New(apperr.KindConflict, "dump is open in a live session")
	}
	s.cache.Remove(cacheKey(userID, dumpID))
	if err := os.RemoveAll(s.dumpDir(userID, dumpID)); err != nil {
		return apperr.Wrap(apperr.KindTransient, "remove dump directory", err)
	}
	return nil
}

// List returns all dumps for userID ordered by upload time descending.
func (s *Store) List(userID string) ([]DumpInfo, error) {
	if err := pathsafe.ValidateComponent(userID); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "invalid user id", err)
	}
	entries, err := os.ReadDir(s.userDir(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return []DumpInfo{}, nil
		}
		return nil, apperr.Wrap(apperr.KindTransient, "list dumps", err)
	}

	out := make([]DumpInfo, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := s.Get(userID, e.Name())
		if err != nil {
			continue // swept or corrupt; skip rather than fail the whole list
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

// PutExecutable associates a companion binary with a dump (for
// self-contained managed apps).
func (s *Store) PutExecutable(userID, dumpID, name string, r io.Reader, maxBytes int64) error {
	info, err := s.Get(userID, dumpID)
	if err != nil {
		return err
	}
	if err := pathsafe.ValidateComponent(name); err != nil {
		return apperr.Wrap(apperr.KindValidation, "invalid executable name", err)
	}

	exeDir := filepath.Join(s.dumpDir(userID, dumpID), "exe")
	if err := os.MkdirAll(exeDir, 0o755); err != nil {
		return apperr.Wrap(apperr.KindTransient, "create exe directory", err)
	}
	tmp, err := os.CreateTemp(exeDir, "upload-*.tmp")
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "create temp file", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(r, maxBytes+1))
	tmp.Close()
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "write executable", err)
	}
	if n > maxBytes {
		return apperr.New(apperr.KindTooLarge, "executable exceeds maximum request body size")
	}
	if err := os.Rename(tmp.Name(), filepath.Join(exeDir, name)); err != nil {
		return apperr.Wrap(apperr.KindTransient, "finalize executable", err)
	}

	info.ExecutableName = name
	s.cache.Add(cacheKey(userID, dumpID), info)
	return writeMetadata(s.dumpDir(userID, dumpID), info)
}

// Sweep removes any dump directory lacking metadata.json, recovering from a
// crash between metadata removal and directory removal (spec.md §4.1).
func (s *Store) Sweep() error {
	usersRoot := filepath.Join(s.root, "dumps")
	userDirs, err := os.ReadDir(usersRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, u := range userDirs {
		if !u.IsDir() {
			continue
		}
		userPath := filepath.Join(usersRoot, u.Name())
		dumpDirs, err := os.ReadDir(userPath)
		if err != nil {
			continue
		}
		for _, d := range dumpDirs {
			if !d.IsDir() {
				continue
			}
			metaPath := filepath.Join(userPath, d.Name(), metadataFileName)
			if _, err := os.Stat(metaPath); os.IsNotExist(err) {
				s.logger.Warn("sweeping orphaned dump directory %s/%s", u.Name(), d.Name())
				os.RemoveAll(filepath.Join(userPath, d.Name()))
			}
		}
	}
	return nil
}

// Stats walks every user directory and aggregates counters across all
// stored dumps, for the GET /api/dumps/stats endpoint.
func (s *Store) Stats() (Stats, error) {
	usersRoot := filepath.Join(s.root, "dumps")
	userDirs, err := os.ReadDir(usersRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return Stats{ByFormat: map[Format]int{}, ByArch: map[Arch]int{}}, nil
		}
		return Stats{}, apperr.Wrap(apperr.KindTransient, "list dump users", err)
	}

	stats := Stats{ByFormat: map[Format]int{}, ByArch: map[Arch]int{}}
	for _, u := range userDirs {
		if !u.IsDir() {
			continue
		}
		dumps, err := s.List(u.Name())
		if err != nil {
			continue
		}
		if len(dumps) == 0 {
			continue
		}
		stats.TotalUsers++
		for _, info := range dumps {
			stats.TotalDumps++
			stats.TotalBytes += info.Size
			stats.ByFormat[info.Format]++
			stats.ByArch[info.Arch]++
		}
	}
	return stats, nil
}

func newID() string {
	return pathsafe.NewRandomID()
}
