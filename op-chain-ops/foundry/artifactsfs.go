package foundry

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/exp/maps"
)

type statDirFs interface {
	fs.StatFS
	fs.ReadDirFS
}

// EmbedFS serves an embedded directory as the root of a filesystem.
type EmbedFS struct {
	FS      embed.FS
	RootDir string
}

var _ statDirFs = (*EmbedFS)(nil)

func (e *EmbedFS) Open(name string) (fs.File, error) {
	return e.FS.Open(path.Join(e.RootDir, name))
}

func (e *EmbedFS) Stat(name string) (fs.FileInfo, error) {
	f, err := e.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Stat()
}

func (e *EmbedFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return e.FS.ReadDir(path.Join(e.RootDir, name))
}

// ArtifactsFS reads a forge artifacts directory: one directory per solidity source,
// holding one JSON file per contract, optionally suffixed with the compiler version.
type ArtifactsFS struct {
	FS statDirFs
}

func OpenArtifactsDir(dirPath string) *ArtifactsFS {
	dir := os.DirFS(dirPath)
	if d, ok := dir.(statDirFs); !ok {
		panic("Go DirFS guarantees are changed")
	} else {
		return &ArtifactsFS{FS: d}
	}
}

// ListArtifacts lists the artifacts, named after their source file, e.g. "L1ERC20Bridge.sol".
func (af *ArtifactsFS) ListArtifacts() ([]string, error) {
	entries, err := af.FS.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	out := make([]string, 0, len(entries))
	for _, d := range entries {
		// Some artifacts are nested in directories not suffixed with ".sol"
		if name := d.Name(); d.IsDir() && strings.HasSuffix(name, ".sol") {
			out = append(out, name)
		}
	}
	return out, nil
}

// ListContracts lists the contracts of an artifact, sorted by name.
// Contracts built with several compiler versions are listed once.
func (af *ArtifactsFS) ListContracts(name string) ([]string, error) {
	entries, err := af.FS.ReadDir(name)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts of %q: %w", name, err)
	}
	contracts := make(map[string]struct{})
	for _, d := range entries {
		if d.IsDir() {
			continue
		}
		file, ok := strings.CutSuffix(d.Name(), ".json")
		if !ok {
			continue
		}
		// Owned.0.8.15.json is the Owned contract
		contract, _, _ := strings.Cut(file, ".")
		contracts[contract] = struct{}{}
	}
	out := maps.Keys(contracts)
	slices.Sort(out)
	return out, nil
}

// ReadArtifact reads the artifact of a contract. When only builds suffixed with
// a compiler version exist, the one of the latest compiler is read.
func (af *ArtifactsFS) ReadArtifact(name string, contract string) (*Artifact, error) {
	artifactPath := path.Join(name, contract+".json")
	if _, err := af.FS.Stat(artifactPath); errors.Is(err, fs.ErrNotExist) {
		latest, err := af.latestVersionedArtifact(name, contract)
		if err != nil {
			return nil, err
		}
		artifactPath = path.Join(name, latest)
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat artifact %s: %w", artifactPath, err)
	}
	f, err := af.FS.Open(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact %q: %w", artifactPath, err)
	}
	defer f.Close()
	var out Artifact
	if err := json.NewDecoder(f).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %q: %w", artifactPath, err)
	}
	return &out, nil
}

// latestVersionedArtifact returns the file name of the contract build, e.g.
// Owned.0.8.25.json, with the highest compiler version.
func (af *ArtifactsFS) latestVersionedArtifact(name, contract string) (string, error) {
	entries, err := af.FS.ReadDir(name)
	if err != nil {
		return "", fmt.Errorf("failed to list contracts of %q: %w", name, err)
	}
	var (
		latest    string
		latestVer *semver.Version
	)
	for _, d := range entries {
		if d.IsDir() {
			continue
		}
		rest, ok := strings.CutPrefix(d.Name(), contract+".")
		if !ok {
			continue
		}
		verStr, ok := strings.CutSuffix(rest, ".json")
		if !ok {
			continue
		}
		ver, err := semver.StrictNewVersion(verStr)
		if err != nil {
			return "", fmt.Errorf("invalid compiler version of artifact %s/%s: %w", name, d.Name(), err)
		}
		if latestVer == nil || ver.GreaterThan(latestVer) {
			latest, latestVer = d.Name(), ver
		}
	}
	if latestVer == nil {
		return "", fmt.Errorf("no artifact of %s in %s: %w", contract, name, fs.ErrNotExist)
	}
	return latest, nil
}

// ReadArtifactFile reads a single artifact JSON file.
func ReadArtifactFile(filePath string) (*Artifact, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	var out Artifact
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %q: %w", filePath, err)
	}
	return &out, nil
}
