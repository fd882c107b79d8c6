package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sentinelfix/sentinel/internal/domain"
	"github.com/sentinelfix/sentinel/internal/domain/safety"
)

var skipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"bin":          true,
	"testdata":     true,
	".sentinel":    true,
}

// sourceExts are the file types the rule engine evaluates.
var sourceExts = map[string]bool{
	".go": true, ".py": true, ".js": true, ".jsx": true,
	".ts": true, ".tsx": true, ".java": true,
}

// FileScanner implements domain.ProjectScanner by walking the filesystem.
type FileScanner struct{}

func New() *FileScanner {
	return &FileScanner{}
}

func (s *FileScanner) Scan(projectPath string, excludePaths ...string) (*domain.ScanResult, error) {
	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, err
	}

	// Merge extra excludes with built-in skip dirs. A path-shaped
	// exclude like "src/gen" matches relative to the project root; a
	// bare name matches any directory with that basename.
	extraSkip := make(map[string]bool, len(excludePaths))
	var skipPrefixes []string
	for _, p := range excludePaths {
		p = strings.TrimSuffix(p, "/")
		if strings.Contains(p, "/") {
			skipPrefixes = append(skipPrefixes, p)
		} else {
			extraSkip[p] = true
		}
	}

	result := &domain.ScanResult{RootPath: absPath}

	err = filepath.WalkDir(absPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if skipDirs[d.Name()] || extraSkip[d.Name()] {
				return filepath.SkipDir
			}
			rel, _ := filepath.Rel(absPath, path)
			rel = filepath.ToSlash(rel)
			for _, prefix := range skipPrefixes {
				if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
					return filepath.SkipDir
				}
			}
			return nil
		}

		relPath, _ := filepath.Rel(absPath, path)
		result.AllFiles = append(result.AllFiles, relPath)

		dir := filepath.Dir(relPath)
		isRoot := dir == "."

		switch {
		case d.Name() == "go.mod" && isRoot:
			result.HasGoMod = true
		case d.Name() == "package.json" && isRoot:
			result.HasPackage = true
		case (d.Name() == "pytest.ini" || d.Name() == "pyproject.toml") && isRoot:
			result.HasPytest = true
		}

		switch {
		case sourceExts[filepath.Ext(d.Name())]:
			result.SourceFiles = append(result.SourceFiles, relPath)
			if safety.IsTestFile(relPath) {
				result.TestFiles = append(result.TestFiles, relPath)
			}
		case isConfigName(d.Name()):
			result.ConfigFiles = append(result.ConfigFiles, relPath)
		}

		return nil
	})

	return result, err
}

func isConfigName(name string) bool {
	switch filepath.Ext(name) {
	case ".yaml", ".yml", ".json", ".toml", ".ini":
		return true
	}
	return false
}
