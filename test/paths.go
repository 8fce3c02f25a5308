package test

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bitrise-io/go-utils/v2/pathutil"
)

// PathResolver turns the results path input into the list of report files to convert.
type PathResolver interface {
	ResultFiles(resultsPath string) ([]string, error)
}

type pathResolver struct {
	pathModifier pathutil.PathModifier
	pathChecker  pathutil.PathChecker
	pathProvider pathutil.PathProvider
}

// NewPathResolver accepts a report file or a directory of report files. Directories are read one level deep.
func NewPathResolver(modifier pathutil.PathModifier, checker pathutil.PathChecker, provider pathutil.PathProvider) PathResolver {
	return pathResolver{
		pathModifier: modifier,
		pathChecker:  checker,
		pathProvider: provider,
	}
}

func (r pathResolver) ResultFiles(resultsPath string) ([]string, error) {
	resultsPath = strings.TrimSpace(resultsPath)
	if resultsPath == "" {
		return nil, fmt.Errorf("test results path is empty")
	}

	path, err := r.pathModifier.AbsPath(resultsPath)
	if err != nil {
		return nil, err
	}

	if exists, err := r.pathChecker.IsPathExists(path); err != nil {
		return nil, fmt.Errorf("failed to check if path (%s) exists: %w", path, err)
	} else if !exists {
		return nil, fmt.Errorf("test results path does not exist: %s", path)
	}

	isDir, err := r.pathChecker.IsDirExists(path)
	if err != nil {
		return nil, fmt.Errorf("failed to check if path (%s) is a directory: %w", path, err)
	}
	if !isDir {
		return []string{path}, nil
	}

	// read one level of file set only <results_path>/files_to_get
	entries, err := r.pathProvider.Glob(filepath.Join(r.pathModifier.EscapeGlobPath(path), "*"))
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		isDir, err := r.pathChecker.IsDirExists(entry)
		if err != nil {
			return nil, fmt.Errorf("failed to check if path (%s) is a directory: %w", entry, err)
		}
		if !isDir {
			files = append(files, entry)
		}
	}

	return files, nil
}
