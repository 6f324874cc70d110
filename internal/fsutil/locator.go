package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Layout of a BMF object directory.
const (
	FlowsDir     = "flows"
	FlowFileName = "creation_flow.py"
)

// Configuration file categories. Each is a subdirectory of the object.
const (
	CategoryFilter       = "filter"
	CategoryMapping      = "mapping"
	CategoryMergingRules = "merging_rules"
	CategoryTmp          = "tmp"
	CategoryDeletion     = "deletion"
)

var (
	// RequiredDirs must exist in a well-formed object.
	RequiredDirs = []string{FlowsDir, CategoryFilter, CategoryMapping, CategoryMergingRules}
	// OptionalDirs may hold further configuration files.
	OptionalDirs = []string{CategoryTmp, CategoryDeletion}
	// ConfigCategories are scanned for YAML files, in this order.
	ConfigCategories = []string{CategoryFilter, CategoryMapping, CategoryMergingRules, CategoryTmp, CategoryDeletion}
	// YAMLExtensions are the configuration file extensions.
	YAMLExtensions = []string{".yml", ".yaml"}
)

var (
	// ErrNotFound is returned when a path does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotDir is returned when the object path is not a directory.
	ErrNotDir = errors.New("not a directory")
)

// Locator resolves the files of one object directory.
type Locator struct {
	root string
}

// NewLocator checks that path is an existing directory.
func NewLocator(path string) (*Locator, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("object path does not exist: %s: %w", abs, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("object path is not a directory: %s: %w", abs, ErrNotDir)
	}
	return &Locator{root: abs}, nil
}

// Root returns the absolute object directory.
func (l *Locator) Root() string { return l.root }

// ObjectName returns the object directory name.
func (l *Locator) ObjectName() string { return filepath.Base(l.root) }

// FlowFile returns the path of flows/creation_flow.py.
func (l *Locator) FlowFile() (string, error) {
	path := filepath.Join(l.root, FlowsDir, FlowFileName)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s not found in %s: %w", FlowFileName, filepath.Join(l.root, FlowsDir), ErrNotFound)
	}
	return path, nil
}

// ConfigFiles lists the YAML files of every category. Each category is
// present in the result, with no files when its directory is missing.
func (l *Locator) ConfigFiles() (map[string][]string, error) {
	out := make(map[string][]string, len(ConfigCategories))
	for _, category := range ConfigCategories {
		files, err := ListFilesByExtension(filepath.Join(l.root, category), YAMLExtensions...)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s files: %w", category, err)
		}
		out[category] = files
	}
	return out, nil
}

// Summary describes the object directory.
type Summary struct {
	ObjectName     string   `json:"object_name"`
	ObjectPath     string   `json:"object_path"`
	FlowFileExists bool     `json:"creation_flow_exists"`
	Directories    []string `json:"directories"`
	YAMLFiles      int      `json:"yaml_files_count"`
	PythonFiles    int      `json:"python_files_count"`
}

// Summary counts the files in each subdirectory of the object.
func (l *Locator) Summary() (Summary, error) {
	s := Summary{ObjectName: l.ObjectName(), ObjectPath: l.root}
	_, err := l.FlowFile()
	s.FlowFileExists = err == nil

	entries, err := os.ReadDir(l.root)
	if err != nil {
		return s, fmt.Errorf("failed to read %s: %w", l.root, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		s.Directories = append(s.Directories, e.Name())
		dir := filepath.Join(l.root, e.Name())
		yml, err := ListFilesByExtension(dir, YAMLExtensions...)
		if err != nil {
			return s, err
		}
		py, err := ListFilesByExtension(dir, ".py")
		if err != nil {
			return s, err
		}
		s.YAMLFiles += len(yml)
		s.PythonFiles += len(py)
	}
	return s, nil
}

// Validation is the result of ValidateObject.
type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Info     []string `json:"info"`
}

// Valid reports whether no errors were found.
func (v Validation) Valid() bool { return len(v.Errors) == 0 }

// ValidateObject checks the layout of the object directory at path. Only an
// unusable path is returned as an error; layout problems are collected.
func ValidateObject(path string) (Validation, error) {
	var v Validation
	l, err := NewLocator(path)
	if err != nil {
		return v, err
	}

	for _, dir := range RequiredDirs {
		info, err := os.Stat(filepath.Join(l.root, dir))
		switch {
		case err != nil:
			v.Errors = append(v.Errors, "Required directory missing: "+dir)
		case !info.IsDir():
			v.Errors = append(v.Errors, "Required path is not a directory: "+dir)
		}
	}

	if flow, err := l.FlowFile(); err != nil {
		v.Errors = append(v.Errors, err.Error())
	} else {
		v.Info = append(v.Info, fmt.Sprintf("Found %s: %s", FlowFileName, flow))
	}

	files, err := l.ConfigFiles()
	if err != nil {
		return v, err
	}
	total := 0
	for _, category := range ConfigCategories {
		total += len(files[category])
	}
	if total == 0 {
		v.Warnings = append(v.Warnings, "No YAML files found in expected directories")
	} else {
		v.Info = append(v.Info, fmt.Sprintf("Found %d YAML files", total))
	}
	return v, nil
}
