package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

// Load error codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No suite files found
	ErrCodeParseFailed = "E004" // YAML or CUE syntax error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE evaluation failed
	ErrCodeReadFailed  = "E007" // File read error
	ErrCodeUnsupported = "E008" // Unknown file extension
)

// LoadError is a failure to read or decode a suite file.
type LoadError struct {
	Code    string
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *LoadError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Path, e.Line, e.Column, e.Code, e.Message)
	case e.Path != "":
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Suite file extensions.
var suiteExts = map[string]bool{".yaml": true, ".yml": true, ".cue": true}

// IsSuiteFile reports whether path has a suite file extension.
func IsSuiteFile(path string) bool {
	return suiteExts[strings.ToLower(filepath.Ext(path))]
}

// FindSuiteFiles expands paths into suite files. Directories are walked;
// files are taken as given. The result is sorted and free of duplicates.
func FindSuiteFiles(paths ...string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, Path: root, Message: "path not found"}
		}
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Path: root, Message: err.Error()}
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && (d.Name() == "golden" || strings.HasPrefix(d.Name(), ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			if IsSuiteFile(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Path: root, Message: err.Error()}
		}
	}

	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no suite files found in %s", strings.Join(paths, ", "))}
	}
	sort.Strings(files)
	return files, nil
}

// LoadFile reads the scenarios in one suite file.
func LoadFile(path string) ([]*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "file not found"}
		}
		return nil, &LoadError{Code: ErrCodeReadFailed, Path: path, Message: err.Error()}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		s, err := ParseYAML(path, data)
		if err != nil {
			return nil, err
		}
		return []*Scenario{s}, nil
	case ".cue":
		return ParseCUE(path, data)
	}
	return nil, &LoadError{Code: ErrCodeUnsupported, Path: path, Message: fmt.Sprintf("unsupported suite file extension %q", filepath.Ext(path))}
}

// Load reads every scenario under paths, in file order.
func Load(paths ...string) ([]*Scenario, error) {
	files, err := FindSuiteFiles(paths...)
	if err != nil {
		return nil, err
	}
	var all []*Scenario
	for _, f := range files {
		scenarios, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		all = append(all, scenarios...)
	}
	return all, nil
}

// ParseYAML decodes one scenario. Unknown fields are rejected.
func ParseYAML(source string, data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Code: ErrCodeParseFailed, Path: source, Message: "empty suite file"}
		}
		return nil, yamlError(source, err)
	}
	s.Source = source
	return &s, nil
}

// ParseCUE evaluates a CUE suite file and decodes every field under
// "scenario". A scenario without a name takes its field label.
func ParseCUE(source string, data []byte) ([]*Scenario, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(source))
	if err := value.Err(); err != nil {
		return nil, cueError(source, ErrCodeParseFailed, err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(source, ErrCodeBuildFailed, err)
	}

	root := value.LookupPath(cue.ParsePath("scenario"))
	if !root.Exists() {
		return nil, &LoadError{Code: ErrCodeGeneric, Path: source, Message: "no scenario field found"}
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, cueError(source, ErrCodeBuildFailed, err)
	}

	var scenarios []*Scenario
	for iter.Next() {
		label := iter.Label()
		data, err := iter.Value().MarshalJSON()
		if err != nil {
			return nil, cueError(source, ErrCodeBuildFailed, err)
		}

		// JSON is YAML, so the strict YAML decoder handles both formats.
		s, err := ParseYAML(source, data)
		if err != nil {
			var le *LoadError
			if errors.As(err, &le) {
				le.Message = fmt.Sprintf("scenario.%s: %s", label, le.Message)
				le.Line, le.Column = iterLine(iter.Value())
			}
			return nil, err
		}
		if s.Name == "" {
			s.Name = label
		}
		scenarios = append(scenarios, s)
	}

	if len(scenarios) == 0 {
		return nil, &LoadError{Code: ErrCodeGeneric, Path: source, Message: "scenario field is empty"}
	}
	return scenarios, nil
}

func iterLine(v cue.Value) (int, int) {
	pos := v.Pos()
	if !pos.IsValid() {
		return 0, 0
	}
	return pos.Line(), pos.Column()
}

// cueError extracts the first positioned error from a CUE error list.
func cueError(source, code string, err error) *LoadError {
	le := &LoadError{Code: code, Path: source, Message: err.Error()}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return le
	}
	first := errs[0]
	le.Message = first.Error()
	if positions := cueerrors.Positions(first); len(positions) > 0 && positions[0].IsValid() {
		le.Line = positions[0].Line()
		le.Column = positions[0].Column()
	}
	return le
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// yamlError keeps the first line number yaml.v3 reports.
func yamlError(source string, err error) *LoadError {
	le := &LoadError{Code: ErrCodeParseFailed, Path: source, Message: err.Error()}

	var te *yaml.TypeError
	if errors.As(err, &te) && len(te.Errors) > 0 {
		le.Message = strings.Join(te.Errors, "; ")
	}
	if m := yamlLine.FindStringSubmatch(le.Message); m != nil {
		le.Line, _ = strconv.Atoi(m[1])
	}
	return le
}
