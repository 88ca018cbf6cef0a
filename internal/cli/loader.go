package cli

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rollcall/internal/attendance"
)

//go:embed batch.cue
var batchSchema string

// BatchFile is a submission batch as written by a group leader.
//
//	year: 2024
//	group: 3
//	date: 2024-05-04
//	entries:
//	  - { name: 김민수, presence: Present, new_status: Active }
//	  - { name: 박지성, presence: Absent, absence_reason: Work, new_status: LongAbsent }
//
// Year, group and date may be left out and given as flags instead.
type BatchFile struct {
	Year    string             `yaml:"year"`
	Group   string             `yaml:"group"`
	Date    string             `yaml:"date"`
	Entries []attendance.Entry `yaml:"entries"`
}

// LoadError represents an error that occurred while loading a batch file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // position in the batch file, if known
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadBatch reads a batch file and checks it against the batch schema.
// All schema violations are returned, each with its position in the file.
func LoadBatch(path string) (*BatchFile, []error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("batch file not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading batch file: %v", err)}}
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return nil, convertCUEErrors(ErrCodeParse, path, err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(batchSchema, cue.Filename("batch.cue"))
	if err := schema.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("compiling batch schema: %v", err)}}
	}

	value := ctx.BuildFile(file)
	if err := value.Err(); err != nil {
		return nil, convertCUEErrors(ErrCodeParse, path, err)
	}
	// An empty document extracts to null; treat it as an empty batch.
	if value.Kind() == cue.NullKind {
		value = ctx.CompileString("{}")
	}

	unified := schema.LookupPath(cue.ParsePath("#Batch")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, convertCUEErrors(ErrCodeSchema, path, err)
	}

	// The schema accepted the document; decode it with the same field names.
	var batch BatchFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&batch); err != nil && !errors.Is(err, io.EOF) {
		return nil, []error{&LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("decoding batch file: %v", err)}}
	}
	return &batch, nil
}

// convertCUEErrors splits a CUE error into LoadErrors, preferring positions
// inside the batch file over positions in the schema.
func convertCUEErrors(code, path string, err error) []error {
	var errs []error
	for _, e := range cueerrors.Errors(err) {
		le := &LoadError{Code: code, Message: e.Error()}
		for _, pos := range cueerrors.Positions(e) {
			if pos.Filename() == path {
				le.Pos = pos
				break
			}
		}
		errs = append(errs, le)
	}
	if len(errs) == 0 {
		errs = append(errs, &LoadError{Code: code, Message: err.Error()})
	}
	return errs
}
