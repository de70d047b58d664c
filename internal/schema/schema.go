// Package schema provides CUE-backed command validators.
//
// Applications declare the shape of their commands as CUE definitions
// and bind command kinds to them; the resulting engine.Validator runs
// before context resolution and turns a malformed command into the
// structured error list of a CommandRejected event.
//
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
package schema

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/weftlabs/weft/internal/engine"
)

// Schema holds compiled CUE definitions that describe command shapes.
//
// Example source:
//
//	#Increment: {
//		amount: int & >0
//	}
//	#AddItem: {
//		sku: string & !=""
//	}
type Schema struct {
	ctx  *cue.Context
	root cue.Value
}

// Compile parses CUE source into a Schema.
func Compile(source string) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(source)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{ctx: ctx, root: v}, nil
}

// MustCompile is Compile that panics on error. For package-level schema
// declarations whose source is a constant.
func MustCompile(source string) *Schema {
	s, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks payload against the definition at path (e.g.
// "#Increment"). The return is a structured error list, one entry per
// violation; empty means valid.
func (s *Schema) Validate(def string, payload any) []string {
	defVal := s.root.LookupPath(cue.ParsePath(def))
	if !defVal.Exists() {
		return []string{fmt.Sprintf("schema definition %s not found", def)}
	}
	if err := defVal.Err(); err != nil {
		return []string{fmt.Sprintf("schema definition %s: %v", def, err)}
	}

	data := s.ctx.Encode(payload)
	if err := data.Err(); err != nil {
		return []string{fmt.Sprintf("encode command: %v", err)}
	}

	unified := defVal.Unify(data)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return formatErrors(err)
	}
	return nil
}

// Validator binds command kinds to definitions and returns the
// resulting engine validator. Kinds absent from the binding skip schema
// validation entirely (the validation step is optional per command).
func (s *Schema) Validator(defsByKind map[string]string) engine.Validator {
	return func(cmd engine.Command) []string {
		def, ok := defsByKind[cmd.CommandKind()]
		if !ok {
			return nil
		}
		return s.Validate(def, cmd)
	}
}

// formatErrors flattens a CUE error into "path: message" strings.
func formatErrors(err error) []string {
	var out []string
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if path := strings.Join(e.Path(), "."); path != "" {
			out = append(out, path+": "+msg)
		} else {
			out = append(out, msg)
		}
	}
	if len(out) == 0 {
		out = append(out, err.Error())
	}
	return out
}
