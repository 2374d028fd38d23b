package mapping

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSource string

// validateShape checks the raw YAML against the embedded CUE schema.
// This runs before the structural parse so that impossible documents
// fail with a positioned error instead of a confusing shape mismatch
// deep inside the node walk.
func validateShape(filename string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile embedded schema: %w", err)
	}
	doc := schema.LookupPath(cue.ParsePath("#Document"))
	if err := doc.Err(); err != nil {
		return fmt.Errorf("lookup #Document: %w", err)
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return &MalformedSpecificationError{
			Section: "document",
			Detail:  "not valid YAML",
			Err:     err,
		}
	}

	value := ctx.BuildFile(file)
	if err := value.Err(); err != nil {
		return &MalformedSpecificationError{
			Section: "document",
			Detail:  cueDetail(err),
		}
	}

	if err := doc.Unify(value).Validate(cue.Concrete(false)); err != nil {
		return &MalformedSpecificationError{
			Section: "document",
			Detail:  cueDetail(err),
		}
	}
	return nil
}

// cueDetail renders the first CUE error with its source position.
func cueDetail(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		pos := positions[0]
		return fmt.Sprintf("%s:%d:%d: %s", pos.Filename(), pos.Line(), pos.Column(), first.Error())
	}
	return first.Error()
}
