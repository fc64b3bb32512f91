package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

type outputFormat string

const (
	outputTable outputFormat = "table"
	outputYAML  outputFormat = "yaml"
	outputJSON  outputFormat = "json"
)

var allOutputs = []outputFormat{outputTable, outputYAML, outputJSON}

func outputFormats() string {
	names := make([]string, len(allOutputs))
	for i, o := range allOutputs {
		names[i] = string(o)
	}
	return strings.Join(names, "|")
}

func (o *outputFormat) String() string { return string(*o) }
func (o *outputFormat) Type() string   { return "format" }

func (o *outputFormat) Set(s string) error {
	for _, known := range allOutputs {
		if strings.EqualFold(s, string(known)) {
			*o = known
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", outputFormats())
}

// uuidValue is a pflag.Value holding an id.
type uuidValue struct{ id *uuid.UUID }

func (v uuidValue) String() string {
	if v.id == nil || *v.id == uuid.Nil {
		return ""
	}
	return v.id.String()
}

func (v uuidValue) Type() string { return "id" }

func (v uuidValue) Set(s string) error {
	id, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("%q is not a valid id", s)
	}
	*v.id = id
	return nil
}

func uuidVar(fs *pflag.FlagSet, p *uuid.UUID, name, usage string) {
	fs.Var(uuidValue{id: p}, name, usage)
}

// optionalID returns the flag's id when it was given.
func optionalID(fs *pflag.FlagSet, name string, id uuid.UUID) *uuid.UUID {
	if !fs.Changed(name) {
		return nil
	}
	return &id
}
