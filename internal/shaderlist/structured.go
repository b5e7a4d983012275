package shaderlist

import (
	"encoding/json"
	"fmt"

	"github.com/conneroisu/dxcwatch/internal/compiler"
	"github.com/conneroisu/dxcwatch/internal/errors"
	"gopkg.in/yaml.v3"
)

// sourceEntry is one element of a JSON or YAML shaderlist:
//
//	[
//	  {
//	    "source": "src/blit.hlsl",
//	    "variants": [
//	      {"target": "vs", "entrypoint": "main_vs", "output": "bin/blit_vs"},
//	      {"target": "ps", "entrypoint": "main_ps", "output": "bin/blit_ps"}
//	    ]
//	  },
//	  {
//	    "source": "src/rt.hlsl",
//	    "library": {
//	      "exports": [{"internal": "MainRaygen"}, {"internal": "MainHit", "export": "closest_hit"}],
//	      "output": "bin/rt_lib"
//	    }
//	  }
//	]
type sourceEntry struct {
	Source   string         `json:"source" yaml:"source"`
	Defines  []string       `json:"defines,omitempty" yaml:"defines,omitempty"`
	Variants []variantEntry `json:"variants,omitempty" yaml:"variants,omitempty"`
	Library  *libraryEntry  `json:"library,omitempty" yaml:"library,omitempty"`
}

type variantEntry struct {
	Target     string   `json:"target" yaml:"target"`
	Entrypoint string   `json:"entrypoint" yaml:"entrypoint"`
	Output     string   `json:"output" yaml:"output"`
	Defines    []string `json:"defines,omitempty" yaml:"defines,omitempty"`
}

type libraryEntry struct {
	Exports []compiler.Export `json:"exports" yaml:"exports"`
	Output  string            `json:"output" yaml:"output"`
}

func parseJSON(data []byte, list *List) error {
	var entries []sourceEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return errors.NewParseError(errors.CodeShaderlistSyntax, "invalid JSON shaderlist", err).WithPath(list.Path)
	}
	list.addEntries(entries)
	return nil
}

func parseYAML(data []byte, list *List) error {
	var entries []sourceEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return errors.NewParseError(errors.CodeShaderlistSyntax, "invalid YAML shaderlist", err).WithPath(list.Path)
	}
	list.addEntries(entries)
	return nil
}

func (l *List) addEntries(entries []sourceEntry) {
	for i, e := range entries {
		location := fmt.Sprintf("%s[%d]", l.Path, i)
		if e.Source == "" {
			l.warn(location, "entry has no source")
			continue
		}
		if len(e.Variants) == 0 && e.Library == nil {
			l.warn(location, "entry for %s has neither variants nor a library", e.Source)
			continue
		}
		sourceAbs := l.resolve(e.Source)

		for j, v := range e.Variants {
			variantLocation := fmt.Sprintf("%s.variants[%d]", location, j)
			target, err := compiler.ParseTarget(v.Target)
			if err != nil {
				l.warn(variantLocation, "unknown shader target %q", v.Target)
				continue
			}
			if v.Entrypoint == "" || v.Output == "" {
				l.warn(variantLocation, "variant requires entrypoint and output")
				continue
			}
			l.Binaries = append(l.Binaries, BinaryUnit{
				Source:     e.Source,
				SourceAbs:  sourceAbs,
				Entrypoint: v.Entrypoint,
				Target:     target,
				Output:     l.resolve(v.Output),
				Defines:    append(append([]string(nil), e.Defines...), v.Defines...),
			})
		}

		if lib := e.Library; lib != nil {
			if len(lib.Exports) == 0 || lib.Output == "" {
				l.warn(location+".library", "library requires exports and an output")
				continue
			}
			l.Libraries = append(l.Libraries, LibraryUnit{
				Source:    e.Source,
				SourceAbs: sourceAbs,
				Exports:   lib.Exports,
				Output:    l.resolve(lib.Output),
				Defines:   append([]string(nil), e.Defines...),
			})
		}
	}
}
