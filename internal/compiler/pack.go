package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/narrata/loom/internal/content"
)

// Pack is the result of loading a content pack directory.
type Pack struct {
	Templates []content.Template
	Rules     []content.Rule
	Value     cue.Value // Unified CUE value for additional processing
	FileCount int       // Number of .cue files found
}

// LoadPack loads every .cue file in a directory and compiles the declared
// templates and rules. Compile errors are collected per record rather than
// aborting the load, so a single broken template does not hide the rest of
// the pack's diagnostics.
//
// A nil Pack means the directory itself could not be loaded.
func LoadPack(dir string) (*Pack, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{fmt.Errorf("pack directory not found: %s", dir)}
	}
	if err != nil {
		return nil, []error{fmt.Errorf("accessing pack directory: %w", err)}
	}
	if !info.IsDir() {
		return nil, []error{fmt.Errorf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("scanning pack directory: %w", err)}
	}
	if len(cueFiles) == 0 {
		return nil, []error{fmt.Errorf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{fmt.Errorf("no CUE instances loaded from %s", dir)}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{formatCUEError(inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	pack := &Pack{
		Value:     value,
		FileCount: len(cueFiles),
	}
	var errs []error

	templatesVal := value.LookupPath(cue.ParsePath("template"))
	if templatesVal.Exists() {
		iter, iterErr := templatesVal.Fields()
		if iterErr != nil {
			errs = append(errs, fmt.Errorf("iterating templates: %w", iterErr))
		} else {
			for iter.Next() {
				tpl, compileErr := CompileTemplate(iter.Value())
				if compileErr != nil {
					errs = append(errs, compileErr)
					continue
				}
				pack.Templates = append(pack.Templates, *tpl)
			}
		}
	}

	rulesVal := value.LookupPath(cue.ParsePath("rule"))
	if rulesVal.Exists() {
		iter, iterErr := rulesVal.Fields()
		if iterErr != nil {
			errs = append(errs, fmt.Errorf("iterating rules: %w", iterErr))
		} else {
			for iter.Next() {
				rule, compileErr := CompileRule(iter.Value())
				if compileErr != nil {
					errs = append(errs, compileErr)
					continue
				}
				pack.Rules = append(pack.Rules, *rule)
			}
		}
	}

	if len(pack.Templates) == 0 && len(pack.Rules) == 0 && len(errs) == 0 {
		errs = append(errs, fmt.Errorf("no templates or rules found in %s", dir))
	}

	return pack, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
