package pipelinecheck

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// compileDriver is the inline program the interpreter runs to compile one
// pipeline function. It loads the module from its file path, so no
// package installation is required.
const compileDriver = `import importlib.util, sys
module_path, function_name, output_path = sys.argv[1], sys.argv[2], sys.argv[3]
from kfp import compiler
spec = importlib.util.spec_from_file_location("importguard_example", module_path)
module = importlib.util.module_from_spec(spec)
sys.modules[spec.name] = module
spec.loader.exec_module(module)
compiler.Compiler().compile(pipeline_func=getattr(module, function_name), package_path=output_path)
`

// KFPCompiler compiles pipelines by invoking the host interpreter with an
// inline driver. Module search paths are explicit configuration passed to
// the subprocess via PYTHONPATH, never mutated process-global state.
type KFPCompiler struct {
	Interpreter string
	SearchPaths []string
}

// NewKFPCompiler creates a compiler bound to the given interpreter and
// module search paths.
func NewKFPCompiler(interpreter string, searchPaths []string) *KFPCompiler {
	return &KFPCompiler{Interpreter: interpreter, SearchPaths: searchPaths}
}

// Compile implements Compiler.
func (c *KFPCompiler) Compile(ctx context.Context, modulePath, function, outputPath string) error {
	cmd := exec.CommandContext(ctx, c.Interpreter, "-c", compileDriver, modulePath, function, outputPath)

	if len(c.SearchPaths) > 0 {
		pythonPath := strings.Join(c.SearchPaths, string(os.PathListSeparator))
		cmd.Env = append(os.Environ(), "PYTHONPATH="+pythonPath)
	}

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}

		return fmt.Errorf("compile %s::%s: %s", modulePath, function, detail)
	}

	return nil
}
