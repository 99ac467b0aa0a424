// Package analyze launches third party static analyzers over a source tree.
//
// The launcher is process invocation glue only: tools missing from the PATH
// are reported and skipped, and tool findings never affect the exit code.
// Only argument validation can fail.
package analyze

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-provisioning-profile-check/utils"
)

// Language selects which analyzers run.
type Language string

// Language values.
const (
	LanguageSwift Language = "swift"
	LanguageCpp   Language = "cpp"
	LanguageAll   Language = "all"
)

// Mode selects the analysis depth.
type Mode string

// Mode values.
const (
	ModeBasic    Mode = "basic"
	ModeAdvanced Mode = "advanced"
)

var cppSourceExtensions = []string{".cpp", ".cxx", ".cc"}

// Opts are the validated launcher arguments.
type Opts struct {
	CodePth  string
	Language Language
	Mode     Mode
}

// ParseArgs validates the command line arguments (excluding the program name).
func ParseArgs(args []string) (Opts, error) {
	if len(args) < 1 || len(args) > 3 {
		return Opts{}, fmt.Errorf("expected 1 to 3 arguments, got %d", len(args))
	}

	opts := Opts{
		CodePth:  args[0],
		Language: LanguageAll,
		Mode:     ModeBasic,
	}

	if len(args) > 1 {
		opts.Language = Language(args[1])
	}
	if len(args) > 2 {
		opts.Mode = Mode(args[2])
	}

	switch opts.Language {
	case LanguageSwift, LanguageCpp, LanguageAll:
	default:
		return Opts{}, fmt.Errorf("invalid language specified. Use 'swift', 'cpp', or 'all'")
	}

	switch opts.Mode {
	case ModeBasic, ModeAdvanced:
	default:
		return Opts{}, fmt.Errorf("invalid mode specified. Use 'basic' or 'advanced'")
	}

	if _, err := os.Stat(opts.CodePth); err != nil {
		return Opts{}, fmt.Errorf("the path '%s' does not exist", opts.CodePth)
	}

	return opts, nil
}

// Launcher ...
type Launcher struct {
	logger     log.Logger
	cmdFactory command.Factory
}

// NewLauncher ...
func NewLauncher(logger log.Logger, cmdFactory command.Factory) Launcher {
	return Launcher{
		logger:     logger,
		cmdFactory: cmdFactory,
	}
}

// Run launches the analyzers selected by opts, best effort.
func (l Launcher) Run(opts Opts) {
	if opts.Language == LanguageSwift || opts.Language == LanguageAll {
		l.runTool("SwiftLint", opts.CodePth, "swiftlint", "lint", opts.CodePth)
	}
	if opts.Language == LanguageCpp || opts.Language == LanguageAll {
		l.runTool("Cppcheck", opts.CodePth, "cppcheck", opts.CodePth)
	}

	if opts.Mode != ModeAdvanced {
		return
	}

	if opts.Language == LanguageCpp || opts.Language == LanguageAll {
		cppFiles, err := collectCppFiles(opts.CodePth)
		if err != nil {
			l.logger.Warnf("Failed to list C++ files: %s", err)
		} else if len(cppFiles) == 0 {
			l.logger.Printf("No C++ files found for Clang-Tidy.")
		} else {
			args := append([]string{"--quiet"}, cppFiles...)
			args = append(args, "--", "-I"+opts.CodePth)
			l.runTool("Clang-Tidy", opts.CodePth, "clang-tidy", args...)
		}
	}

	// build command is assumed to be make, adjust for other build systems
	l.runTool("Infer", opts.CodePth, "infer", "run", "--", "make")
}

func (l Launcher) runTool(toolName, codePth, name string, args ...string) {
	if !utils.IsToolInstalled(name) {
		l.logger.Printf("%s not found. Please install it.", toolName)
		return
	}

	l.logger.Infof("Running %s on %s", toolName, codePth)

	cmd := l.cmdFactory.Create(name, args, &command.Opts{Stdout: os.Stdout, Stderr: os.Stderr})
	l.logger.Debugf("$ %s", cmd.PrintableCommandArgs())

	// tool findings surface through the exit code, they are not launcher failures
	if err := cmd.Run(); err != nil {
		l.logger.Debugf("%s finished: %s", toolName, err)
	}
}

func collectCppFiles(codePth string) ([]string, error) {
	entries, err := os.ReadDir(codePth)
	if err != nil {
		return nil, err
	}

	var cppFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, cppExt := range cppSourceExtensions {
			if ext == cppExt {
				cppFiles = append(cppFiles, entry.Name())
				break
			}
		}
	}

	return cppFiles, nil
}
