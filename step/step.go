package step

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bitrise-io/go-steputils/v2/stepconf"
	v1pathutil "github.com/bitrise-io/go-utils/pathutil"
	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-steplib/steps-provisioning-profile-check/ipa"
	"github.com/bitrise-steplib/steps-provisioning-profile-check/pretty"
	"github.com/bitrise-steplib/steps-provisioning-profile-check/profile"
	"github.com/bitrise-steplib/steps-provisioning-profile-check/report"
	"github.com/bitrise-steplib/steps-provisioning-profile-check/utils"
	"github.com/kballard/go-shellquote"
)

const (
	profileExtension = ".mobileprovision"
	archiveExtension = ".ipa"

	decoderSecurity = "security"
	decoderBuiltin  = "builtin"

	reportFileName = "profile-check-report.txt"

	// Env Outputs
	reportPthEnvKey    = "BITRISE_PROFILE_CHECK_REPORT_PATH"
	expiredCountEnvKey = "BITRISE_EXPIRED_PROFILE_COUNT"

	referenceDateFormat = "2006-01-02 15:04:05 MST"
)

// Inputs ...
type Inputs struct {
	CheckDir       string `env:"check_dir,required"`
	ReferenceDate  string `env:"reference_date"`
	Decoder        string `env:"decoder,opt[security,builtin]"`
	DecoderOptions string `env:"decoder_options"`
	OutputDir      string `env:"output_dir"`
	VerboseLog     bool   `env:"verbose_log,opt[yes,no]"`
}

// Config ...
type Config struct {
	Inputs
	ReferenceTime            time.Time
	DecoderAdditionalOptions []string
}

// ArtifactKind ...
type ArtifactKind string

const (
	// KindStandaloneProfile is a .mobileprovision file checked directly.
	KindStandaloneProfile ArtifactKind = "standalone profile"
	// KindArchiveEmbedded is a .ipa archive whose embedded profile is checked.
	KindArchiveEmbedded ArtifactKind = "archive embedded profile"
)

// Artifact is one recognized input file.
type Artifact struct {
	Pth  string
	Kind ArtifactKind
}

// Result ...
type Result struct {
	Entries []report.Entry

	ValidCount     int
	ExpiredCount   int
	FailedCount    int
	NoProfileCount int
	NoDateCount    int
}

// ProfileChecker ...
type ProfileChecker struct {
	stepInputParser stepconf.InputParser
	logger          log.Logger
	cmdFactory      command.Factory
	pathProvider    pathutil.PathProvider
	pathChecker     pathutil.PathChecker
	fileManager     fileutil.FileManager
	reportWriter    report.Writer
}

// NewProfileChecker ...
func NewProfileChecker(stepInputParser stepconf.InputParser, logger log.Logger, cmdFactory command.Factory, pathProvider pathutil.PathProvider, pathChecker pathutil.PathChecker, fileManager fileutil.FileManager, reportWriter report.Writer) ProfileChecker {
	return ProfileChecker{
		stepInputParser: stepInputParser,
		logger:          logger,
		cmdFactory:      cmdFactory,
		pathProvider:    pathProvider,
		pathChecker:     pathChecker,
		fileManager:     fileManager,
		reportWriter:    reportWriter,
	}
}

// ProcessInputs ...
func (s ProfileChecker) ProcessInputs() (Config, error) {
	var inputs Inputs
	if err := s.stepInputParser.Parse(&inputs); err != nil {
		return Config{}, fmt.Errorf("issue with input: %s", err)
	}

	stepconf.Print(inputs)
	s.logger.Println()
	s.logger.EnableDebugLog(inputs.VerboseLog)

	config := Config{Inputs: inputs}

	var err error
	config.DecoderAdditionalOptions, err = shellquote.Split(inputs.DecoderOptions)
	if err != nil {
		return Config{}, fmt.Errorf("provided DecoderOptions (%s) are not valid CLI parameters: %s", inputs.DecoderOptions, err)
	}
	if inputs.Decoder == decoderBuiltin && len(config.DecoderAdditionalOptions) > 0 {
		return Config{}, fmt.Errorf("issue with input DecoderOptions: only used with the security decoder")
	}

	if inputs.ReferenceDate == "" {
		config.ReferenceTime = time.Now()
	} else {
		referenceTime, err := time.Parse(time.RFC3339, inputs.ReferenceDate)
		if err != nil {
			return Config{}, fmt.Errorf("issue with input ReferenceDate: expected an RFC3339 timestamp (for example 2025-04-06T00:00:00Z), got: %s", inputs.ReferenceDate)
		}
		config.ReferenceTime = referenceTime
	}

	absCheckDir, err := v1pathutil.AbsPath(inputs.CheckDir)
	if err != nil {
		return Config{}, fmt.Errorf("failed to expand CheckDir (%s), error: %s", inputs.CheckDir, err)
	}
	config.CheckDir = absCheckDir

	if exist, err := s.pathChecker.IsPathExists(config.CheckDir); err != nil {
		return Config{}, fmt.Errorf("failed to check if CheckDir exist, error: %s", err)
	} else if !exist {
		return Config{}, fmt.Errorf("issue with input CheckDir: directory (%s) not found", config.CheckDir)
	}

	if inputs.OutputDir != "" {
		absOutputDir, err := v1pathutil.AbsPath(inputs.OutputDir)
		if err != nil {
			return Config{}, fmt.Errorf("failed to expand OutputDir (%s), error: %s", inputs.OutputDir, err)
		}
		config.OutputDir = absOutputDir

		if exist, err := s.pathChecker.IsPathExists(config.OutputDir); err != nil {
			return Config{}, fmt.Errorf("failed to check if OutputDir exist, error: %s", err)
		} else if !exist {
			if err := os.MkdirAll(config.OutputDir, 0777); err != nil {
				return Config{}, fmt.Errorf("failed to create OutputDir (%s), error: %s", config.OutputDir, err)
			}
		}
	}

	return config, nil
}

// EnsureDependencies ...
func (s ProfileChecker) EnsureDependencies(config Config) error {
	if config.Decoder != decoderSecurity {
		return nil
	}

	s.logger.Infof("Checking if the security command is available")
	if !utils.IsToolInstalled(decoderSecurity) {
		s.logger.Warnf("The security command is not available, every profile will be reported as failed to decode.")
		s.logger.Warnf("Use the builtin decoder to check profiles on hosts without the macOS security toolchain.")
	}
	s.logger.Println()

	return nil
}

// Run processes every recognized artifact in the check directory, one at a
// time in enumeration order, and emits one report line per artifact. A stage
// failure terminates only that artifact's pipeline, never the batch. Only
// workspace setup failures abort the run.
func (s ProfileChecker) Run(config Config) (Result, error) {
	artifacts, err := s.collectArtifacts(config.CheckDir)
	if err != nil {
		return Result{}, err
	}

	s.logger.Infof("Checking %d artifacts in %s", len(artifacts), config.CheckDir)
	s.logger.Printf("reference date: %s", config.ReferenceTime.UTC().Format(referenceDateFormat))
	s.logger.Println()

	workspaceDir, err := s.pathProvider.CreateTempDir("profile-check")
	if err != nil {
		return Result{}, fmt.Errorf("failed to create temp dir, error: %s", err)
	}
	defer func() {
		if err := s.fileManager.RemoveAll(workspaceDir); err != nil {
			s.logger.Warnf("Failed to remove temp dir (%s), error: %s", workspaceDir, err)
		}
	}()

	decoder := s.decoder(config)

	var result Result
	for i, artifact := range artifacts {
		// every artifact gets its own workspace subdir, two archives can
		// both contain Payload/App.app/embedded.mobileprovision
		artifactWorkDir := filepath.Join(workspaceDir, strconv.Itoa(i))
		if err := os.MkdirAll(artifactWorkDir, 0755); err != nil {
			return result, fmt.Errorf("failed to create workspace dir for %s, error: %s", artifact.Pth, err)
		}

		verdict := s.checkArtifact(artifact, artifactWorkDir, decoder, config.ReferenceTime)

		entry := report.Entry{Pth: artifact.Pth, Verdict: verdict}
		if err := s.reportWriter.Emit(entry); err != nil {
			return result, fmt.Errorf("failed to write report line for %s, error: %s", artifact.Pth, err)
		}
		result.Entries = append(result.Entries, entry)

		switch verdict.Status {
		case profile.StatusValid:
			result.ValidCount++
		case profile.StatusExpired:
			result.ExpiredCount++
		case profile.StatusNoProfile:
			result.NoProfileCount++
		case profile.StatusMissingDate:
			result.NoDateCount++
		default:
			result.FailedCount++
		}
	}

	return result, nil
}

// ExportOutput ...
func (s ProfileChecker) ExportOutput(config Config, result Result) error {
	s.logger.Println()
	s.logger.Infof("Summary:")
	s.logger.Printf("checked: %d", len(result.Entries))
	s.logger.Printf("valid: %d", result.ValidCount)
	s.logger.Printf("expired: %d", result.ExpiredCount)
	s.logger.Printf("failed: %d", result.FailedCount)
	if result.NoDateCount > 0 {
		s.logger.Printf("without expiration date: %d", result.NoDateCount)
	}
	if result.NoProfileCount > 0 {
		s.logger.Printf("without embedded profile: %d", result.NoProfileCount)
	}

	if err := utils.ExportOutputValue(strconv.Itoa(result.ExpiredCount), expiredCountEnvKey); err != nil {
		s.logger.Warnf("Failed to export %s, error: %s", expiredCountEnvKey, err)
	} else {
		s.logger.Donef("The expired profile count is now available in the Environment Variable: %s (value: %d)", expiredCountEnvKey, result.ExpiredCount)
	}

	if config.OutputDir == "" {
		return nil
	}

	reportPth := filepath.Join(config.OutputDir, reportFileName)
	if err := utils.ExportOutputFileContent(report.Render(result.Entries), reportPth, reportPthEnvKey); err != nil {
		return fmt.Errorf("failed to export %s, error: %s", reportPthEnvKey, err)
	}
	s.logger.Donef("The report path is now available in the Environment Variable: %s (value: %s)", reportPthEnvKey, reportPth)

	return nil
}

func (s ProfileChecker) decoder(config Config) profile.Decoder {
	if config.Decoder == decoderBuiltin {
		return profile.NewPKCS7Decoder(s.fileManager)
	}
	return profile.NewCMSDecoder(s.cmdFactory, config.DecoderAdditionalOptions, s.logger)
}

func (s ProfileChecker) collectArtifacts(checkDir string) ([]Artifact, error) {
	// os.ReadDir sorts entries by name, so the report order is stable,
	// but it is documented as enumeration order, not as a contract
	entries, err := os.ReadDir(checkDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read check dir (%s), error: %s", checkDir, err)
	}

	var artifacts []Artifact
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		pth := filepath.Join(checkDir, entry.Name())
		switch filepath.Ext(entry.Name()) {
		case profileExtension:
			artifacts = append(artifacts, Artifact{Pth: pth, Kind: KindStandaloneProfile})
		case archiveExtension:
			artifacts = append(artifacts, Artifact{Pth: pth, Kind: KindArchiveEmbedded})
		default:
			s.logger.Debugf("Skipping %s", pth)
		}
	}

	return artifacts, nil
}

// checkArtifact runs one artifact's pipeline to its terminal verdict.
// Each stage is attempted exactly once, no retries.
func (s ProfileChecker) checkArtifact(artifact Artifact, workDir string, decoder profile.Decoder, referenceTime time.Time) profile.Verdict {
	profilePth := artifact.Pth

	if artifact.Kind == KindArchiveEmbedded {
		extractedPth, err := ipa.ExtractEmbeddedProfile(artifact.Pth, workDir)
		if errors.Is(err, ipa.ErrNoEmbeddedProfile) {
			return profile.Verdict{Status: profile.StatusNoProfile}
		}
		if err != nil {
			return profile.Verdict{Status: profile.StatusExtractFailed, Detail: err.Error()}
		}

		s.logger.Debugf("%s: extracted %s", artifact.Pth, extractedPth)
		profilePth = extractedPth
	}

	payloadPth := filepath.Join(workDir, filepath.Base(profilePth)+".plist")
	if err := decoder.Decode(profilePth, payloadPth); err != nil {
		var decodeErr *profile.DecodeError
		if errors.As(err, &decodeErr) {
			return profile.Verdict{Status: profile.StatusDecodeFailed, Detail: decodeErr.Diagnostic}
		}
		return profile.Verdict{Status: profile.StatusDecodeFailed, Detail: err.Error()}
	}

	payload, err := profile.LoadPayload(payloadPth)
	if err != nil {
		return profile.Verdict{Status: profile.StatusParseFailed, Detail: err.Error()}
	}
	s.logger.Debugf("%s: payload:\n%s", artifact.Pth, pretty.Object(payload))

	verdict := profile.EvaluatePayload(payload, referenceTime)
	if verdict.Name != "" {
		s.logger.Debugf("%s: profile: %s (%s)", artifact.Pth, verdict.Name, verdict.UUID)
	}

	return verdict
}
