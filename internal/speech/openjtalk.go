package speech

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// SynthesisError reports a failed synthesis attempt. It carries the exact
// command line and the process's combined output so the coordinator can log
// and report a useful diagnostic.
type SynthesisError struct {
	// CommandLine is the full command that was attempted.
	CommandLine string

	// Output is the captured stdout+stderr of the process, if any.
	Output string

	// Err is the underlying cause (start failure, non-zero exit, missing artifact).
	Err error
}

func (e *SynthesisError) Error() string {
	msg := fmt.Sprintf("speech: synthesis failed: %v (cmd: %s)", e.Err, e.CommandLine)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// SynthesizerConfig holds the external-process settings for a [Synthesizer].
type SynthesizerConfig struct {
	// Command is the Open JTalk invocation, e.g. "open_jtalk" or
	// "/usr/local/bin/open_jtalk". May contain leading arguments; it is
	// parsed with shell-style word splitting.
	Command string

	// DictionaryDir is the Open JTalk dictionary directory (-x).
	DictionaryDir string

	// VoiceDir is the directory containing the .htsvoice model files.
	VoiceDir string

	// Rate is the speech rate (-r). The reference value is 1.0.
	Rate float64
}

// Synthesizer invokes the external Open JTalk process to render text to a
// WAV file. It is safe for concurrent use; each call operates on its own
// file paths and process.
type Synthesizer struct {
	argv     []string
	dictDir  string
	voiceDir string
	rate     float64
}

// NewSynthesizer parses cfg.Command and returns a ready Synthesizer.
func NewSynthesizer(cfg SynthesizerConfig) (*Synthesizer, error) {
	cmd := cfg.Command
	if cmd == "" {
		cmd = "open_jtalk"
	}
	argv, err := shellwords.Parse(cmd)
	if err != nil {
		return nil, fmt.Errorf("speech: parse synthesizer command %q: %w", cmd, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("speech: synthesizer command is empty")
	}
	rate := cfg.Rate
	if rate <= 0 {
		rate = 1.0
	}
	return &Synthesizer{
		argv:     argv,
		dictDir:  cfg.DictionaryDir,
		voiceDir: cfg.VoiceDir,
		rate:     rate,
	}, nil
}

// Synthesize renders text with the given voice profile into the WAV file at
// outPath. It writes the text to a Shift_JIS input artifact next to outPath
// (Open JTalk reads its input from a file, not stdin), runs the external
// process, and blocks until it exits or ctx is cancelled. Unknown voice
// profiles fall back to [DefaultVoiceType].
//
// Every failure mode — process not found, non-zero exit, cancelled context,
// unwritable or empty output — is returned as a [*SynthesisError].
func (s *Synthesizer) Synthesize(ctx context.Context, text, voiceType, outPath string) error {
	model, ok := VoiceTypes[voiceType]
	if !ok {
		model = VoiceTypes[DefaultVoiceType]
	}

	inPath := inputArtifactPath(outPath)
	args := append(append([]string{}, s.argv[1:]...),
		"-x", s.dictDir,
		"-m", filepath.Join(s.voiceDir, model),
		"-r", strconv.FormatFloat(s.rate, 'f', -1, 64),
		"-ow", outPath,
		inPath,
	)
	cmdLine := strings.Join(append([]string{s.argv[0]}, args...), " ")

	if err := writeShiftJIS(inPath, text); err != nil {
		return &SynthesisError{CommandLine: cmdLine, Err: err}
	}

	cmd := exec.CommandContext(ctx, s.argv[0], args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return &SynthesisError{CommandLine: cmdLine, Output: output.String(), Err: err}
	}

	if fi, err := os.Stat(outPath); err != nil || fi.Size() == 0 {
		if err == nil {
			err = fmt.Errorf("output file %q is empty", outPath)
		}
		return &SynthesisError{CommandLine: cmdLine, Output: output.String(), Err: err}
	}
	return nil
}

// inputArtifactPath derives the text-input path from the WAV output path.
func inputArtifactPath(outPath string) string {
	return strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".txt"
}

// writeShiftJIS writes text to path encoded as Shift_JIS, the encoding Open
// JTalk expects. Runes outside the target charset are replaced rather than
// failing the whole request.
func writeShiftJIS(path, text string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create input file: %w", err)
	}
	w := transform.NewWriter(f, encoding.ReplaceUnsupported(japanese.ShiftJIS.NewEncoder()))
	if _, err := w.Write([]byte(text)); err != nil {
		f.Close()
		return fmt.Errorf("encode input text: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("encode input text: %w", err)
	}
	return f.Close()
}
