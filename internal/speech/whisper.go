package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"callcheck/internal/config"
)

// WhisperTranscriber captures microphone audio with an external capture
// command and transcribes it against a whisper-server inference endpoint.
type WhisperTranscriber struct {
	endpoint   string
	capture    []string
	audioDir   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWhisperTranscriber builds a transcriber from the audio config.
func NewWhisperTranscriber(cfg config.AudioConfig, logger *zap.Logger) *WhisperTranscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WhisperTranscriber{
		endpoint: cfg.TranscriberURL,
		capture:  cfg.CaptureCommand,
		audioDir: cfg.AudioDir,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		logger: logger,
	}
}

// Listen records up to phraseLimit of audio and transcribes it. An empty
// transcription maps to ErrUnintelligible; a capture that produced no audio
// within timeout maps to ErrListenTimeout.
func (t *WhisperTranscriber) Listen(ctx context.Context, timeout, phraseLimit time.Duration) (string, error) {
	wav := filepath.Join(t.audioDir, fmt.Sprintf("agent_%d.wav", time.Now().UnixMilli()))
	defer os.Remove(wav)

	if err := t.captureAudio(ctx, wav, timeout, phraseLimit); err != nil {
		return "", err
	}

	text, err := t.transcribe(ctx, wav)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrUnintelligible
	}
	return text, nil
}

// captureGrace pads the kill deadline past the recording duration so the
// capture tool can finalize the WAV instead of being killed mid-write.
const captureGrace = 10 * time.Second

// captureAudio runs the configured capture command. Fixed-duration tools
// like arecord cannot detect when speech starts, so the recording duration
// passed as -d covers the whole listen window: the wait for the agent to
// begin speaking plus the phrase itself. A window of pure silence surfaces
// as an empty transcription, not a capture error.
func (t *WhisperTranscriber) captureAudio(ctx context.Context, wav string, timeout, phraseLimit time.Duration) error {
	if len(t.capture) == 0 {
		return fmt.Errorf("no capture command configured")
	}

	window := timeout + phraseLimit
	captureCtx, cancel := context.WithTimeout(ctx, window+captureGrace)
	defer cancel()

	cmd := exec.CommandContext(captureCtx, t.capture[0], t.captureArgs(window, wav)...)
	if err := cmd.Run(); err != nil {
		if captureCtx.Err() == context.DeadlineExceeded {
			return ErrListenTimeout
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("audio capture failed: %w", err)
	}

	info, err := os.Stat(wav)
	if err != nil || info.Size() == 0 {
		return ErrListenTimeout
	}
	return nil
}

// captureArgs builds the capture command's argument list: the configured
// flags, the recording duration in whole seconds, and the output path.
func (t *WhisperTranscriber) captureArgs(window time.Duration, wav string) []string {
	args := append([]string{}, t.capture[1:]...)
	return append(args, "-d", fmt.Sprintf("%d", int(window.Seconds())), wav)
}

// transcribe POSTs the WAV file to the whisper-server inference endpoint.
func (t *WhisperTranscriber) transcribe(ctx context.Context, wav string) (string, error) {
	f, err := os.Open(wav)
	if err != nil {
		return "", fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(wav))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s",
			ErrServiceUnavailable, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode whisper response: %w", err)
	}

	t.logger.Debug("transcribed agent speech", zap.Int("chars", len(parsed.Text)))
	return parsed.Text, nil
}
