package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"callcheck/internal/config"
)

// HTTPSpeaker synthesizes speech via an HTTP TTS endpoint and plays the
// resulting WAV with a local player command. Temp audio files are removed
// after playback; stale files from crashed runs are swept on construction.
type HTTPSpeaker struct {
	endpoint   string
	voice      string
	player     []string
	audioDir   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPSpeaker builds a speaker from the audio config.
func NewHTTPSpeaker(cfg config.AudioConfig, logger *zap.Logger) *HTTPSpeaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &HTTPSpeaker{
		endpoint: cfg.TTSURL,
		voice:    cfg.Voice,
		player:   cfg.PlayerCommand,
		audioDir: cfg.AudioDir,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
	s.sweepStale()
	return s
}

// Say synthesizes and plays text, blocking until playback completes.
func (s *HTTPSpeaker) Say(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	wav := filepath.Join(s.audioDir, fmt.Sprintf("persona_%d.wav", time.Now().UnixMilli()))
	defer os.Remove(wav)

	if err := s.synthesize(ctx, text, wav); err != nil {
		return err
	}
	return s.play(ctx, wav)
}

func (s *HTTPSpeaker) synthesize(ctx context.Context, text, wav string) error {
	q := url.Values{}
	q.Set("text", text)
	if s.voice != "" {
		q.Set("voice", s.voice)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tts returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	out, err := os.Create(wav)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write audio file: %w", err)
	}
	return nil
}

func (s *HTTPSpeaker) play(ctx context.Context, wav string) error {
	if len(s.player) == 0 {
		return fmt.Errorf("no player command configured")
	}
	args := append([]string{}, s.player[1:]...)
	args = append(args, wav)

	cmd := exec.CommandContext(ctx, s.player[0], args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("audio playback failed: %w", err)
	}
	s.logger.Debug("spoke persona utterance", zap.String("file", filepath.Base(wav)))
	return nil
}

// sweepStale removes persona WAV files older than an hour and keeps at most
// the ten newest, so interrupted runs do not fill the audio dir.
func (s *HTTPSpeaker) sweepStale() {
	matches, err := filepath.Glob(filepath.Join(s.audioDir, "persona_*.wav"))
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-time.Hour)
	var kept []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(m)
			continue
		}
		kept = append(kept, m)
	}

	if len(kept) > 10 {
		sort.Slice(kept, func(i, j int) bool {
			a, _ := os.Stat(kept[i])
			b, _ := os.Stat(kept[j])
			return a.ModTime().After(b.ModTime())
		})
		for _, old := range kept[10:] {
			_ = os.Remove(old)
		}
	}
}
