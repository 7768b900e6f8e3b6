// callcheck runs automated voice-order tests: it plays a scripted customer
// persona against a live ordering agent, records the conversation, then
// verifies the app's confirmation screen against what was ordered.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"callcheck/internal/config"
	"callcheck/internal/convo"
	"callcheck/internal/llm"
	"callcheck/internal/logging"
	"callcheck/internal/report"
	"callcheck/internal/screen"
	"callcheck/internal/speech"
	"callcheck/internal/store"
	"callcheck/internal/verify"
)

var (
	// Global flags
	cfgPath string
	verbose bool

	logger *zap.Logger
)

// errVerificationFailed distinguishes a failing verdict from an
// infrastructure error; both exit non-zero but only the latter is a bug.
var errVerificationFailed = errors.New("order verification failed")

var rootCmd = &cobra.Command{
	Use:   "callcheck",
	Short: "callcheck - automated voice-order test harness",
	Long: `callcheck drives an end-to-end voice ordering test.

It speaks as a customer persona to a live voice agent, transcribes the
agent's side of the call, steers the conversation with constraints learned
from what the agent says, and finally verifies the app's order confirmation
screen against the items negotiated on the call.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var (
	personaFlag  string
	scenarioFlag string
	skipVerify   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a full voice conversation and verify the resulting order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runTest(ctx, cfg)
	},
}

var (
	itemsFlag []string
	logFlag   string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the confirmation screen without running a conversation",
	Long: `Verify compares the app's confirmation screen against expected items.

Items come from --items, or are extracted from the conversation log given
with --log. With neither, the newest test_run_*.txt log is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runVerify(ctx, cfg)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent test runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		db, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.RecentRuns(cmd.Context(), 20)
		if err != nil {
			return err
		}
		for _, r := range runs {
			line := fmt.Sprintf("%s  %-16s %-14s", r.StartedAt.Local().Format("2006-01-02 15:04"), r.Persona, r.TerminalState)
			if r.Verdict != nil {
				line += fmt.Sprintf("  %s (%d/100)", resultWord(r.Verdict.Passed), r.Verdict.Score)
			}
			fmt.Println(line)
		}
		return nil
	},
}

// runTest drives the whole flow: conversation, then verification, then the
// run-history record.
func runTest(ctx context.Context, cfg *config.Config) error {
	started := time.Now()

	cleanScreenshots(cfg.Run.ScreenshotDir)

	client, err := llm.New(cfg.LLM)
	if err != nil {
		return err
	}

	personaLabel := personaFlag
	if personaLabel == "" {
		personaLabel = "default"
	}

	var persona string
	if scenarioFlag != "" {
		personaLabel = "generated"
		persona, err = convo.GeneratePersona(ctx, client, cfg.Run.PersonasDir, scenarioFlag, logger)
	} else {
		persona, err = convo.LoadPersona(cfg.Run.PersonasDir, personaFlag)
	}
	if err != nil {
		return err
	}

	transcriptLog, err := report.NewTranscriptLog(cfg.Run.LogDir, personaLabel)
	if err != nil {
		return err
	}
	defer transcriptLog.Close()
	logger.Info("conversation log opened", zap.String("path", transcriptLog.Path()))

	orch := convo.NewOrchestrator(
		speech.NewWhisperTranscriber(cfg.Audio, logger),
		speech.NewHTTPSpeaker(cfg.Audio, logger),
		client,
		persona, "Ravi",
		convo.Options{
			MaxTurns:         cfg.Run.MaxTurns,
			MaxListenRetries: cfg.Run.MaxListenRetries,
			ListenTimeout:    cfg.Audio.ListenTimeout(),
			PhraseTimeLimit:  cfg.Audio.PhraseTimeLimit(),
		},
		logger,
	)
	orch.SetRecorder(transcriptLog)

	transcript, state, runErr := orch.Run(ctx)
	logger.Info("conversation finished",
		zap.String("state", string(state)),
		zap.Int("utterances", transcript.Len()),
		zap.Error(runErr))

	run := store.Run{
		Persona:        personaLabel,
		Scenario:       scenarioFlag,
		StartedAt:      started,
		EndedAt:        time.Now(),
		TerminalState:  string(state),
		TranscriptPath: transcriptLog.Path(),
	}

	var verdict *verify.Verdict
	if runErr == nil && !skipVerify && state != convo.Interrupted {
		verdict, err = verifyOrder(ctx, cfg, client, nil, transcript.String())
		if err != nil {
			logger.Error("verification failed", zap.Error(err))
			runErr = err
		}
		run.Verdict = verdict
	}

	if verdict != nil {
		if path, wErr := report.WriteVerdict(cfg.Run.LogDir, verdict); wErr != nil {
			logger.Warn("could not save verification report", zap.Error(wErr))
		} else {
			run.ReportPath = path
			logger.Info("verification report saved", zap.String("path", path))
		}
		fmt.Println(report.Summary(verdict))
	}

	saveRun(ctx, cfg, run)

	if runErr != nil {
		return runErr
	}
	if verdict != nil && !verdict.Passed {
		return errVerificationFailed
	}
	return nil
}

// runVerify is the standalone verification entry point.
func runVerify(ctx context.Context, cfg *config.Config) error {
	var client llm.Client
	transcript := ""

	if len(itemsFlag) == 0 {
		logPath := logFlag
		if logPath == "" {
			logPath = newestRunLog(cfg.Run.LogDir)
			if logPath == "" {
				return errors.New("no --items, no --log, and no test_run_*.txt logs found")
			}
			logger.Info("using latest conversation log", zap.String("path", logPath))
		}
		data, err := os.ReadFile(logPath)
		if err != nil {
			return fmt.Errorf("read conversation log: %w", err)
		}
		transcript = string(data)

		client, err = llm.New(cfg.LLM)
		if err != nil {
			return err
		}
	}

	verdict, err := verifyOrder(ctx, cfg, client, itemsFlag, transcript)
	if err != nil {
		return err
	}

	if path, wErr := report.WriteVerdict(cfg.Run.LogDir, verdict); wErr != nil {
		logger.Warn("could not save verification report", zap.Error(wErr))
	} else {
		logger.Info("verification report saved", zap.String("path", path))
	}
	fmt.Println(report.Summary(verdict))

	if !verdict.Passed {
		return errVerificationFailed
	}
	return nil
}

// verifyOrder opens the app screen and runs the verification engine.
func verifyOrder(ctx context.Context, cfg *config.Config, client llm.Client, expected []string, transcript string) (*verify.Verdict, error) {
	scraper, err := screen.NewRodScraper(ctx, cfg.Screen, logger)
	if err != nil {
		return nil, err
	}
	defer scraper.Close()

	reconciler := verify.NewScreenReconciler(scraper, cfg.Screen, cfg.Run.ScreenshotDir, logger)
	engine := verify.NewEngine(reconciler, verify.NewItemMatcher(cfg.Verify.MatchRatio), client, cfg.Verify.PassScore, logger)
	return engine.Verify(ctx, expected, transcript)
}

// saveRun records the run. History is best-effort: a store failure must not
// change the test outcome.
func saveRun(ctx context.Context, cfg *config.Config, run store.Run) {
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Warn("run history unavailable", zap.Error(err))
		return
	}
	defer db.Close()

	if id, err := db.SaveRun(ctx, run); err != nil {
		logger.Warn("could not record run", zap.Error(err))
	} else {
		logger.Info("run recorded", zap.String("id", id))
	}
}

// cleanScreenshots clears stale images so every run's artifacts are its own.
func cleanScreenshots(dir string) {
	if dir == "" {
		return
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		return
	}
	for _, m := range matches {
		_ = os.Remove(m)
	}
}

// newestRunLog finds the most recent conversation log by filename, which
// sorts chronologically thanks to the timestamp suffix.
func newestRunLog(dir string) string {
	matches, err := filepath.Glob(filepath.Join(dir, "test_run_*.txt"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	newest := matches[0]
	for _, m := range matches[1:] {
		if strings.Compare(m, newest) > 0 {
			newest = m
		}
	}
	return newest
}

func resultWord(passed bool) string {
	if passed {
		return "PASSED"
	}
	return "FAILED"
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	runCmd.Flags().StringVarP(&personaFlag, "persona", "p", "", "persona name from the personas directory")
	runCmd.Flags().StringVarP(&scenarioFlag, "scenario", "s", "", "free-text scenario to generate a persona from")
	runCmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "run the conversation only, skip screen verification")

	verifyCmd.Flags().StringSliceVarP(&itemsFlag, "items", "i", nil, "expected order items (repeatable)")
	verifyCmd.Flags().StringVarP(&logFlag, "log", "l", "", "conversation log to extract expected items from")

	rootCmd.AddCommand(runCmd, verifyCmd, historyCmd)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errVerificationFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
