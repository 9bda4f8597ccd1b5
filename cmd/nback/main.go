// Package main provides the CLI entrypoint for nback.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/nback/internal/config"
	"github.com/verte-zerg/nback/internal/generator"
	"github.com/verte-zerg/nback/internal/levels"
	"github.com/verte-zerg/nback/internal/model"
	"github.com/verte-zerg/nback/internal/simulate"
	"github.com/verte-zerg/nback/internal/stats"
	"github.com/verte-zerg/nback/internal/store"
	"github.com/verte-zerg/nback/internal/training"
)

const (
	defaultSimAccuracy  = 0.8
	defaultSimLatencyMs = 450
	defaultSimSessions  = 1
)

var (
	trainLevel            string
	trainTrials           int
	trainTrialDurationMs  int
	trainPositionProb     float64
	trainAudioProb        float64
	trainAdvanceThreshold float64
	trainSeed             uint32

	generateN    int
	generateMode string
	generateJSON bool

	simSessions  int
	simAccuracy  float64
	simLatencyMs int

	statsLevel       string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsTop         int
	noColor          bool
)

func main() {
	if err := godotenv.Load(); err != nil {
		// A missing .env file is normal.
		_ = err
	}
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "nback",
		Short:         "Dual n-back training engine",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runStatusCmd,
	}
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newLevelsCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

// app bundles what every command resolves before doing work.
type app struct {
	env     config.Env
	file    config.FileConfig
	catalog []levels.Descriptor
}

func loadApp() (app, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return app{}, err
	}
	fileCfg, err := config.LoadConfig(env.ConfigPath)
	if err != nil {
		return app{}, fmt.Errorf("failed to load config: %w", err)
	}
	catalog, err := fileCfg.Catalog()
	if err != nil {
		return app{}, err
	}
	return app{env: env, file: fileCfg, catalog: catalog}, nil
}

func (a app) openStore() (*store.Store, error) {
	st, err := store.Open(config.DBPath(a.env.DataDir))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func (a app) style() stats.Style {
	return stats.StyleFor(os.Stdout, noColor || a.env.ColorDisabled())
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func addTrainingFlags(cmd *cobra.Command) {
	def := config.DefaultTraining()
	cmd.Flags().StringVar(&trainLevel, "level", "", "level id (default: current level)")
	cmd.Flags().IntVar(&trainTrials, "trials", def.Trials, "trials per session")
	cmd.Flags().IntVar(&trainTrialDurationMs, "trial-duration-ms", def.TrialDurationMs, "milliseconds per trial")
	cmd.Flags().Float64Var(&trainPositionProb, "position-prob", def.PositionProb, "position match probability (0-1)")
	cmd.Flags().Float64Var(&trainAudioProb, "audio-prob", def.AudioProb, "audio match probability (0-1)")
	cmd.Flags().Float64Var(&trainAdvanceThreshold, "advance-threshold", def.AdvanceThreshold, "combined d' needed to advance")
	cmd.Flags().Uint32Var(&trainSeed, "seed", 0, "seed for a reproducible sequence")
}

// resolveTraining merges defaults, the config file, and explicit flags.
func resolveTraining(cmd *cobra.Command, fileCfg config.FileConfig) (config.Training, error) {
	tr := config.DefaultTraining()
	applyStringConfig(cmd, "level", &trainLevel, fileCfg.Training.Level)
	applyIntConfig(cmd, "trials", &trainTrials, fileCfg.Training.Trials)
	applyIntConfig(cmd, "trial-duration-ms", &trainTrialDurationMs, fileCfg.Training.TrialDurationMs)
	applyFloatConfig(cmd, "position-prob", &trainPositionProb, fileCfg.Training.PositionProb)
	applyFloatConfig(cmd, "audio-prob", &trainAudioProb, fileCfg.Training.AudioProb)
	applyFloatConfig(cmd, "advance-threshold", &trainAdvanceThreshold, fileCfg.Training.AdvanceThreshold)

	tr.Level = trainLevel
	tr.Trials = trainTrials
	tr.TrialDurationMs = trainTrialDurationMs
	tr.PositionProb = trainPositionProb
	tr.AudioProb = trainAudioProb
	tr.AdvanceThreshold = trainAdvanceThreshold

	// An empty level means the current level; validate against a placeholder.
	check := tr
	if check.Level == "" {
		check.Level = config.DefaultLevel
	}
	if err := check.Validate(); err != nil {
		return config.Training{}, err
	}
	return tr, nil
}

// resolveStats merges the config file and explicit stats flags.
func resolveStats(cmd *cobra.Command, fileCfg config.FileConfig) (config.Stats, error) {
	applyIntConfig(cmd, "last", &statsLast, fileCfg.Stats.Last)
	applyIntConfig(cmd, "curve-window", &statsCurveWindow, fileCfg.Stats.CurveWindow)
	applyIntConfig(cmd, "top", &statsTop, fileCfg.Stats.Top)
	settings := config.Stats{Last: statsLast, CurveWindow: statsCurveWindow, Top: statsTop}
	if err := settings.Validate(); err != nil {
		return config.Stats{}, err
	}
	return settings, nil
}

func seedFlag(cmd *cobra.Command) *uint32 {
	if !cmd.Flags().Changed("seed") {
		return nil
	}
	seed := trainSeed
	return &seed
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a stimulus sequence",
		Args:  cobra.NoArgs,
		RunE:  runGenerateCmd,
	}
	addTrainingFlags(cmd)
	cmd.Flags().IntVar(&generateN, "n", 2, "n-back distance when --level is not set")
	cmd.Flags().StringVar(&generateMode, "mode", string(model.ModeDual), "position-only, audio-only, or dual when --level is not set")
	cmd.Flags().BoolVar(&generateJSON, "json", false, "print the sequence as JSON")
	return cmd
}

func runGenerateCmd(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	tr, err := resolveTraining(cmd, a.file)
	if err != nil {
		return err
	}
	nBack, mode := generateN, model.TrainingMode(generateMode)
	explicitShape := cmd.Flags().Changed("n") || cmd.Flags().Changed("mode")
	if tr.Level != "" && (cmd.Flags().Changed("level") || !explicitShape) {
		level, err := levels.Find(a.catalog, tr.Level)
		if err != nil {
			return err
		}
		nBack, mode = level.NBack, level.Mode
	}

	trials, err := generator.Generate(generator.Options{
		NBack:                    nBack,
		TrialCount:               tr.Trials,
		Mode:                     mode,
		PositionMatchProbability: tr.PositionProb,
		AudioMatchProbability:    tr.AudioProb,
		Seed:                     seedFlag(cmd),
	})
	if err != nil {
		return err
	}
	if generateJSON {
		return writeJSON(cmd.OutOrStdout(), trials)
	}
	return renderSequence(cmd.OutOrStdout(), nBack, mode, trials)
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play sessions with a scripted responder and record the results",
		Args:  cobra.NoArgs,
		RunE:  runSimulateCmd,
	}
	addTrainingFlags(cmd)
	cmd.Flags().IntVar(&simSessions, "sessions", defaultSimSessions, "number of sessions to play")
	cmd.Flags().Float64Var(&simAccuracy, "accuracy", defaultSimAccuracy, "probability of answering each modality correctly (0-1)")
	cmd.Flags().IntVar(&simLatencyMs, "latency-ms", defaultSimLatencyMs, "response latency in milliseconds")
	return cmd
}

func runSimulateCmd(cmd *cobra.Command, _ []string) error {
	if simSessions <= 0 {
		return fmt.Errorf("--sessions must be > 0")
	}
	if simAccuracy < 0 || simAccuracy > 1 {
		return fmt.Errorf("--accuracy must be between 0 and 1")
	}
	if simLatencyMs < 0 {
		return fmt.Errorf("--latency-ms must be >= 0")
	}
	a, err := loadApp()
	if err != nil {
		return err
	}
	tr, err := resolveTraining(cmd, a.file)
	if err != nil {
		return err
	}
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	clock := simulate.NewClock(time.Now())
	svc, err := training.NewService(st,
		training.WithCatalog(a.catalog),
		training.WithClock(clock.Now),
		training.WithSettings(training.Settings{
			TrialCount:               tr.Trials,
			TrialDuration:            tr.TrialDuration(),
			PositionMatchProbability: tr.PositionProb,
			AudioMatchProbability:    tr.AudioProb,
			AdvanceThreshold:         tr.AdvanceThreshold,
		}),
	)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := svc.RecordEvent(ctx, model.EventAppOpened, nil); err != nil {
		logErrf("failed to record app_opened: %v\n", err)
	}
	responderSeed := uint32(time.Now().UnixNano())
	if seed := seedFlag(cmd); seed != nil {
		responderSeed = *seed
	}
	responder := simulate.NewSeededResponder(responderSeed, simAccuracy, time.Duration(simLatencyMs)*time.Millisecond)

	out := cmd.OutOrStdout()
	for i := 0; i < simSessions; i++ {
		var seqSeed *uint32
		if seed := seedFlag(cmd); seed != nil {
			v := *seed + uint32(i)
			seqSeed = &v
		}
		sess, err := svc.NewSession(ctx, tr.Level, seqSeed)
		if err != nil {
			return err
		}
		simulate.Play(sess, responder, clock)
		outcome, err := svc.Finish(ctx, sess)
		if err != nil {
			return err
		}
		if err := renderOutcome(out, i+1, outcome); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if outcome.Advanced && !cmd.Flags().Changed("level") {
			tr.Level = ""
		}
		clock.Advance(time.Minute)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	def := config.DefaultStats()
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show session statistics",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsLevel, "level", "", "level filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", def.Last, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", def.CurveWindow, "moving average window")
	cmd.Flags().IntVar(&statsTop, "top", def.Top, "number of levels to list")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	settings, err := resolveStats(cmd, a.file)
	if err != nil {
		return err
	}

	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	report, err := stats.BuildReport(context.Background(), st, stats.ReportOptions{
		LevelID:     statsLevel,
		Since:       sinceTime,
		Last:        settings.Last,
		CurveWindow: settings.CurveWindow,
		PlotWidth:   stats.PlotWidthFor(stats.TerminalWidth()),
		TopLevels:   settings.Top,
	})
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	return report.Render(cmd.OutOrStdout(), a.style())
}

func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the behavioral profile",
		Args:  cobra.NoArgs,
		RunE:  runProfileCmd,
	}
}

func runProfileCmd(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	svc, err := training.NewService(st, training.WithCatalog(a.catalog))
	if err != nil {
		return err
	}
	ctx := context.Background()
	bp, err := svc.Profile(ctx)
	if err != nil {
		return fmt.Errorf("failed to build profile: %w", err)
	}
	summary, err := svc.Summary(ctx)
	if err != nil {
		return fmt.Errorf("failed to build profile: %w", err)
	}
	return renderProfile(cmd.OutOrStdout(), bp, summary, a.style())
}

func newLevelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "List levels and their unlock state",
		Args:  cobra.NoArgs,
		RunE:  runLevelsCmd,
	}
}

func runLevelsCmd(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	svc, err := training.NewService(st, training.WithCatalog(a.catalog))
	if err != nil {
		return err
	}
	progress, err := svc.Progress(context.Background())
	if err != nil {
		return err
	}
	return renderLevels(cmd.OutOrStdout(), a.catalog, progress, a.style())
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	svc, err := training.NewService(st, training.WithCatalog(a.catalog))
	if err != nil {
		return err
	}
	progress, err := svc.Progress(context.Background())
	if err != nil {
		return err
	}
	return renderStatus(cmd.OutOrStdout(), progress, a.style())
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	path := env.ConfigPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	tr := config.DefaultTraining()
	st := config.DefaultStats()
	return fmt.Sprintf(`# nback configuration
# Uncomment a value to enable it. CLI flags override config values.

[training]
# level = %q         # Level played when --level is not given (default: current level)
# trials = %d                 # Trials per session
# trial-duration-ms = %d    # Milliseconds per trial
# position-prob = %.2f        # Position match probability (0-1)
# audio-prob = %.2f           # Audio match probability (0-1)
# advance-threshold = %.1f    # Combined d' needed to advance

[stats]
# last = 0                    # Limit reports to the last N sessions (0 = all)
# curve-window = %d           # Moving average window
# top = %d                     # Levels listed in the report

# Replace the built-in catalog by listing levels:
# [[levels]]
# id = "position-1"
# name = "Position 1-Back"
# n-back = 1
# mode = "position-only"      # position-only, audio-only, or dual
#
# [[levels]]
# id = "position-2"
# n-back = 2
# mode = "position-only"
# requires = "position-1"
# min-accuracy = 80.0
`,
		tr.Level,
		tr.Trials,
		tr.TrialDurationMs,
		tr.PositionProb,
		tr.AudioProb,
		tr.AdvanceThreshold,
		st.CurveWindow,
		st.Top,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
