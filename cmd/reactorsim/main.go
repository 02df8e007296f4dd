package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/metrics"
	"github.com/san-kum/reactorsim/internal/storage"
	"github.com/san-kum/reactorsim/internal/sweep"
	"github.com/san-kum/reactorsim/internal/units"
	"github.com/san-kum/reactorsim/internal/viz"
)

var (
	dataDir   string
	logLevel  string
	logJSON   bool
	sets      []string
	tempLimit string
	column    string
	params    []string
	workers   int
	objective string
	theme     string
	samples   int
	seed      int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "reactorsim",
		Short:         "lumped parameter reactor transient simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".reactorsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")

	runCmd := &cobra.Command{
		Use:   "run [preset|file]",
		Short: "run a scenario and store the result",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().StringArrayVar(&sets, "set", nil, "override a scenario value, e.g. component.fuel.t0=1100")
	runCmd.Flags().StringVar(&tempLimit, "temp-limit", "", "temperature limit for the temperature_limit metric, e.g. 1300 degC")

	watchCmd := &cobra.Command{
		Use:   "watch [preset|file]",
		Short: "run a scenario with a live terminal view",
		Args:  cobra.ExactArgs(1),
		RunE:  watchScenario,
	}
	watchCmd.Flags().StringArrayVar(&sets, "set", nil, "override a scenario value")
	watchCmd.Flags().StringVar(&theme, "theme", viz.Themes[0].Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot one column of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&column, "column", "power", "column to plot")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write a stored run as JSON to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(args[0], cmd.OutOrStdout())
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, name := range config.ListPresets() {
				fmt.Fprintf(w, "%s\t%s\n", name, config.Presets[name].Description)
			}
			return w.Flush()
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset|file]",
		Short: "run a scenario over a grid of parameter values or random samples",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepScenario,
	}
	sweepCmd.Flags().StringArrayVar(&params, "param", nil, "parameter grid, e.g. component.fuel.alpha=-3e-5,-4e-5, or with --samples a distribution, e.g. material.fuel.conductivity=uniform:15,19")
	sweepCmd.Flags().IntVar(&samples, "samples", 0, "draw this many Monte Carlo samples instead of a grid")
	sweepCmd.Flags().Int64Var(&seed, "seed", 0, "sampling seed (0 uses the scenario seed or the clock)")
	sweepCmd.Flags().IntVar(&workers, "workers", 4, "concurrent runs")
	sweepCmd.Flags().StringVar(&objective, "objective", "peak_temperature", "metric to minimize")

	rootCmd.AddCommand(runCmd, watchCmd, listCmd, plotCmd, exportJSONCmd, presetsCmd, sweepCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.WithError(err).Error("command failed")
		stop()
		os.Exit(1)
	}
}

func setupLogging() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	if logJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// loadScenario resolves a preset name or a YAML file and applies --set
// overrides.
func loadScenario(arg string, overrides []string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if _, ok := config.Presets[arg]; ok {
		cfg, err = config.GetPreset(arg)
	} else {
		cfg, err = config.Load(arg)
	}
	if err != nil {
		return nil, err
	}

	for _, kv := range overrides {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("%w: --set %q is not name=value", config.ErrInvalid, kv)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: --set %s: %v", config.ErrInvalid, name, err)
		}
		if err := cfg.Set(strings.TrimSpace(name), v); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func build(arg string) (*config.Scenario, *logrus.Entry, error) {
	cfg, err := loadScenario(arg, sets)
	if err != nil {
		return nil, nil, err
	}
	log := logrus.WithField("run", cfg.Name)
	sc, err := config.Build(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range sc.Warnings {
		log.Warn(w.String())
	}
	return sc, log, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, log, err := build(args[0])
	if err != nil {
		return err
	}

	var limit units.Temperature
	if tempLimit != "" {
		v, err := units.Parse(tempLimit, units.DimTemperature)
		if err != nil {
			return fmt.Errorf("--temp-limit: %w", err)
		}
		limit = units.Temperature(v)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	tel := metrics.NewTelemetry(sc.Name, sc.System.Layout())
	sim := dynamo.New(tel.Instrument(sc.System), sc.Integrator, log)
	for _, m := range metrics.Standard(sc.System, limit) {
		sim.AddMetric(m)
	}
	sim.AddObserver(tel)

	fmt.Fprintf(cmd.OutOrStdout(), "running %s...\n", sc.Name)
	start := time.Now()
	result, runErr := sim.Run(cmd.Context(), sc.System.InitialState(), sc.Run)
	elapsed := time.Since(start)
	if result == nil {
		return runErr
	}

	snapshot, err := tel.Snapshot()
	if err != nil {
		log.WithError(err).Warn("telemetry snapshot failed")
	}
	meta := storage.RunMetadata{
		Scenario:   sc.Name,
		Dt:         sc.Run.Dt,
		Duration:   sc.Run.Duration,
		Integrator: sc.IntegratorName,
		Adaptive:   sc.Run.Adaptive,
		Columns:    sc.System.Labels(),
		Telemetry:  snapshot,
	}
	runID, err := st.Save(meta, result)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "completed in %v\n", elapsed)
	fmt.Fprintf(out, "run id: %s\n", runID)
	fmt.Fprintf(out, "steps: %d (%d substeps, %d rejected)\n", result.StepsTaken, result.Substeps, result.Rejected)
	printMetrics(out, result.Metrics)
	if runErr != nil {
		fmt.Fprintln(out, "run aborted, partial result stored")
	}
	return runErr
}

func printMetrics(w io.Writer, m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "\nmetrics:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %.6g\n", name, m[name])
	}
}

func watchScenario(cmd *cobra.Command, args []string) error {
	sc, log, err := build(args[0])
	if err != nil {
		return err
	}
	viz.SetTheme(theme)

	// the view owns the terminal; keep logs out of it
	log.Logger.SetLevel(logrus.ErrorLevel)
	sim := dynamo.New(sc.System, sc.Integrator, log)
	for _, m := range metrics.Standard(sc.System, 0) {
		sim.AddMetric(m)
	}

	result, err := viz.Watch(cmd.Context(), sc.Name, sim, sc.System, sc.Run, tea.WithAltScreen())
	if result != nil {
		printMetrics(cmd.OutOrStdout(), result.Metrics)
	}
	if errors.Is(err, dynamo.ErrContextCanceled) {
		return nil
	}
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tINTEG\tSTEPS\tREJECTED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4gs\t%s\t%d\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Steps,
			run.Rejected,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	series, times, err := st.Column(args[0], column)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return fmt.Errorf("no data to plot")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "scenario: %s\n", meta.Scenario)
	fmt.Fprintf(out, "samples: %d (%.4g s to %.4g s)\n\n", len(series), times[0], times[len(times)-1])

	graph := asciigraph.Plot(series,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(column+" vs time"),
	)
	fmt.Fprintln(out, graph)
	return nil
}

// parseGrid splits name=v1,v2,... flags into parameter names and values.
func parseGrid(flags []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(flags))
	ranges := make([][]float64, 0, len(flags))
	for _, f := range flags {
		name, list, ok := strings.Cut(f, "=")
		if !ok {
			return nil, nil, fmt.Errorf("%w: --param %q is not name=v1,v2", sweep.ErrGrid, f)
		}
		var vals []float64
		for _, raw := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: --param %s: %v", sweep.ErrGrid, name, err)
			}
			vals = append(vals, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, vals)
	}
	return names, ranges, nil
}

func sweepScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(args[0], nil)
	if err != nil {
		return err
	}
	log := logrus.WithField("sweep", cfg.Name)

	var names []string
	var points []sweep.Point
	var runErr error
	if samples > 0 {
		var dists []sweep.Distribution
		if names, dists, err = parseDistributions(params); err != nil {
			return err
		}
		if cfg.Seed != 0 && !cmd.Flags().Changed("seed") {
			seed = cfg.Seed
		}
		sampler, err := sweep.NewSampler(names, dists, samples, seed)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seed: %d\n\n", sampler.Seed())
		points, runErr = sampler.Run(cmd.Context(), cfg, workers, log)
	} else {
		var ranges [][]float64
		if names, ranges, err = parseGrid(params); err != nil {
			return err
		}
		grid, err := sweep.NewGridSearch(names, ranges)
		if err != nil {
			return err
		}
		points, runErr = grid.Run(cmd.Context(), cfg, workers, log)
	}
	if points == nil {
		return runErr
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(append(append([]string{}, names...), objective, "status"), "\t"))
	for _, p := range points {
		row := make([]string, 0, len(names)+2)
		for _, n := range names {
			row = append(row, strconv.FormatFloat(p.Params[n], 'g', 6, 64))
		}
		status := "ok"
		if p.Result == nil {
			status = "failed"
		}
		row = append(row, strconv.FormatFloat(p.Metrics[objective], 'g', 6, 64), status)
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if samples > 0 {
		sum := sweep.Summarize(points, objective)
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s over %d runs: mean %.6g, std %.4g, min %.6g, max %.6g\n",
			objective, sum.N, sum.Mean, sum.Std, sum.Min, sum.Max)
	}
	if best, ok := sweep.Best(points, objective); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "\nbest %s = %.6g at %v\n", objective, best.Metrics[objective], best.Params)
	}
	return runErr
}

// parseDistributions splits name=kind:a,b flags into parameter names and
// sampling laws.
func parseDistributions(flags []string) ([]string, []sweep.Distribution, error) {
	names := make([]string, 0, len(flags))
	dists := make([]sweep.Distribution, 0, len(flags))
	for _, f := range flags {
		name, law, ok := strings.Cut(f, "=")
		if !ok {
			return nil, nil, fmt.Errorf("%w: --param %q is not name=kind:a,b", sweep.ErrGrid, f)
		}
		d, err := sweep.ParseDistribution(law)
		if err != nil {
			return nil, nil, fmt.Errorf("--param %s: %w", name, err)
		}
		names = append(names, strings.TrimSpace(name))
		dists = append(dists, d)
	}
	return names, dists, nil
}
