package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/analysis"
	"github.com/san-kum/orbsim/internal/config"
	"github.com/san-kum/orbsim/internal/experiment"
	"github.com/san-kum/orbsim/internal/metrics"
	"github.com/san-kum/orbsim/internal/storage"
	"github.com/san-kum/orbsim/internal/sweep"
	"github.com/san-kum/orbsim/internal/viz"
)

var (
	dataDir     string
	logLevel    string
	metricsAddr string

	configFile string
	preset     string
	dt         float64
	duration   float64
	integrator string
	tolerance  float64
	maxSteps   int

	theme     string
	plotVar   string
	dependent bool
	outFile   string

	sweepParams []string
	sweepMetric string
	mcMetric    string
	workers     int
	trials      int
	seed        int64
	sigmaPos    float64
	sigmaVel    float64

	plane   string
	svgSize int
	compare string
)

var log = logrus.New()

// main registers the commands and flags of the orbsim CLI and exits with
// status 1 when the command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "orbsim",
		Short:         "orbital force-model composition and propagation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".orbsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "propagate a scenario and store the run",
		Args:  cobra.NoArgs,
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "propagate a scenario with a live terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", viz.Themes[0].Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "check that a scenario assembles without propagating it",
		Args:  cobra.NoArgs,
		RunE:  validateScenario,
	}
	addScenarioFlags(validateCmd)

	compareCmd := &cobra.Command{
		Use:   "compare [integrator]...",
		Short: "propagate one scenario with several integrators",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	addScenarioFlags(compareCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotVar, "var", "", "dependent variable column to plot (default: distance and every column)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write the states of a run as csv to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().BoolVar(&dependent, "dependent", false, "write the dependent variables instead of the states")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write a run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "-", "output file")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "propagate a parameter grid and report the best point",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "swept parameter as name=v1,v2,... (dt, duration, tolerance, kp, ki, kd, target)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "energy_drift", "metric to minimize")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 for GOMAXPROCS)")
	_ = sweepCmd.MarkFlagRequired("param")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "propagate dispersed initial states and summarize a metric",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addScenarioFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 32, "number of dispersed runs")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	monteCarloCmd.Flags().Float64Var(&sigmaPos, "sigma-pos", 100, "position standard deviation per axis [m]")
	monteCarloCmd.Flags().Float64Var(&sigmaVel, "sigma-vel", 0.1, "velocity standard deviation per axis [m/s]")
	monteCarloCmd.Flags().StringVar(&mcMetric, "metric", "min_distance", "metric to summarize")
	monteCarloCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 for GOMAXPROCS)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the trajectories of a run as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "-", "output file")
	exportSVGCmd.Flags().StringVar(&plane, "plane", string(viz.PlaneXY), "projection plane (xy, xz, yz)")
	exportSVGCmd.Flags().IntVar(&svgSize, "size", 800, "image size in pixels")
	exportSVGCmd.Flags().StringVar(&theme, "theme", viz.Themes[0].Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "statistics and dominant period of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&compare, "against", "", "second run id; reports how fast the two trajectories separate")

	presetsCmd := &cobra.Command{
		Use:   "presets [category]",
		Short: "list preset scenarios",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, liveCmd, validateCmd, compareCmd, sweepCmd, monteCarloCmd,
		listCmd, plotCmd, analyzeCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset scenario as category/name")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "step size in seconds (initial step when adaptive)")
	cmd.Flags().Float64Var(&duration, "duration", config.DefaultDuration, "propagated time span in seconds")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "error tolerance; enables adaptive stepping")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "step limit (0 for none)")
}

// loadScenario resolves the scenario from --config, --preset or the
// default, then applies the flags the user set explicitly.
func loadScenario(cmd *cobra.Command) (*config.Scenario, error) {
	var cfg *config.Scenario
	switch {
	case configFile != "" && preset != "":
		return nil, errors.New("use either --config or --preset")
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	case preset != "":
		category, name, ok := strings.Cut(preset, "/")
		if !ok {
			return nil, fmt.Errorf("preset %q: expected category/name", preset)
		}
		cfg = config.GetPreset(category, name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(category))
		}
	default:
		cfg = config.DefaultScenario()
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("duration") {
		cfg.Duration = duration
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("tolerance") {
		cfg.Tolerance = tolerance
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	return cfg, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.Build(cfg, experiment.WithLogger(log))
	if err != nil {
		return err
	}

	var collector *metrics.Collector
	if metricsAddr != "" {
		collector = metrics.NewCollector("")
		exp.AddObserver(collector)
		srv := &http.Server{Addr: metricsAddr, Handler: collector.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
		defer srv.Close()
		log.WithField("addr", metricsAddr).Info("serving metrics")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	fmt.Printf("propagating %s...\n", cfg.Name)
	start := time.Now()
	result, runErr := exp.Run(ctx)
	elapsed := time.Since(start)
	if collector != nil && result != nil {
		collector.RecordRun(result.Evaluations, runErr)
	}
	if result == nil {
		return runErr
	}

	runID, err := st.Save(cfg, result, runErr)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("epochs: %d, steps: %d, evaluations: %d\n", len(result.Times), result.StepsTaken, result.Evaluations)
	printMetrics(os.Stdout, result.Metrics)
	return runErr
}

func printMetrics(w io.Writer, m map[string]float64) {
	if len(m) == 0 {
		return
	}
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

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	// Log lines would tear the terminal view.
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	exp, err := experiment.Build(cfg, experiment.WithLogger(log))
	if err != nil {
		return err
	}

	originRadius := 0.0
	if origin := cfg.Propagated[0].Origin; origin != cfg.GlobalOrigin {
		if b, _, err := exp.Bodies.Get(origin); err == nil {
			originRadius = b.Radius
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	model := viz.NewProgressModel(cfg.Name, exp.Start, exp.Start+cfg.Duration, originRadius, cancel, viz.GetTheme(theme))
	p := tea.NewProgram(model)
	exp.AddObserver(viz.NewFeed(p.Send))

	go func() {
		res, err := exp.Run(ctx)
		p.Send(viz.DoneMsg{Result: res, Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	result, runErr := final.(viz.ProgressModel).Result()
	if result == nil {
		return runErr
	}
	runID, err := st.Save(cfg, result, runErr)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return runErr
}

func validateScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.Build(cfg, experiment.WithLogger(log))
	if err != nil {
		return err
	}

	fmt.Printf("scenario %s is valid\n", cfg.Name)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AFFECTED\tEXERTING\tMODEL")
	for _, affected := range exp.Accelerations.Affected() {
		for _, exerting := range exp.Accelerations.Exerting(affected) {
			for _, m := range exp.Accelerations[affected][exerting] {
				fmt.Fprintf(w, "%s\t%s\t%s\n", affected, exerting, m.Kind())
			}
		}
	}
	return w.Flush()
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("comparing integrators for %s (dt=%g, duration=%g)\n\n", cfg.Name, cfg.Dt, cfg.Duration)
	fmt.Printf("%-12s  %-14s  %-12s  %-12s  %-10s\n", "integrator", "final_dist_km", "energy_drift", "evaluations", "time_ms")
	fmt.Println(strings.Repeat("-", 68))

	for _, name := range args {
		c := cfg.Clone()
		c.Integrator = name
		exp, err := experiment.Build(c, experiment.WithLogger(quietLogger()))
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		start := time.Now()
		result, err := exp.Run(cmd.Context())
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		last := result.States[len(result.States)-1]
		fmt.Printf("%-12s  %14.6f  %12.2e  %12d  %10.2f\n", name, r3.Norm(last.Position(0))/1e3,
			result.Metrics["energy_drift"], result.Evaluations, float64(elapsed.Microseconds())/1000)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	var grid sweep.Grid
	for _, p := range sweepParams {
		axis, err := sweep.ParseAxis(p)
		if err != nil {
			return err
		}
		grid.Axes = append(grid.Axes, axis)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	log.WithFields(logrus.Fields{"scenario": cfg.Name, "points": len(grid.Points()), "metric": sweepMetric}).Info("sweeping")
	best, outcomes, searchErr := grid.Search(ctx, cfg, sweepMetric, workers, experiment.WithLogger(quietLogger()))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := make([]string, 0, len(grid.Axes)+1)
	for _, axis := range grid.Axes {
		header = append(header, strings.ToUpper(axis.Name))
	}
	fmt.Fprintln(w, strings.Join(append(header, strings.ToUpper(sweepMetric)), "\t"))
	for _, o := range outcomes {
		row := make([]string, 0, len(grid.Axes)+1)
		for _, axis := range grid.Axes {
			row = append(row, fmt.Sprintf("%g", o.Params[axis.Name]))
		}
		if v, ok := o.Metric(sweepMetric); ok {
			row = append(row, fmt.Sprintf("%.6g", v))
		} else if o.Err != nil {
			row = append(row, "error: "+o.Err.Error())
		} else {
			row = append(row, "-")
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if searchErr != nil {
		return searchErr
	}

	fmt.Printf("\nbest: %v (%s=%.6g)\n", best.Params, sweepMetric, best.Result.Metrics[sweepMetric])
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	d := sweep.Dispersion{Trials: trials, Seed: seed, Position: sigmaPos, Velocity: sigmaVel}
	log.WithFields(logrus.Fields{"scenario": cfg.Name, "trials": trials, "seed": seed}).Info("dispersing")
	start := time.Now()
	outcomes, err := sweep.MonteCarlo(ctx, cfg, d, workers, experiment.WithLogger(quietLogger()))
	if outcomes == nil {
		return err
	}

	s := sweep.Summarize(outcomes, mcMetric)
	fmt.Printf("%s over %d runs in %v\n", mcMetric, s.Runs, time.Since(start).Round(time.Millisecond))
	fmt.Printf("  mean:   %.6g\n", s.Mean)
	fmt.Printf("  stddev: %.6g\n", s.StdDev)
	fmt.Printf("  min:    %.6g\n", s.Min)
	fmt.Printf("  max:    %.6g\n", s.Max)
	if s.Failed > 0 {
		fmt.Printf("  failed: %d (%d numerical)\n", s.Failed, s.Numerical)
	}
	return err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tINTEG\tSTEPS\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "partial"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0fs\t%gs\t%s\t%d\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Steps,
			status,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	names, _, rows, err := st.LoadDependentVariables(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(states))

	plot := func(data []float64, caption string) {
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	column := func(j int) []float64 {
		data := make([]float64, len(rows))
		for i, row := range rows {
			data[i] = row[j]
		}
		return data
	}

	if plotVar != "" {
		for j, name := range names {
			if name == plotVar {
				plot(column(j), name)
				return nil
			}
		}
		return fmt.Errorf("run %s has no variable %q (have %v)", runID, plotVar, names)
	}

	distance := make([]float64, len(states))
	for i, x := range states {
		distance[i] = r3.Norm(x.Position(0)) / 1e3
	}
	caption := "distance from origin [km]"
	if len(meta.Propagated) > 0 {
		caption = meta.Propagated[0] + " " + caption
	}
	plot(distance, caption)

	const maxPlots = 6
	for j := 0; j < len(names) && j < maxPlots; j++ {
		data := column(j)
		if !finite(data) {
			continue
		}
		plot(data, names[j])
	}
	return nil
}

func finite(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	if dependent {
		names, times, rows, err := st.LoadDependentVariables(runID)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("run %s has no dependent variables", runID)
		}
		return storage.WriteTable(os.Stdout, append([]string{"time"}, names...), times, rows)
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.WriteTable(os.Stdout, storage.StateHeader(meta.Propagated), times, states)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(args[0], outFile)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	opts := viz.SVGOptions{
		Width:  svgSize,
		Height: svgSize,
		Plane:  viz.Plane(plane),
		Labels: meta.Propagated,
		Theme:  viz.GetTheme(theme),
	}
	// The stored run does not carry body radii; resolve them from the
	// scenario when it is still known.
	if cfg := findScenario(meta.Scenario); cfg != nil && len(cfg.Propagated) > 0 {
		for _, b := range cfg.Bodies {
			if b.Name == cfg.Propagated[0].Origin {
				opts.OriginRadius = b.Radius
			}
		}
	}

	var out io.Writer = os.Stdout
	if outFile != "" && outFile != "-" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return viz.TrajectorySVG(out, states, len(meta.Propagated), opts)
}

func findScenario(name string) *config.Scenario {
	for _, category := range config.Categories() {
		for _, p := range config.ListPresets(category) {
			if cfg := config.GetPreset(category, p); cfg.Name == name {
				return cfg
			}
		}
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	names, _, rows, err := st.LoadDependentVariables(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s (%d epochs)\n\n", meta.ID, len(times))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERIES\tMEAN\tSTDDEV\tMIN\tMAX\tPERIOD")
	describe := func(name string, values []float64) {
		s := analysis.Describe(values)
		period := "-"
		if p, err := analysis.DominantPeriod(times, values); err == nil {
			period = fmt.Sprintf("%.1fs", p)
		}
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\t%.6g\t%.6g\t%s\n", name, s.Mean, s.StdDev, s.Min, s.Max, period)
	}
	for i, body := range meta.Propagated {
		radius, err := analysis.Radius(states, i)
		if err != nil {
			return err
		}
		describe(body+" radius", radius)
	}
	for j, name := range names {
		column := make([]float64, len(rows))
		for i, row := range rows {
			column[i] = row[j]
		}
		describe(name, column)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if compare == "" {
		return nil
	}
	other, _, err := st.LoadStates(compare)
	if err != nil {
		return err
	}
	fmt.Printf("\nseparation from %s:\n", compare)
	for i, body := range meta.Propagated {
		sep, err := analysis.Separation(states, other, i)
		if err != nil {
			return err
		}
		rate, err := analysis.DivergenceRate(times[:len(sep)], sep)
		if err != nil {
			fmt.Printf("  %s: final %.6g m\n", body, sep[len(sep)-1])
			continue
		}
		fmt.Printf("  %s: final %.6g m, growth rate %.3g 1/s\n", body, sep[len(sep)-1], rate)
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	categories := config.Categories()
	if len(args) == 1 {
		if config.ListPresets(args[0]) == nil {
			return fmt.Errorf("unknown category %q (available: %v)", args[0], categories)
		}
		categories = args[:1]
	}
	for _, category := range categories {
		fmt.Printf("%s:\n", category)
		for _, name := range config.ListPresets(category) {
			cfg := config.GetPreset(category, name)
			fmt.Printf("  %-12s %s, %s, dt=%gs, %gs\n", name, cfg.Name, cfg.Integrator, cfg.Dt, cfg.Duration)
		}
	}
	return nil
}
