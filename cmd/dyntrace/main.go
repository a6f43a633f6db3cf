package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/dyntrace/internal/automation"
	"github.com/san-kum/dyntrace/internal/config"
	"github.com/san-kum/dyntrace/internal/export"
	"github.com/san-kum/dyntrace/internal/flow"
	"github.com/san-kum/dyntrace/internal/geometry"
	"github.com/san-kum/dyntrace/internal/record"
	"github.com/san-kum/dyntrace/internal/scene"
	"github.com/san-kum/dyntrace/internal/session"
	"github.com/san-kum/dyntrace/internal/storage"
	"github.com/san-kum/dyntrace/internal/tracer"
	"github.com/san-kum/dyntrace/internal/tui"
	"github.com/san-kum/dyntrace/internal/viz"
)

var (
	dataDir    string
	configFile string
	verbose    bool
	cfg        *config.Config

	// generate
	integrator string
	particles  int
	swarms     int
	steps      int
	gap        int
	dt         float64
	seed       int64
	shuffle    bool
	preset     string
	params     []string

	// render, plot, view, watch
	now      int
	playGap  int
	props    []string
	svgPath  string
	jsonPath string
	preview  bool
	object   string
	particle int
	watch    bool
	theme    string

	// script, sweep
	outDir   string
	property string
	sweepMin float64
	sweepMax float64
	sweepN   int
	integer  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dyntrace",
		Short:         "particle trajectory tracer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			return loadConfig(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml or ini)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	reg := flow.NewRegistry()

	generateCmd := &cobra.Command{
		Use:   "generate [flow]",
		Short: "advect particles through a flow and save the dataset",
		Long:  "flows: " + strings.Join(reg.ListFields(), ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(cmd.Context(), reg, args[0])
		},
	}
	generateCmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator ("+strings.Join(reg.ListIntegrators(), ", ")+")")
	generateCmd.Flags().IntVar(&particles, "particles", 16, "particles per swarm")
	generateCmd.Flags().IntVar(&swarms, "swarms", 1, "number of swarms (objects)")
	generateCmd.Flags().IntVar(&steps, "steps", 200, "stored timesteps")
	generateCmd.Flags().IntVar(&gap, "gap", 1, "integrator steps between stored steps")
	generateCmd.Flags().Float64Var(&dt, "dt", 0.01, "timestep")
	generateCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	generateCmd.Flags().BoolVar(&shuffle, "shuffle", false, "store particles in random slot order with an index map")
	generateCmd.Flags().StringVar(&preset, "preset", "", "tracer preset stored with every swarm")
	generateCmd.Flags().StringSliceVar(&params, "param", nil, "flow parameter name=value")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list datasets",
		RunE:  listDatasets,
	}

	renderCmd := &cobra.Command{
		Use:   "render [dataset]",
		Short: "run one tracer pass and summarise it",
		Args:  cobra.ExactArgs(1),
		RunE:  render,
	}
	addPassFlags(renderCmd)
	renderCmd.Flags().StringVar(&svgPath, "svg", "", "write geometry as SVG (- for stdout)")
	renderCmd.Flags().StringVar(&jsonPath, "json", "", "write geometry as JSON (- for stdout)")
	renderCmd.Flags().BoolVar(&preview, "preview", false, "draw the geometry in the terminal")

	plotCmd := &cobra.Command{
		Use:   "plot [dataset]",
		Short: "plot taper, fade and emitted geometry",
		Args:  cobra.ExactArgs(1),
		RunE:  plot,
	}
	addPassFlags(plotCmd)
	plotCmd.Flags().StringVar(&object, "object", "", "object to profile (default first)")
	plotCmd.Flags().IntVar(&particle, "particle", 0, "particle whose speed is plotted")

	viewCmd := &cobra.Command{
		Use:   "view [dataset]",
		Short: "interactive playback viewer",
		Args:  cobra.ExactArgs(1),
		RunE:  view,
	}
	addPassFlags(viewCmd)
	viewCmd.Flags().BoolVar(&watch, "watch", false, "reload when the dataset changes")
	viewCmd.Flags().StringVar(&theme, "theme", "night", "theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	watchCmd := &cobra.Command{
		Use:   "watch [dataset]",
		Short: "re-render whenever the dataset changes",
		Args:  cobra.ExactArgs(1),
		RunE:  watchDataset,
	}
	addPassFlags(watchCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list tracer presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tPROPERTIES")
			for _, name := range config.ListPresets() {
				fmt.Fprintf(w, "%s\t%s\n", name, formatProps(config.GetPreset(name)))
			}
			return w.Flush()
		},
	}

	scriptCmd := &cobra.Command{
		Use:   "script [dataset] [script.yaml]",
		Short: "run a scripted playback with per-frame exports",
		Args:  cobra.ExactArgs(2),
		RunE:  runScript,
	}
	addPassFlags(scriptCmd)
	scriptCmd.Flags().StringVar(&outDir, "out", ".", "directory for frame outputs")

	sweepCmd := &cobra.Command{
		Use:   "sweep [dataset]",
		Short: "sweep a tracer property and plot the emitted geometry",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addPassFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&object, "object", "", "object to sweep (default all)")
	sweepCmd.Flags().StringVar(&property, "property", "limit", "tracer property")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepN, "num", 20, "number of values")
	sweepCmd.Flags().BoolVar(&integer, "int", false, "round values to integers")

	rootCmd.AddCommand(generateCmd, listCmd, renderCmd, plotCmd, viewCmd, watchCmd, presetsCmd, scriptCmd, sweepCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addPassFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&now, "now", -1, "playback step (default last)")
	cmd.Flags().IntVar(&playGap, "gap", 0, "override the stored step gap")
	cmd.Flags().StringSliceVar(&props, "set", nil, "tracer property name=value applied to every object")
}

func setupLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	tracer.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func loadConfig(cmd *cobra.Command) error {
	cfg = config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
		if !cmd.Flags().Changed("data") && cfg.DataDir != "" {
			dataDir = cfg.DataDir
		}
	}
	if cmd.Name() != "generate" && cmd.Flags().Changed("gap") {
		cfg.Playback.Gap = playGap
	}
	return cfg.Validate()
}

func generate(ctx context.Context, reg *flow.Registry, field string) error {
	opts := flow.Options{
		Field:      field,
		Integrator: integrator,
		Swarms:     swarms,
		Particles:  particles,
		Steps:      steps,
		Gap:        gap,
		Dt:         dt,
		Seed:       seed,
		Shuffle:    shuffle,
		Params:     map[string]float64{},
	}
	for _, kv := range params {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("bad --param %q, want name=value", kv)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("bad --param %q: %w", kv, err)
		}
		opts.Params[k] = f
	}
	if preset != "" {
		opts.Props = config.GetPreset(preset)
		if opts.Props == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	start := time.Now()
	res, err := flow.Generate(ctx, reg, scene.NewAllocator(), opts)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	ds := &storage.Dataset{
		Meta: storage.Metadata{
			Flow:       field,
			Integrator: integrator,
			Seed:       seed,
			Dt:         dt,
			Gap:        gap,
			Params:     opts.Params,
			Times:      res.Times,
		},
		Objects: res.Objects,
		Records: res.Records,
	}
	id, err := st.Save(ds)
	if err != nil {
		return err
	}

	fmt.Printf("dataset: %s\n", id)
	fmt.Printf("swarms: %d  particles: %d  steps: %d  records: %d\n", swarms, particles, steps, len(res.Records))
	fmt.Printf("elapsed: %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func listDatasets(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no datasets found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFLOW\tTIME\tOBJECTS\tPARTICLES\tSTEPS\tDT\tGAP")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%.4fs\t%d\n",
			run.ID,
			run.Flow,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			len(run.Objects),
			run.Particles,
			run.Steps,
			run.Dt,
			run.Gap,
		)
	}

	return w.Flush()
}

// openSession loads a dataset and applies --now and --set.
func openSession(id string) (*session.Session, error) {
	sess := session.New(storage.New(dataDir), cfg)
	if err := sess.Load(id); err != nil {
		return nil, err
	}
	if now >= 0 {
		sess.Seek(now)
	}
	for _, kv := range props {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("bad --set %q, want name=value", kv)
		}
		sess.SetProperty("", k, parseValue(v))
	}
	return sess, nil
}

func render(cmd *cobra.Command, args []string) error {
	sess, err := openSession(args[0])
	if err != nil {
		return err
	}

	sink := geometry.NewSink()
	start := time.Now()
	rep := sess.Update(sink)
	elapsed := time.Since(start)

	if svgPath != "" {
		cam := viz.NewCamera()
		cam.Fit(sess.Bounds())
		if err := export.WriteSVG(svgPath, os.Stdout, sink, cam, export.DefaultSVGOptions()); err != nil {
			return err
		}
		if svgPath != "-" {
			fmt.Fprintf(os.Stderr, "svg written to %s\n", svgPath)
		}
	}
	if jsonPath != "" {
		if err := export.ExportJSON(jsonPath, export.NewExportData(sess.ID(), rep, sink)); err != nil {
			return err
		}
		if jsonPath != "-" {
			fmt.Fprintf(os.Stderr, "json written to %s\n", jsonPath)
		}
	}
	if svgPath == "-" || jsonPath == "-" {
		return nil
	}

	fmt.Print(summary(sess, rep, sink, elapsed))
	if preview {
		cam := viz.NewCamera()
		cam.Fit(sess.Bounds())
		canvas := viz.NewCanvas(72, 24)
		viz.RenderSink(canvas, sink, cam)
		fmt.Print(canvas.Render())
	}
	return nil
}

func plot(cmd *cobra.Command, args []string) error {
	sess, err := openSession(args[0])
	if err != nil {
		return err
	}
	sink := geometry.NewSink()
	rep := sess.Update(sink)
	if len(rep.Objects) == 0 {
		return fmt.Errorf("no data to plot")
	}

	or := rep.Objects[0]
	if object != "" {
		found := false
		for _, o := range rep.Objects {
			if o.Name == object {
				or, found = o, true
			}
		}
		if !found {
			return fmt.Errorf("unknown object: %s", object)
		}
	}

	fmt.Printf("dataset: %s\n", sess.ID())
	fmt.Printf("object: %s  window: [%d, %d]  datasteps: %d\n\n", or.Name, or.Window.Start, or.Window.End, rep.Datasteps)

	prof := tracer.TraceProfile(or.Options, or.Window, sess.Playback().Gap)
	if len(prof.Radius) > 1 {
		radius := make([]float64, len(prof.Radius))
		alpha := make([]float64, len(prof.Alpha))
		for i := range prof.Radius {
			radius[i] = float64(prof.Radius[i])
			alpha[i] = float64(prof.Alpha[i])
		}
		fmt.Println(asciigraph.Plot(radius, asciigraph.Height(8), asciigraph.Width(60), asciigraph.Caption("tube radius per step")))
		fmt.Println()
		fmt.Println(asciigraph.Plot(alpha, asciigraph.Height(8), asciigraph.Width(60), asciigraph.Caption("alpha per step")))
		fmt.Println()
	}

	if speed := particleSeries(sess, or.ID, particle); len(speed) > 1 {
		fmt.Println(asciigraph.Plot(speed, asciigraph.Height(8), asciigraph.Width(60),
			asciigraph.Caption(fmt.Sprintf("particle %d colour value", particle))))
		fmt.Println()
	}

	// primitives emitted at every playback step
	pb := sess.Playback()
	counts := make([]float64, rep.Datasteps)
	for step := range counts {
		sess.Seek(step)
		r := sess.Update(sink)
		for _, o := range r.Objects {
			counts[step] += float64(o.Points + o.Segments + o.TubeVertices)
		}
	}
	sess.Seek(pb.Now)
	if len(counts) > 1 {
		fmt.Println(asciigraph.Plot(counts, asciigraph.Height(8), asciigraph.Width(60), asciigraph.Caption("primitives per playback step")))
	}
	return nil
}

// particleSeries collects the colour value of particle p of an object
// across stored steps.
func particleSeries(sess *session.Session, owner uint32, p int) []float64 {
	var out []float64
	for _, rec := range sess.Records() {
		if rec.Owner == nil || rec.Owner.ID != owner {
			continue
		}
		vals := rec.Series(record.ColourValues)
		slot := p
		for s, id := range rec.Indices {
			if int(id) == p {
				slot = s
				break
			}
		}
		if slot < len(vals) {
			out = append(out, float64(vals[slot]))
		}
	}
	return out
}

func view(cmd *cobra.Command, args []string) error {
	sess, err := openSession(args[0])
	if err != nil {
		return err
	}
	viz.SetTheme(theme)
	return tui.Run(cmd.Context(), sess, watch)
}

func watchDataset(cmd *cobra.Command, args []string) error {
	sess, err := openSession(args[0])
	if err != nil {
		return err
	}
	sink := geometry.NewSink()
	show := func() {
		start := time.Now()
		rep := sess.Update(sink)
		fmt.Print(summary(sess, rep, sink, time.Since(start)))
	}
	show()
	fmt.Println(viz.KeyHint.Render("watching for changes, ctrl+c to stop"))

	err = sess.Watch(cmd.Context(), func(err error) {
		if err != nil {
			fmt.Fprintln(os.Stderr, "reload:", err)
			return
		}
		show()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runScript(cmd *cobra.Command, args []string) error {
	sess, err := openSession(args[0])
	if err != nil {
		return err
	}
	sc, err := automation.LoadScript(args[1])
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	results, err := automation.RunScript(cmd.Context(), sess, sc, outDir)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FRAME\tSTEP\tPOINTS\tSEGMENTS\tTRIANGLES\tDIAG\tFILES")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.Frame, r.Step, r.Points, r.Segments, r.Triangles, r.Diagnostics, strings.Join(r.Files, " "))
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	sess, err := openSession(args[0])
	if err != nil {
		return err
	}
	results, err := automation.RunSweep(cmd.Context(), sess, &automation.PropertySweep{
		Object:   object,
		Property: property,
		Min:      sweepMin,
		Max:      sweepMax,
		NumSteps: sweepN,
		Integer:  integer,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tPOINTS\tSEGMENTS\tDROPPED\tTUBE VERTS\n", strings.ToUpper(property))
	emitted := make([]float64, len(results))
	for i, r := range results {
		fmt.Fprintf(w, "%.4g\t%d\t%d\t%d\t%d\n", r.Value, r.Points, r.Segments, r.Dropped, r.TubeVertices)
		emitted[i] = float64(r.Points + r.Segments + r.TubeVertices)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(emitted) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(emitted, asciigraph.Height(8), asciigraph.Width(60),
			asciigraph.Caption("primitives vs "+property)))
	}
	return nil
}

// parseValue reads a --set value as an integer, float or bool, falling back
// to the raw string.
func parseValue(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
