// Command demand serves and runs the store item sales predictor from the command line.
//
//	demand [-env file] [-profile cpu|mem] <command> [flags]
//
// Commands are serve, predict, forecast, evaluate, eda and simulate.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/aouyang1/go-demand"
	"github.com/aouyang1/go-demand/booster"
	"github.com/aouyang1/go-demand/dataset"
	"github.com/aouyang1/go-demand/eda"
	"github.com/aouyang1/go-demand/holiday"
	"github.com/aouyang1/go-demand/internal/config"
	"github.com/aouyang1/go-demand/internal/export"
	"github.com/aouyang1/go-demand/internal/server"
	"github.com/pkg/profile"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingFlag    = errors.New("missing required flag")
	ErrUnknownProfile = errors.New("unknown profile mode")
	ErrOutputFormat   = errors.New("unsupported output format")
)

const usage = `usage: demand [-env file] [-profile cpu|mem] <command> [flags]

commands:
  serve     run the http api and dashboards
  predict   predict sales of one store, item and date
  forecast  forecast sales of a store and item for the following days
  evaluate  score the model against a labeled dataset
  eda       print a summary of a dataset
  simulate  write a synthetic store item sales csv
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("demand failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("demand", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	envFile := fs.String("env", "", "dotenv file loaded before reading the environment")
	profileMode := fs.String("profile", "", "profile the command, cpu or mem")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("no command given, %w", ErrUnknownCommand)
	}

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return err
	}
	slog.SetDefault(cfg.NewLogger())

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	default:
		return fmt.Errorf("%q, %w", *profileMode, ErrUnknownProfile)
	}

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "serve":
		return runServe(cfg, cmdArgs)
	case "predict":
		return runPredict(cfg, cmdArgs, stdout)
	case "forecast":
		return runForecast(cfg, cmdArgs, stdout)
	case "evaluate":
		return runEvaluate(cfg, cmdArgs, stdout)
	case "eda":
		return runEDA(cfg, cmdArgs, stdout)
	case "simulate":
		return runSimulate(cmdArgs, stdout)
	default:
		fs.Usage()
		return fmt.Errorf("%q, %w", cmd, ErrUnknownCommand)
	}
}

func newPredictor(cfg *config.Config, modelPath string) (*demand.Predictor, error) {
	model, err := booster.Load(modelPath)
	if err != nil {
		return nil, fmt.Errorf("unable to load model %s, %w", modelPath, err)
	}
	cal, err := holiday.New(cfg.HolidayCalendar)
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded model", "path", modelPath, "trees", model.NumTrees(), "objective", model.Objective())
	return demand.New(model, &demand.Options{Calendar: cal, Decimals: demand.DefaultDecimals})
}

func runServe(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	modelPath := fs.String("model", cfg.ModelPath, "xgboost json model")
	dataPath := fs.String("data", cfg.DataPath, "csv or xlsx dataset for eda and evaluation")
	port := fs.String("port", cfg.Port, "listen port")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.Port = *port

	p, err := newPredictor(cfg, *modelPath)
	if err != nil {
		return err
	}

	// the api still serves predictions without a dataset
	ds, err := dataset.Load(*dataPath)
	if err != nil {
		slog.Warn("dataset not loaded, eda and evaluation are unavailable", "path", *dataPath, "error", err.Error())
		ds = nil
	} else {
		slog.Info("loaded dataset", "path", *dataPath, "rows", ds.Len())
	}

	srv, err := server.New(cfg, p, ds, slog.Default())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

func runPredict(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	modelPath := fs.String("model", cfg.ModelPath, "xgboost json model")
	store := fs.Int("store", 1, "store id")
	item := fs.Int("item", 1, "item id")
	date := fs.String("date", "", "date to predict, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *date == "" {
		return fmt.Errorf("-date, %w", ErrMissingFlag)
	}
	d, err := dataset.ParseDate(*date)
	if err != nil {
		return err
	}

	p, err := newPredictor(cfg, *modelPath)
	if err != nil {
		return err
	}
	pred, err := p.PredictDay(*store, *item, d)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "store %d, item %d, %s: %.2f\n", *store, *item, d.Format(dataset.DateLayout), pred)
	return err
}

func runForecast(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("forecast", flag.ContinueOnError)
	modelPath := fs.String("model", cfg.ModelPath, "xgboost json model")
	store := fs.Int("store", 1, "store id")
	item := fs.Int("item", 1, "item id")
	start := fs.String("start", time.Now().UTC().Format(dataset.DateLayout), "forecast starts the day after, YYYY-MM-DD")
	days := fs.Int("days", cfg.DefaultForecastDays, "number of days to forecast")
	out := fs.String("out", "", "also write the forecast to a .xlsx, .csv or .html file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *days < cfg.MinForecastDays || *days > cfg.MaxForecastDays {
		return fmt.Errorf("days %d outside of [%d, %d], %w", *days, cfg.MinForecastDays, cfg.MaxForecastDays, dataset.ErrInvalidHorizon)
	}
	d, err := dataset.ParseDate(*start)
	if err != nil {
		return err
	}

	p, err := newPredictor(cfg, *modelPath)
	if err != nil {
		return err
	}
	res, err := p.Forecast(*store, *item, d, *days)
	if err != nil {
		return err
	}
	if err := res.TablePrint(stdout); err != nil {
		return err
	}
	if *out == "" {
		return nil
	}
	return writeFile(*out, func(w io.Writer) error {
		switch strings.ToLower(filepath.Ext(*out)) {
		case ".xlsx":
			return export.ForecastXLSX(w, res)
		case ".csv":
			return export.ForecastCSV(w, res)
		case ".html":
			return demand.PlotForecast(w, res)
		default:
			return fmt.Errorf("%s, %w", *out, ErrOutputFormat)
		}
	})
}

func runEvaluate(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	modelPath := fs.String("model", cfg.ModelPath, "xgboost json model")
	dataPath := fs.String("data", cfg.DataPath, "labeled csv or xlsx dataset")
	plot := fs.String("plot", "", "also write an actual vs predicted html chart")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := newPredictor(cfg, *modelPath)
	if err != nil {
		return err
	}
	ds, err := dataset.Load(*dataPath)
	if err != nil {
		return err
	}
	eval, err := p.Evaluate(ds)
	if err != nil {
		return err
	}
	if err := eval.TablePrint(stdout, "", "  "); err != nil {
		return err
	}
	if *plot == "" {
		return nil
	}
	return writeFile(*plot, func(w io.Writer) error {
		return demand.PlotEvaluation(w, eval, cfg.EvalPlotLimit)
	})
}

func runEDA(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("eda", flag.ContinueOnError)
	dataPath := fs.String("data", cfg.DataPath, "csv or xlsx dataset")
	dashboard := fs.String("dashboard", "", "also write the html dashboard")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ds, err := dataset.Load(*dataPath)
	if err != nil {
		return err
	}
	info, err := eda.NewInfo(ds)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "rows: %d, stores: %d, items: %d, frequency: %s\n", info.Rows, info.Stores, info.Items, info.Frequency)
	fmt.Fprintf(stdout, "dates: %s to %s\n", info.Start.Format(dataset.DateLayout), info.End.Format(dataset.DateLayout))
	fmt.Fprintf(stdout, "missing sales: %d, sales outliers: %d\n\n", info.MissingSales, info.SalesOutliers)

	summary, err := eda.Summary(ds)
	if err != nil {
		return err
	}
	if err := summary.TablePrint(stdout); err != nil {
		return err
	}

	vif, err := eda.FeatureVIF(ds)
	if err != nil {
		return err
	}
	labels := make([]string, 0, len(vif))
	for label := range vif {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	fmt.Fprintln(stdout, "\nvariance inflation factors:")
	for _, label := range labels {
		fmt.Fprintf(stdout, "  %s: %.3f\n", label, vif[label])
	}

	if *dashboard == "" {
		return nil
	}
	cal, err := holiday.New(cfg.HolidayCalendar)
	if err != nil {
		return err
	}
	opt := eda.NewDefaultDashboardOptions()
	opt.SampleN = cfg.EDASampleRows
	opt.Calendar = cal
	return writeFile(*dashboard, func(w io.Writer) error {
		return eda.Dashboard(w, ds, opt)
	})
}

func runSimulate(args []string, stdout io.Writer) error {
	def := dataset.NewDefaultSimulateOptions()
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	stores := fs.Int("stores", def.Stores, "number of stores")
	items := fs.Int("items", def.Items, "number of items")
	days := fs.Int("days", def.Days, "number of days")
	start := fs.String("start", def.Start.Format(dataset.DateLayout), "first date, YYYY-MM-DD")
	seed := fs.Uint64("seed", def.Seed, "random seed")
	out := fs.String("out", "", "csv output path, stdout if empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	d, err := dataset.ParseDate(*start)
	if err != nil {
		return err
	}

	opt := *def
	opt.Stores, opt.Items, opt.Days, opt.Start, opt.Seed = *stores, *items, *days, d, *seed
	ds, err := dataset.Simulate(&opt)
	if err != nil {
		return err
	}
	if *out == "" {
		return ds.WriteCSV(stdout)
	}
	if err := writeFile(*out, ds.WriteCSV); err != nil {
		return err
	}
	slog.Info("wrote simulated dataset", "path", *out, "rows", ds.Len())
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("unable to write %s, %w", path, err)
	}
	return f.Close()
}
