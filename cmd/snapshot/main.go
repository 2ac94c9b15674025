// Command snapshot renders the scatter plot of a dataset to an image file
// without starting the server.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"
	"gonum.org/v1/plot/vg"

	"github.com/angas/riskplot-go/config"
	"github.com/angas/riskplot-go/dataset"
	"github.com/angas/riskplot-go/selection"
	"github.com/angas/riskplot-go/snapshot"
	"github.com/angas/riskplot-go/types"
)

//nolint:vet // for readability
var cli struct {
	Debug  bool   `help:"Enable debug logging."`
	Config string `help:"Config file with chart settings." type:"existingfile"`

	Data   string `arg:"" help:"Dataset CSV file." type:"existingfile"`
	Out    string `short:"o" default:"-" help:"Output file, '-' for stdout."`
	X      string `default:"poverty" help:"X axis field: poverty, age or income."`
	Y      string `default:"healthcare" help:"Y axis field: healthcare, smokes or obesity."`
	Format string `short:"f" default:"" enum:",svg,png,pdf" help:"Image format, derived from the output file when empty."`
	Width  int    `default:"0" help:"Width in points, 0 uses the chart width."`
	Height int    `default:"0" help:"Height in points, 0 uses the chart height."`
	Title  string `help:"Plot title."`
	Skip   bool   `help:"Skip malformed records instead of failing."`
}

type params struct {
	Chart  config.AppConfigChart
	Data   string
	X, Y   types.Field
	Format string
	Width  int
	Height int
	Title  string
	Policy dataset.Policy
}

func main() {
	kongCtx := kong.Parse(&cli,
		kong.Description("Render a static snapshot of the risk scatter plot."),
		kong.DefaultEnvars("RISKPLOT"))

	level := slog.LevelInfo
	if cli.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level, TimeFormat: time.TimeOnly}))
	slog.SetDefault(logger)

	var chart config.AppConfigChart
	if cli.Config != "" {
		cnfg, err := config.Load(cli.Config)
		kongCtx.FatalIfErrorf(err)
		chart = cnfg.Chart
	}

	p := params{
		Chart:  chart,
		Data:   cli.Data,
		X:      types.Field(strings.ToLower(cli.X)),
		Y:      types.Field(strings.ToLower(cli.Y)),
		Format: formatOf(cli.Format, cli.Out),
		Width:  cli.Width,
		Height: cli.Height,
		Title:  cli.Title,
		Policy: dataset.PolicyAbort,
	}
	if cli.Skip {
		p.Policy = dataset.PolicySkip
	}

	w := io.Writer(os.Stdout)
	if cli.Out != "-" {
		f, err := os.Create(cli.Out)
		kongCtx.FatalIfErrorf(err)
		defer f.Close()
		w = f
	}

	err := run(logger, w, p)
	kongCtx.FatalIfErrorf(err)
}

// formatOf returns format, or the extension of out when format is empty.
func formatOf(format, out string) string {
	if format != "" {
		return format
	}
	if i := strings.LastIndexByte(out, '.'); i >= 0 && out != "-" {
		return strings.ToLower(out[i+1:])
	}
	return "svg"
}

func run(logger *slog.Logger, w io.Writer, p params) error {
	sel, err := selection.New(p.X, p.Y)
	if err != nil {
		return err
	}

	res, err := dataset.LoadFile(p.Data, p.Policy)
	if err != nil {
		return err
	}
	for _, skipped := range res.Skipped {
		logger.Warn("skipping malformed record", slog.Any("error", skipped))
	}

	width, height := p.Width, p.Height
	if width == 0 {
		width = int(p.Chart.GetWidth())
	}
	if height == 0 {
		height = int(p.Chart.GetHeight())
	}

	logger.Debug("rendering snapshot",
		slog.String("x", p.X.String()),
		slog.String("y", p.Y.String()),
		slog.String("format", p.Format),
		slog.Int("records", res.Records.Len()))

	if err := snapshot.Write(w, res.Records, sel, snapshot.Options{
		Width:  vg.Points(float64(width)),
		Height: vg.Points(float64(height)),
		Format: p.Format,
		X:      p.Chart.XScale(),
		Y:      p.Chart.YScale(),
		Title:  p.Title,
	}); err != nil {
		return fmt.Errorf("failed to render snapshot: %w", err)
	}
	return nil
}
