// Command lp prints label files on a bluetooth thermal label printer.  It
// accepts label markup (*.zpl) or a raster image, renders it to the label
// geometry and sends it to the printer, or, with -n, saves a PNG preview
// instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/rusq/osenv/v2"
	"tinygo.org/x/bluetooth"

	"github.com/rusq/labelprint"
	"github.com/rusq/labelprint/bitmap"
	"github.com/rusq/labelprint/printers"
)

var adapter = bluetooth.DefaultAdapter

const previewFile = "preview_label.png"

type config struct {
	printers.SearchParameters
	widthMM    float64
	heightMM   float64
	copies     int
	dither     string
	gamma      float64
	feedMM     int
	feedOnly   bool
	dryrun     bool
	chunkSize  int
	chunkDelay time.Duration
	verbose    bool
}

var cliflags config

func init() {
	flag.StringVar(&cliflags.Name, "p", osenv.Value("LP_PRINTER", "T02"), "printer `name` to use")
	flag.StringVar(&cliflags.MACAddress, "mac", osenv.Value("LP_MAC", ""), "MAC `address` of the printer")
	flag.Float64Var(&cliflags.widthMM, "W", 40, "label width, `mm`")
	flag.Float64Var(&cliflags.heightMM, "H", 30, "label height, `mm`")
	flag.IntVar(&cliflags.copies, "c", 1, "number of `copies`")
	flag.StringVar(&cliflags.dither, "dither", "", "dither `function` for images, one of: "+strings.Join(bitmap.AllDitherFunctions(), ", "))
	flag.Float64Var(&cliflags.gamma, "gamma", bitmap.DefaultGamma, "gamma correction `value` for images, 0 uses the dither function default")
	flag.IntVar(&cliflags.feedMM, "feed", 0, "feed the paper `mm` without printing and exit")
	flag.BoolVar(&cliflags.dryrun, "n", false, "dry run: save "+previewFile+" instead of printing")
	flag.IntVar(&cliflags.chunkSize, "chunk", printers.DefaultChunkSize, "transport chunk size, `bytes`")
	flag.DurationVar(&cliflags.chunkDelay, "d", printers.DefaultChunkDelay, "`delay` between transport chunks")
	flag.BoolVar(&cliflags.verbose, "v", osenv.Value("DEBUG", false), "enable verbose logging")
}

func init() {
	flag.Usage = func() {
		w := flag.CommandLine.Output()
		fmt.Fprintf(w, "Usage: %s [flags] <label.zpl|image>\n", os.Args[0])
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	if cliflags.verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	cliflags.feedOnly = cliflags.feedMM > 0 && flag.NArg() == 0

	if flag.NArg() != 1 && !cliflags.feedOnly {
		flag.Usage()
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cliflags, flag.Arg(0)); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config, file string) error {
	if cfg.feedOnly {
		job, cleanup, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		return job.Feed(ctx, cfg.feedMM)
	}

	g, err := labelprint.Validate(cfg.widthMM, cfg.heightMM)
	if err != nil {
		return err
	}
	mono, err := renderFile(file, g, cfg)
	if err != nil {
		return err
	}

	if cfg.dryrun {
		// DRY RUN terminates here.
		return savePreview(mono, g)
	}

	stream, err := printers.EncodeRaster(mono, g.WidthDots, g.HeightDots)
	if err != nil {
		return err
	}
	if cfg.feedMM > 0 {
		stream = append(stream, printers.EncodeFeed(cfg.feedMM)...)
	}

	job, cleanup, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	return job.Send(ctx, stream, cfg.copies)
}

// renderFile renders markup or an image file to the packed label bitmap.
func renderFile(file string, g labelprint.Geometry, cfg config) ([]byte, error) {
	if isMarkup(file) {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read label file: %w", err)
		}
		mono, diags, err := labelprint.Render(string(src), g)
		for _, d := range diags {
			slog.Warn("label", "diagnostic", d)
		}
		return mono, err
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return labelprint.RenderImage(img, g, cfg.dither, cfg.gamma)
}

func isMarkup(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".zpl", ".txt":
		return true
	}
	return false
}

// connect enables the adapter, connects to the printer and wires the job
// progress into a terminal progress bar.
func connect(ctx context.Context, cfg config) (*printers.Job, func(), error) {
	if err := adapter.Enable(); err != nil {
		return nil, nil, fmt.Errorf("failed to enable bluetooth adapter: %w", err)
	}
	prn, err := printers.ConnectBLE(ctx, adapter, cfg.SearchParameters)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to printer: %w", err)
	}

	bar, err := pterm.DefaultProgressbar.WithTotal(cfg.copies * 100).WithTitle("printing").Start()
	if err != nil {
		slog.Warn("progress bar unavailable", "error", err)
		bar = nil
	}
	progress := func(n, copies int, frac float64) {
		if bar == nil {
			return
		}
		if d := (n-1)*100 + int(frac*100) - bar.Current; d > 0 {
			bar.Add(d)
		}
	}
	job := printers.NewJob(prn,
		printers.WithChunkSize(cfg.chunkSize),
		printers.WithChunkDelay(cfg.chunkDelay),
		printers.WithProgress(progress),
	)
	cleanup := func() {
		if bar != nil {
			bar.Stop()
		}
		if err := prn.Disconnect(); err != nil {
			slog.Warn("failed to disconnect", "error", err)
		}
	}
	return job, cleanup, nil
}

// savePreview unpacks the label bitmap back into an image and writes the PNG
// preview.
func savePreview(mono []byte, g labelprint.Geometry) error {
	img := image.NewGray(image.Rect(0, 0, g.WidthDots, g.HeightDots))
	rowBytes := bitmap.RowBytes(g.WidthDots)
	for y := range g.HeightDots {
		for x := range g.WidthDots {
			if mono[y*rowBytes+x/8]&(1<<(7-x%8)) != 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	f, err := os.Create(previewFile)
	if err != nil {
		return fmt.Errorf("failed to create preview file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	slog.Info("preview saved", "filename", previewFile)
	return nil
}
