package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
)

// Version is set at build time via -ldflags
var Version = "dev"

// AppOptions carries the parsed command line.
type AppOptions struct {
	ConfigFile   string
	InputFile    string
	ScriptFile   string
	OutputFile   string
	Render       bool
	RenderFormat string
	VectorFormat string
	RenderDir    string
	GeoJSONFile  string
	Summary      bool
	MqttMode     bool
	MqttDryRun   bool
}

// Runner is the application surface driven by run.
type Runner interface {
	ApplyOptions(opts AppOptions)
	LoadSession() error
	RunRender() error
	RunGeoJSON() error
	RunSummary() error
	RunPublish() error
	SaveSession() error
}

func main() {
	if err := run(os.Args[1:], os.Stdout, NewApp(os.Stdout)); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer, app Runner) error {
	fs := flag.NewFlagSet("floormesh", flag.ContinueOnError)
	fs.SetOutput(out)

	var opts AppOptions
	fs.StringVar(&opts.ConfigFile, "config", "config.yaml", "Path to configuration file")
	fs.StringVar(&opts.InputFile, "input", "", "Floor-plan document (JSON) to load")
	fs.StringVar(&opts.ScriptFile, "script", "", "Editing script (YAML) to replay")
	fs.StringVar(&opts.OutputFile, "output", "", "Write the resulting document (JSON) to this file")
	fs.BoolVar(&opts.Render, "render", false, "Render every floor to --render-dir")
	fs.StringVar(&opts.RenderFormat, "format", "raster", "Render format: raster, vector, or both")
	fs.StringVar(&opts.VectorFormat, "vector-format", "svg", "Vector output format: svg or png")
	fs.StringVar(&opts.RenderDir, "render-dir", ".", "Directory for rendered floors")
	fs.StringVar(&opts.GeoJSONFile, "geojson", "", "Write all floors as GeoJSON to this file")
	fs.BoolVar(&opts.Summary, "summary", false, "Print rooms and areas per floor")
	fs.BoolVar(&opts.MqttMode, "mqtt", false, "Publish floor summaries to MQTT")
	fs.BoolVar(&opts.MqttDryRun, "mqtt-dry-run", false, "List the MQTT messages --mqtt would publish without connecting")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprintf(out, "floormesh version: %s\n", Version)
	if opts.MqttDryRun {
		opts.MqttMode = true
	}

	if opts.InputFile == "" && opts.ScriptFile == "" {
		fmt.Fprintln(out, "Nothing to do: no document or script given.")
		fmt.Fprintln(out, "Use --script FILE to replay an editing session")
		fmt.Fprintln(out, "Use --input FILE to load a saved document")
		fmt.Fprintln(out, "Use --output FILE to save the result")
		fmt.Fprintln(out, "Use --render [--format raster|vector|both] to draw each floor")
		fmt.Fprintln(out, "Use --geojson FILE to export walls, rooms and features")
		fmt.Fprintln(out, "Use --mqtt to publish floor summaries")
		return nil
	}

	switch opts.RenderFormat {
	case "raster", "vector", "both":
	default:
		return fmt.Errorf("unknown render format %q", opts.RenderFormat)
	}
	switch opts.VectorFormat {
	case "svg", "png":
	default:
		return fmt.Errorf("unknown vector format %q", opts.VectorFormat)
	}

	app.ApplyOptions(opts)
	if err := app.LoadSession(); err != nil {
		return err
	}

	if opts.Render {
		if err := app.RunRender(); err != nil {
			return err
		}
	}
	if opts.GeoJSONFile != "" {
		if err := app.RunGeoJSON(); err != nil {
			return err
		}
	}
	// Print a summary when nothing else would show the result.
	if opts.Summary || (!opts.Render && opts.GeoJSONFile == "" && opts.OutputFile == "" && !opts.MqttMode) {
		if err := app.RunSummary(); err != nil {
			return err
		}
	}
	if opts.MqttMode {
		if err := app.RunPublish(); err != nil {
			return err
		}
	}
	if opts.OutputFile != "" {
		return app.SaveSession()
	}
	return nil
}
