package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/tdewolff/canvas"

	"github.com/kwv/floormesh/plan"
)

const (
	renderSize        = 800
	mqttConnectWait   = 15 * time.Second
	defaultConfigFile = "config.yaml"
)

// App encapsulates the application state and dependencies
type App struct {
	Config     *plan.Config
	Editor     *plan.Editor
	MQTTClient *plan.MQTTClient
	Publisher  *plan.Publisher
	Out        io.Writer

	stopPublisher func()
	dryRun        *plan.MockClient

	// CLI Flags (effectively dependencies)
	ConfigFile   string
	InputFile    string
	ScriptFile   string
	OutputFile   string
	RenderFormat string
	VectorFormat string
	RenderDir    string
	GeoJSONFile  string
	MqttMode     bool
	MqttDryRun   bool
}

// NewApp creates a new App instance
func NewApp(out io.Writer) *App {
	return &App{Out: out}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.InputFile = opts.InputFile
	a.ScriptFile = opts.ScriptFile
	a.OutputFile = opts.OutputFile
	a.RenderFormat = opts.RenderFormat
	a.VectorFormat = opts.VectorFormat
	a.RenderDir = opts.RenderDir
	a.GeoJSONFile = opts.GeoJSONFile
	a.MqttMode = opts.MqttMode
	a.MqttDryRun = opts.MqttDryRun
}

func (a *App) loadConfig() error {
	if a.ConfigFile == "" {
		a.Config = plan.DefaultConfig()
		return nil
	}
	if _, err := os.Stat(a.ConfigFile); os.IsNotExist(err) && a.ConfigFile == defaultConfigFile {
		log.Printf("No %s found, using defaults", defaultConfigFile)
		a.Config = plan.DefaultConfig()
		return nil
	}
	cfg, err := plan.LoadConfig(a.ConfigFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.Config = cfg
	return nil
}

// LoadSession builds the editor, loads the input document, replays the
// script and attaches the thumbnails rendered meanwhile.
func (a *App) LoadSession() error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	a.Editor = plan.NewEditor(a.Config.EditorOptions())

	if a.MqttMode {
		if err := a.startPublisher(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	thumbs := plan.NewThumbnailer(plan.NewThumbnailRenderer(a.Config.Thumbnail.Size))
	go thumbs.Run(ctx)
	a.Editor.Subscribe(thumbs.Listener())

	if err := a.replay(thumbs); err != nil {
		return err
	}

	thumbs.Close()
	for res := range thumbs.Results() {
		if res.Err != nil {
			log.Printf("Warning: thumbnail for floor %s failed: %v", res.FloorID, res.Err)
			continue
		}
		if err := a.Editor.AttachThumbnail(res.FloorID, res.PNG); err != nil {
			log.Printf("Warning: dropping thumbnail for floor %s: %v", res.FloorID, err)
		}
	}
	return nil
}

func (a *App) replay(thumbs *plan.Thumbnailer) error {
	if a.InputFile != "" {
		doc, err := plan.LoadDocument(a.InputFile)
		if err != nil {
			return err
		}
		if err := a.Editor.LoadDocument(doc); err != nil {
			return err
		}
		for _, f := range doc.Floors {
			if f.Thumbnail == nil {
				thumbs.Request(f)
			}
		}
		log.Printf("Loaded %s: %d floor(s)", a.InputFile, len(doc.Floors))
	}

	if a.ScriptFile != "" {
		script, err := plan.LoadScript(a.ScriptFile)
		if err != nil {
			return err
		}
		if err := script.Run(a.Editor, a.Config.CatalogItem); err != nil {
			return fmt.Errorf("replaying %s: %w", a.ScriptFile, err)
		}
		log.Printf("Replayed %s: %d step(s)", a.ScriptFile, len(script.Steps))
	}
	return nil
}

// RunRender writes every floor to RenderDir as raster and/or vector images
func (a *App) RunRender() error {
	if err := os.MkdirAll(a.RenderDir, 0o755); err != nil {
		return fmt.Errorf("create render directory: %w", err)
	}

	doc := a.Editor.Document()
	for _, f := range doc.Floors {
		base := filepath.Join(a.RenderDir, fmt.Sprintf("floor-%d", f.Index))

		if a.RenderFormat == "raster" || a.RenderFormat == "both" {
			r := plan.NewThumbnailRenderer(renderSize)
			r.Labels = true
			data, err := r.RenderPNG(f)
			if errors.Is(err, plan.ErrEmptyFloor) {
				fmt.Fprintf(a.Out, "Skipping %s: nothing drawn\n", f.Name)
				continue
			}
			if err != nil {
				return fmt.Errorf("rendering %s: %w", f.Name, err)
			}
			if err := os.WriteFile(base+".png", data, 0o644); err != nil {
				return fmt.Errorf("writing %s.png: %w", base, err)
			}
			fmt.Fprintf(a.Out, "Rendered %s to %s.png\n", f.Name, base)
		}

		if a.RenderFormat == "vector" || a.RenderFormat == "both" {
			if err := a.renderVector(f, base); err != nil {
				return err
			}
		}

		if len(f.Thumbnail) > 0 {
			if err := os.WriteFile(base+"-thumb.png", f.Thumbnail, 0o644); err != nil {
				return fmt.Errorf("writing thumbnail: %w", err)
			}
		}
	}
	return nil
}

func (a *App) renderVector(f plan.Floor, base string) error {
	vr := plan.NewVectorRenderer(f)
	if a.Config.Vector.GridSpacing > 0 {
		vr.GridSpacing = a.Config.Vector.GridSpacing
	}
	vr.Resolution = canvas.DPI(a.Config.Vector.Resolution)

	path := base + "." + a.VectorFormat
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() { _ = out.Close() }()

	if a.VectorFormat == "png" {
		err = vr.RenderToPNG(out)
	} else {
		err = vr.RenderToSVG(out)
	}
	if errors.Is(err, plan.ErrEmptyFloor) {
		_ = os.Remove(path)
		fmt.Fprintf(a.Out, "Skipping %s: nothing drawn\n", f.Name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	fmt.Fprintf(a.Out, "Rendered %s to %s\n", f.Name, path)
	return nil
}

// RunGeoJSON writes all floors into one FeatureCollection. Every feature
// carries the index and id of its floor.
func (a *App) RunGeoJSON() error {
	all := geojson.NewFeatureCollection()
	for _, f := range a.Editor.Document().Floors {
		for _, feat := range plan.FloorFeatureCollection(f).Features {
			feat.Properties["floorIndex"] = f.Index
			feat.Properties["floorId"] = f.ID
			all.Append(feat)
		}
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal geojson: %w", err)
	}
	if err := os.WriteFile(a.GeoJSONFile, data, 0o644); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	fmt.Fprintf(a.Out, "Wrote %d feature(s) to %s\n", len(all.Features), a.GeoJSONFile)
	return nil
}

// RunSummary prints every floor with its rooms and areas
func (a *App) RunSummary() error {
	doc := a.Editor.Document()
	for i, f := range doc.Floors {
		marker := " "
		if i == doc.CurrentFloorIndex {
			marker = "*"
		}
		fmt.Fprintf(a.Out, "%s %s (%s): %d wall(s), %d room(s), total %s\n",
			marker, f.Name, f.ID, len(f.Walls), len(f.Rooms), a.Editor.FormatArea(f.TotalArea()))
		for _, r := range f.Rooms {
			label := "Unassigned"
			if r.RoomType != "" {
				label = plan.LookupRoomType(r.RoomType).Label
			}
			fmt.Fprintf(a.Out, "    %-12s %-14s %s at (%.0f, %.0f)\n",
				label, a.Editor.FormatArea(r.Area), r.ID, r.Center.X, r.Center.Y)
		}
	}
	return nil
}

func (a *App) startPublisher() error {
	if a.MqttDryRun {
		a.dryRun = plan.NewMockClient()
		a.dryRun.SetConnected(true)
		a.Publisher = plan.NewPublisher(a.dryRun)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), mqttConnectWait)
		defer cancel()

		client := plan.InitMQTT(context.Background(), a.Config)
		if client == nil {
			return fmt.Errorf("--mqtt needs a broker (mqtt.broker or MQTT_BROKER)")
		}
		if !client.WaitConnected(ctx) {
			return fmt.Errorf("could not connect to MQTT broker within %v", mqttConnectWait)
		}
		a.MQTTClient = client
		a.Publisher = plan.NewPublisher(client.GetClient())
	}
	if os.Getenv("MQTT_PUBLISH_PREFIX") == "" {
		a.Publisher.SetPrefix(a.Config.MQTT.PublishPrefix)
	}

	runCtx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Publisher.Run(runCtx)
		close(done)
	}()
	a.stopPublisher = func() {
		stop()
		<-done
	}

	a.Editor.Subscribe(a.Publisher.Listener())
	return nil
}

// RunPublish flushes the changes queued while editing, then publishes the
// final state of every floor and disconnects. Summaries of floors deleted
// during the session are dropped from the combined topic.
func (a *App) RunPublish() error {
	if a.Publisher == nil {
		return fmt.Errorf("MQTT publisher not started")
	}
	if a.stopPublisher != nil {
		a.stopPublisher()
		a.stopPublisher = nil
	}
	if a.MQTTClient != nil {
		defer a.MQTTClient.Disconnect()
	}

	floors := a.Editor.Document().Floors
	live := make(map[string]bool, len(floors))
	for _, f := range floors {
		live[f.ID] = true
	}
	for id := range a.Publisher.GetAllSummaries() {
		if !live[id] {
			if err := a.Publisher.ClearFloor(id); err != nil {
				return err
			}
		}
	}

	for _, f := range floors {
		if err := a.Publisher.PublishFloor(f, plan.ChangeDocument); err != nil {
			return err
		}
		if err := a.Publisher.PublishThumbnail(f); err != nil {
			return err
		}
	}

	if a.dryRun != nil {
		for _, m := range a.dryRun.Messages() {
			fmt.Fprintf(a.Out, "%s (%d bytes)\n", m.Topic, len(m.Payload))
		}
	}
	fmt.Fprintf(a.Out, "Published %d floor(s)\n", len(floors))
	return nil
}

// SaveSession writes the edited document to OutputFile
func (a *App) SaveSession() error {
	if err := plan.SaveDocument(a.Editor.Document(), a.OutputFile); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Saved document to %s\n", a.OutputFile)
	return nil
}
