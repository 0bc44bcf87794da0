package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

type mockApp struct {
	opts    AppOptions
	called  map[string]bool
	calls   []string
	loadErr error
}

func newMockApp() *mockApp {
	return &mockApp{
		called: make(map[string]bool),
	}
}

func (m *mockApp) mark(name string) {
	m.called[name] = true
	m.calls = append(m.calls, name)
}

func (m *mockApp) ApplyOptions(opts AppOptions) { m.opts = opts }
func (m *mockApp) LoadSession() error           { m.mark("LoadSession"); return m.loadErr }
func (m *mockApp) RunRender() error             { m.mark("RunRender"); return nil }
func (m *mockApp) RunGeoJSON() error            { m.mark("RunGeoJSON"); return nil }
func (m *mockApp) RunSummary() error            { m.mark("RunSummary"); return nil }
func (m *mockApp) RunPublish() error            { m.mark("RunPublish"); return nil }
func (m *mockApp) SaveSession() error           { m.mark("SaveSession"); return nil }

func TestRun_Flags(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		expectedCalled []string
		notCalled      []string
		verifyOpts     func(*testing.T, AppOptions)
	}{
		{
			name:           "ScriptDefaultsToSummary",
			args:           []string{"--script", "session.yaml"},
			expectedCalled: []string{"LoadSession", "RunSummary"},
			notCalled:      []string{"RunRender", "SaveSession", "RunPublish"},
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if opts.ScriptFile != "session.yaml" {
					t.Errorf("expected ScriptFile session.yaml, got %s", opts.ScriptFile)
				}
				if opts.ConfigFile != "config.yaml" {
					t.Errorf("expected default ConfigFile config.yaml, got %s", opts.ConfigFile)
				}
			},
		},
		{
			name:           "SaveOutput",
			args:           []string{"--input", "plan.json", "--output", "out.json"},
			expectedCalled: []string{"LoadSession", "SaveSession"},
			notCalled:      []string{"RunSummary"},
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if opts.InputFile != "plan.json" {
					t.Errorf("expected InputFile plan.json, got %s", opts.InputFile)
				}
				if opts.OutputFile != "out.json" {
					t.Errorf("expected OutputFile out.json, got %s", opts.OutputFile)
				}
			},
		},
		{
			name:           "VectorRendering",
			args:           []string{"--input", "plan.json", "--render", "--format", "vector", "--vector-format", "png", "--render-dir", "/tmp/out"},
			expectedCalled: []string{"RunRender"},
			notCalled:      []string{"RunSummary"},
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if opts.RenderFormat != "vector" {
					t.Errorf("expected RenderFormat vector, got %s", opts.RenderFormat)
				}
				if opts.VectorFormat != "png" {
					t.Errorf("expected VectorFormat png, got %s", opts.VectorFormat)
				}
				if opts.RenderDir != "/tmp/out" {
					t.Errorf("expected RenderDir /tmp/out, got %s", opts.RenderDir)
				}
			},
		},
		{
			name:           "GeoJSONWithSummary",
			args:           []string{"--script", "s.yaml", "--geojson", "plan.geojson", "--summary"},
			expectedCalled: []string{"RunGeoJSON", "RunSummary"},
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if opts.GeoJSONFile != "plan.geojson" {
					t.Errorf("expected GeoJSONFile plan.geojson, got %s", opts.GeoJSONFile)
				}
			},
		},
		{
			name:           "MqttDryRunImpliesMqtt",
			args:           []string{"--script", "s.yaml", "--mqtt-dry-run"},
			expectedCalled: []string{"RunPublish"},
			notCalled:      []string{"RunSummary"},
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if !opts.MqttMode || !opts.MqttDryRun {
					t.Error("expected MqttMode and MqttDryRun true")
				}
			},
		},
		{
			name:           "MqttMode",
			args:           []string{"--script", "s.yaml", "--mqtt", "--config", "test.yaml"},
			expectedCalled: []string{"LoadSession", "RunPublish"},
			notCalled:      []string{"RunSummary"},
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if !opts.MqttMode {
					t.Error("expected MqttMode true")
				}
				if opts.ConfigFile != "test.yaml" {
					t.Errorf("expected ConfigFile test.yaml, got %s", opts.ConfigFile)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newMockApp()
			var out bytes.Buffer
			err := run(tt.args, &out, app)
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}

			for _, name := range tt.expectedCalled {
				if !app.called[name] {
					t.Errorf("expected %s to be called", name)
				}
			}
			for _, name := range tt.notCalled {
				if app.called[name] {
					t.Errorf("expected %s not to be called", name)
				}
			}

			if tt.verifyOpts != nil {
				tt.verifyOpts(t, app.opts)
			}
		})
	}
}

func TestRun_Order(t *testing.T) {
	app := newMockApp()
	var out bytes.Buffer
	args := []string{"--script", "s.yaml", "--render", "--geojson", "g.json", "--summary", "--mqtt", "--output", "o.json"}
	if err := run(args, &out, app); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := []string{"LoadSession", "RunRender", "RunGeoJSON", "RunSummary", "RunPublish", "SaveSession"}
	if strings.Join(app.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", app.calls, want)
	}
}

func TestRun_InvalidFormats(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"render format", []string{"--script", "s.yaml", "--format", "bitmap"}},
		{"vector format", []string{"--script", "s.yaml", "--vector-format", "pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newMockApp()
			var out bytes.Buffer
			if err := run(tt.args, &out, app); err == nil {
				t.Error("expected error for invalid format")
			}
			if app.called["LoadSession"] {
				t.Error("session should not load with invalid options")
			}
		})
	}
}

func TestRun_LoadError(t *testing.T) {
	app := newMockApp()
	app.loadErr = errors.New("boom")
	var out bytes.Buffer
	err := run([]string{"--input", "x.json", "--output", "y.json"}, &out, app)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected load error, got %v", err)
	}
	if app.called["SaveSession"] {
		t.Error("SaveSession should not run after a failed load")
	}
}

func TestRun_Help(t *testing.T) {
	app := newMockApp()
	var out bytes.Buffer
	err := run([]string{"--help"}, &out, app)
	if err == nil {
		t.Error("expected error from --help, got nil")
	}
	if !strings.Contains(out.String(), "Usage of floormesh") {
		t.Errorf("expected usage info in output, got: %s", out.String())
	}
}

func TestRun_Default(t *testing.T) {
	app := newMockApp()
	var out bytes.Buffer
	err := run([]string{}, &out, app)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	expectedPrefix := "floormesh version: " + Version
	if !strings.Contains(out.String(), expectedPrefix) {
		t.Errorf("expected output to contain version, got: %s", out.String())
	}

	if !strings.Contains(out.String(), "Nothing to do") {
		t.Errorf("expected output to explain usage, got: %s", out.String())
	}
	if len(app.calls) != 0 {
		t.Errorf("expected no calls, got %v", app.calls)
	}
}

func TestMain_Execute(t *testing.T) {
	// Smoke test to ensure version is set
	if Version == "" {
		t.Error("expected Version to be set")
	}
}
