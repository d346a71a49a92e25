package testutil

import (
	"context"
	"reflect"
	"sync"

	"github.com/specialistvlad/leafletmm/internal/geojson"
	"github.com/specialistvlad/leafletmm/internal/record"
	"github.com/specialistvlad/leafletmm/internal/registry"
	"github.com/specialistvlad/leafletmm/internal/renderer"
)

// RecordingConfig is the body of a recording renderer block.
type RecordingConfig struct {
	Deferred bool `hcl:"deferred,optional"`
}

// Call is one LoadData invocation seen by a recording renderer.
type Call struct {
	Layer    string
	Item     string
	Deferred bool
}

// Recorder collects the calls of every recording renderer it created.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

// Calls returns a copy of the recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

// RecordingModule registers a renderer kind that appends nothing and
// records every call. It does not register a layer type; combine it with
// the core modules.
func RecordingModule(kind string, rec *Recorder) *SimpleModule {
	return &SimpleModule{
		RendererKind: kind,
		Renderer: &registry.RegisteredRenderer{
			NewConfig:  func() any { return new(RecordingConfig) },
			ConfigType: reflect.TypeOf(RecordingConfig{}),
			New: func(deps renderer.Deps, cfg any) (renderer.Renderer, error) {
				return &recordingRenderer{rec: rec}, nil
			},
		},
	}
}

type recordingRenderer struct {
	rec *Recorder
}

func (r *recordingRenderer) LoadData(_ context.Context, item record.Item, _ *geojson.FeatureCollection, req renderer.Request) error {
	r.rec.record(Call{Layer: req.ParentID, Item: item.ID(), Deferred: req.Deferred})
	return nil
}
