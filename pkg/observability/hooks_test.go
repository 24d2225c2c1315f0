package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnLoadStart(ctx, "qasm")
	p.OnLoadComplete(ctx, "qasm", 12, time.Millisecond, nil)
	p.OnConvertStart(ctx, "teleport", 12)
	p.OnConvertComplete(ctx, "teleport", 20, time.Millisecond, errors.New("unknown wire"))
	p.OnExportComplete(ctx, "json", 2048, time.Millisecond, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "graph")
	c.OnCacheMiss(ctx, "graph")
	c.OnCacheSet(ctx, "graph", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/convert", "req-1")
	h.OnResponse(ctx, "POST", "/v1/convert", "req-1", 200, time.Second)
	h.OnError(ctx, "POST", "/v1/convert", "req-1", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customPipeline := &recordingPipeline{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Pipeline().OnConvertComplete(context.Background(), "bell", 9, 0, nil)
	if customPipeline.converted != 1 || customPipeline.nodes != 9 {
		t.Errorf("recorded %d conversions with %d nodes", customPipeline.converted, customPipeline.nodes)
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("Reset() should restore NoopHTTPHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	custom := &recordingPipeline{}
	SetPipelineHooks(custom)
	SetPipelineHooks(nil)
	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}
}

type recordingPipeline struct {
	NoopPipelineHooks
	converted int
	nodes     int
}

func (r *recordingPipeline) OnConvertComplete(_ context.Context, _ string, nodes int, _ time.Duration, _ error) {
	r.converted++
	r.nodes = nodes
}

type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
