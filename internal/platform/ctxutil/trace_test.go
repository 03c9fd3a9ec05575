package ctxutil

import (
	"context"
	"testing"
)

func TestTraceDataRoundTrip(t *testing.T) {
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t-1", RequestID: "r-1"})
	td := GetTraceData(ctx)
	if td == nil {
		t.Fatalf("GetTraceData: want non-nil")
	}
	if td.TraceID != "t-1" || td.RequestID != "r-1" {
		t.Fatalf("trace data: got=%+v", td)
	}
	if GetTraceData(context.Background()) != nil {
		t.Fatalf("GetTraceData on empty ctx: want nil")
	}
}
