package xmetrics_test

import (
	"context"
	"fmt"

	"github.com/omeyang/xtracemeta/pkg/context/xctx"
	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
	"github.com/omeyang/xtracemeta/pkg/observability/xmetrics"
)

func ExampleStart() {
	obs, err := xmetrics.NewOTelObserver()
	if err != nil {
		fmt.Println(err)
		return
	}

	parent := xmeta.MustParse("2b:0102030405060708090a0b0c0d0e0f1011121314:a1a2a3a4a5a6a7a8:01")
	ctx, _ := xctx.WithTraceMetadata(context.Background(), parent)

	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{Component: "billing", Operation: "charge"})
	defer span.End(xmetrics.Result{})

	child := xctx.TraceMetadata(ctx)
	fmt.Println(child.Equal(span.TraceMetadata()))
	fmt.Println(string(child.TaskID()) == string(parent.TaskID()), child.IsSampled())
	// Output:
	// true
	// true true
}
