package xctx_test

import (
	"context"
	"fmt"

	"github.com/omeyang/xtracemeta/pkg/context/xctx"
	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
)

// Example_quickStart 演示请求入口补全追踪信息，业务代码读取。
func Example_quickStart() {
	ctx := context.Background()

	// 上游未传递时自动生成
	ctx, _ = xctx.EnsureTrace(ctx, xmeta.WithSampled(true))

	md := xctx.TraceMetadata(ctx)
	fmt.Println("valid:", md.IsValid())
	fmt.Println("sampled:", md.IsSampled())
	fmt.Println("request id set:", xctx.RequestID(ctx) != "")

	// Output:
	// valid: true
	// sampled: true
	// request id set: true
}

// ExampleProvider 演示把 context 交给只依赖 xmeta.Provider 的组件。
func ExampleProvider() {
	md := xmeta.MustParse("20:01020304:05060708:00")
	ctx, _ := xctx.WithTraceMetadata(context.Background(), md)

	current := xmeta.FromProvider(xctx.Provider(ctx))
	fmt.Println(current)

	// Output:
	// 20010203040506070800
}
