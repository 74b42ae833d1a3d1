package xmetrics

import "errors"

var (
	// ErrCreateInstrument 创建 OTel 仪表失败
	ErrCreateInstrument = errors.New("xmetrics: create instrument failed")

	// ErrNilDiagnostics RegisterDiagnostics 的计数器为 nil
	ErrNilDiagnostics = errors.New("xmetrics: nil diagnostics")

	// ErrNilMeter RegisterDiagnostics 的 meter 为 nil
	ErrNilMeter = errors.New("xmetrics: nil meter")
)
