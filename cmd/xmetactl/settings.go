package main

import (
	"github.com/omeyang/xtracemeta/pkg/config/xconf"
	"github.com/omeyang/xtracemeta/pkg/observability/xmeta"
	"github.com/omeyang/xtracemeta/pkg/observability/xtrace"
)

// settings 配置文件结构，字段均有默认值，配置文件只需覆盖关心的部分。
//
//	log:
//	  level: info
//	  format: text
//	  file: /var/log/xmetactl.log
//	generator:
//	  task_id_len: 20
//	  op_id_len: 8
//	trace:
//	  sample_rate: 0.1
//	  key_based: true
//	serve:
//	  addr: 127.0.0.1:8080
type settings struct {
	Log       logSettings       `koanf:"log"`
	Generator generatorSettings `koanf:"generator"`
	Trace     xtrace.Config     `koanf:"trace"`
	Serve     serveSettings     `koanf:"serve"`
}

type logSettings struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

type generatorSettings struct {
	TaskIDLen int `koanf:"task_id_len"`
	OpIDLen   int `koanf:"op_id_len"`
}

type serveSettings struct {
	Addr string `koanf:"addr"`
}

func defaultSettings() settings {
	return settings{
		Log: logSettings{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 7,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Generator: generatorSettings{
			TaskIDLen: xmeta.DefaultTaskIDLen,
			OpIDLen:   xmeta.DefaultOpIDLen,
		},
		Trace: xtrace.DefaultConfig(),
		Serve: serveSettings{Addr: "127.0.0.1:8080"},
	}
}

// loadSettings 在默认值之上叠加配置文件，path 为空时只返回默认值。
func loadSettings(path string) (settings, xconf.Config, error) {
	s := defaultSettings()
	if path == "" {
		return s, nil, nil
	}
	cfg, err := xconf.New(path)
	if err != nil {
		return s, nil, err
	}
	if err := cfg.Unmarshal("", &s); err != nil {
		return s, nil, err
	}
	return s, cfg, nil
}

// newGenerator 按配置长度创建生成器。
func (s settings) newGenerator() (*xmeta.Generator, error) {
	return xmeta.NewGenerator(xmeta.WithIDLengths(s.Generator.TaskIDLen, s.Generator.OpIDLen))
}
