// Package xconf 基于 koanf 的最小化配置加载器。
//
// 负责文件/字节数据的加载、反序列化和热重载；不负责必选字段校验与默认值注入，
// 调用方先填好默认值再 Unmarshal 覆盖即可（见 cmd/xmetactl）。
//
// # 格式
//
//   - YAML：.yaml, .yml
//   - JSON：.json
//
// # 并发
//
// Reload 串行执行，解析成功后原子替换 koanf 实例；解析失败保留旧配置。
// Client 返回当前快照，Reload 之后旧快照不会更新。
//
// # Unmarshal
//
// 使用 koanf 默认的 mapstructure 解码，允许弱类型转换：
// 字符串 "8080" 可解码为 int，字符串 "5m" 可解码为 time.Duration。
//
// # 监视
//
//	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) { ... })
//	w.Start()
//	defer w.Stop()
package xconf
