// Package xsampling 为入口处新生成的 X-Trace 元数据提供采样决策。
//
// Sampler.ShouldSample(ctx) 的结果写入元数据 flags 的 sampled 位，
// 下游服务直接沿用该位，不再重新决策。
//
// # 策略
//
//   - Always() / Never(): 固定决策
//   - NewRateSampler(rate): 随机比率采样
//   - NewCountSampler(n): 每 n 条采样 1 条
//   - NewKeyBasedSampler(rate, keyFunc): 基于 key 的一致性采样（xxhash）
//   - NewTaskIDSampler(rate): 以 task id 为 key 的一致性采样
//   - All() / Any(): AND / OR 组合
//
// # 与元数据的衔接
//
//	md := xsampling.Decide(ctx, sampler, xmeta.Generate())
//
// Decide 先把 md 注入 ctx 再调用 ShouldSample，
// 使 TaskIDKey 能读取 task id，同一 task id 在所有进程中决策一致。
//
// 所有采样器都可安全并发使用。
package xsampling
