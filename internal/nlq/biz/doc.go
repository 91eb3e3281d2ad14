// Package biz 提供 NLQ 服务的业务逻辑层。
//
// 组件划分：
//   - Classify / GenerateSQL: 查询分类与启发式 SQL 生成
//   - Engine: 缓存、分类、SQL 与文档两条路径并发执行后合并结果
//   - ResultCache: 查询结果缓存（内存 LRU 或 Redis）
//   - Pipeline: 文档摄取任务（抽取、分块、嵌入、入库）
//   - AppContext: 持有以上组件，供 handler 使用
package biz
