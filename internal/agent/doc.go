// Package agent 将 Agent 地址（DID、资产 DID 或 URL）解析为 DDO 文档。
//
// 解析按固定顺序尝试各个策略：先查询链上 DID 注册表，再通过带认证的 HTTP
// 请求获取远程文档。所有策略都未找到时返回 nil，而传输失败会作为错误返回。
package agent
