package nats

// NATS Subject 常量定义
const (
	// SubjectLogicUpstream Access -> Logic 上行指令
	SubjectLogicUpstream = "hanakoi.logic.upstream"

	// SubjectAccessDownstreamPrefix Logic -> Access 下行事件前缀
	// 完整格式: hanakoi.access.{node_id}.downstream
	SubjectAccessDownstreamPrefix = "hanakoi.access."
	SubjectAccessDownstreamSuffix = ".downstream"

	// QueueGroupLogic Logic 服务队列组名称
	QueueGroupLogic = "hanakoi-logic"
)

// BuildAccessDownstreamSubject 构建 Access 节点下行 Subject
func BuildAccessDownstreamSubject(nodeID string) string {
	return SubjectAccessDownstreamPrefix + nodeID + SubjectAccessDownstreamSuffix
}
