package errors

import "google.golang.org/grpc/codes"

// NLQ 服务代码: 21 (业务服务范围 20-79)

var (
	// 请求错误 (类别 01)
	ErrNLQInvalidRequest      = Register(New(MakeCode(ServiceNLQ, CategoryRequest, 1), 400, codes.InvalidArgument, "Invalid request parameters", "请求参数无效"))
	ErrNLQNotReady            = Register(New(MakeCode(ServiceNLQ, CategoryRequest, 2), 400, codes.FailedPrecondition, "Database connection not initialized", "数据库连接未初始化"))
	ErrNLQUnsupportedDialect  = Register(New(MakeCode(ServiceNLQ, CategoryRequest, 3), 400, codes.InvalidArgument, "Unsupported database dialect", "不支持的数据库方言"))
	ErrNLQUnsupportedFileType = Register(New(MakeCode(ServiceNLQ, CategoryRequest, 4), 400, codes.InvalidArgument, "Unsupported file type", "不支持的文件类型"))
	ErrNLQConnectFailed       = Register(New(MakeCode(ServiceNLQ, CategoryRequest, 5), 400, codes.InvalidArgument, "Database connection failed", "数据库连接失败"))

	// 资源错误 (类别 04)
	ErrNLQJobNotFound       = Register(New(MakeCode(ServiceNLQ, CategoryResource, 1), 404, codes.NotFound, "Job not found", "任务不存在"))
	ErrNLQSchemaUnavailable = Register(New(MakeCode(ServiceNLQ, CategoryResource, 2), 404, codes.NotFound, "Schema not available", "数据库结构不可用"))

	// 内部错误 (类别 07)
	ErrNLQQueryFailed  = Register(New(MakeCode(ServiceNLQ, CategoryInternal, 1), 500, codes.Internal, "Query failed", "查询失败"))
	ErrNLQIngestFailed = Register(New(MakeCode(ServiceNLQ, CategoryInternal, 2), 500, codes.Internal, "Document ingestion failed", "文档入库失败"))
)
