package errors

// 服务代码 (AA)
const (
	ServiceCommon = 0
	ServiceNLQ    = 21
)

// 类别代码 (BB)
const (
	CategorySuccess    = 0
	CategoryRequest    = 1
	CategoryAuth       = 2
	CategoryPermission = 3
	CategoryResource   = 4
	CategoryConflict   = 5
	CategoryRateLimit  = 6
	CategoryInternal   = 7
	CategoryDatabase   = 8
	CategoryCache      = 9
	CategoryNetwork    = 10
	CategoryTimeout    = 11
	CategoryConfig     = 12
)

// MakeCode builds an AABBCCC code.
func MakeCode(service, category, sequence int) int {
	return service*100000 + category*1000 + sequence
}

// ParseCode splits a code into service, category and sequence.
func ParseCode(code int) (service, category, sequence int) {
	return code / 100000, (code % 100000) / 1000, code % 1000
}

// GetCategory returns the BB part of a code.
func GetCategory(code int) int {
	_, category, _ := ParseCode(code)
	return category
}

// IsClientError reports whether the code belongs to a 4xx category.
func IsClientError(code int) bool {
	c := GetCategory(code)
	return c >= CategoryRequest && c <= CategoryRateLimit
}

// IsServerError reports whether the code belongs to a 5xx category.
func IsServerError(code int) bool {
	c := GetCategory(code)
	return c >= CategoryInternal && c <= CategoryConfig
}
