package logger

// Field names shared by every log line.
const (
	FieldService   = "service"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldRequestID = "request_id"
	FieldUserID    = "user_id"
	FieldSessionID = "session_id"
	FieldViewID    = "view_id"
	FieldEntity    = "entity"
)
