package handler

type ContextKey string

var (
	RoleCtxKey   ContextKey = "role"
	SubCtxKey    ContextKey = "sub"
	UserInfoCtx  ContextKey = "userInfo"
	StaffCtx     ContextKey = "staff"
	StudentCtx   ContextKey = "student"
	ClassroomCtx ContextKey = "classroom"
	ExamCtx      ContextKey = "exam"
)
