package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/checklist_backend/appctx"
)

var (
	ContextKeyToken         = appctx.ContextKeyToken
	ContextKeyEmployeeId    = appctx.ContextKeyEmployeeId
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
)

func GetTokenFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyToken)
}

func GetEmployeeIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyEmployeeId)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, ContextKeyToken, token)
}

func SetEmployeeIdInContext(ctx context.Context, empId string) context.Context {
	return appctx.Set(ctx, ContextKeyEmployeeId, empId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}
