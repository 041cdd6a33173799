// Package logger provides a singleton Zap logger with context-based scoping.
//
// Initialize once in main:
//
//	logger.Init(logger.Config{Env: "prod", Level: "info"})
//	defer logger.Sync()
//
// In services and controllers, prefer the context-scoped logger so that
// request fields (request_id, client_ip) propagate automatically:
//
//	log := logger.From(ctx)
//	log.Info("login successful", logger.AccountID(id))
//
// "dev" renders colored console output, "prod" renders JSON.
package logger
