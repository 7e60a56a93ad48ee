package vectordb

import (
	domainmiddleware "github.com/felixgeelhaar/agent-go/domain/middleware"
	"github.com/felixgeelhaar/agent-go/infrastructure/security/validation"
)

// SecurityMiddleware returns middleware that rejects vector-store tool
// calls whose id/text fields carry SQL-injection or path-traversal
// payloads before they reach the store. It is not part of
// application.DefaultToolMiddleware, since it only knows about this
// pack's tool names; callers that register Tools should append it to
// their own ToolMiddleware chain.
func SecurityMiddleware() domainmiddleware.Middleware {
	return validation.ValidationMiddleware(map[string]*validation.Schema{
		"vector_upsert": validation.NewSchema().
			AddRule("memory_id", validation.NoPathTraversal()).
			AddRule("memory_id", validation.NoSQLInjection()).
			AddRule("text", validation.Required()),
		"vector_query": validation.NewSchema().
			AddRule("query", validation.Required()).
			AddRule("query", validation.NoSQLInjection()),
		"vector_delete": validation.NewSchema().
			AddRule("id", validation.Required()).
			AddRule("id", validation.NoPathTraversal()).
			AddRule("id", validation.NoSQLInjection()),
		"vector_list": validation.NewSchema().
			AddRule("id_prefix", validation.NoPathTraversal()).
			AddRule("id_prefix", validation.NoSQLInjection()),
	})
}
