// Package http implements the HTTP handlers of the dashboard. Handlers are a
// thin layer over the services package: they parse the request, call one
// service method and format the response.
//
// # Routes
//
//	GET /api/dashboard/entities                    companies and the default selection
//	GET /api/dashboard/trend                       observed price line per company
//	GET /api/dashboard/correlation?align=          heatmap payload
//	GET /api/dashboard/prediction/{entity}         history and stitched prediction
//	GET /api/dashboard/predictions                 every company's prediction
//	GET /api/dashboard/export/{view}.{format}      CSV or XLSX download
//	GET /api/health, /api/health/ready, /api/health/live, /api/version
//	GET /metrics                                   Prometheus scrape
//
// Successful JSON responses are wrapped as {"status":"success","data":...}.
//
// # Error Handling
//
// Service errors are mapped to APIErrors and written as RFC 7807 problem
// documents by errors.ErrorHandler:
//
//	{
//	    "type": "/errors/data/no-history",
//	    "title": "Unprocessable Entity",
//	    "status": 422,
//	    "detail": "Company \"Daewoo\" has no price history to anchor its prediction",
//	    "instance": "/api/dashboard/prediction/Daewoo",
//	    "error_code": "NO_HISTORY"
//	}
//
// # Testing
//
// Handlers are tested with httptest against a testify mock of
// DashboardServiceInterface.
package http
