// Package router builds the Echo instance: global middleware, system routes
// and the authenticated /api/v1 group.
package router

import (
	"net/http"

	"github.com/kryptonation/creamrun-sub000/internal/handler"
	"github.com/kryptonation/creamrun-sub000/internal/lib/export"
	"github.com/kryptonation/creamrun-sub000/internal/middleware"
	"github.com/kryptonation/creamrun-sub000/internal/server"
	"github.com/kryptonation/creamrun-sub000/internal/service"
	"github.com/labstack/echo/v4"
)

func NewRouter(s *server.Server, h *handler.Handlers, services *service.Services) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middlewares.Global.BodyLimit(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		s.Metrics.Middleware(),
	)

	registerSystemRoutes(router, s, h)

	auth := middlewares.Auth.RequireAuth
	if services.Auth.Disabled() {
		s.Logger.Warn().Msg("API authentication is disabled")
		auth = middlewares.Auth.AllowAnonymous
	}

	// The context enhancer runs again so the request logger carries the user.
	v1 := router.Group("/api/v1",
		middlewares.RateLimit.Limit(),
		auth,
		middlewares.ContextEnhancer.EnhanceContext(),
	)
	registerVehicleRoutes(v1, h.Vehicle)
	registerMedallionRoutes(v1, h.Medallion)
	registerDriverRoutes(v1, h.Driver)
	registerLeaseRoutes(v1, h.Lease)
	registerExpenseRoutes(v1, h.Expense)
	registerDocumentRoutes(v1, h.Document)
	registerCaseRoutes(v1, h.Case)
	registerReportRoutes(v1, h.Report)

	return router
}

func registerVehicleRoutes(g *echo.Group, h *handler.VehicleHandler) {
	vehicles := g.Group("/vehicles")
	vehicles.GET("", handler.Handle(h.Handler, h.Search, http.StatusOK, &handler.SearchVehiclesRequest{}))
	vehicles.POST("", handler.Handle(h.Handler, h.Create, http.StatusCreated, &handler.CreateVehicleRequest{}))
	vehicles.GET("/export", handler.HandleFile(h.Handler, h.Export, http.StatusOK, &handler.SearchVehiclesRequest{}, "vehicles", export.ContentType))
	vehicles.GET("/:id", handler.Handle(h.Handler, h.Get, http.StatusOK, &handler.IDRequest{}))
	vehicles.PATCH("/:id", handler.Handle(h.Handler, h.Update, http.StatusOK, &handler.UpdateVehicleRequest{}))
	vehicles.POST("/:id/transition", handler.Handle(h.Handler, h.Transition, http.StatusOK, &handler.TransitionVehicleRequest{}))
	vehicles.POST("/:id/medallion", handler.Handle(h.Handler, h.AssignMedallion, http.StatusOK, &handler.AssignMedallionRequest{}))
	vehicles.DELETE("/:id/medallion", handler.Handle(h.Handler, h.UnassignMedallion, http.StatusOK, &handler.IDRequest{}))
	vehicles.GET("/:id/hackup-tasks", handler.Handle(h.Handler, h.ListHackupTasks, http.StatusOK, &handler.IDRequest{}))
	vehicles.POST("/:id/hackup-tasks", handler.Handle(h.Handler, h.EnsureHackupTasks, http.StatusCreated, &handler.IDRequest{}))

	g.PATCH("/hackup-tasks/:id", handler.Handle(h.Handler, h.UpdateHackupTask, http.StatusOK, &handler.UpdateHackupTaskRequest{}))
}

func registerMedallionRoutes(g *echo.Group, h *handler.MedallionHandler) {
	medallions := g.Group("/medallions")
	medallions.GET("", handler.Handle(h.Handler, h.Search, http.StatusOK, &handler.SearchMedallionsRequest{}))
	medallions.POST("", handler.Handle(h.Handler, h.Create, http.StatusCreated, &handler.CreateMedallionRequest{}))
	medallions.GET("/export", handler.HandleFile(h.Handler, h.Export, http.StatusOK, &handler.SearchMedallionsRequest{}, "medallions", export.ContentType))
	medallions.GET("/:id", handler.Handle(h.Handler, h.Get, http.StatusOK, &handler.IDRequest{}))
	medallions.PATCH("/:id", handler.Handle(h.Handler, h.Update, http.StatusOK, &handler.UpdateMedallionRequest{}))

	entities := g.Group("/entities")
	entities.GET("", handler.Handle(h.Handler, h.SearchEntities, http.StatusOK, &handler.SearchEntitiesRequest{}))
	entities.POST("", handler.Handle(h.Handler, h.CreateEntity, http.StatusCreated, &handler.CreateEntityRequest{}))
	entities.GET("/:id", handler.Handle(h.Handler, h.GetEntity, http.StatusOK, &handler.IDRequest{}))
}

func registerDriverRoutes(g *echo.Group, h *handler.DriverHandler) {
	drivers := g.Group("/drivers")
	drivers.GET("", handler.Handle(h.Handler, h.Search, http.StatusOK, &handler.SearchDriversRequest{}))
	drivers.POST("", handler.Handle(h.Handler, h.Register, http.StatusCreated, &handler.RegisterDriverRequest{}))
	drivers.GET("/export", handler.HandleFile(h.Handler, h.Export, http.StatusOK, &handler.SearchDriversRequest{}, "drivers", export.ContentType))
	drivers.GET("/:id", handler.Handle(h.Handler, h.Get, http.StatusOK, &handler.IDRequest{}))
	drivers.PATCH("/:id", handler.Handle(h.Handler, h.Update, http.StatusOK, &handler.UpdateDriverRequest{}))
	drivers.POST("/:id/activate", handler.Handle(h.Handler, h.Activate, http.StatusOK, &handler.IDRequest{}))
	drivers.POST("/:id/suspend", handler.Handle(h.Handler, h.Suspend, http.StatusOK, &handler.IDRequest{}))
	drivers.POST("/:id/deactivate", handler.Handle(h.Handler, h.Deactivate, http.StatusOK, &handler.IDRequest{}))
}

func registerLeaseRoutes(g *echo.Group, h *handler.LeaseHandler) {
	leases := g.Group("/leases")
	leases.GET("", handler.Handle(h.Handler, h.Search, http.StatusOK, &handler.SearchLeasesRequest{}))
	leases.POST("", handler.Handle(h.Handler, h.Create, http.StatusCreated, &handler.CreateLeaseRequest{}))
	leases.GET("/export", handler.HandleFile(h.Handler, h.Export, http.StatusOK, &handler.SearchLeasesRequest{}, "leases", export.ContentType))
	leases.GET("/rates", handler.Handle(h.Handler, h.Rates, http.StatusOK, &handler.NoRequest{}))
	leases.POST("/preview", handler.Handle(h.Handler, h.Preview, http.StatusOK, &handler.CreateLeaseRequest{}))
	leases.GET("/:id", handler.Handle(h.Handler, h.Get, http.StatusOK, &handler.IDRequest{}))
	leases.POST("/:id/activate", handler.Handle(h.Handler, h.Activate, http.StatusOK, &handler.IDRequest{}))
	leases.POST("/:id/terminate", handler.Handle(h.Handler, h.Terminate, http.StatusOK, &handler.TerminateLeaseRequest{}))
	leases.POST("/:id/renew", handler.Handle(h.Handler, h.Renew, http.StatusOK, &handler.IDRequest{}))
	leases.GET("/:id/installments", handler.Handle(h.Handler, h.Installments, http.StatusOK, &handler.IDRequest{}))
	leases.GET("/:id/renewals", handler.Handle(h.Handler, h.Renewals, http.StatusOK, &handler.IDRequest{}))
}

func registerExpenseRoutes(g *echo.Group, h *handler.ExpenseHandler) {
	expenses := g.Group("/expenses")
	expenses.GET("", handler.Handle(h.Handler, h.Search, http.StatusOK, &handler.SearchExpensesRequest{}))
	expenses.POST("", handler.Handle(h.Handler, h.Create, http.StatusCreated, &handler.CreateExpenseRequest{}))
	expenses.GET("/export", handler.HandleFile(h.Handler, h.Export, http.StatusOK, &handler.SearchExpensesRequest{}, "expenses", export.ContentType))
	expenses.GET("/summary", handler.Handle(h.Handler, h.Summary, http.StatusOK, &handler.ExpenseSummaryRequest{}))
	expenses.GET("/compliance", handler.Handle(h.Handler, h.Compliance, http.StatusOK, &handler.ComplianceRequest{}))
	expenses.GET("/:id", handler.Handle(h.Handler, h.Get, http.StatusOK, &handler.IDRequest{}))
	expenses.PATCH("/:id/status", handler.Handle(h.Handler, h.UpdateStatus, http.StatusOK, &handler.UpdateExpenseStatusRequest{}))
}

func registerDocumentRoutes(g *echo.Group, h *handler.DocumentHandler) {
	documents := g.Group("/documents")
	documents.GET("", handler.Handle(h.Handler, h.List, http.StatusOK, &handler.ListDocumentsRequest{}))
	documents.POST("", handler.Handle(h.Handler, h.Upload, http.StatusCreated, &handler.UploadDocumentRequest{}))
	documents.GET("/:id", handler.Handle(h.Handler, h.Get, http.StatusOK, &handler.IDRequest{}))
	documents.DELETE("/:id", handler.HandleNoContent(h.Handler, h.Delete, http.StatusNoContent, &handler.IDRequest{}))
}

func registerCaseRoutes(g *echo.Group, h *handler.CaseHandler) {
	cases := g.Group("/cases")
	cases.GET("/types", handler.Handle(h.Handler, h.Types, http.StatusOK, &handler.NoRequest{}))
	cases.POST("", handler.Handle(h.Handler, h.Create, http.StatusCreated, &handler.CreateCaseRequest{}))
	cases.GET("/:case_no", handler.Handle(h.Handler, h.Get, http.StatusOK, &handler.CaseRequest{}))
	cases.POST("/:case_no/cancel", handler.Handle(h.Handler, h.Cancel, http.StatusOK, &handler.CaseRequest{}))
	cases.GET("/:case_no/steps/:step_id", handler.Handle(h.Handler, h.FetchStep, http.StatusOK, &handler.StepRequest{}))
	cases.POST("/:case_no/steps/:step_id", handler.Handle(h.Handler, h.ProcessStep, http.StatusOK, &handler.ProcessStepRequest{}))
}

func registerReportRoutes(g *echo.Group, h *handler.ReportHandler) {
	reports := g.Group("/reports")
	reports.GET("/fleet", handler.Handle(h.Handler, h.Fleet, http.StatusOK, &handler.NoRequest{}))
	reports.GET("/leases", handler.Handle(h.Handler, h.Leases, http.StatusOK, &handler.NoRequest{}))
}
