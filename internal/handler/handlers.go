// Package handler is the HTTP layer. It binds and validates requests, calls
// the services and writes their results.
package handler

import (
	"github.com/kryptonation/creamrun-sub000/internal/server"
	"github.com/kryptonation/creamrun-sub000/internal/service"
)

type Handlers struct {
	Health       *HealthHandler
	OpenAPI      *OpenAPIHandler
	EmailPreview *EmailPreviewHandler
	Vehicle      *VehicleHandler
	Medallion    *MedallionHandler
	Driver       *DriverHandler
	Lease        *LeaseHandler
	Expense      *ExpenseHandler
	Document     *DocumentHandler
	Case         *CaseHandler
	Report       *ReportHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(s),
		OpenAPI:      NewOpenAPIHandler(s),
		EmailPreview: NewEmailPreviewHandler(s),
		Vehicle:      NewVehicleHandler(s, services.Vehicle),
		Medallion:    NewMedallionHandler(s, services.Medallion),
		Driver:       NewDriverHandler(s, services.Driver),
		Lease:        NewLeaseHandler(s, services.Lease),
		Expense:      NewExpenseHandler(s, services.Expense),
		Document:     NewDocumentHandler(s, services.Document),
		Case:         NewCaseHandler(s, services.Cases),
		Report:       NewReportHandler(s, services.Report),
	}
}
