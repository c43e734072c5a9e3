package service

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/bpm"
	"github.com/kryptonation/creamrun-sub000/internal/errs"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/kryptonation/creamrun-sub000/internal/validation"
	"github.com/shopspring/decimal"
)

const (
	CaseTypeNewVehicle         = "new_vehicle"
	CaseTypeNewLease           = "new_lease"
	CaseTypeDriverRegistration = "driver_registration"

	// LicenseDocumentType is the document type DR-302 looks for.
	LicenseDocumentType = "license"
)

// pickerLimit caps the options a step form offers.
const pickerLimit = 100

// RegisterFlows adds the onboarding workflows to the engine.
func RegisterFlows(e *bpm.Engine, s *Services) error {
	for _, f := range []bpm.Flow{newVehicleFlow(s), newLeaseFlow(s), driverRegistrationFlow(s)} {
		if err := e.Register(f); err != nil {
			return err
		}
	}
	return nil
}

func caseID(c *model.Case, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.StringData(key))
	if err != nil {
		return uuid.Nil, errs.NewRuleError("CASE_DATA_MISSING", fmt.Sprintf("Case %s has no %s yet", c.CaseNo, key))
	}
	return id, nil
}

func data(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

// new_vehicle: purchase, delivery, hack-up, registration, medallion.

type purchaseStep struct {
	VIN           string            `json:"vin" validate:"required,len=17,alphanum"`
	Make          string            `json:"make" validate:"required,max=50"`
	Model         string            `json:"model" validate:"required,max=50"`
	ModelYear     int               `json:"model_year" validate:"required,min=1990,max=2100"`
	VehicleType   model.VehicleType `json:"vehicle_type" validate:"required,oneof=regular hybrid wav ev"`
	PurchasePrice decimal.Decimal   `json:"purchase_price"`
	PurchaseDate  civil.Date        `json:"purchase_date"`
}

func (p *purchaseStep) Validate() error {
	if err := validation.Struct(p); err != nil {
		return err
	}
	if p.PurchasePrice.IsNegative() {
		return validation.CustomValidationErrors{{Field: "purchase_price", Message: "must not be negative"}}
	}
	if !p.PurchaseDate.IsValid() {
		return validation.CustomValidationErrors{{Field: "purchase_date", Message: "is required"}}
	}
	return nil
}

type deliveryStep struct {
	Delivered bool `json:"delivered" validate:"required"`
}

func (p *deliveryStep) Validate() error { return validation.Struct(p) }

type hackupTaskUpdate struct {
	ID     uuid.UUID               `json:"id" validate:"required"`
	Status *model.HackupTaskStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Vendor *string                 `json:"vendor" validate:"omitempty,max=100"`
	Cost   *decimal.Decimal        `json:"cost"`
	Notes  *string                 `json:"notes"`
}

type hackupStep struct {
	Tasks []hackupTaskUpdate `json:"tasks" validate:"dive"`
}

func (p *hackupStep) Validate() error { return validation.Struct(p) }

type registrationStep struct {
	PlateNumber        string     `json:"plate_number" validate:"required,max=10"`
	RegistrationExpiry civil.Date `json:"registration_expiry"`
}

func (p *registrationStep) Validate() error {
	if err := validation.Struct(p); err != nil {
		return err
	}
	if !p.RegistrationExpiry.IsValid() {
		return validation.CustomValidationErrors{{Field: "registration_expiry", Message: "is required"}}
	}
	return nil
}

type medallionStep struct {
	MedallionID uuid.UUID `json:"medallion_id" validate:"required"`
}

func (p *medallionStep) Validate() error { return validation.Struct(p) }

func newVehicleFlow(s *Services) bpm.Flow {
	vehicleOf := func(ctx context.Context, c *model.Case) (*model.Vehicle, error) {
		id, err := caseID(c, "vehicle_id")
		if err != nil {
			return nil, err
		}
		return s.Vehicle.Get(ctx, id)
	}
	fetchVehicle := func(ctx context.Context, c *model.Case) (any, error) {
		return vehicleOf(ctx, c)
	}

	return bpm.Flow{
		CaseType: CaseTypeNewVehicle,
		Prefix:   "NVEH",
		Steps: []bpm.Step{
			{
				ID:   "NV-101",
				Name: "Purchase details",
				Fetch: func(ctx context.Context, c *model.Case) (any, error) {
					if c.StringData("vehicle_id") != "" {
						return vehicleOf(ctx, c)
					}
					return data("vehicle_types", []model.VehicleType{
						model.VehicleTypeRegular, model.VehicleTypeHybrid, model.VehicleTypeWAV, model.VehicleTypeEV,
					}), nil
				},
				Process: func(ctx context.Context, c *model.Case, payload map[string]any) (bpm.StepResult, error) {
					var p purchaseStep
					if err := validation.DecodeMap(payload, &p); err != nil {
						return bpm.StepResult{}, err
					}
					v, err := s.Vehicle.Create(ctx, CreateVehicleInput{
						VIN:           p.VIN,
						Make:          p.Make,
						Model:         p.Model,
						ModelYear:     p.ModelYear,
						VehicleType:   p.VehicleType,
						PurchasePrice: p.PurchasePrice,
						PurchaseDate:  p.PurchaseDate,
					})
					if err != nil {
						return bpm.StepResult{}, err
					}
					return bpm.StepResult{Data: data("vehicle_id", v.ID.String(), "vin", v.VIN)}, nil
				},
			},
			{
				ID:    "NV-102",
				Name:  "Delivery confirmation",
				Fetch: fetchVehicle,
				Process: func(ctx context.Context, c *model.Case, payload map[string]any) (bpm.StepResult, error) {
					var p deliveryStep
					if err := validation.DecodeMap(payload, &p); err != nil {
						return bpm.StepResult{}, err
					}
					vehicleID, err := caseID(c, "vehicle_id")
					if err != nil {
						return bpm.StepResult{}, err
					}
					// Delivery starts the hack-up and seeds its tasks.
					if _, err := s.Vehicle.Deliver(ctx, vehicleID); err != nil {
						return bpm.StepResult{}, err
					}
					return bpm.StepResult{}, nil
				},
			},
			{
				ID:   "NV-103",
				Name: "Hack-up",
				Fetch: func(ctx context.Context, c *model.Case) (any, error) {
					id, err := caseID(c, "vehicle_id")
					if err != nil {
						return nil, err
					}
					tasks, err := s.Vehicle.ListHackupTasks(ctx, id)
					if err != nil {
						return nil, err
					}
					return data("tasks", tasks, "complete", model.HackupComplete(tasks)), nil
				},
				Process: func(ctx context.Context, c *model.Case, payload map[string]any) (bpm.StepResult, error) {
					var p hackupStep
					if err := validation.DecodeMap(payload, &p); err != nil {
						return bpm.StepResult{}, err
					}
					vehicleID, err := caseID(c, "vehicle_id")
					if err != nil {
						return bpm.StepResult{}, err
					}

					tasks, err := s.Vehicle.EnsureHackupTasks(ctx, vehicleID)
					if err != nil {
						return bpm.StepResult{}, err
					}
					owned := make(map[uuid.UUID]bool, len(tasks))
					for _, t := range tasks {
						owned[t.ID] = true
					}

					for _, u := range p.Tasks {
						if !owned[u.ID] {
							code := "UNKNOWN_HACKUP_TASK"
							return bpm.StepResult{}, errs.NewBadRequestError(
								fmt.Sprintf("Task %s does not belong to this vehicle", u.ID), true, &code, nil, nil)
						}
						if _, err := s.Vehicle.UpdateHackupTask(ctx, u.ID, UpdateHackupTaskInput{
							Status: u.Status, Vendor: u.Vendor, Cost: u.Cost, Notes: u.Notes,
						}); err != nil {
							return bpm.StepResult{}, err
						}
					}

					tasks, err = s.Vehicle.ListHackupTasks(ctx, vehicleID)
					if err != nil {
						return bpm.StepResult{}, err
					}
					if !model.HackupComplete(tasks) {
						return bpm.StepResult{Stay: true}, nil
					}
					if _, err := s.Vehicle.Transition(ctx, vehicleID, model.VehicleStatusHackedUp); err != nil {
						return bpm.StepResult{}, err
					}
					return bpm.StepResult{}, nil
				},
			},
			{
				ID:    "NV-104",
				Name:  "Registration",
				Fetch: fetchVehicle,
				Process: func(ctx context.Context, c *model.Case, payload map[string]any) (bpm.StepResult, error) {
					var p registrationStep
					if err := validation.DecodeMap(payload, &p); err != nil {
						return bpm.StepResult{}, err
					}
					vehicleID, err := caseID(c, "vehicle_id")
					if err != nil {
						return bpm.StepResult{}, err
					}
					if _, err := s.Vehicle.Update(ctx, vehicleID, UpdateVehicleInput{
						PlateNumber:        &p.PlateNumber,
						RegistrationExpiry: &p.RegistrationExpiry,
					}); err != nil {
						return bpm.StepResult{}, err
					}
					if _, err := s.Vehicle.Transition(ctx, vehicleID, model.VehicleStatusRegistered); err != nil {
						return bpm.StepResult{}, err
					}
					return bpm.StepResult{Data: data("plate_number", p.PlateNumber)}, nil
				},
			},
			{
				ID:   "NV-105",
				Name: "Medallion assignment",
				Fetch: func(ctx context.Context, c *model.Case) (any, error) {
					res, err := s.Medallion.Search(ctx,
						repository.MedallionFilter{Status: string(model.MedallionStatusActive)},
						repository.PageQuery{Limit: pickerLimit, Sort: "medallion_number"})
					if err != nil {
						return nil, err
					}
					return data("medallions", res.Items), nil
				},
				Process: func(ctx context.Context, c *model.Case, payload map[string]any) (bpm.StepResult, error) {
					var p medallionStep
					if err := validation.DecodeMap(payload, &p); err != nil {
						return bpm.StepResult{}, err
					}
					vehicleID, err := caseID(c, "vehicle_id")
					if err != nil {
						return bpm.StepResult{}, err
					}
					if _, err := s.Vehicle.AssignMedallion(ctx, vehicleID, p.MedallionID); err != nil {
						return bpm.StepResult{}, err
					}
					if _, err := s.Vehicle.Transition(ctx, vehicleID, model.VehicleStatusAvailable); err != nil {
						return bpm.StepResult{}, err
					}
					return bpm.StepResult{Data: data("medallion_id", p.MedallionID.String())}, nil
				},
			},
		},
	}
}

// new_lease: pick driver and vehicle, set terms, review and activate.

type leasePartiesStep struct {
	DriverID  uuid.UUID `json:"driver_id" validate:"required"`
	VehicleID uuid.UUID `json:"vehicle_id" validate:"required"`
}

func (p *leasePartiesStep) Validate() error { return validation.Struct(p) }

type leaseTermsStep struct {
	LeaseType     model.LeaseType  `json:"lease_type" validate:"required,oneof=dov long_term short_term medallion_only"`
	StartDate     civil.Date       `json:"start_date"`
	EndDate       *civil.Date      `json:"end_date"`
	WeeklyAmount  *decimal.Decimal `json:"weekly_amount"`
	Deposit       decimal.Decimal  `json:"deposit"`
	AutoRenew     bool             `json:"auto_renew"`
	TotalSegments int              `json:"total_segments" validate:"min=0,max=52"`
}

func (p *leaseTermsStep) Validate() error {
	if err := validation.Struct(p); err != nil {
		return err
	}
	var problems validation.CustomValidationErrors
	if !p.StartDate.IsValid() {
		problems = append(problems, validation.CustomValidationError{Field: "start_date", Message: "is required"})
	}
	if p.EndDate != nil && p.StartDate.IsValid() && p.EndDate.Before(p.StartDate) {
		problems = append(problems, validation.CustomValidationError{Field: "end_date", Message: "must not be before start_date"})
	}
	if p.WeeklyAmount != nil && p.WeeklyAmount.IsNegative() {
		problems = append(problems, validation.CustomValidationError{Field: "weekly_amount", Message: "must not be negative"})
	}
	if p.Deposit.IsNegative() {
		problems = append(problems, validation.CustomValidationError{Field: "deposit", Message: "must not be negative"})
	}
	if len(problems) > 0 {
		return problems
	}
	return nil
}

type leaseReviewStep struct {
	Confirm bool `json:"confirm" validate:"required"`
}

func (p *leaseReviewStep) Validate() error { return validation.Struct(p) }

func newLeaseFlow(s *Services) bpm.Flow {
	return bpm.Flow{
		CaseType: CaseTypeNewLease,
		Prefix:   "NLSE",
		Steps: []bpm.Step{
			{
				ID:   "NL-201",
				Name: "Select driver and vehicle",
				Fetch: func(ctx context.Context, c *model.Case) (any, error) {
					drivers, err := s.Driver.Search(ctx,
						repository.DriverFilter{Status: string(model.DriverStatusActive)},
						repository.PageQuery{Limit: pickerLimit, Sort: "last_name"})
					if err != nil {
						return nil, err
					}
					vehicles, err := s.Vehicle.Search(ctx,
						repository.VehicleFilter{Status: string(model.VehicleStatusAvailable)},
						repository.PageQuery{Limit: pickerLimit, Sort: "vin"})
					if err != nil {
						return nil, err
					}
					return data("drivers", drivers.Items, "vehicles", vehicles.Items), nil
				},
				Process: func(ctx context.Context, c *model.Case, payload map[string]any) (bpm.StepResult, error) {
					var p leasePartiesStep
					if err := validation.DecodeMap(payload, &p); err != nil {
						return bpm.StepResult{}, err
					}
					d, err := s.Driver.Get(ctx, p.DriverID)
					if err != nil {
						return bpm.StepResult{}, err
					}
					if d.Status != model.DriverStatusActive {
						return bpm.StepResult{}, errs.NewRuleError("DRIVER_NOT_ACTIVE", fmt.Sprintf("Driver %s is not active", d.FullName()))
					}
					v, err := s.Vehicle.Get(ctx, p.VehicleID)
					if err != nil {
						return bpm.StepResult{}, err
					}
					if v.Status != model.VehicleStatusAvailable {
						return bpm.StepResult{}, errs.NewRuleError("VEHICLE_NOT_AVAILABLE",
							fmt.Sprintf("Vehicle %s is %s, not available", v.VIN, v.Status))
					}
					return bpm.StepResult{Data: data(
						"driver_id", d.ID.String(),
						"vehicle_id", v.ID.String(),
					)}, nil
				},
			},
			{
				ID:   "NL-202",
				Name: "Lease terms",
				Fetch: func(ctx context.Context, c *model.Case) (any, error) {
					rates, err := s.Lease.Rates(ctx)
					if err != nil {
						return nil, err
					}
					return data("rates", rates, "policy", s.Lease.Policy()), nil
				},
				Process: func(ctx context.Context, c *model.Case, payload map[string]any) (bpm.StepResult, error) {
					var p leaseTermsStep
					if err := validation.DecodeMap(payload, &p); err != nil {
						return bpm.StepResult{}, err
					}
					driverID, err := caseID(c, "driver_id")
					if err != nil {
						return bpm.StepResult{}, err
					}
					vehicleID, err := caseID(c, "vehicle_id")
					if err != nil {
						return bpm.StepResult{}, err
					}
					l, err := s.Lease.CreateDraft(ctx, CreateLeaseInput{
						LeaseType:     p.LeaseType,
						VehicleID:     vehicleID,
						DriverID:      driverID,
						StartDate:     p.StartDate,
						EndDate:       p.EndDate,
						WeeklyAmount:  p.WeeklyAmount,
						Deposit:       p.Deposit,
						AutoRenew:     p.AutoRenew,
						TotalSegments: p.TotalSegments,
					})
					if err != nil {
						return bpm.StepResult{}, err
					}
					return bpm.StepResult{Data: data("lease_id", l.ID.String(), "lease_number", l.LeaseNumber)}, nil
				},
			},
			{
				ID:   "NL-203",
				Name: "Review schedule",
				Fetch: func(ctx context.Context, c *model.Case) (any, error) {
					id, err := caseID(c, "lease_id")
					if err != nil {
						return nil, err
					}
					return s.Lease.PreviewLease(ctx, id)
				},
				Process: func(ctx context.Context, c *model.Case, payload map[string]any) (bpm.StepResult, error) {
					var p leaseReviewStep
					if err := validation.DecodeMap(payload, &p); err != nil {
						return bpm.StepResult{}, err
					}
					id, err := caseID(c, "lease_id")
					if err != nil {
						return bpm.StepResult{}, err
					}
					if _, err := s.Lease.Activate(ctx, id); err != nil {
						return bpm.StepResult{}, err
					}
					return bpm.StepResult{}, nil
				},
			},
		},
	}
}

// driver_registration: details, license documents, activation.

type driverDetailsStep struct {
	FirstName        string     `json:"first_name" validate:"required,max=100"`
	LastName         string     `json:"last_name" validate:"required,max=100"`
	Email            string     `json:"email" validate:"omitempty,email"`
	Phone            string     `json:"phone" validate:"omitempty,e164"`
	TLCLicenseNumber string     `json:"tlc_license_number" validate:"required,max=20"`
	TLCLicenseExpiry civil.Date `json:"tlc_license_expiry"`
	DMVLicenseNumber string     `json:"dmv_license_number" validate:"required,max=20"`
	DMVLicenseExpiry civil.Date `json:"dmv_license_expiry"`
}

func (p *driverDetailsStep) Validate() error {
	if err := validation.Struct(p); err != nil {
		return err
	}
	var problems validation.CustomValidationErrors
	if !p.TLCLicenseExpiry.IsValid() {
		problems = append(problems, validation.CustomValidationError{Field: "tlc_license_expiry", Message: "is required"})
	}
	if !p.DMVLicenseExpiry.IsValid() {
		problems = append(problems, validation.CustomValidationError{Field: "dmv_license_expiry", Message: "is required"})
	}
	if len(problems) > 0 {
		return problems
	}
	return nil
}

func driverRegistrationFlow(s *Services) bpm.Flow {
	fetchDriver := func(ctx context.Context, c *model.Case) (any, error) {
		id, err := caseID(c, "driver_id")
		if err != nil {
			return nil, err
		}
		return s.Driver.Get(ctx, id)
	}

	return bpm.Flow{
		CaseType: CaseTypeDriverRegistration,
		Prefix:   "DREG",
		Steps: []bpm.Step{
			{
				ID:   "DR-301",
				Name: "Driver details",
				Process: func(ctx context.Context, c *model.Case, payload map[string]any) (bpm.StepResult, error) {
					var p driverDetailsStep
					if err := validation.DecodeMap(payload, &p); err != nil {
						return bpm.StepResult{}, err
					}
					d, err := s.Driver.Register(ctx, RegisterDriverInput{
						FirstName:        p.FirstName,
						LastName:         p.LastName,
						Email:            p.Email,
						Phone:            p.Phone,
						TLCLicenseNumber: p.TLCLicenseNumber,
						TLCLicenseExpiry: p.TLCLicenseExpiry,
						DMVLicenseNumber: p.DMVLicenseNumber,
						DMVLicenseExpiry: p.DMVLicenseExpiry,
					})
					if err != nil {
						return bpm.StepResult{}, err
					}
					return bpm.StepResult{Data: data("driver_id", d.ID.String(), "driver_name", d.FullName())}, nil
				},
			},
			{
				ID:   "DR-302",
				Name: "License documents",
				Fetch: func(ctx context.Context, c *model.Case) (any, error) {
					id, err := caseID(c, "driver_id")
					if err != nil {
						return nil, err
					}
					docs, err := s.Document.List(ctx, model.ObjectTypeDriver, id)
					if err != nil {
						return nil, err
					}
					return data("documents", docs, "required_type", LicenseDocumentType), nil
				},
				Process: func(ctx context.Context, c *model.Case, payload map[string]any) (bpm.StepResult, error) {
					id, err := caseID(c, "driver_id")
					if err != nil {
						return bpm.StepResult{}, err
					}
					n, err := s.Document.Count(ctx, model.ObjectTypeDriver, id, LicenseDocumentType)
					if err != nil {
						return bpm.StepResult{}, err
					}
					if n == 0 {
						return bpm.StepResult{}, errs.NewRuleError("LICENSE_DOCUMENT_REQUIRED",
							"Upload at least one license document for the driver")
					}
					return bpm.StepResult{Data: data("license_documents", n)}, nil
				},
			},
			{
				ID:    "DR-303",
				Name:  "Activation",
				Fetch: fetchDriver,
				Process: func(ctx context.Context, c *model.Case, payload map[string]any) (bpm.StepResult, error) {
					id, err := caseID(c, "driver_id")
					if err != nil {
						return bpm.StepResult{}, err
					}
					if _, err := s.Driver.Activate(ctx, id); err != nil {
						return bpm.StepResult{}, err
					}
					return bpm.StepResult{}, nil
				},
			},
		},
	}
}
