package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kryptonation/creamrun-sub000/internal/errs"
	"github.com/kryptonation/creamrun-sub000/internal/lib/export"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type CreateVehicleInput struct {
	VIN           string
	Make          string
	Model         string
	ModelYear     int
	VehicleType   model.VehicleType
	PurchasePrice decimal.Decimal
	PurchaseDate  civil.Date
}

// UpdateVehicleInput holds the editable details. Nil fields are unchanged.
type UpdateVehicleInput struct {
	Make               *string
	Model              *string
	ModelYear          *int
	VehicleType        *model.VehicleType
	PlateNumber        *string
	RegistrationExpiry *civil.Date
	PurchasePrice      *decimal.Decimal
}

// UpdateHackupTaskInput changes one hack-up task. Nil fields are unchanged.
type UpdateHackupTaskInput struct {
	Status *model.HackupTaskStatus
	Vendor *string
	Cost   *decimal.Decimal
	Notes  *string
}

type VehicleService struct {
	repos  *repository.Repositories
	logger *zerolog.Logger
	now    Clock
}

func NewVehicleService(repos *repository.Repositories, logger *zerolog.Logger) *VehicleService {
	return &VehicleService{repos: repos, logger: logger, now: time.Now}
}

// Create records a purchased vehicle.
func (s *VehicleService) Create(ctx context.Context, in CreateVehicleInput) (*model.Vehicle, error) {
	v, err := s.repos.Vehicles.Create(ctx, &model.Vehicle{
		VIN:           in.VIN,
		Make:          in.Make,
		Model:         in.Model,
		ModelYear:     in.ModelYear,
		VehicleType:   in.VehicleType,
		PurchasePrice: in.PurchasePrice,
		PurchaseDate:  in.PurchaseDate,
		Status:        model.VehicleStatusPurchased,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("vehicle_id", v.ID.String()).Str("vin", v.VIN).Msg("vehicle purchased")
	return v, nil
}

func (s *VehicleService) Get(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	return s.repos.Vehicles.GetByID(ctx, id)
}

func (s *VehicleService) Update(ctx context.Context, id uuid.UUID, in UpdateVehicleInput) (*model.Vehicle, error) {
	v, err := s.repos.Vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Make != nil {
		v.Make = *in.Make
	}
	if in.Model != nil {
		v.Model = *in.Model
	}
	if in.ModelYear != nil {
		v.ModelYear = *in.ModelYear
	}
	if in.VehicleType != nil {
		v.VehicleType = *in.VehicleType
	}
	if in.PlateNumber != nil {
		v.PlateNumber = in.PlateNumber
	}
	if in.RegistrationExpiry != nil {
		v.RegistrationExpiry = in.RegistrationExpiry
	}
	if in.PurchasePrice != nil {
		v.PurchasePrice = *in.PurchasePrice
	}
	return s.repos.Vehicles.Update(ctx, v)
}

func (s *VehicleService) Search(ctx context.Context, f repository.VehicleFilter, pq repository.PageQuery) (*repository.PageResult[model.Vehicle], error) {
	return s.repos.Vehicles.Search(ctx, f, pq)
}

var vehicleColumns = []export.Column[model.Vehicle]{
	{Header: "id", Value: func(v model.Vehicle) string { return v.ID.String() }},
	{Header: "vin", Value: func(v model.Vehicle) string { return v.VIN }},
	{Header: "make", Value: func(v model.Vehicle) string { return v.Make }},
	{Header: "model", Value: func(v model.Vehicle) string { return v.Model }},
	{Header: "model_year", Value: func(v model.Vehicle) string { return strconv.Itoa(v.ModelYear) }},
	{Header: "vehicle_type", Value: func(v model.Vehicle) string { return string(v.VehicleType) }},
	{Header: "status", Value: func(v model.Vehicle) string { return string(v.Status) }},
	{Header: "medallion_id", Value: func(v model.Vehicle) string { return export.UUID(v.MedallionID) }},
	{Header: "plate_number", Value: func(v model.Vehicle) string { return export.Str(v.PlateNumber) }},
	{Header: "registration_expiry", Value: func(v model.Vehicle) string { return export.Date(v.RegistrationExpiry) }},
	{Header: "purchase_price", Value: func(v model.Vehicle) string { return v.PurchasePrice.StringFixed(2) }},
	{Header: "purchase_date", Value: func(v model.Vehicle) string { return v.PurchaseDate.String() }},
}

// Export renders the matching vehicles as CSV.
func (s *VehicleService) Export(ctx context.Context, f repository.VehicleFilter, sort string) ([]byte, error) {
	res, err := s.repos.Vehicles.Search(ctx, f, repository.PageQuery{Limit: repository.ExportLimit, Sort: sort})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, vehicleColumns, res.Items); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func invalidTransition(from, to model.VehicleStatus, why string) error {
	msg := fmt.Sprintf("Vehicle cannot move from %s to %s", from, to)
	if why != "" {
		msg += ": " + why
	}
	return errs.NewRuleError("INVALID_VEHICLE_TRANSITION", msg)
}

// Transition moves a vehicle to another lifecycle status. Moves into leased,
// and back from leased to available, belong to lease operations and are
// rejected here. A leased vehicle goes out of service only once its lease is
// no longer active.
func (s *VehicleService) Transition(ctx context.Context, id uuid.UUID, to model.VehicleStatus) (*model.Vehicle, error) {
	v, err := s.repos.Vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, s.repos, v, to)
}

// Deliver confirms delivery and starts the hack-up in one transaction. A
// vehicle already delivered or hacking up picks up where it stopped.
func (s *VehicleService) Deliver(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	var out *model.Vehicle
	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		v, err := tx.Vehicles.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if v.Status == model.VehicleStatusPurchased {
			if v, err = s.transition(ctx, tx, v, model.VehicleStatusDelivered); err != nil {
				return err
			}
		}
		if v.Status == model.VehicleStatusDelivered {
			if v, err = s.transition(ctx, tx, v, model.VehicleStatusHackingUp); err != nil {
				return err
			}
		}
		if v.Status != model.VehicleStatusHackingUp {
			return invalidTransition(v.Status, model.VehicleStatusDelivered, "")
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *VehicleService) transition(ctx context.Context, repos *repository.Repositories, v *model.Vehicle, to model.VehicleStatus) (*model.Vehicle, error) {
	from := v.Status
	if !model.CanTransition(from, to) {
		return nil, invalidTransition(from, to, "")
	}
	if model.LeaseManaged(from, to) {
		return nil, invalidTransition(from, to, "lease activation, expiry and termination manage this move")
	}
	if from == model.VehicleStatusLeased {
		active, err := repos.Leases.HasActiveForVehicle(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, errs.NewRuleError("LEASE_ACTIVE",
				fmt.Sprintf("Vehicle %s has an active lease; terminate it before moving to %s", v.VIN, to))
		}
	}

	now := s.now().UTC()
	switch to {
	case model.VehicleStatusDelivered:
		v.DeliveredAt = &now
	case model.VehicleStatusHackingUp:
		if err := repos.HackupTasks.CreateMissing(ctx, v.ID, model.HackupTaskTypes); err != nil {
			return nil, err
		}
	case model.VehicleStatusHackedUp:
		tasks, err := repos.HackupTasks.ListByVehicle(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		if !model.HackupComplete(tasks) {
			return nil, invalidTransition(from, to, "every hack-up task must be completed")
		}
		v.HackedUpAt = &now
	case model.VehicleStatusRegistered:
		if v.PlateNumber == nil || *v.PlateNumber == "" || v.RegistrationExpiry == nil {
			return nil, invalidTransition(from, to, "plate number and registration expiry are required")
		}
		v.RegisteredAt = &now
	case model.VehicleStatusAvailable:
		if v.MedallionID == nil {
			return nil, invalidTransition(from, to, "a medallion must be assigned")
		}
	}

	v.Status = to
	updated, err := repos.Vehicles.Update(ctx, v)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("vehicle_id", v.ID.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("vehicle status changed")
	return updated, nil
}

// AssignMedallion attaches a medallion that is not on another vehicle.
func (s *VehicleService) AssignMedallion(ctx context.Context, id, medallionID uuid.UUID) (*model.Vehicle, error) {
	var out *model.Vehicle
	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		v, err := tx.Vehicles.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if v.Status == model.VehicleStatusRetired {
			return errs.NewRuleError("VEHICLE_RETIRED", "A retired vehicle cannot take a medallion")
		}
		if v.MedallionID != nil {
			if *v.MedallionID == medallionID {
				out = v
				return nil
			}
			return errs.NewConflictError("Vehicle already has a medallion", "VEHICLE_HAS_MEDALLION")
		}

		m, err := tx.Medallions.GetByID(ctx, medallionID)
		if err != nil {
			return err
		}

		holder, err := tx.Vehicles.GetByMedallion(ctx, medallionID)
		switch {
		case err == nil:
			return errs.NewConflictError(fmt.Sprintf("Medallion %s is assigned to vehicle %s", m.MedallionNumber, holder.VIN), "MEDALLION_ASSIGNED")
		case !errors.Is(err, pgx.ErrNoRows):
			return err
		}

		v.MedallionID = &m.ID
		if out, err = tx.Vehicles.Update(ctx, v); err != nil {
			return err
		}

		m.Status = model.MedallionStatusAssigned
		_, err = tx.Medallions.Update(ctx, m)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UnassignMedallion detaches the medallion, which goes back to active.
// A vehicle that is available or leased keeps its medallion.
func (s *VehicleService) UnassignMedallion(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	var out *model.Vehicle
	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		v, err := tx.Vehicles.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if v.MedallionID == nil {
			out = v
			return nil
		}
		if v.Status == model.VehicleStatusAvailable || v.Status == model.VehicleStatusLeased {
			return errs.NewRuleError("VEHICLE_IN_SERVICE", fmt.Sprintf("Vehicle is %s; take it out of service first", v.Status))
		}

		m, err := tx.Medallions.GetByID(ctx, *v.MedallionID)
		if err != nil {
			return err
		}

		v.MedallionID = nil
		if out, err = tx.Vehicles.Update(ctx, v); err != nil {
			return err
		}

		m.Status = model.MedallionStatusActive
		_, err = tx.Medallions.Update(ctx, m)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *VehicleService) ListHackupTasks(ctx context.Context, vehicleID uuid.UUID) ([]model.HackupTask, error) {
	if _, err := s.repos.Vehicles.GetByID(ctx, vehicleID); err != nil {
		return nil, err
	}
	return s.repos.HackupTasks.ListByVehicle(ctx, vehicleID)
}

// EnsureHackupTasks seeds one pending task per hack-up type. Existing tasks
// are kept.
func (s *VehicleService) EnsureHackupTasks(ctx context.Context, vehicleID uuid.UUID) ([]model.HackupTask, error) {
	if _, err := s.repos.Vehicles.GetByID(ctx, vehicleID); err != nil {
		return nil, err
	}
	if err := s.repos.HackupTasks.CreateMissing(ctx, vehicleID, model.HackupTaskTypes); err != nil {
		return nil, err
	}
	return s.repos.HackupTasks.ListByVehicle(ctx, vehicleID)
}

func (s *VehicleService) UpdateHackupTask(ctx context.Context, id uuid.UUID, in UpdateHackupTaskInput) (*model.HackupTask, error) {
	t, err := s.repos.HackupTasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Status != nil && *in.Status != t.Status {
		t.Status = *in.Status
		if t.Status == model.HackupTaskCompleted {
			t.CompletedAt = ptr(s.now().UTC())
		} else {
			t.CompletedAt = nil
		}
	}
	if in.Vendor != nil {
		t.Vendor = in.Vendor
	}
	if in.Cost != nil {
		t.Cost = *in.Cost
	}
	if in.Notes != nil {
		t.Notes = in.Notes
	}
	return s.repos.HackupTasks.Update(ctx, t)
}
