package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/kryptonation/creamrun-sub000/internal/sqlerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func (f *fixture) vehicleService() *VehicleService {
	s := NewVehicleService(f.repos, f.logger)
	s.now = clock
	return s
}

func TestTransition_Rejected(t *testing.T) {
	plate := "T123456C"
	tests := []struct {
		name    string
		vehicle func() *model.Vehicle
		to      model.VehicleStatus
		tasks   []model.HackupTask
	}{
		{
			name:    "skips a stage",
			vehicle: func() *model.Vehicle { return testVehicle(model.VehicleStatusPurchased) },
			to:      model.VehicleStatusRegistered,
		},
		{
			name:    "leased is lease managed",
			vehicle: func() *model.Vehicle { return testVehicle(model.VehicleStatusAvailable) },
			to:      model.VehicleStatusLeased,
		},
		{
			name:    "leaving leased for available is lease managed",
			vehicle: func() *model.Vehicle { return testVehicle(model.VehicleStatusLeased) },
			to:      model.VehicleStatusAvailable,
		},
		{
			name:    "retired is terminal",
			vehicle: func() *model.Vehicle { return testVehicle(model.VehicleStatusRetired) },
			to:      model.VehicleStatusAvailable,
		},
		{
			name:    "hack-up incomplete",
			vehicle: func() *model.Vehicle { return testVehicle(model.VehicleStatusHackingUp) },
			to:      model.VehicleStatusHackedUp,
			tasks: []model.HackupTask{
				{TaskType: model.HackupTaskMeter, Status: model.HackupTaskCompleted},
				{TaskType: model.HackupTaskCamera, Status: model.HackupTaskInProgress},
			},
		},
		{
			name: "registration without expiry",
			vehicle: func() *model.Vehicle {
				v := testVehicle(model.VehicleStatusHackedUp)
				v.PlateNumber = &plate
				return v
			},
			to: model.VehicleStatusRegistered,
		},
		{
			name:    "available without medallion",
			vehicle: func() *model.Vehicle { return testVehicle(model.VehicleStatusRegistered) },
			to:      model.VehicleStatusAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			v := tt.vehicle()
			f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)
			if tt.tasks != nil {
				f.hackup.On("ListByVehicle", mock.Anything, v.ID).Return(tt.tasks, nil)
			}

			_, err := f.vehicleService().Transition(context.Background(), v.ID, tt.to)

			requireCode(t, err, "INVALID_VEHICLE_TRANSITION")
			f.vehicles.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		})
	}
}

func TestTransition_LeasedOutOfService(t *testing.T) {
	f := newFixture()
	v := testVehicle(model.VehicleStatusLeased)
	f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)
	f.leases.On("HasActiveForVehicle", mock.Anything, v.ID).Return(false, nil)
	f.vehicles.On("Update", mock.Anything, mock.MatchedBy(func(u *model.Vehicle) bool {
		return u.Status == model.VehicleStatusOutOfService
	})).Return(v, nil)

	_, err := f.vehicleService().Transition(context.Background(), v.ID, model.VehicleStatusOutOfService)

	require.NoError(t, err)
	f.assertExpectations(t)
}

func TestTransition_LeasedOutOfServiceWithActiveLease(t *testing.T) {
	f := newFixture()
	v := testVehicle(model.VehicleStatusLeased)
	f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)
	f.leases.On("HasActiveForVehicle", mock.Anything, v.ID).Return(true, nil)

	_, err := f.vehicleService().Transition(context.Background(), v.ID, model.VehicleStatusOutOfService)

	requireCode(t, err, "LEASE_ACTIVE")
	f.vehicles.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeliver(t *testing.T) {
	t.Run("already hacking up", func(t *testing.T) {
		f := newFixture()
		v := testVehicle(model.VehicleStatusHackingUp)
		f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)

		got, err := f.vehicleService().Deliver(context.Background(), v.ID)

		require.NoError(t, err)
		assert.Equal(t, model.VehicleStatusHackingUp, got.Status)
		f.vehicles.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("past hack-up", func(t *testing.T) {
		f := newFixture()
		v := testVehicle(model.VehicleStatusRegistered)
		f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)

		_, err := f.vehicleService().Deliver(context.Background(), v.ID)

		requireCode(t, err, "INVALID_VEHICLE_TRANSITION")
	})
}

func TestTransition_HackingUpSeedsTasks(t *testing.T) {
	f := newFixture()
	v := testVehicle(model.VehicleStatusDelivered)
	f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)
	f.hackup.On("CreateMissing", mock.Anything, v.ID, model.HackupTaskTypes).Return(nil)
	f.vehicles.On("Update", mock.Anything, mock.MatchedBy(func(u *model.Vehicle) bool {
		return u.Status == model.VehicleStatusHackingUp
	})).Return(v, nil)

	_, err := f.vehicleService().Transition(context.Background(), v.ID, model.VehicleStatusHackingUp)

	require.NoError(t, err)
	f.assertExpectations(t)
}

func TestTransition_HackedUpStampsTime(t *testing.T) {
	f := newFixture()
	v := testVehicle(model.VehicleStatusHackingUp)
	tasks := make([]model.HackupTask, 0, len(model.HackupTaskTypes))
	for _, tt := range model.HackupTaskTypes {
		tasks = append(tasks, model.HackupTask{TaskType: tt, Status: model.HackupTaskCompleted})
	}
	f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)
	f.hackup.On("ListByVehicle", mock.Anything, v.ID).Return(tasks, nil)
	f.vehicles.On("Update", mock.Anything, mock.MatchedBy(func(u *model.Vehicle) bool {
		return u.Status == model.VehicleStatusHackedUp && u.HackedUpAt != nil && u.HackedUpAt.Equal(fixedNow)
	})).Return(v, nil)

	_, err := f.vehicleService().Transition(context.Background(), v.ID, model.VehicleStatusHackedUp)

	require.NoError(t, err)
	f.assertExpectations(t)
}

func TestAssignMedallion(t *testing.T) {
	f := newFixture()
	v := testVehicle(model.VehicleStatusRegistered)
	m := &model.Medallion{MedallionNumber: "5X21", Status: model.MedallionStatusActive}
	m.ID = uuid.New()

	f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)
	f.medallions.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.vehicles.On("GetByMedallion", mock.Anything, m.ID).Return(nil, sqlerr.NotFound("vehicles", pgx.ErrNoRows))
	f.vehicles.On("Update", mock.Anything, mock.MatchedBy(func(u *model.Vehicle) bool {
		return u.MedallionID != nil && *u.MedallionID == m.ID
	})).Return(v, nil)
	f.medallions.On("Update", mock.Anything, mock.MatchedBy(func(u *model.Medallion) bool {
		return u.Status == model.MedallionStatusAssigned
	})).Return(m, nil)

	_, err := f.vehicleService().AssignMedallion(context.Background(), v.ID, m.ID)

	require.NoError(t, err)
	f.assertExpectations(t)
}

func TestAssignMedallion_AlreadyOnAnotherVehicle(t *testing.T) {
	f := newFixture()
	v := testVehicle(model.VehicleStatusRegistered)
	other := testVehicle(model.VehicleStatusAvailable)
	m := &model.Medallion{MedallionNumber: "5X21", Status: model.MedallionStatusAssigned}
	m.ID = uuid.New()

	f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)
	f.medallions.On("GetByID", mock.Anything, m.ID).Return(m, nil)
	f.vehicles.On("GetByMedallion", mock.Anything, m.ID).Return(other, nil)

	_, err := f.vehicleService().AssignMedallion(context.Background(), v.ID, m.ID)

	requireCode(t, err, "MEDALLION_ASSIGNED")
	f.vehicles.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestUnassignMedallion_InService(t *testing.T) {
	f := newFixture()
	mid := uuid.New()
	v := testVehicle(model.VehicleStatusAvailable)
	v.MedallionID = &mid
	f.vehicles.On("GetByID", mock.Anything, v.ID).Return(v, nil)

	_, err := f.vehicleService().UnassignMedallion(context.Background(), v.ID)

	requireCode(t, err, "VEHICLE_IN_SERVICE")
	f.assertExpectations(t)
}

func TestUpdateHackupTask_Completion(t *testing.T) {
	f := newFixture()
	task := &model.HackupTask{TaskType: model.HackupTaskMeter, Status: model.HackupTaskInProgress}
	task.ID = uuid.New()
	done := model.HackupTaskCompleted

	f.hackup.On("GetByID", mock.Anything, task.ID).Return(task, nil)
	f.hackup.On("Update", mock.Anything, mock.MatchedBy(func(u *model.HackupTask) bool {
		return u.Status == done && u.CompletedAt != nil
	})).Return(task, nil)

	_, err := f.vehicleService().UpdateHackupTask(context.Background(), task.ID, UpdateHackupTaskInput{Status: &done})

	require.NoError(t, err)
	f.assertExpectations(t)
}

func TestVehicleExport(t *testing.T) {
	f := newFixture()
	v := testVehicle(model.VehicleStatusAvailable)
	v.Make = "Toyota"
	v.ModelYear = 2023
	v.PurchasePrice = dec("31000")
	v.PurchaseDate = day(2024, 2, 1)

	f.vehicles.On("Search", mock.Anything, repository.VehicleFilter{Status: "available"},
		repository.PageQuery{Limit: repository.ExportLimit, Sort: "-vin"}).
		Return(&repository.PageResult[model.Vehicle]{Items: []model.Vehicle{*v}, Total: 1}, nil)

	out, err := f.vehicleService().Export(context.Background(), repository.VehicleFilter{Status: "available"}, "-vin")

	require.NoError(t, err)
	lines := splitLines(string(out))
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "id,vin,make,model,model_year")
	assert.Contains(t, lines[1], "1FTFW1ET5DFC10312,Toyota,,2023,hybrid,available")
	assert.Contains(t, lines[1], "31000.00,2024-02-01")
	f.assertExpectations(t)
}
