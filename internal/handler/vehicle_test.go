package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/kryptonation/creamrun-sub000/internal/repository/mocks"
	"github.com/kryptonation/creamrun-sub000/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newVehicleHandler(repo *mocks.MockVehicleRepository) *VehicleHandler {
	logger := zerolog.Nop()
	vehicles := service.NewVehicleService(&repository.Repositories{Vehicles: repo}, &logger)
	return &VehicleHandler{vehicles: vehicles}
}

func TestVehicleHandler_Get(t *testing.T) {
	repo := new(mocks.MockVehicleRepository)
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).
		Return(&model.Vehicle{Base: model.Base{ID: id}, VIN: "1FTFW1ET5DFC10312", Status: model.VehicleStatusAvailable}, nil)

	h := newVehicleHandler(repo)
	route := Handle(h.Handler, h.Get, http.StatusOK, &IDRequest{})

	c, rec := newJSONContext(http.MethodGet, "/vehicles/"+id.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())
	require.NoError(t, route(c))

	var got struct {
		ID     uuid.UUID           `json:"id"`
		Status model.VehicleStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, model.VehicleStatusAvailable, got.Status)
	repo.AssertExpectations(t)
}

func TestVehicleHandler_SearchEnvelope(t *testing.T) {
	repo := new(mocks.MockVehicleRepository)
	repo.On("Search", mock.Anything,
		repository.VehicleFilter{Status: "leased"},
		repository.PageQuery{Limit: 2, Offset: 2}).
		Return(&repository.PageResult[model.Vehicle]{
			Items: []model.Vehicle{{VIN: "A"}, {VIN: "B"}},
			Total: 7,
		}, nil)

	h := newVehicleHandler(repo)
	route := Handle(h.Handler, h.Search, http.StatusOK, &SearchVehiclesRequest{})

	c, rec := newJSONContext(http.MethodGet, "/vehicles?status=leased&page=2&per_page=2", "")
	require.NoError(t, route(c))

	var got Page[struct {
		VIN string `json:"vin"`
	}]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 7, got.Total)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 2, got.PerPage)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "B", got.Items[1].VIN)
	repo.AssertExpectations(t)
}
