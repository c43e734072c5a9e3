package sqlerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kryptonation/creamrun-sub000/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError_PgErrors(t *testing.T) {
	tests := []struct {
		name        string
		pgErr       *pgconn.PgError
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name: "unique violation on vin",
			pgErr: &pgconn.PgError{
				Code: "23505", Severity: "ERROR", TableName: "vehicles",
				ConstraintName: "vehicles_vin_key",
			},
			wantStatus:  http.StatusBadRequest,
			wantCode:    "VEHICLE_ALREADY_EXISTS",
			wantMessage: "A Vehicle with this Vin already exists",
		},
		{
			name: "foreign key violation",
			pgErr: &pgconn.PgError{
				Code: "23503", Severity: "ERROR", TableName: "leases", ColumnName: "driver_id",
			},
			wantStatus:  http.StatusBadRequest,
			wantCode:    "LEASE_NOT_FOUND",
			wantMessage: "The referenced Driver does not exist",
		},
		{
			name: "not null violation",
			pgErr: &pgconn.PgError{
				Code: "23502", Severity: "ERROR", TableName: "drivers", ColumnName: "tlc_license_number",
			},
			wantStatus:  http.StatusBadRequest,
			wantCode:    "DRIVER_REQUIRED",
			wantMessage: "The Tlc License Number is required",
		},
		{
			name: "check violation",
			pgErr: &pgconn.PgError{
				Code: "23514", Severity: "ERROR", TableName: "leases", ColumnName: "weekly_amount",
			},
			wantStatus:  http.StatusBadRequest,
			wantCode:    "LEASE_INVALID",
			wantMessage: "The Weekly Amount value does not meet required conditions",
		},
		{
			name:        "unknown code",
			pgErr:       &pgconn.PgError{Code: "XX000", Severity: "ERROR"},
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "INTERNAL_SERVER_ERROR",
			wantMessage: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HandleError(fmt.Errorf("insert: %w", tt.pgErr))

			var httpErr *errs.HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.wantStatus, httpErr.Status)
			assert.Equal(t, tt.wantCode, httpErr.Code)
			assert.Equal(t, tt.wantMessage, httpErr.Message)
		})
	}
}

func TestHandleError_NoRows(t *testing.T) {
	err := HandleError(NotFound("vehicles", pgx.ErrNoRows))

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Equal(t, "Vehicle not found", httpErr.Message)

	err = HandleError(pgx.ErrNoRows)
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, "Resource not found", httpErr.Message)
}

func TestHandleError_PassThrough(t *testing.T) {
	original := errs.NewRuleError("LEASE_NOT_ACTIVE", "lease is not active")
	assert.Same(t, original, HandleError(original))
}

func TestHandleError_Unknown(t *testing.T) {
	err := HandleError(errors.New("connection reset"))

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
}

func TestMapCodeAndSeverity(t *testing.T) {
	assert.Equal(t, UniqueViolation, MapCode("23505"))
	assert.Equal(t, DeadlockDetected, MapCode("40P01"))
	assert.Equal(t, Other, MapCode("42P01"))
	assert.Equal(t, SeverityFatal, MapSeverity("fatal"))
	assert.Equal(t, SeverityError, MapSeverity("weird"))
}

func TestErrCode(t *testing.T) {
	raw := &pgconn.PgError{Code: "23505", Severity: "ERROR"}
	assert.Equal(t, UniqueViolation, ErrCode(fmt.Errorf("wrap: %w", raw)))
	assert.Equal(t, CheckViolation, ErrCode(ConvertPgError(&pgconn.PgError{Code: "23514"})))
	assert.Equal(t, Other, ErrCode(errors.New("x")))
}

func TestExtractColumnForUniqueViolation(t *testing.T) {
	assert.Equal(t, "number", extractColumnForUniqueViolation("unique_medallions_number"))
	assert.Equal(t, "vin", extractColumnForUniqueViolation("vehicles_vin_key"))
	assert.Equal(t, "", extractColumnForUniqueViolation("pk_something"))
}

func TestHandleError_NamedConstraints(t *testing.T) {
	tests := []struct {
		constraint string
		code       string
		wantStatus int
		wantCode   string
	}{
		{"leases_active_vehicle_idx", "23505", http.StatusConflict, "VEHICLE_ALREADY_LEASED"},
		{"vehicles_medallion_key", "23505", http.StatusConflict, "MEDALLION_ASSIGNED"},
		{"drivers_tlc_key", "23505", http.StatusBadRequest, "DRIVER_ALREADY_EXISTS"},
		{"leases_dates_check", "23514", http.StatusBadRequest, "INVALID_LEASE_DATES"},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			err := HandleError(&pgconn.PgError{Code: tt.code, Severity: "ERROR", ConstraintName: tt.constraint})

			var httpErr *errs.HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.wantStatus, httpErr.Status)
			assert.Equal(t, tt.wantCode, httpErr.Code)
		})
	}
}
