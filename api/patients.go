package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pulseox-org/pulseox/auth"
	"github.com/pulseox-org/pulseox/errors"
	"github.com/pulseox-org/pulseox/patients"
	"github.com/pulseox-org/pulseox/stats"
)

func (h *Handler) RegisterPatient(ec echo.Context) error {
	ctx := ec.Request().Context()
	dto := RegisterPatientDto{}
	if err := ec.Bind(&dto); err != nil {
		return err
	}
	if dto.Email == "" || dto.Password == "" {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "email and password are required",
		}
	}

	hash, err := auth.HashPassword(dto.Password)
	if err != nil {
		return err
	}
	patient, err := dto.Patient(hash)
	if err != nil {
		return err
	}

	result, err := h.patients.Create(ctx, patient)
	if err != nil {
		return mapPatientErr(err)
	}

	return ec.JSON(http.StatusCreated, NewPatientDto(result))
}

func (h *Handler) LoginPatient(ec echo.Context) error {
	ctx := ec.Request().Context()
	dto := LoginDto{}
	if err := ec.Bind(&dto); err != nil {
		return err
	}

	patient, err := h.patients.Get(ctx, dto.Email)
	if err != nil || !auth.CheckPassword(dto.Password, patient.PasswordHash) {
		return errors.Unauthorized
	}

	token, err := h.tokenIssuer.IssueToken(auth.Auth{
		SubjectId: patient.Id.Hex(),
		Email:     patient.Email,
		Role:      auth.RolePatient,
	})
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, LoginResponseDto{
		Message: "login successful",
		Token:   token,
		Subject: NewPatientDto(patient),
	})
}

func (h *Handler) ResetPatientPassword(ec echo.Context) error {
	ctx := ec.Request().Context()
	dto := ResetPasswordDto{}
	if err := ec.Bind(&dto); err != nil {
		return err
	}

	patient, err := h.patients.Get(ctx, dto.Email)
	if err != nil || !auth.CheckPassword(dto.CurrentPassword, patient.PasswordHash) {
		return errors.Unauthorized
	}

	hash, err := auth.HashPassword(dto.NewPassword)
	if err != nil {
		return err
	}
	if err := h.patients.UpdatePasswordHash(ctx, patient.Email, hash); err != nil {
		return mapPatientErr(err)
	}

	return ec.NoContent(http.StatusNoContent)
}

func (h *Handler) GetCurrentPatient(ec echo.Context) error {
	patient, err := h.currentPatient(ec)
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, NewPatientDto(patient))
}

func (h *Handler) UpdateCurrentPatient(ec echo.Context) error {
	ctx := ec.Request().Context()
	authData := auth.GetAuthData(ctx)
	if !auth.IsPatient(authData) {
		return errors.Unauthorized
	}

	dto := UpdatePatientDto{}
	if err := ec.Bind(&dto); err != nil {
		return err
	}
	update, err := dto.Update()
	if err != nil {
		return err
	}

	result, err := h.patients.Update(ctx, authData.Email, update)
	if err != nil {
		return mapPatientErr(err)
	}

	return ec.JSON(http.StatusOK, NewPatientDto(result))
}

func (h *Handler) ListPatientDevices(ec echo.Context) error {
	patient, err := h.currentPatient(ec)
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, NewDeviceDtos(patient.Devices))
}

func (h *Handler) RegisterPatientDevice(ec echo.Context) error {
	ctx := ec.Request().Context()
	authData := auth.GetAuthData(ctx)
	if !auth.IsPatient(authData) {
		return errors.Unauthorized
	}

	dto := DeviceDto{}
	if err := ec.Bind(&dto); err != nil {
		return err
	}
	if strings.TrimSpace(dto.SerialNumber) == "" {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "device serial number is required",
		}
	}

	result, err := h.patients.AddDevice(ctx, authData.Email, patients.Device(dto))
	if err != nil {
		return mapPatientErr(err)
	}

	return ec.JSON(http.StatusCreated, NewDeviceDtos(result.Devices))
}

func (h *Handler) UpdatePatientDeviceSettings(ec echo.Context) error {
	ctx := ec.Request().Context()
	authData := auth.GetAuthData(ctx)
	if !auth.IsPatient(authData) {
		return errors.Unauthorized
	}

	dto := DeviceSettingsDto{}
	if err := ec.Bind(&dto); err != nil {
		return err
	}

	settings := patients.DeviceSettings{
		StartTime:          dto.StartTime,
		EndTime:            dto.EndTime,
		FrequencyOfReading: dto.FrequencyOfReading,
	}
	result, err := h.patients.UpdateDeviceSettings(ctx, authData.Email, ec.Param("serialNumber"), settings)
	if err != nil {
		return mapPatientErr(err)
	}

	return ec.JSON(http.StatusOK, NewDeviceDtos(result.Devices))
}

func (h *Handler) RemovePatientDevice(ec echo.Context) error {
	ctx := ec.Request().Context()
	authData := auth.GetAuthData(ctx)
	if !auth.IsPatient(authData) {
		return errors.Unauthorized
	}

	result, err := h.patients.RemoveDevice(ctx, authData.Email, ec.Param("serialNumber"))
	if err != nil {
		return mapPatientErr(err)
	}

	return ec.JSON(http.StatusOK, NewDeviceDtos(result.Devices))
}

func (h *Handler) GetCurrentPatientDailyStats(ec echo.Context) error {
	ctx := ec.Request().Context()
	patient, err := h.currentPatient(ec)
	if err != nil {
		return err
	}

	period, err := periodFromQuery(ec)
	if err != nil {
		return err
	}

	daily, err := h.stats.Daily(ctx, patient.DeviceSerialNumbers(), period)
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, DailySummaryResponseDto{
		PatientName:  patient.Name,
		PatientEmail: patient.Email,
		DailyData:    daily,
		Devices:      NewDeviceDtos(patient.Devices),
	})
}

func (h *Handler) currentPatient(ec echo.Context) (*patients.Patient, error) {
	ctx := ec.Request().Context()
	authData := auth.GetAuthData(ctx)
	if !auth.IsPatient(authData) {
		return nil, errors.Unauthorized
	}

	patient, err := h.patients.Get(ctx, authData.Email)
	if err != nil {
		return nil, mapPatientErr(err)
	}
	return patient, nil
}

// periodFromQuery parses the optional startDate/endDate query parameters.
// Both must be present for an explicit period. A nil result selects the
// implicit range spanning all readings of the device set.
func periodFromQuery(ec echo.Context) (*stats.Period, error) {
	startDate := ec.QueryParam("startDate")
	endDate := ec.QueryParam("endDate")
	if startDate == "" && endDate == "" {
		return nil, nil
	}
	if startDate == "" || endDate == "" {
		return nil, &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "startDate and endDate must be supplied together",
		}
	}

	start, err := time.Parse(stats.DateLayout, startDate)
	if err != nil {
		return nil, &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "startDate must be formatted as YYYY-MM-DD",
		}
	}
	end, err := time.Parse(stats.DateLayout, endDate)
	if err != nil {
		return nil, &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "endDate must be formatted as YYYY-MM-DD",
		}
	}

	return &stats.Period{Start: start, End: end}, nil
}

func mapPatientErr(err error) error {
	switch err {
	case patients.ErrNotFound, patients.ErrDeviceNotFound:
		return errors.NotFound
	case patients.ErrDuplicate, patients.ErrDuplicateDevice:
		return errors.Duplicate
	default:
		return err
	}
}
