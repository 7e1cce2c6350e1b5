package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/pulseox-org/pulseox/auth"
	"github.com/pulseox-org/pulseox/errors"
	"github.com/pulseox-org/pulseox/patients"
	"github.com/pulseox-org/pulseox/physicians"
	"github.com/pulseox-org/pulseox/readings"
	"github.com/pulseox-org/pulseox/reports"
	"github.com/pulseox-org/pulseox/stats"
	"github.com/pulseox-org/pulseox/store"
)

const (
	weeklyReportFilename = "weekly-heart-rate-report.xlsx"

	// Upper bound on the number of patients included in a single weekly
	// stats response or report.
	maxWeeklyReportPatients = 1000
)

func (h *Handler) RegisterPhysician(ec echo.Context) error {
	ctx := ec.Request().Context()
	dto := RegisterPhysicianDto{}
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

	result, err := h.physicians.Create(ctx, physicians.Physician{
		Email:        dto.Email,
		PasswordHash: hash,
		Name:         dto.Name,
		Specialty:    dto.Specialty,
		Phone:        dto.Phone,
	})
	if err != nil {
		return mapPhysicianErr(err)
	}

	return ec.JSON(http.StatusCreated, NewPhysicianDto(result))
}

func (h *Handler) LoginPhysician(ec echo.Context) error {
	ctx := ec.Request().Context()
	dto := LoginDto{}
	if err := ec.Bind(&dto); err != nil {
		return err
	}

	physician, err := h.physicians.Get(ctx, dto.Email)
	if err != nil || !auth.CheckPassword(dto.Password, physician.PasswordHash) {
		return errors.Unauthorized
	}

	token, err := h.tokenIssuer.IssueToken(auth.Auth{
		SubjectId: physician.Id.Hex(),
		Email:     physician.Email,
		Role:      auth.RolePhysician,
	})
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, LoginResponseDto{
		Message: "login successful",
		Token:   token,
		Subject: NewPhysicianDto(physician),
	})
}

func (h *Handler) ResetPhysicianPassword(ec echo.Context) error {
	ctx := ec.Request().Context()
	dto := ResetPasswordDto{}
	if err := ec.Bind(&dto); err != nil {
		return err
	}

	physician, err := h.physicians.Get(ctx, dto.Email)
	if err != nil || !auth.CheckPassword(dto.CurrentPassword, physician.PasswordHash) {
		return errors.Unauthorized
	}

	hash, err := auth.HashPassword(dto.NewPassword)
	if err != nil {
		return err
	}
	if err := h.physicians.UpdatePasswordHash(ctx, physician.Email, hash); err != nil {
		return mapPhysicianErr(err)
	}

	return ec.NoContent(http.StatusNoContent)
}

func (h *Handler) ListPhysicians(ec echo.Context) error {
	ctx := ec.Request().Context()
	page, err := paginationFromQuery(ec)
	if err != nil {
		return err
	}

	list, err := h.physicians.List(ctx, page)
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, NewPhysicianDtos(list))
}

func (h *Handler) GetCurrentPhysician(ec echo.Context) error {
	physician, err := h.currentPhysician(ec)
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, NewPhysicianDto(physician))
}

func (h *Handler) UpdateCurrentPhysician(ec echo.Context) error {
	ctx := ec.Request().Context()
	authData := auth.GetAuthData(ctx)
	if !auth.IsPhysician(authData) {
		return errors.Unauthorized
	}

	dto := UpdatePhysicianDto{}
	if err := ec.Bind(&dto); err != nil {
		return err
	}

	result, err := h.physicians.Update(ctx, authData.Email, physicians.Update{
		Name:      dto.Name,
		Specialty: dto.Specialty,
		Phone:     dto.Phone,
	})
	if err != nil {
		return mapPhysicianErr(err)
	}

	return ec.JSON(http.StatusOK, NewPhysicianDto(result))
}

func (h *Handler) ListPhysicianPatients(ec echo.Context) error {
	ctx := ec.Request().Context()
	physician, err := h.currentPhysician(ec)
	if err != nil {
		return err
	}
	page, err := paginationFromQuery(ec)
	if err != nil {
		return err
	}

	filter := patients.Filter{AssignedPhysician: physician.Id}
	list, err := h.patients.List(ctx, &filter, page)
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, NewPatientDtos(list))
}

func (h *Handler) GetPhysicianPatientDailyStats(ec echo.Context) error {
	ctx := ec.Request().Context()
	patient, err := h.physicianPatient(ec)
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

func (h *Handler) GetPhysicianPatientsWeeklyStats(ec echo.Context) error {
	results, err := h.weeklyStatsForPatients(ec)
	if err != nil {
		return err
	}

	dto := WeeklyStatsResponseDto{Results: make([]WeeklyStatsResultDto, 0, len(results))}
	for _, result := range results {
		dto.Results = append(dto.Results, WeeklyStatsResultDto(result))
	}

	return ec.JSON(http.StatusOK, dto)
}

func (h *Handler) DownloadPhysicianPatientsWeeklyReport(ec echo.Context) error {
	results, err := h.weeklyStatsForPatients(ec)
	if err != nil {
		return err
	}

	report := reports.NewWeeklyReport(results)
	ec.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", weeklyReportFilename))
	ec.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ec.Response().WriteHeader(http.StatusOK)

	return report.Write(ec.Response())
}

func (h *Handler) GetPhysicianPatientDeviceSettings(ec echo.Context) error {
	patient, err := h.physicianPatient(ec)
	if err != nil {
		return err
	}

	device := patient.Device(ec.Param("serialNumber"))
	if device == nil {
		return errors.NotFound
	}

	return ec.JSON(http.StatusOK, NewDeviceDto(*device))
}

func (h *Handler) UpdatePhysicianPatientDeviceSettings(ec echo.Context) error {
	ctx := ec.Request().Context()
	patient, err := h.physicianPatient(ec)
	if err != nil {
		return err
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
	result, err := h.patients.UpdateDeviceSettings(ctx, patient.Email, ec.Param("serialNumber"), settings)
	if err != nil {
		return mapPatientErr(err)
	}

	return ec.JSON(http.StatusOK, NewDeviceDtos(result.Devices))
}

func (h *Handler) ListPhysicianPatientDeviceReadings(ec echo.Context) error {
	ctx := ec.Request().Context()
	patient, err := h.physicianPatient(ec)
	if err != nil {
		return err
	}

	device := patient.Device(ec.Param("serialNumber"))
	if device == nil {
		return errors.NotFound
	}

	filter := readings.Filter{DeviceSerialNumbers: []string{device.SerialNumber}}
	sort := store.Sort{Attribute: "timestamp", Ascending: true}
	list, err := h.readings.List(ctx, &filter, &sort)
	if err != nil {
		return err
	}

	return ec.JSON(http.StatusOK, DeviceReadingsResponseDto{
		StartTime:          device.StartTime,
		EndTime:            device.EndTime,
		FrequencyOfReading: device.FrequencyOfReading,
		Readings:           NewReadingDtos(list),
	})
}

// weeklyStatsForPatients computes weekly heart rate summaries for every
// patient assigned to the authenticated physician. Patients whose device
// sets have no readings are included with an empty summary list.
func (h *Handler) weeklyStatsForPatients(ec echo.Context) ([]reports.PatientWeeklyStats, error) {
	ctx := ec.Request().Context()
	physician, err := h.currentPhysician(ec)
	if err != nil {
		return nil, err
	}

	filter := patients.Filter{AssignedPhysician: physician.Id}
	list, err := h.patients.List(ctx, &filter, store.Pagination{Limit: maxWeeklyReportPatients})
	if err != nil {
		return nil, err
	}

	results := make([]reports.PatientWeeklyStats, 0, len(list))
	for _, patient := range list {
		result := reports.PatientWeeklyStats{
			PatientName:  patient.Name,
			PatientEmail: patient.Email,
			Stats:        []stats.WeeklySummary{},
		}
		if serialNumbers := patient.DeviceSerialNumbers(); len(serialNumbers) > 0 {
			weekly, err := h.stats.Weekly(ctx, serialNumbers)
			if err != nil && err != errors.NoData {
				return nil, err
			}
			if weekly != nil {
				result.Stats = weekly
			}
		}
		results = append(results, result)
	}

	return results, nil
}

func (h *Handler) currentPhysician(ec echo.Context) (*physicians.Physician, error) {
	ctx := ec.Request().Context()
	authData := auth.GetAuthData(ctx)
	if !auth.IsPhysician(authData) {
		return nil, errors.Unauthorized
	}

	physician, err := h.physicians.Get(ctx, authData.Email)
	if err != nil {
		return nil, mapPhysicianErr(err)
	}
	return physician, nil
}

// physicianPatient resolves the :email route parameter to a patient and
// verifies they are assigned to the authenticated physician.
func (h *Handler) physicianPatient(ec echo.Context) (*patients.Patient, error) {
	ctx := ec.Request().Context()
	physician, err := h.currentPhysician(ec)
	if err != nil {
		return nil, err
	}

	patient, err := h.patients.Get(ctx, ec.Param("email"))
	if err != nil {
		return nil, mapPatientErr(err)
	}
	if patient.AssignedPhysician == nil || *patient.AssignedPhysician != *physician.Id {
		return nil, errors.NotFound
	}
	return patient, nil
}

func paginationFromQuery(ec echo.Context) (store.Pagination, error) {
	var offset, limit *int
	if v := ec.QueryParam("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return store.Pagination{}, &echo.HTTPError{
				Code:    http.StatusBadRequest,
				Message: "offset must be a non-negative integer",
			}
		}
		offset = &parsed
	}
	if v := ec.QueryParam("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return store.Pagination{}, &echo.HTTPError{
				Code:    http.StatusBadRequest,
				Message: "limit must be a positive integer",
			}
		}
		limit = &parsed
	}
	return pagination(offset, limit), nil
}

func mapPhysicianErr(err error) error {
	switch err {
	case physicians.ErrNotFound:
		return errors.NotFound
	case physicians.ErrDuplicate:
		return errors.Duplicate
	default:
		return err
	}
}
