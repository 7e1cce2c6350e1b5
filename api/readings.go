package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pulseox-org/pulseox/readings"
)

// CreateReadings ingests device readings. The body is either a single
// reading or an array of readings. Devices push samples directly, so the
// route is unauthenticated.
func (h *Handler) CreateReadings(ec echo.Context) error {
	ctx := ec.Request().Context()

	dtos, err := decodeReadings(ec.Request().Body)
	if err != nil {
		return &echo.HTTPError{
			Code:     http.StatusBadRequest,
			Message:  "request body is not a valid reading or list of readings",
			Internal: err,
		}
	}
	if len(dtos) == 0 {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "at least one reading is required",
		}
	}

	batch := make([]readings.Reading, 0, len(dtos))
	for _, dto := range dtos {
		serialNumber := strings.TrimSpace(dto.DeviceSerialNumber)
		if serialNumber == "" {
			return &echo.HTTPError{
				Code:    http.StatusBadRequest,
				Message: "device serial number is required",
			}
		}
		if dto.Timestamp.IsZero() {
			return &echo.HTTPError{
				Code:    http.StatusBadRequest,
				Message: "timestamp is required",
			}
		}
		batch = append(batch, readings.Reading{
			DeviceSerialNumber: serialNumber,
			HeartRate:          dto.HeartRate,
			Spo2:               dto.Spo2,
			Timestamp:          dto.Timestamp,
		})
	}

	if err := h.readings.CreateMany(ctx, batch); err != nil {
		return err
	}

	return ec.NoContent(http.StatusCreated)
}

func decodeReadings(body io.Reader) ([]CreateReadingDto, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	var dtos []CreateReadingDto
	if err := json.Unmarshal(raw, &dtos); err == nil {
		return dtos, nil
	}

	dto := CreateReadingDto{}
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, err
	}
	return []CreateReadingDto{dto}, nil
}
