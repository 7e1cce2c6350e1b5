package api

import (
	"go.uber.org/fx"

	"github.com/pulseox-org/pulseox/auth"
	"github.com/pulseox-org/pulseox/patients"
	"github.com/pulseox-org/pulseox/physicians"
	"github.com/pulseox-org/pulseox/readings"
	"github.com/pulseox-org/pulseox/stats"
	"github.com/pulseox-org/pulseox/store"
)

type Handler struct {
	patients    patients.Service
	physicians  physicians.Service
	readings    readings.Repository
	stats       stats.Service
	tokenIssuer *auth.TokenIssuer
}

type Params struct {
	fx.In

	Patients    patients.Service
	Physicians  physicians.Service
	Readings    readings.Repository
	Stats       stats.Service
	TokenIssuer *auth.TokenIssuer
}

func NewHandler(p Params) *Handler {
	return &Handler{
		patients:    p.Patients,
		physicians:  p.Physicians,
		readings:    p.Readings,
		stats:       p.Stats,
		tokenIssuer: p.TokenIssuer,
	}
}

func pagination(offset, limit *int) store.Pagination {
	page := store.DefaultPagination()
	if offset != nil {
		page.Offset = *offset
	}
	if limit != nil {
		page.Limit = *limit
	}
	return page
}
