package inbound

import (
	"context"

	"github.com/andresuryana/vericode/internal/otp/usecase"
	"github.com/andresuryana/vericode/internal/pkg/router"
)

type uc interface {
	RequestCode(ctx context.Context, in usecase.RequestCodeInput) (*usecase.RequestCodeOutput, error)
	VerifyCode(ctx context.Context, in usecase.VerifyCodeInput) (*usecase.VerifyCodeOutput, error)

	Sweep(ctx context.Context) (*usecase.SweepOutput, error)
	Purge(ctx context.Context, in usecase.PurgeInput) (*usecase.PurgeOutput, error)

	Flagged(ctx context.Context, in usecase.FlaggedInput) (*usecase.FlaggedOutput, error)
	Stats(ctx context.Context, in usecase.StatsInput) (*usecase.StatsOutput, error)
	StatsExport(ctx context.Context, in usecase.StatsExportInput) (*usecase.StatsExportOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Code lifecycle
	r.POST("/api/v1/otp/request", end.RequestCode)
	r.POST("/api/v1/otp/verify", end.VerifyCode)

	// Operations (need authenticated & authorization)
	r.GET("/api/v1/otp/admin/flagged", end.Flagged)
	r.GET("/api/v1/otp/admin/stats", end.Stats)
	r.POST("/api/v1/otp/admin/stats/export", end.StatsExport)
	r.POST("/api/v1/otp/admin/sweep", end.Sweep)
	r.POST("/api/v1/otp/admin/purge", end.Purge)
}
