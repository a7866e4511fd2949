// Package http provides the read only registry endpoints
package http

import (
	stdhttp "net/http"
	"strconv"

	"churnops/internal/modkit/httpkit"
	perr "churnops/internal/platform/errors"
	"churnops/internal/services/registry/domain"
)

// Register mounts registry endpoints on the given router
func Register(r httpkit.Router, reg domain.RegistryPort, ex domain.ExecutionPort) {
	h := &handlers{reg: reg, ex: ex}

	httpkit.Get(r, "/models/{group}/packages", h.list)
	httpkit.Get(r, "/models/{group}/packages/{version}", h.get)
	httpkit.Get(r, "/models/{group}/latest", h.latest)
	httpkit.Get(r, "/executions/{id}", h.execution)
}

type handlers struct {
	reg domain.RegistryPort
	ex  domain.ExecutionPort
}

// swagger:route GET /models/{group}/packages Registry listPackages
// @Summary List model packages in a group, newest first
// @Tags Registry
// @Produce json
// @Param group path string true "Model package group"
// @Param status query string false "Approval status filter"
// @Param limit query int false "Page size"
// @Success 200 {array} domain.ModelPackage "ok"
// @Failure 422 {object} httpkit.Envelope "invalid group or status"
// @Router /api/v1/models/{group}/packages [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	status, err := domain.ParseApprovalStatus(r.URL.Query().Get("status"))
	if err != nil {
		return nil, err
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil || limit < 0 {
			return nil, perr.WithField(perr.InvalidArgf("limit must be a non negative integer"), "limit")
		}
	}
	return h.reg.List(r.Context(), httpkit.URLParam(r, "group"), domain.ListFilter{Status: status, Limit: limit})
}

// swagger:route GET /models/{group}/packages/{version} Registry getPackage
// @Summary Get one model package version
// @Tags Registry
// @Produce json
// @Param group path string true "Model package group"
// @Param version path int true "Package version"
// @Success 200 {object} domain.ModelPackage "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /api/v1/models/{group}/packages/{version} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	v, err := strconv.Atoi(httpkit.URLParam(r, "version"))
	if err != nil || v < 1 {
		return nil, perr.WithField(perr.InvalidArgf("version must be a positive integer"), "version")
	}
	return h.reg.Get(r.Context(), httpkit.URLParam(r, "group"), v)
}

// swagger:route GET /models/{group}/latest Registry latestPackage
// @Summary Get the newest model package, optionally with a given approval status
// @Tags Registry
// @Produce json
// @Param group path string true "Model package group"
// @Param status query string false "Approval status filter"
// @Success 200 {object} domain.ModelPackage "ok"
// @Failure 404 {object} httpkit.Envelope "no package"
// @Router /api/v1/models/{group}/latest [get]
func (h *handlers) latest(r *stdhttp.Request) (any, error) {
	status, err := domain.ParseApprovalStatus(r.URL.Query().Get("status"))
	if err != nil {
		return nil, err
	}
	return h.reg.Latest(r.Context(), httpkit.URLParam(r, "group"), status)
}

// swagger:route GET /executions/{id} Registry getExecution
// @Summary Get a pipeline execution
// @Tags Registry
// @Produce json
// @Param id path string true "Execution id"
// @Success 200 {object} domain.Execution "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /api/v1/executions/{id} [get]
func (h *handlers) execution(r *stdhttp.Request) (any, error) {
	return h.ex.GetExecution(r.Context(), httpkit.URLParam(r, "id"))
}
