package handler

import (
	"errors"
	"strconv"

	"github.com/cryptosim-ai/internal/middleware"
	"github.com/cryptosim-ai/internal/service"
	"github.com/cryptosim-ai/internal/simulation"
	"github.com/cryptosim-ai/pkg/response"
	"github.com/gin-gonic/gin"
)

// SimulationHandler handles simulation API requests
type SimulationHandler struct {
	simService *service.SimulationService
}

// NewSimulationHandler creates a new SimulationHandler
func NewSimulationHandler(simService *service.SimulationService) *SimulationHandler {
	return &SimulationHandler{
		simService: simService,
	}
}

// Initialize starts the simulation for the authenticated user
// POST /api/v1/simulation/initialize
func (h *SimulationHandler) Initialize(c *gin.Context) {
	userID := middleware.GetUserID(c)

	plan, err := h.simService.InitializeSimulation(userID, false)
	if err != nil {
		if errors.Is(err, service.ErrPlanExists) {
			response.Conflict(c, "simulation already initialized")
			return
		}
		if errors.Is(err, simulation.ErrBelowMinimumDeposit) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, "failed to initialize simulation")
		return
	}

	response.Created(c, plan)
}

// GetStatus returns the simulation summary
// GET /api/v1/simulation/status
func (h *SimulationHandler) GetStatus(c *gin.Context) {
	userID := middleware.GetUserID(c)

	status, err := h.simService.GetStatus(userID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			// uninitialized users still get a well-formed payload
			response.Success(c, &service.SimulationStatus{})
			return
		}
		response.InternalError(c, "failed to load simulation status")
		return
	}

	response.Success(c, status)
}

// GetPlan returns the full 12-month plan
// GET /api/v1/simulation/plan
func (h *SimulationHandler) GetPlan(c *gin.Context) {
	userID := middleware.GetUserID(c)

	plan, err := h.simService.GetPlan(userID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			response.NotFound(c, "no simulation plan")
			return
		}
		response.InternalError(c, "failed to load plan")
		return
	}

	response.Success(c, plan)
}

// GetCurrentMonth returns the active month and its payout schedule
// GET /api/v1/simulation/current-month
func (h *SimulationHandler) GetCurrentMonth(c *gin.Context) {
	userID := middleware.GetUserID(c)

	view, err := h.simService.GetCurrentMonth(userID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) || errors.Is(err, simulation.ErrNoActiveMonth) {
			response.NotFound(c, "no active simulation month")
			return
		}
		response.InternalError(c, "failed to load current month")
		return
	}

	response.Success(c, view)
}

// GetProjection computes a hypothetical 12-month projection for an amount
// GET /api/v1/simulation/projection?amount=10000
func (h *SimulationHandler) GetProjection(c *gin.Context) {
	amount, err := strconv.ParseFloat(c.Query("amount"), 64)
	if err != nil {
		response.BadRequest(c, "invalid amount")
		return
	}

	proj, err := h.simService.Project(amount)
	if err != nil {
		if errors.Is(err, simulation.ErrBelowMinimumDeposit) {
			response.BadRequest(c, err.Error())
			return
		}
		// projection is presentational; degrade to a zeroed payload
		response.Fallback(c, &service.Projection{Amount: amount})
		return
	}

	response.Success(c, proj)
}

// RegisterRoutes registers simulation routes
func (h *SimulationHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	sim := rg.Group("/simulation")
	sim.Use(authMiddleware)
	{
		sim.POST("/initialize", h.Initialize)
		sim.GET("/status", h.GetStatus)
		sim.GET("/plan", h.GetPlan)
		sim.GET("/current-month", h.GetCurrentMonth)
		sim.GET("/projection", h.GetProjection)
	}
}
