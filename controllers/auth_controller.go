package controllers

import (
	"github.com/luiz3283/HELP-PRO/entity"
	"github.com/luiz3283/HELP-PRO/pkg/resp"
	"github.com/luiz3283/HELP-PRO/services"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Name         string `json:"name" binding:"required"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	VehiclePlate string `json:"vehiclePlate" binding:"required"`
	VehicleModel string `json:"vehicleModel"`
	ClientName   string `json:"clientName"`
}
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password"`
}

type AuthController struct{ Riders *services.RiderService }

func NewAuthController(riders *services.RiderService) *AuthController {
	return &AuthController{Riders: riders}
}

// publicRider hides the stored password.
func publicRider(rd entity.Rider) entity.Rider {
	rd.Password = ""
	return rd
}

// POST /auth/register
func (a *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}

	rd, err := a.Riders.Register(services.RiderInput{
		Name:         req.Name,
		Username:     req.Username,
		Password:     req.Password,
		VehiclePlate: req.VehiclePlate,
		VehicleModel: req.VehicleModel,
		ClientName:   req.ClientName,
		Role:         entity.RoleMotoboy,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	token, err := a.Riders.IssueToken(rd)
	if err != nil {
		resp.ServerError(c, err)
		return
	}
	resp.Created(c, gin.H{"token": token, "rider": publicRider(*rd)})
}

// POST /auth/login
func (a *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	token, rd, err := a.Riders.Login(req.Username, req.Password)
	if err != nil {
		renderError(c, err)
		return
	}
	resp.OK(c, gin.H{"token": token, "rider": publicRider(*rd)})
}
