package controllers

import (
	"errors"

	"github.com/luiz3283/HELP-PRO/capture"
	"github.com/luiz3283/HELP-PRO/pkg/resp"
	"github.com/luiz3283/HELP-PRO/services"

	"github.com/gin-gonic/gin"
)

// renderError maps service errors to HTTP answers. ErrDayFinished is not handled
// here since the rider panel shows it as a state.
func renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, capture.ErrCameraUnavailable):
		resp.Unprocessable(c, "camera unavailable, check the permission and try again")
	case errors.Is(err, capture.ErrCaptureInProgress):
		resp.Unprocessable(c, err.Error())
	case errors.Is(err, services.ErrValidation):
		resp.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrPersistence):
		resp.Unavailable(c, services.ErrPersistence.Error())
	case errors.Is(err, services.ErrNoLogs):
		resp.NotFound(c, "no logs found for this period")
	case errors.Is(err, services.ErrNoPhotos):
		resp.NotFound(c, "no photos found for this period")
	case errors.Is(err, services.ErrRiderNotFound), errors.Is(err, services.ErrLogNotFound):
		resp.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		resp.Unauthorized(c, err.Error())
	default:
		resp.ServerError(c, err)
	}
}
