package controllers

import (
	"bytes"

	"github.com/luiz3283/HELP-PRO/entity"
	"github.com/luiz3283/HELP-PRO/pkg/resp"
	"github.com/luiz3283/HELP-PRO/services"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	Shifts  *services.ShiftService
	Reports *services.ReportService
	Riders  *services.RiderService
}

func NewAdminController(shifts *services.ShiftService, reports *services.ReportService, riders *services.RiderService) *AdminController {
	return &AdminController{Shifts: shifts, Reports: reports, Riders: riders}
}

type RiderRequest struct {
	Name         string      `json:"name" binding:"required"`
	Username     string      `json:"username"`
	Password     string      `json:"password"`
	VehiclePlate string      `json:"vehiclePlate" binding:"required"`
	VehicleModel string      `json:"vehicleModel"`
	ClientName   string      `json:"clientName"`
	Role         entity.Role `json:"role"`
}

func (r RiderRequest) input() services.RiderInput {
	return services.RiderInput{
		Name:         r.Name,
		Username:     r.Username,
		Password:     r.Password,
		VehiclePlate: r.VehiclePlate,
		VehicleModel: r.VehicleModel,
		ClientName:   r.ClientName,
		Role:         r.Role,
	}
}

// filterFrom reads ?date=&month=&riderId=&q=
func filterFrom(c *gin.Context) services.Filter {
	return services.Filter{
		Date:    c.Query("date"),
		Month:   c.Query("month"),
		RiderID: c.Query("riderId"),
		Text:    c.Query("q"),
	}
}

// GET /admin/dashboard
func (ac *AdminController) Dashboard(c *gin.Context) {
	d, err := ac.Reports.Dashboard()
	if err != nil {
		renderError(c, err)
		return
	}
	resp.OK(c, d)
}

// GET /admin/logs
func (ac *AdminController) Logs(c *gin.Context) {
	logs, err := ac.Reports.Logs(filterFrom(c))
	if err != nil {
		renderError(c, err)
		return
	}
	resp.OK(c, gin.H{
		"items":   logs,
		"total":   len(logs),
		"totalKm": services.AggregateDistance(logs),
	})
}

// DELETE /admin/logs/:id
func (ac *AdminController) DeleteLog(c *gin.Context) {
	if err := ac.Shifts.DeleteLog(c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	resp.OK(c, gin.H{"deleted": c.Param("id")})
}

// GET /admin/export/xlsx
func (ac *AdminController) ExportSpreadsheet(c *gin.Context) {
	logs, err := ac.Reports.Export(filterFrom(c))
	if err != nil {
		renderError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := services.WriteSpreadsheet(&buf, "Relatorio", services.BuildTabularReport(logs, ac.Reports.Zone)); err != nil {
		resp.ServerError(c, err)
		return
	}
	resp.Attachment(c, xlsxContentType, services.FleetReportFileName(ac.Reports.Now().In(ac.Reports.Zone)), buf.Bytes())
}

// GET /admin/export/photos
func (ac *AdminController) ExportPhotos(c *gin.Context) {
	entries, err := ac.Reports.Photos(filterFrom(c))
	if err != nil {
		renderError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := services.WriteArchive(&buf, entries); err != nil {
		resp.ServerError(c, err)
		return
	}
	resp.Attachment(c, "application/zip", services.PhotoArchiveFileName(ac.Reports.Now().In(ac.Reports.Zone)), buf.Bytes())
}

// GET /admin/riders/:id/export?month=YYYY-MM
func (ac *AdminController) RiderExport(c *gin.Context) {
	writeRiderReport(c, ac.Reports, c.Param("id"), c.Query("month"))
}

// GET /admin/riders
func (ac *AdminController) ListRiders(c *gin.Context) {
	riders, err := ac.Riders.List()
	if err != nil {
		renderError(c, err)
		return
	}
	out := make([]entity.Rider, len(riders))
	for i, rd := range riders {
		out[i] = publicRider(rd)
	}
	resp.OK(c, out)
}

// POST /admin/riders
func (ac *AdminController) CreateRider(c *gin.Context) {
	var req RiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	rd, err := ac.Riders.Register(req.input())
	if err != nil {
		renderError(c, err)
		return
	}
	resp.Created(c, publicRider(*rd))
}

// PUT /admin/riders/:id
func (ac *AdminController) UpdateRider(c *gin.Context) {
	var req RiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	rd, err := ac.Riders.Update(c.Param("id"), req.input())
	if err != nil {
		renderError(c, err)
		return
	}
	resp.OK(c, publicRider(*rd))
}

// DELETE /admin/riders/:id
// The rider's logs stay in the history.
func (ac *AdminController) DeleteRider(c *gin.Context) {
	if err := ac.Riders.Delete(c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	resp.OK(c, gin.H{"deleted": c.Param("id")})
}
