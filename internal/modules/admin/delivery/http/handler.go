package handler

import (
	"net/http"
	"strconv"

	"anoa.com/facultydir/internal/modules/admin/dto"
	adminService "anoa.com/facultydir/internal/modules/admin/service"
	profileService "anoa.com/facultydir/internal/modules/profile/service"
	"anoa.com/facultydir/pkg/response"
	"anoa.com/facultydir/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminService   adminService.AdminService
	profileService profileService.ProfileService
}

func NewAdminHandler(adminSvc adminService.AdminService, profileSvc profileService.ProfileService) *AdminHandler {
	return &AdminHandler{
		adminService:   adminSvc,
		profileService: profileSvc,
	}
}

func (h *AdminHandler) GetAllUsers(c *gin.Context) {
	res, err := h.adminService.GetAllUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}

	var input dto.UpdateUserRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.adminService.UpdateUserRole(c.Request.Context(), id, input.Role, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), id, actor); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted successfully"})
}

func (h *AdminHandler) GetStats(c *gin.Context) {
	res, err := h.adminService.GetStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// ReconcileFiles triggers the orphan-file sweep outside its timer.
func (h *AdminHandler) ReconcileFiles(c *gin.Context) {
	if err := h.profileService.CleanupOrphanFiles(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "orphan file cleanup completed"})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return uint(id), true
}
