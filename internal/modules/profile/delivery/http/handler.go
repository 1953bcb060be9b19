package handler

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"anoa.com/facultydir/internal/entity"
	profileDto "anoa.com/facultydir/internal/modules/profile/dto"
	profileService "anoa.com/facultydir/internal/modules/profile/service"
	"anoa.com/facultydir/pkg/response"
	"anoa.com/facultydir/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	service profileService.ProfileService
}

func NewProfileHandler(service profileService.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var input profileDto.CreateProfileInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	files, closers, err := collectSlotFiles(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer closeAll(closers)

	res, err := h.service.CreateProfile(c.Request.Context(), actor, input, files)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	res, err := h.service.GetProfile(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	res, err := h.service.ListProfiles(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}

	var input profileDto.UpdateProfileInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	files, closers, err := collectSlotFiles(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer closeAll(closers)

	res, err := h.service.UpdateProfile(c.Request.Context(), id, actor, input, files)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteProfile(c.Request.Context(), id, actor); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "profile deleted successfully"})
}

func (h *ProfileHandler) RemoveProfileFile(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.RemoveProfileFile(c.Request.Context(), id, c.Param("slot"), actor); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "file removed successfully"})
}

func (h *ProfileHandler) LockProfile(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}

	var input profileDto.LockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.service.LockProfile(c.Request.Context(), id, *input.Lock, actor); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": lockMessage(*input.Lock)})
}

func (h *ProfileHandler) LockAllProfiles(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var input profileDto.LockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.service.LockAllProfiles(c.Request.Context(), *input.Lock, actor); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "all profiles " + lockMessage(*input.Lock)})
}

func (h *ProfileHandler) RequestEdit(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.RequestEdit(c.Request.Context(), id, actor); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "edit request submitted"})
}

func (h *ProfileHandler) ApproveEdit(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.ApproveEdit(c.Request.Context(), id, actor); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "edit request approved"})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return 0, false
	}
	return uint(id), true
}

func lockMessage(lock bool) string {
	if lock {
		return "locked successfully"
	}
	return "unlocked successfully"
}

// collectSlotFiles opens every multipart file part whose field name matches a
// document slot. Unrecognized parts are ignored here; the service validates
// slot names it receives.
func collectSlotFiles(c *gin.Context) (map[string]profileDto.DocumentFile, []multipart.File, error) {
	files := make(map[string]profileDto.DocumentFile)
	var closers []multipart.File

	form, err := c.MultipartForm()
	if err != nil {
		// Not a multipart request; no files to collect.
		return files, closers, nil
	}

	for _, slot := range entity.DocumentSlots {
		headers := form.File[slot]
		if len(headers) == 0 {
			continue
		}

		f, err := headers[0].Open()
		if err != nil {
			closeAll(closers)
			return nil, nil, err
		}

		closers = append(closers, f)
		files[slot] = profileDto.DocumentFile{
			Reader:   f,
			FileName: headers[0].Filename,
		}
	}

	return files, closers, nil
}

func closeAll(closers []multipart.File) {
	for _, f := range closers {
		f.Close()
	}
}
