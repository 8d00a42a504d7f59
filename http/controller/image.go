package controller

import (
	"errors"
	"strconv"
	"time"

	"github.com/appleplayground/media-service/http/controller/dto"
	"github.com/appleplayground/media-service/provider"
	"github.com/appleplayground/media-service/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (ctrl *Controller) UploadImage(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] user_id not found in context")
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to get file from form data")
		utils.JSON400(c, "Failed to get file: "+err.Error())
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to open uploaded file")
		utils.JSON500(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	future := ctrl.Provider.UploadService.Upload(ctx, userID, provider.UploadRequest{
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
		Content:     file,
	})

	image, err := future.Wait(ctx)
	if err != nil {
		ctrl.respondUploadError(c, err)
		return
	}

	utils.JSON201(c, dto.ToImageResponse(image))
}

func (ctrl *Controller) GetImage(c *gin.Context) {
	ctx := c.Request.Context()

	imageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid image id")
		return
	}

	image, err := ctrl.Provider.UploadService.GetImage(ctx, imageID)
	if err != nil {
		if errors.Is(err, provider.ErrImageNotFound) {
			utils.JSON404(c, "Image not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to load image %s", imageID)
		utils.JSON500(c, "Failed to load image")
		return
	}

	utils.JSON200(c, dto.ToImageResponse(image))
}

func (ctrl *Controller) DeleteImage(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	imageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid image id")
		return
	}

	if err := ctrl.Provider.UploadService.Delete(ctx, imageID, userID); err != nil {
		switch {
		case errors.Is(err, provider.ErrImageNotFound):
			utils.JSON404(c, "Image not found")
		case errors.Is(err, provider.ErrForbidden):
			utils.JSON403(c, "Forbidden: you don't own this image")
		default:
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to delete image %s", imageID)
			utils.JSON500(c, "Failed to delete image")
		}
		return
	}

	utils.JSON200(c, gin.H{"deleted": imageID})
}

func (ctrl *Controller) ListUserImages(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid user id")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	images, err := ctrl.Provider.UploadService.ListUserImages(ctx, ownerID, page, pageSize)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to list images for user %s", ownerID)
		utils.JSON500(c, "Failed to list images")
		return
	}

	utils.JSON200(c, gin.H{
		"images":    dto.ToImageResponses(images),
		"page":      page,
		"page_size": pageSize,
	})
}

func (ctrl *Controller) CreateUploadURL(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	var req dto.CreateUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "file_name and content_type are required")
		return
	}

	presigned, err := ctrl.Provider.UploadService.CreateUploadURL(ctx, userID, req.FileName, req.ContentType)
	if err != nil {
		if errors.Is(err, provider.ErrUnsupportedType) {
			utils.JSON400(c, err.Error())
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to create upload URL for user %s", userID)
		utils.JSON500(c, "Failed to create upload URL")
		return
	}

	utils.JSON201(c, presigned)
}

func (ctrl *Controller) CompleteUpload(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	imageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid image id")
		return
	}

	var req dto.CompleteUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "token is required")
		return
	}

	image, err := ctrl.Provider.UploadService.CompleteUpload(ctx, imageID, userID, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, provider.ErrImageNotFound):
			utils.JSON404(c, "Image not found")
		case errors.Is(err, provider.ErrForbidden):
			utils.JSON403(c, "Forbidden: you don't own this image")
		case errors.Is(err, provider.ErrInvalidToken):
			utils.JSON400(c, "Invalid completion token")
		case errors.Is(err, provider.ErrUploadIncomplete):
			utils.JSON409(c, "Object has not been uploaded yet")
		default:
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to complete upload for image %s", imageID)
			utils.JSON500(c, "Failed to complete upload")
		}
		return
	}

	utils.JSON200(c, dto.ToImageResponse(image))
}

func (ctrl *Controller) CreateDownloadURL(c *gin.Context) {
	ctx := c.Request.Context()

	imageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid image id")
		return
	}

	ttl := ctrl.Config.EnvConfig.Upload.PresignTTL
	if raw := c.Query("ttl"); raw != "" {
		if parsed, parseErr := time.ParseDuration(raw); parseErr == nil && parsed > 0 && parsed <= 24*time.Hour {
			ttl = parsed
		}
	}

	url, err := ctrl.Provider.UploadService.CreateDownloadURL(ctx, imageID, ttl)
	if err != nil {
		if errors.Is(err, provider.ErrImageNotFound) {
			utils.JSON404(c, "Image not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Failed to create download URL for image %s", imageID)
		utils.JSON500(c, "Failed to create download URL")
		return
	}

	utils.JSON200(c, dto.DownloadURLResponse{URL: url, ExpiresAt: time.Now().Add(ttl)})
}

func (ctrl *Controller) respondUploadError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	switch {
	case errors.Is(err, provider.ErrInvalidFile):
		utils.JSON400(c, "File is empty")
	case errors.Is(err, provider.ErrUnsupportedType):
		utils.JSON400(c, err.Error())
	case errors.Is(err, provider.ErrFileTooLarge):
		utils.JSON413(c, err.Error())
	default:
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Image] Upload failed: %v", err)
		utils.JSON500(c, "Upload failed")
	}
}
