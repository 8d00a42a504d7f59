package controller

import (
	"context"
	"errors"

	"github.com/appleplayground/media-service/http/controller/dto"
	"github.com/appleplayground/media-service/provider"
	"github.com/appleplayground/media-service/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (ctrl *Controller) LikePost(c *gin.Context) {
	ctrl.applyPostCounter(c, ctrl.Provider.LikeService.Like)
}

func (ctrl *Controller) UnlikePost(c *gin.Context) {
	ctrl.applyPostCounter(c, ctrl.Provider.LikeService.Unlike)
}

func (ctrl *Controller) ViewPost(c *gin.Context) {
	ctrl.applyPostCounter(c, ctrl.Provider.LikeService.View)
}

func (ctrl *Controller) applyPostCounter(c *gin.Context, apply func(ctx context.Context, postID uuid.UUID) (int64, error)) {
	ctx := c.Request.Context()

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid post id")
		return
	}

	count, err := apply(ctx, postID)
	if err != nil {
		if errors.Is(err, provider.ErrPostNotFound) {
			utils.JSON404(c, "Blog post not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Post] Counter update failed for post %s", postID)
		utils.JSON500(c, "Failed to update counter")
		return
	}

	utils.JSON200(c, dto.CounterResponse{PostID: postID, Count: count})
}
