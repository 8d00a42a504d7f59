package controller

import (
	"context"
	"errors"
	"strconv"

	"github.com/appleplayground/media-service/entity"
	"github.com/appleplayground/media-service/http/controller/dto"
	"github.com/appleplayground/media-service/provider"
	"github.com/appleplayground/media-service/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (ctrl *Controller) FollowUser(c *gin.Context) {
	ctx := c.Request.Context()

	followerID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	followingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid user id")
		return
	}

	if err := ctrl.Provider.FollowService.Follow(ctx, followerID, followingID); err != nil {
		switch {
		case errors.Is(err, provider.ErrSelfFollowNotAllowed):
			utils.JSON400(c, "Cannot follow yourself")
		case errors.Is(err, provider.ErrUserNotFound):
			utils.JSON404(c, "User not found")
		case errors.Is(err, provider.ErrAlreadyFollowing):
			utils.JSON409(c, "Already following this user")
		default:
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Follow] Follow %s -> %s failed", followerID, followingID)
			utils.JSON500(c, "Failed to follow user")
		}
		return
	}

	utils.JSON201(c, gin.H{"following": followingID})
}

func (ctrl *Controller) UnfollowUser(c *gin.Context) {
	ctx := c.Request.Context()

	followerID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	followingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid user id")
		return
	}

	if err := ctrl.Provider.FollowService.Unfollow(ctx, followerID, followingID); err != nil {
		switch {
		case errors.Is(err, provider.ErrSelfFollowNotAllowed):
			utils.JSON400(c, "Cannot unfollow yourself")
		case errors.Is(err, provider.ErrNotFollowing):
			utils.JSON409(c, "Not following this user")
		default:
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Follow] Unfollow %s -> %s failed", followerID, followingID)
			utils.JSON500(c, "Failed to unfollow user")
		}
		return
	}

	utils.JSON200(c, gin.H{"unfollowed": followingID})
}

func (ctrl *Controller) FollowStatus(c *gin.Context) {
	ctx := c.Request.Context()

	requestorID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid user id")
		return
	}

	status, err := ctrl.Provider.FollowService.Status(ctx, requestorID, targetID)
	if err != nil {
		if errors.Is(err, provider.ErrUserNotFound) {
			utils.JSON404(c, "User not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Follow] Status lookup failed for %s", targetID)
		utils.JSON500(c, "Failed to load follow status")
		return
	}

	utils.JSON200(c, status)
}

func (ctrl *Controller) ListFollowers(c *gin.Context) {
	ctrl.listFollowEdges(c, ctrl.Provider.FollowService.Followers, "followers")
}

func (ctrl *Controller) ListFollowing(c *gin.Context) {
	ctrl.listFollowEdges(c, ctrl.Provider.FollowService.Following, "following")
}

func (ctrl *Controller) listFollowEdges(
	c *gin.Context,
	list func(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]entity.User, error),
	key string,
) {
	ctx := c.Request.Context()

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid user id")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	users, err := list(ctx, userID, page, pageSize)
	if err != nil {
		if errors.Is(err, provider.ErrUserNotFound) {
			utils.JSON404(c, "User not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Follow] Failed to list %s for user %s", key, userID)
		utils.JSON500(c, "Failed to list "+key)
		return
	}

	utils.JSON200(c, gin.H{
		key:         dto.ToUserSummaries(users),
		"page":      page,
		"page_size": pageSize,
	})
}
