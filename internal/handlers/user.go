package handlers

import (
	"context"

	"github.com/edenhall/corecrm/internal/middleware"
	"github.com/m1z23r/drift/pkg/drift"
)

type UserHandler struct {
	userService UserServiceInterface
}

func NewUserHandler(userService UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) GetMe(c *drift.Context) {
	user, err := h.userService.GetByEmail(context.Background(), middleware.GetUserEmail(c))
	if err != nil || user == nil {
		c.NotFound("user not found")
		return
	}

	_ = c.JSON(200, userResponse(user))
}
