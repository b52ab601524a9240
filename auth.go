package main

import (
	"strings"

	"bitbucket.org/mmdatafocus/checklist_backend/models"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	EmpId    string `json:"empid"`
	Password string `json:"password"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "Employee ID and password are required")
			return
		}
		if strings.TrimSpace(req.EmpId) == "" || req.Password == "" {
			respondBadRequest(c, "Employee ID and password are required")
			return
		}

		info, err := models.Login(c.Request.Context(), req.EmpId, req.Password)
		if err != nil {
			respondError(c, err, "")
			return
		}
		respondData(c, info)
	}
}
