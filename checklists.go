package main

import (
	"encoding/json"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/checklist_backend/models"
	"github.com/gin-gonic/gin"
)

func getChecklistsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := models.GetChecklists(c.Request.Context())
		if err != nil {
			respondError(c, err, "")
			return
		}
		respondData(c, results)
	}
}

func getChecklistHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		detail, err := models.GetChecklist(c.Request.Context(), id)
		if err != nil {
			respondError(c, err, "Checklist not found")
			return
		}
		respondData(c, detail)
	}
}

// parseViolationIds accepts the ids either as a JSON array string (how a
// multipart form sends them) or as a comma separated list.
func parseViolationIds(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "[") {
		var ids []int64
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			return nil, err
		}
		return ids, nil
	}

	ids := make([]int64, 0)
	if raw == "" {
		return ids, nil
	}
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func createChecklistHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewChecklist

		if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			input.Name = c.PostForm("name")
			input.Site = c.PostForm("site")
			if raw, ok := c.GetPostForm("violation_ids"); ok {
				ids, err := parseViolationIds(raw)
				if err != nil {
					respondBadRequest(c, "Invalid violation ids")
					return
				}
				input.ViolationIds = ids
			}
			imageUrl, err := saveUploadedImage(c)
			if err != nil {
				respondError(c, err, "")
				return
			}
			input.ImageUrl = imageUrl
		} else {
			if err := c.ShouldBindJSON(&input); err != nil {
				respondBadRequest(c, "Name and site are required")
				return
			}
		}

		checklist, err := models.CreateChecklist(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err, "")
			return
		}
		respondData(c, checklist)
	}
}

func updateChecklistHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}

		var input models.ChecklistUpdate

		if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			if name, ok := c.GetPostForm("name"); ok {
				input.Name = &name
			}
			if site, ok := c.GetPostForm("site"); ok {
				input.Site = &site
			}
			if raw, ok := c.GetPostForm("violation_ids"); ok {
				ids, err := parseViolationIds(raw)
				if err != nil {
					respondBadRequest(c, "Invalid violation ids")
					return
				}
				input.ViolationIds = ids
			}
			imageUrl, err := saveUploadedImage(c)
			if err != nil {
				respondError(c, err, "")
				return
			}
			if imageUrl != nil {
				input.ImageUrl = imageUrl
			}
		} else {
			if err := c.ShouldBindJSON(&input); err != nil {
				respondBadRequest(c, "Invalid request body")
				return
			}
		}

		checklist, err := models.UpdateChecklist(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err, "Checklist not found")
			return
		}
		respondData(c, checklist)
	}
}

func deleteChecklistHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if _, err := models.DeleteChecklist(c.Request.Context(), id); err != nil {
			respondError(c, err, "Checklist not found")
			return
		}
		respondMessage(c, "Checklist deleted successfully")
	}
}

func completeChecklistHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		checklist, err := models.CompleteChecklist(c.Request.Context(), id)
		if err != nil {
			respondError(c, err, "Checklist not found")
			return
		}
		respondData(c, checklist)
	}
}

/* Progress */

func upsertProgressHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checklistId, ok := idParam(c, "id")
		if !ok {
			return
		}
		violationId, ok := idParam(c, "violationId")
		if !ok {
			return
		}

		var input models.ProgressInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBadRequest(c, "Invalid request body")
			return
		}

		row, err := models.UpsertChecklistProgress(c.Request.Context(), checklistId, violationId, &input)
		if err != nil {
			respondError(c, err, "")
			return
		}
		respondData(c, row)
	}
}

func getProgressHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checklistId, ok := idParam(c, "id")
		if !ok {
			return
		}
		results, err := models.GetChecklistProgress(c.Request.Context(), checklistId)
		if err != nil {
			respondError(c, err, "")
			return
		}
		respondData(c, results)
	}
}

func resetProgressHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checklistId, ok := idParam(c, "id")
		if !ok {
			return
		}
		if err := models.ResetChecklistProgress(c.Request.Context(), checklistId); err != nil {
			respondError(c, err, "")
			return
		}
		respondMessage(c, "Checklist progress reset successfully")
	}
}
