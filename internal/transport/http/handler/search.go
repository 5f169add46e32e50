package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docassist/internal/app"
	"docassist/internal/retrieval"
	"docassist/internal/transport/http/response"
)

type SearchHandler struct {
	searchService *app.SearchService
}

type SearchRequest struct {
	Query       string  `json:"query" binding:"required"`
	Limit       int     `json:"limit" binding:"omitempty,gt=0,lte=50"`
	Threshold   float64 `json:"threshold" binding:"omitempty,gte=0,lte=1"`
	Alpha       float64 `json:"alpha" binding:"omitempty,gt=0,lte=1"`
	DocumentIDs []uint  `json:"document_ids"`
}

func NewSearchHandler(searchService *app.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

func (h *SearchHandler) Search(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	results, err := h.searchService.Search(c.Request.Context(), req.Query, retrieval.SearchOptions{
		Limit:       req.Limit,
		Threshold:   req.Threshold,
		Alpha:       req.Alpha,
		UserID:      userID,
		DocumentIDs: req.DocumentIDs,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "search failed")
		}
		return
	}

	response.OK(c, gin.H{
		"query":   req.Query,
		"count":   len(results),
		"results": results,
	})
}
