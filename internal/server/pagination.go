package server

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// PageParams holds parsed pagination query parameters
type PageParams struct {
	Page     int
	PageSize int
}

// Offset returns the record offset for the page
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PaginatedResponse is the list envelope shared by paginated endpoints
type PaginatedResponse struct {
	Count       int64       `json:"count"`
	Next        *int        `json:"next"`
	Previous    *int        `json:"previous"`
	Results     interface{} `json:"results"`
	TotalPages  int         `json:"total_pages"`
	CurrentPage int         `json:"current_page"`
}

// parsePageParams reads page/page_size query params with sane bounds
func parsePageParams(c *gin.Context) PageParams {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if err != nil || pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return PageParams{Page: page, PageSize: pageSize}
}

// paginate builds the envelope around a page of results
func paginate(params PageParams, count int64, results interface{}) PaginatedResponse {
	totalPages := int((count + int64(params.PageSize) - 1) / int64(params.PageSize))
	if totalPages < 1 {
		totalPages = 1
	}

	resp := PaginatedResponse{
		Count:       count,
		Results:     results,
		TotalPages:  totalPages,
		CurrentPage: params.Page,
	}

	if params.Page < totalPages {
		next := params.Page + 1
		resp.Next = &next
	}
	if params.Page > 1 {
		prev := params.Page - 1
		resp.Previous = &prev
	}

	return resp
}
