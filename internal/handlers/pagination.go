package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/store"
)

var errInvalidPagination = errors.New("invalid pagination params")

func parsePaginationParams(pageStr, limitStr string) (store.Page, error) {
	page := store.Page{Page: 1, Limit: store.DefaultLimit}

	if pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p < 1 {
			return store.Page{}, errInvalidPagination
		}
		page.Page = p
	}

	if limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 {
			return store.Page{}, errInvalidPagination
		}
		page.Limit = l
	}

	return page.Normalize(), nil
}

func pageFromQuery(c *gin.Context) (store.Page, bool) {
	page, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return store.Page{}, false
	}
	return page, true
}

type pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

func newPagination(page store.Page, total int64) pagination {
	page = page.Normalize()
	pages := int(math.Ceil(float64(total) / float64(page.Limit)))
	return pagination{
		Page:    page.Page,
		Limit:   page.Limit,
		Total:   total,
		Pages:   pages,
		HasNext: page.Page < pages,
		HasPrev: page.Page > 1,
	}
}

func respondPage(c *gin.Context, data any, page store.Page, total int64) {
	c.JSON(http.StatusOK, gin.H{
		"data":       data,
		"pagination": newPagination(page, total),
	})
}
