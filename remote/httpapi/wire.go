package httpapi

import (
	"github.com/offlinekit/listsync/models"
	"github.com/offlinekit/listsync/query"
)

// errorResponse is the backend's error body.
type errorResponse struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// batchGetRequest asks for a set of records by id.
type batchGetRequest struct {
	IDs          []models.Key `json:"ids"`
	LinkedFields []string     `json:"linkedFields,omitempty"`
}

// queryRequest carries a declarative query for server-side translation.
type queryRequest struct {
	Query        queryDTO `json:"query"`
	LinkedFields []string `json:"linkedFields,omitempty"`
}

type queryDTO struct {
	Test    query.Node      `json:"test,omitempty"`
	OrderBy []query.SortKey `json:"orderBy,omitempty"`
	LastKey *models.Key     `json:"lastKey,omitempty"`
	Limit   int             `json:"limit,omitempty"`
}

func queryPayload(q query.Query) queryDTO {
	return queryDTO{Test: q.Test, OrderBy: q.OrderBy, LastKey: q.LastKey, Limit: q.Limit}
}
