package devapi

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gurkanbulca/taskdesk/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

func writeData[T any](w http.ResponseWriter, status int, data T) {
	writeJSON(w, status, models.Envelope[T]{
		Data:       data,
		StatusCode: status,
		IsSuccess:  true,
	})
}

func writePage[T any](w http.ResponseWriter, items []T, total, pageNumber, pageSize int) {
	if items == nil {
		items = []T{}
	}
	totalPages := 1
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	} else {
		pageSize = total
	}
	writeJSON(w, http.StatusOK, models.PageEnvelope[T]{
		Envelope: models.Envelope[[]T]{
			Data:       items,
			StatusCode: http.StatusOK,
			IsSuccess:  true,
		},
		TotalItems: total,
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.Envelope[any]{
		StatusCode: status,
		IsSuccess:  false,
		Message:    message,
	})
}
