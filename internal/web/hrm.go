package web

import (
	"log"
	"net/http"

	"github.com/gurkanbulca/taskdesk/internal/models"
	"github.com/gurkanbulca/taskdesk/internal/tasksync"
)

type contractTypesContent struct {
	Items []models.ContractType
	Rows  map[string]Row
}

func (s *Server) handleContractTypes(w http.ResponseWriter, r *http.Request) {
	s.renderContractTypes(w, r, http.StatusOK, parseContractTypeForm(nil))
}

func (s *Server) renderContractTypes(w http.ResponseWriter, r *http.Request, status int, form *contractTypeForm) {
	items, err := tasksync.NewContractTypes(s.deps.Cache, s.contractTypes, s.deps.Notifier).All(r.Context())
	if err != nil {
		s.renderReadError(w, r, err, "Failed to load contract types")
		return
	}
	s.page(w, r, status, "contract_types.html", "Contract Types", "hrm", contractTypesContent{
		Items: items,
		Rows:  form.rows(),
	})
}

func (s *Server) handleCreateContractType(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := parseContractTypeForm(r.PostForm)
	if !form.validate(s.validator) {
		s.renderContractTypes(w, r, http.StatusUnprocessableEntity, form)
		return
	}

	deps, collector := s.requestDeps()
	svc := tasksync.NewContractTypes(deps.Cache, s.contractTypes, deps.Notifier)
	if _, err := svc.Create(r.Context(), form.request()); err != nil {
		log.Printf("[ERROR] create contract type: %v", err)
	}
	redirectWithFlash(w, r, collector.Notices(), "/hrm/contract-types")
}
