package httpadapter

import (
	"fmt"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"riskboard/internal/domain"
)

type itemsResponse struct {
	Items []domain.RiskItem `json:"items"`
}

type domainRisksResponse struct {
	DomainRisks []domain.DomainRisk `json:"domainRisks"`
}

type itemStatusResponse struct {
	RiskItem   domain.RiskItem   `json:"riskItem"`
	DomainRisk domain.DomainRisk `json:"domainRisk"`
}

type reassignRequest struct {
	ARB   string `json:"arb"`
	Actor string `json:"actor"`
}

type domainStatusRequest struct {
	Status domain.DomainRiskStatus `json:"status"`
	Actor  string                  `json:"actor"`
}

// creationStatus is 201 for a new item and 200 when a duplicate was suppressed.
func creationStatus(res domain.CreationResult) int {
	if res.Created {
		return http.StatusCreated
	}
	return http.StatusOK
}

func (s *Server) postManualRisk(w http.ResponseWriter, r *http.Request) {
	appID, err := pathParam(r, "appId")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	var req domain.ManualRiskRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, fmt.Errorf("invalid body: %w", err))
		return
	}
	req.AppID = appID
	res, err := s.risks.CreateManualRisk(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, creationStatus(res), res)
}

func (s *Server) postEvidenceRisk(w http.ResponseWriter, r *http.Request) {
	appID, err := pathParam(r, "appId")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	var req domain.EvidenceRiskRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, fmt.Errorf("invalid body: %w", err))
		return
	}
	req.AppID = appID
	res, err := s.risks.CreateEvidenceRisk(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, creationStatus(res), res)
}

func (s *Server) getAppRiskItems(w http.ResponseWriter, r *http.Request) {
	appID, err := pathParam(r, "appId")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	items, err := s.risks.GetRiskItemsForApp(r.Context(), appID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: nonNil(items)})
}

func (s *Server) getRiskItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	item, err := s.risks.GetRiskItem(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) putRiskItemStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	var upd domain.ItemStatusUpdate
	if err := decodeBody(r, &upd); err != nil {
		s.badRequest(w, fmt.Errorf("invalid body: %w", err))
		return
	}
	upd.RiskItemID = id
	item, dr, err := s.risks.UpdateRiskItemStatus(r.Context(), upd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemStatusResponse{RiskItem: item, DomainRisk: dr})
}

func (s *Server) getDomainRisk(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	dr, err := s.risks.GetDomainRisk(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dr)
}

func (s *Server) getDomainRiskItems(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	items, err := s.risks.GetRiskItemsForDomain(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: nonNil(items)})
}

func (s *Server) postReassign(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	var req reassignRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, fmt.Errorf("invalid body: %w", err))
		return
	}
	dr, err := s.risks.ReassignDomainRisk(r.Context(), id, req.ARB, req.Actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dr)
}

func (s *Server) putDomainRiskStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	var req domainStatusRequest
	if err := decodeBody(r, &req); err != nil {
		s.badRequest(w, fmt.Errorf("invalid body: %w", err))
		return
	}
	dr, err := s.risks.TransitionDomainRisk(r.Context(), id, req.Status, req.Actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dr)
}

func (s *Server) postRecalculate(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	dr, err := s.risks.RecalculateAggregations(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dr)
}

// getARBQueue accepts repeated ?status= filters; none means every status.
func (s *Server) getARBQueue(w http.ResponseWriter, r *http.Request) {
	board, err := pathParam(r, "arb")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	var raw []string
	if err := runtime.BindQueryParameter("form", true, false, "status", r.URL.Query(), &raw); err != nil {
		s.badRequest(w, err)
		return
	}
	statuses := make([]domain.DomainRiskStatus, 0, len(raw))
	for _, st := range raw {
		statuses = append(statuses, domain.DomainRiskStatus(st))
	}
	drs, err := s.risks.GetDomainRisksForARB(r.Context(), board, statuses)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if drs == nil {
		drs = []domain.DomainRisk{}
	}
	writeJSON(w, http.StatusOK, domainRisksResponse{DomainRisks: drs})
}

func nonNil(items []domain.RiskItem) []domain.RiskItem {
	if items == nil {
		return []domain.RiskItem{}
	}
	return items
}
