package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/loveos/couple-api/internal/core/domain"
)

type stubCoupleService struct {
	summaryFn func(ctx context.Context, session domain.Session) (*domain.CoupleSummary, error)
}

func (s *stubCoupleService) Summary(ctx context.Context, session domain.Session) (*domain.CoupleSummary, error) {
	return s.summaryFn(ctx, session)
}

func TestCoupleHandler_Summary(t *testing.T) {
	e := newEcho()
	days := 42
	stub := &stubCoupleService{
		summaryFn: func(_ context.Context, s domain.Session) (*domain.CoupleSummary, error) {
			return &domain.CoupleSummary{
				PartnerNames: [2]string{"Sam", "Alex"},
				MyName:       "Sam",
				PartnerName:  "Alex",
				DaysTogether: &days,
			}, nil
		},
	}
	handler := NewCoupleHandler(stub)

	c, rec := jsonContext(e, http.MethodGet, "/api/couple", "")
	c.Set("session", testSession)
	if err := handler.Summary(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp domain.CoupleSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.PartnerNames != [2]string{"Sam", "Alex"} || resp.DaysTogether == nil || *resp.DaysTogether != 42 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCoupleHandler_Summary_Asymmetric(t *testing.T) {
	e := newEcho()
	stub := &stubCoupleService{
		summaryFn: func(context.Context, domain.Session) (*domain.CoupleSummary, error) {
			return nil, domain.ErrAsymmetricLink
		},
	}

	c, _ := jsonContext(e, http.MethodGet, "/api/couple", "")
	c.Set("session", testSession)
	if err := NewCoupleHandler(stub).Summary(c); err != domain.ErrAsymmetricLink {
		t.Fatalf("expected ErrAsymmetricLink, got %v", err)
	}
}
