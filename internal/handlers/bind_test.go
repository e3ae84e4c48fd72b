package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func rawJSON(s string) multipartBody {
	return multipartBody{body: strings.NewReader(s), contentType: "application/json"}
}

func TestMalformedJSONBodies(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		path  string
		body  string
		admin bool
	}{
		{"truncated trade", fmt.Sprintf("/api/teams/%d/stocks/trade", s.alpha.ID), `{"companyId":1,`, false},
		{"shares as string", fmt.Sprintf("/api/teams/%d/stocks/trade", s.alpha.ID), `{"companyId":1,"shares":"10","action":"buy"}`, false},
		{"bad decimal amount", fmt.Sprintf("/api/teams/%d/currencies/trade", s.alpha.ID), `{"currencyId":1,"amount":"abc","action":"buy"}`, false},
		{"truncated assign", "/api/admin/assign-stock", `{"teamId":1,"compa`, true},
		{"not json", "/api/team-startups", `not json`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cookie := s.team(s.alpha.ID)
			if tt.admin {
				cookie = s.admin()
			}
			w := s.do(http.MethodPost, tt.path, rawJSON(tt.body), cookie)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
			}
			if msg := message(t, w); msg != "Invalid request" {
				t.Errorf("Expected 'Invalid request', got %q", msg)
			}
		})
	}

	w := s.do(http.MethodGet, fmt.Sprintf("/api/teams/%d", s.alpha.ID), nil, s.admin())
	var team struct {
		CashBalance string `json:"cashBalance"`
	}
	decode(t, w, &team)
	if !d(team.CashBalance).Equal(d("100000")) {
		t.Errorf("Expected cash untouched, got %s", team.CashBalance)
	}
}
