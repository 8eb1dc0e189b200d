package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/procure/internal/procure/repository"
	"github.com/bitfantasy/procure/internal/procure/service"
	"github.com/bitfantasy/procure/internal/procure/testutil"
	"github.com/bitfantasy/procure/internal/sse"
	"go.uber.org/zap"
)

func setupPRTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db, zap.NewNop())
	hub := sse.NewHub()
	notificationSvc := service.NewNotificationService(repos.Notification, hub, zap.NewNop())
	prSvc := service.NewPRService(repos.PR, repos.Assignment, repos.Payment, repos.ActivityLog, notificationSvc, zap.NewNop())
	assignmentSvc := service.NewAssignmentService(repos.Assignment, repos.PR, repos.ActivityLog, notificationSvc)

	prHandler := NewPRHandler(prSvc, repos.ActivityLog)
	assignmentHandler := NewAssignmentHandler(assignmentSvc)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1/procure")
	api.POST("/purchase-requests", prHandler.CreatePR)
	api.GET("/purchase-requests/:id", prHandler.GetPR)
	api.POST("/purchase-requests/:id/transition", prHandler.Transition)
	api.GET("/purchase-requests/:id/actions", prHandler.ListActions)
	api.GET("/purchase-requests/:id/timeline", prHandler.Timeline)
	api.POST("/purchase-requests/:id/assignments", assignmentHandler.Assign)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func createTestPR(t *testing.T, env *testutil.TestEnv, token string) string {
	t.Helper()

	body := map[string]interface{}{
		"title":           "办公设备采购",
		"department":      "engineering",
		"declared_amount": "5000.00",
		"items": []map[string]interface{}{
			{"description": "显示器", "quantity": "10", "unit_price": "300.00"},
			{"description": "键盘", "quantity": "10", "unit_price": "50.00", "purchase_type": "overseas"},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/procure/purchase-requests", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["status"] != "draft" {
		t.Fatalf("expected draft status, got %v", data["status"])
	}
	return data["id"].(string)
}

// TestPRApprovalFlow drives a PR through the full approval chain with the
// proper role at each step and then verifies RFQ can start once the
// assignment covers every line item.
func TestPRApprovalFlow(t *testing.T) {
	env := setupPRTest(t)

	requestor := testutil.GenerateTestToken("user-req", "申请人", "requestor")
	deptHead := testutil.GenerateTestToken("user-dh", "部门主管", "department_head")
	branchMgr := testutil.GenerateTestToken("user-bm", "分部经理", "branch_manager")
	buyerLeader := testutil.GenerateTestToken("user-bl", "采购主管", "buyer_leader")
	buyer := testutil.GenerateTestToken("user-buyer", "采购员", "buyer")

	prID := createTestPR(t, env, requestor)

	steps := []struct {
		action string
		token  string
		want   string
	}{
		{"submit", requestor, "submitted"},
		{"route", deptHead, "dept_head_pending"},
		{"approve", deptHead, "dept_head_approved"},
		{"forward", deptHead, "branch_manager_pending"},
		{"approve", branchMgr, "branch_manager_approved"},
		{"assign", buyerLeader, "assigned_to_buyer"},
	}
	for _, step := range steps {
		w := testutil.DoRequest(env.Router, http.MethodPost,
			"/api/v1/procure/purchase-requests/"+prID+"/transition",
			map[string]interface{}{"action": step.action}, step.token)
		if w.Code != http.StatusOK {
			t.Fatalf("action %s: expected 200, got %d: %s", step.action, w.Code, w.Body.String())
		}
		data := testutil.ParseResponse(w)["data"].(map[string]interface{})
		if data["status"] != step.want {
			t.Fatalf("action %s: expected status %s, got %v", step.action, step.want, data["status"])
		}
	}

	// start_rfq must be blocked while line items are unassigned
	w := testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/procure/purchase-requests/"+prID+"/transition",
		map[string]interface{}{"action": "start_rfq"}, buyer)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for incomplete assignment, got %d: %s", w.Code, w.Body.String())
	}

	// assign the whole PR to one buyer, then start_rfq passes
	w2 := testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/procure/purchase-requests/"+prID+"/assignments",
		map[string]interface{}{"buyer_id": "user-buyer", "scope": "full"}, buyerLeader)
	if w2.Code != http.StatusCreated {
		t.Fatalf("expected 201 for assignment, got %d: %s", w2.Code, w2.Body.String())
	}

	w3 := testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/procure/purchase-requests/"+prID+"/transition",
		map[string]interface{}{"action": "start_rfq"}, buyer)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200 for start_rfq, got %d: %s", w3.Code, w3.Body.String())
	}
	data := testutil.ParseResponse(w3)["data"].(map[string]interface{})
	if data["status"] != "rfq_in_progress" {
		t.Fatalf("expected rfq_in_progress, got %v", data["status"])
	}
}

// TestPRTransitionRejections covers wrong-role and out-of-order transitions,
// both of which must come back as conflicts.
func TestPRTransitionRejections(t *testing.T) {
	env := setupPRTest(t)

	requestor := testutil.GenerateTestToken("user-req", "申请人", "requestor")
	buyer := testutil.GenerateTestToken("user-buyer", "采购员", "buyer")

	prID := createTestPR(t, env, requestor)

	// a buyer cannot submit someone else's draft
	w := testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/procure/purchase-requests/"+prID+"/transition",
		map[string]interface{}{"action": "submit"}, buyer)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for wrong role, got %d: %s", w.Code, w.Body.String())
	}

	// approve straight from draft skips the chain
	w2 := testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/procure/purchase-requests/"+prID+"/transition",
		map[string]interface{}{"action": "approve"}, requestor)
	if w2.Code != http.StatusConflict {
		t.Fatalf("expected 409 for out-of-order action, got %d: %s", w2.Code, w2.Body.String())
	}

	// the draft must be untouched after the rejected attempts
	w3 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/procure/purchase-requests/"+prID, nil, requestor)
	data := testutil.ParseResponse(w3)["data"].(map[string]interface{})
	if data["status"] != "draft" {
		t.Fatalf("rejected transitions must not change status, got %v", data["status"])
	}
}

// TestPRSelectSupplierDirectTransitionBlocked verifies the selection actions
// cannot be fired through the generic transition endpoint.
func TestPRSelectSupplierDirectTransitionBlocked(t *testing.T) {
	env := setupPRTest(t)

	requestor := testutil.GenerateTestToken("user-req", "申请人", "requestor")
	buyerLeader := testutil.GenerateTestToken("user-bl", "采购主管", "buyer_leader")

	prID := createTestPR(t, env, requestor)

	for _, action := range []string{"select_supplier", "raise_budget_exception"} {
		w := testutil.DoRequest(env.Router, http.MethodPost,
			"/api/v1/procure/purchase-requests/"+prID+"/transition",
			map[string]interface{}{"action": action}, buyerLeader)
		if w.Code == http.StatusOK {
			t.Fatalf("action %s must not be reachable via the transition endpoint", action)
		}
	}
}

// TestPRListActions verifies the action listing reflects the caller's role.
func TestPRListActions(t *testing.T) {
	env := setupPRTest(t)

	requestor := testutil.GenerateTestToken("user-req", "申请人", "requestor")
	buyer := testutil.GenerateTestToken("user-buyer", "采购员", "buyer")

	prID := createTestPR(t, env, requestor)

	w := testutil.DoRequest(env.Router, http.MethodGet,
		"/api/v1/procure/purchase-requests/"+prID+"/actions", nil, requestor)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["terminal"] != false {
		t.Fatalf("draft must not be terminal: %v", data["terminal"])
	}
	actions := data["actions"].([]interface{})
	found := map[string]bool{}
	for _, a := range actions {
		found[a.(string)] = true
	}
	if !found["submit"] || !found["cancel"] {
		t.Fatalf("requestor should see submit and cancel on a draft, got %v", actions)
	}

	// a buyer has nothing to do on a draft
	w2 := testutil.DoRequest(env.Router, http.MethodGet,
		"/api/v1/procure/purchase-requests/"+prID+"/actions", nil, buyer)
	data2 := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if data2["actions"] != nil {
		if got := data2["actions"].([]interface{}); len(got) != 0 {
			t.Fatalf("buyer should see no actions on a draft, got %v", got)
		}
	}
}

// TestPRTimeline verifies the timeline endpoint returns the audit entries
// written on creation and on every transition.
func TestPRTimeline(t *testing.T) {
	env := setupPRTest(t)

	requestor := testutil.GenerateTestToken("user-req", "申请人", "requestor")

	prID := createTestPR(t, env, requestor)

	w := testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/procure/purchase-requests/"+prID+"/transition",
		map[string]interface{}{"action": "submit"}, requestor)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for submit, got %d: %s", w.Code, w.Body.String())
	}

	w2 := testutil.DoRequest(env.Router, http.MethodGet,
		"/api/v1/procure/purchase-requests/"+prID+"/timeline", nil, requestor)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200 for timeline, got %d: %s", w2.Code, w2.Body.String())
	}

	data := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	// one create entry + one submit entry
	if len(items) != 2 {
		t.Fatalf("expected 2 timeline entries, got %d: %s", len(items), w2.Body.String())
	}
	actions := map[string]bool{}
	for _, it := range items {
		entry := it.(map[string]interface{})
		actions[entry["action"].(string)] = true
		if entry["entity_id"] != prID {
			t.Fatalf("timeline entry for wrong entity: %v", entry["entity_id"])
		}
	}
	if !actions["create"] || !actions["submit"] {
		t.Fatalf("expected create and submit entries, got %v", actions)
	}
}

// TestPRUnauthorized verifies requests without a token are rejected.
func TestPRUnauthorized(t *testing.T) {
	env := setupPRTest(t)

	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/procure/purchase-requests/some-id", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}
