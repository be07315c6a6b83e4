package groups

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pmarstow/giftwish/pkg/giftwish/auth"
	"github.com/pmarstow/giftwish/pkg/giftwish/models"
	"github.com/pmarstow/giftwish/pkg/giftwish/notify"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type sentEmail struct {
	To      string
	Subject string
	HTML    string
}

type recordingMailer struct {
	sent    []sentEmail
	failErr error
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.sent = append(m.sent, sentEmail{To: to, Subject: subject, HTML: htmlBody})
	return nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return db
}

func setupTestRouter(db *gorm.DB, mailer notify.Mailer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(db, notify.NewDispatcher(mailer))

	groups := r.Group("/groups")
	groups.Use(auth.AuthMiddleware())
	handler.RegisterRoutes(groups)
	handler.RegisterMemberRoutes(groups)

	return r
}

func createTestUser(t *testing.T, db *gorm.DB, username, email string) models.User {
	hash, _ := auth.HashPassword("password123")
	user := models.User{
		Username:     username,
		PasswordHash: hash,
		Email:        email,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func getAuthHeader(user models.User) string {
	token, _ := auth.GenerateToken(user.ID, user.Username)
	return "Bearer " + token
}

func doJSON(router *gin.Engine, method, path string, body interface{}, user models.User) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reader = bytes.NewBuffer(jsonBody)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", getAuthHeader(user))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestCreateGroup(t *testing.T) {
	db := setupTestDB(t)
	mailer := &recordingMailer{}
	router := setupTestRouter(db, mailer)
	user := createTestUser(t, db, "alice", "alice@example.com")

	resp := doJSON(router, "POST", "/groups", CreateGroupRequest{Name: "Smiths"}, user)

	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var response GroupResponse
	json.Unmarshal(resp.Body.Bytes(), &response)
	if response.Name != "Smiths" {
		t.Errorf("Expected name 'Smiths', got %s", response.Name)
	}
	if response.MemberCount != 1 {
		t.Errorf("Expected member count 1, got %d", response.MemberCount)
	}

	// Creator becomes the first member
	var membership models.GroupMembership
	if err := db.Where("user_id = ? AND group_id = ?", user.ID, response.ID).First(&membership).Error; err != nil {
		t.Error("Expected creator to be a member of the new group")
	}
}

func TestListGroups(t *testing.T) {
	db := setupTestDB(t)
	mailer := &recordingMailer{}
	router := setupTestRouter(db, mailer)
	user := createTestUser(t, db, "alice", "alice@example.com")

	group := models.Group{Name: "Smiths"}
	db.Create(&group)
	db.Create(&models.GroupMembership{UserID: user.ID, GroupID: group.ID})

	// A group the user is not part of should not appear
	db.Create(&models.Group{Name: "Joneses"})

	resp := doJSON(router, "GET", "/groups", nil, user)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var groups []GroupResponse
	json.Unmarshal(resp.Body.Bytes(), &groups)
	if len(groups) != 1 {
		t.Errorf("Expected 1 group, got %d", len(groups))
	}
}

func TestGetGroupNotMember(t *testing.T) {
	db := setupTestDB(t)
	mailer := &recordingMailer{}
	router := setupTestRouter(db, mailer)
	user := createTestUser(t, db, "alice", "alice@example.com")

	group := models.Group{Name: "Smiths"}
	db.Create(&group)

	resp := doJSON(router, "GET", fmt.Sprintf("/groups/%d", group.ID), nil, user)

	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}
}

func TestUpdateGroup(t *testing.T) {
	db := setupTestDB(t)
	mailer := &recordingMailer{}
	router := setupTestRouter(db, mailer)
	user := createTestUser(t, db, "alice", "alice@example.com")

	group := models.Group{Name: "Smiths"}
	db.Create(&group)
	db.Create(&models.GroupMembership{UserID: user.ID, GroupID: group.ID})

	resp := doJSON(router, "PUT", fmt.Sprintf("/groups/%d", group.ID), UpdateGroupRequest{Name: "The Smiths"}, user)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var response GroupResponse
	json.Unmarshal(resp.Body.Bytes(), &response)
	if response.Name != "The Smiths" {
		t.Errorf("Expected name 'The Smiths', got %s", response.Name)
	}
}

func TestAddMemberByUsername(t *testing.T) {
	db := setupTestDB(t)
	mailer := &recordingMailer{}
	router := setupTestRouter(db, mailer)

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	group := models.Group{Name: "Smiths"}
	db.Create(&group)
	db.Create(&models.GroupMembership{UserID: alice.ID, GroupID: group.ID})

	resp := doJSON(router, "POST", fmt.Sprintf("/groups/%d/members", group.ID), AddMemberRequest{Username: "bob"}, alice)

	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var membership models.GroupMembership
	if err := db.Where("user_id = ? AND group_id = ?", bob.ID, group.ID).First(&membership).Error; err != nil {
		t.Error("Expected membership row for the new member")
	}

	// The new member gets a welcome email naming the actor and group
	if len(mailer.sent) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(mailer.sent))
	}
	if mailer.sent[0].To != bob.Email {
		t.Errorf("Expected notification to %s, got %s", bob.Email, mailer.sent[0].To)
	}
	if !strings.Contains(mailer.sent[0].HTML, "alice") {
		t.Errorf("Notification should name the actor: %s", mailer.sent[0].HTML)
	}
	if !strings.Contains(mailer.sent[0].Subject, "Smiths") {
		t.Errorf("Notification should name the group: %s", mailer.sent[0].Subject)
	}
}

func TestAddMemberSucceedsWhenDeliveryFails(t *testing.T) {
	db := setupTestDB(t)
	mailer := &recordingMailer{failErr: fmt.Errorf("smtp: connection refused")}
	router := setupTestRouter(db, mailer)

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")

	group := models.Group{Name: "Smiths"}
	db.Create(&group)
	db.Create(&models.GroupMembership{UserID: alice.ID, GroupID: group.ID})

	resp := doJSON(router, "POST", fmt.Sprintf("/groups/%d/members", group.ID), AddMemberRequest{Username: "bob"}, alice)

	// A broken mail relay must not fail the membership write
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var membership models.GroupMembership
	if err := db.Where("user_id = ? AND group_id = ?", bob.ID, group.ID).First(&membership).Error; err != nil {
		t.Error("Expected membership row despite delivery failure")
	}
}

func TestAddMemberUnknownUsername(t *testing.T) {
	db := setupTestDB(t)
	mailer := &recordingMailer{}
	router := setupTestRouter(db, mailer)

	alice := createTestUser(t, db, "alice", "alice@example.com")
	group := models.Group{Name: "Smiths"}
	db.Create(&group)
	db.Create(&models.GroupMembership{UserID: alice.ID, GroupID: group.ID})

	resp := doJSON(router, "POST", fmt.Sprintf("/groups/%d/members", group.ID), AddMemberRequest{Username: "nobody"}, alice)

	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}

	var count int64
	db.Model(&models.GroupMembership{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected no new membership rows, got %d total", count)
	}
	if len(mailer.sent) != 0 {
		t.Errorf("Expected no notifications, got %d", len(mailer.sent))
	}
}

func TestAddMemberRequiresMembership(t *testing.T) {
	db := setupTestDB(t)
	mailer := &recordingMailer{}
	router := setupTestRouter(db, mailer)

	outsider := createTestUser(t, db, "mallory", "mallory@example.com")
	createTestUser(t, db, "bob", "bob@example.com")
	group := models.Group{Name: "Smiths"}
	db.Create(&group)

	resp := doJSON(router, "POST", fmt.Sprintf("/groups/%d/members", group.ID), AddMemberRequest{Username: "bob"}, outsider)

	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}
}

func TestAddMemberAlreadyMember(t *testing.T) {
	db := setupTestDB(t)
	mailer := &recordingMailer{}
	router := setupTestRouter(db, mailer)

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")
	group := models.Group{Name: "Smiths"}
	db.Create(&group)
	db.Create(&models.GroupMembership{UserID: alice.ID, GroupID: group.ID})
	db.Create(&models.GroupMembership{UserID: bob.ID, GroupID: group.ID})

	resp := doJSON(router, "POST", fmt.Sprintf("/groups/%d/members", group.ID), AddMemberRequest{Username: "bob"}, alice)

	if resp.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", resp.Code)
	}
	if len(mailer.sent) != 0 {
		t.Errorf("Expected no notifications, got %d", len(mailer.sent))
	}
}

func TestListMembers(t *testing.T) {
	db := setupTestDB(t)
	mailer := &recordingMailer{}
	router := setupTestRouter(db, mailer)

	alice := createTestUser(t, db, "alice", "alice@example.com")
	bob := createTestUser(t, db, "bob", "bob@example.com")
	group := models.Group{Name: "Smiths"}
	db.Create(&group)
	db.Create(&models.GroupMembership{UserID: alice.ID, GroupID: group.ID})
	db.Create(&models.GroupMembership{UserID: bob.ID, GroupID: group.ID})

	resp := doJSON(router, "GET", fmt.Sprintf("/groups/%d/members", group.ID), nil, alice)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var members []MemberResponse
	json.Unmarshal(resp.Body.Bytes(), &members)
	if len(members) != 2 {
		t.Errorf("Expected 2 members, got %d", len(members))
	}
}
