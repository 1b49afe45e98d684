package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ouk-labs/grouper-api/internal/config"
	"github.com/ouk-labs/grouper-api/internal/dto"
	"github.com/ouk-labs/grouper-api/internal/handler"
	"github.com/ouk-labs/grouper-api/internal/middleware"
	"github.com/ouk-labs/grouper-api/internal/models"
	"github.com/ouk-labs/grouper-api/internal/repository"
	"github.com/ouk-labs/grouper-api/internal/router"
	"github.com/ouk-labs/grouper-api/internal/service"
)

type apiFixture struct {
	app    *fiber.App
	db     *gorm.DB
	course models.Course
	auth   service.AuthService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:api_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Course{}, &models.Unit{}, &models.Group{}, &models.Student{}, &models.AuditRecord{}))

	course := models.Course{Name: "Bachelor of Science in Computer Science"}
	require.NoError(t, db.Create(&course).Error)

	cfg := config.Config{
		AppName:            "Grouper API",
		AppEnv:             "test",
		JWTSecret:          "handler-test-secret",
		MaxMembers:         2,
		StudentEmailDomain: "students.ouk.ac.ke",
		RegisterRateLimit:  1000,
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.Nop()

	groupRepo := repository.NewGroupRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	userRepo := repository.NewUserRepository(db)

	auditService := service.NewAuditService(repository.NewAuditRepository(db), logger)
	assignmentService := service.NewAssignmentService(groupRepo, studentRepo, catalogRepo, auditService, nil, nil, validate, service.AssignmentConfig{
		MaxMembers:         cfg.MaxMembers,
		StudentEmailDomain: cfg.StudentEmailDomain,
	}, logger)
	groupService := service.NewGroupService(groupRepo, auditService, nil, 0, validate, logger)
	studentService := service.NewStudentService(studentRepo, groupRepo, logger)
	authService := service.NewAuthService(userRepo, studentRepo, validate, cfg.JWTSecret, time.Hour, logger)
	catalogService := service.NewCatalogService(catalogRepo, logger)

	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{
		HealthHandler:  handler.NewHealthHandler(cfg.AppName, cfg.AppEnv),
		AuthHandler:    handler.NewAuthHandler(authService, logger),
		StudentHandler: handler.NewStudentHandler(assignmentService, studentService, authService, logger),
		GroupHandler:   handler.NewGroupHandler(groupService, dto.EngineConfigResponse{MaxMembers: cfg.MaxMembers}, logger),
		AdminHandler:   handler.NewAdminHandler(assignmentService, groupService, auditService, logger),
		CatalogHandler: handler.NewCatalogHandler(catalogService, logger),
		JWTMiddleware:  middleware.JWTProtected(cfg.JWTSecret),
	})

	return &apiFixture{app: app, db: db, course: course, auth: authService}
}

func (f *apiFixture) request(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response, data interface{}) {
	t.Helper()
	defer resp.Body.Close()
	var envelope struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	if data != nil && len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}
}

func registrationBody(n int) dto.RegisterStudentRequest {
	return dto.RegisterStudentRequest{
		Name:          fmt.Sprintf("Student %03d", n),
		StudentNumber: fmt.Sprintf("OUK-%03d-2026", n),
		Gender:        models.GenderFemale,
		Email:         fmt.Sprintf("student%03d@students.ouk.ac.ke", n),
		Phone:         fmt.Sprintf("+2547000%05d", n),
		CourseID:      1,
	}
}

func TestRegisterStudentEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodPost, "/api/students", "", registrationBody(1))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var placement dto.PlacementResponse
	decodeEnvelope(t, resp, &placement)
	require.Equal(t, "Student 001", placement.Student.Name)
	require.Equal(t, "Group 1", placement.Group.Name)

	// Same student number again conflicts.
	resp = f.request(t, http.MethodPost, "/api/students", "", registrationBody(1))
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestRegisterStudentValidation(t *testing.T) {
	f := newAPIFixture(t)

	body := registrationBody(1)
	body.Gender = "unknown"
	resp := f.request(t, http.MethodPost, "/api/students", "", body)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body = registrationBody(2)
	body.Email = "student@gmail.com"
	resp = f.request(t, http.MethodPost, "/api/students", "", body)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPublicLookupEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodPost, "/api/students", "", registrationBody(1))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = f.request(t, http.MethodGet, "/api/public/students/OUK-001-2026", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var public dto.PublicLookupResponse
	decodeEnvelope(t, resp, &public)
	require.Equal(t, "Student 001", public.Student.Name)
	require.Equal(t, "Group 1", public.GroupName)
	require.Len(t, public.Members, 1)

	resp = f.request(t, http.MethodGet, "/api/public/students/OUK-404-2026", "", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSwitchGroupEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	// Capacity 2: students 1 and 2 fill Group 1, student 3 opens Group 2.
	for n := 1; n <= 3; n++ {
		resp := f.request(t, http.MethodPost, "/api/students", "", registrationBody(n))
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	// Account sharing student 1's email gets linked on login.
	account, err := f.auth.Register(context.Background(), dto.RegisterUserRequest{
		Email:    "student001@students.ouk.ac.ke",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.NotNil(t, account.User.Student)

	var group2 models.Group
	require.NoError(t, f.db.Where("name = ?", "Group 2").First(&group2).Error)

	resp := f.request(t, http.MethodPost, "/api/student/switch-group", account.Token, dto.SwitchGroupRequest{GroupID: group2.ID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var placement dto.PlacementResponse
	decodeEnvelope(t, resp, &placement)
	require.Equal(t, group2.ID, placement.Group.ID)

	// Switching again to the same group is a conflict.
	resp = f.request(t, http.MethodPost, "/api/student/switch-group", account.Token, dto.SwitchGroupRequest{GroupID: group2.ID})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// No token at all is unauthorized.
	resp = f.request(t, http.MethodPost, "/api/student/switch-group", "", dto.SwitchGroupRequest{GroupID: group2.ID})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminEndpointsEnforceRole(t *testing.T) {
	f := newAPIFixture(t)

	user, err := f.auth.Register(context.Background(), dto.RegisterUserRequest{Email: "plain@students.ouk.ac.ke", Password: "s3cret-pass"})
	require.NoError(t, err)

	resp := f.request(t, http.MethodGet, "/api/admin/audit-log", user.Token, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	admin := models.User{Email: "dean@ouk.ac.ke", Role: models.RoleAdmin}
	require.NoError(t, admin.SetPassword("s3cret-pass"))
	require.NoError(t, f.db.Create(&admin).Error)
	session, err := f.auth.Login(context.Background(), dto.LoginRequest{Email: "dean@ouk.ac.ke", Password: "s3cret-pass"})
	require.NoError(t, err)

	resp = f.request(t, http.MethodGet, "/api/admin/audit-log", session.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var log dto.AuditLogResponse
	decodeEnvelope(t, resp, &log)
	require.Zero(t, log.Total)
}

func TestAdminMoveStudentEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	for n := 1; n <= 3; n++ {
		resp := f.request(t, http.MethodPost, "/api/students", "", registrationBody(n))
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	admin := models.User{Email: "dean@ouk.ac.ke", Role: models.RoleAdmin}
	require.NoError(t, admin.SetPassword("s3cret-pass"))
	require.NoError(t, f.db.Create(&admin).Error)
	session, err := f.auth.Login(context.Background(), dto.LoginRequest{Email: "dean@ouk.ac.ke", Password: "s3cret-pass"})
	require.NoError(t, err)

	var mover models.Student
	require.NoError(t, f.db.Where("student_number = ?", "OUK-001-2026").First(&mover).Error)
	var group2 models.Group
	require.NoError(t, f.db.Where("name = ?", "Group 2").First(&group2).Error)

	resp := f.request(t, http.MethodPost, fmt.Sprintf("/api/admin/students/%d/move", mover.ID), session.Token, dto.MoveStudentRequest{GroupID: group2.ID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var moved models.Student
	require.NoError(t, f.db.First(&moved, mover.ID).Error)
	require.Equal(t, group2.ID, *moved.GroupID)
}
