package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ouk-labs/grouper-api/internal/dto"
	"github.com/ouk-labs/grouper-api/internal/models"
	"github.com/ouk-labs/grouper-api/internal/repository"
)

type assignmentFixture struct {
	db      *gorm.DB
	service AssignmentService
	course  models.Course
	units   []models.Unit
}

var fixtureSeq atomic.Int64

func newAssignmentFixture(t *testing.T, cfg AssignmentConfig) *assignmentFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), fixtureSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Course{}, &models.Unit{}, &models.Group{}, &models.Student{}, &models.AuditRecord{}))

	units := []models.Unit{
		{Code: "CSC 101", Name: "Introduction to Computing Systems"},
		{Code: "MAT 101", Name: "Foundation of Mathematics"},
		{Code: "SST 111", Name: "Basic Statistics with R"},
	}
	for i := range units {
		require.NoError(t, db.Create(&units[i]).Error)
	}
	course := models.Course{Name: "Bachelor of Data Science", Units: units}
	require.NoError(t, db.Create(&course).Error)

	if cfg.MaxMembers == 0 {
		cfg.MaxMembers = 10
	}
	if cfg.StudentEmailDomain == "" {
		cfg.StudentEmailDomain = "students.ouk.ac.ke"
	}

	groupRepo := repository.NewGroupRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	auditService := NewAuditService(repository.NewAuditRepository(db), zerolog.Nop())
	validate := validator.New(validator.WithRequiredStructEnabled())

	svc := NewAssignmentService(groupRepo, studentRepo, catalogRepo, auditService, nil, nil, validate, cfg, zerolog.Nop())

	return &assignmentFixture{db: db, service: svc, course: course, units: units}
}

func (f *assignmentFixture) registration(n int, gender string, unitIDs ...uint) dto.RegisterStudentRequest {
	return dto.RegisterStudentRequest{
		Name:          fmt.Sprintf("Student %03d", n),
		StudentNumber: fmt.Sprintf("OUK/%03d/2026", n),
		Gender:        gender,
		Email:         fmt.Sprintf("student%03d@students.ouk.ac.ke", n),
		Phone:         fmt.Sprintf("+2547000%05d", n),
		CourseID:      f.course.ID,
		UnitIDs:       unitIDs,
	}
}

func (f *assignmentFixture) register(t *testing.T, n int, gender string, unitIDs ...uint) dto.PlacementResponse {
	t.Helper()
	placement, err := f.service.AutoAssign(context.Background(), f.registration(n, gender, unitIDs...), Actor{})
	require.NoError(t, err)
	return placement
}

// seedGroup writes a group and its members straight to the store so tests
// can stage rosters the fill-first rule would never produce on its own.
func (f *assignmentFixture) seedGroup(t *testing.T, name string, members ...models.Student) models.Group {
	t.Helper()
	group := models.Group{Name: name}
	require.NoError(t, f.db.Create(&group).Error)
	for i := range members {
		members[i].CourseID = f.course.ID
		members[i].GroupID = &group.ID
		require.NoError(t, f.db.Create(&members[i]).Error)
	}
	return group
}

func (f *assignmentFixture) member(n int, gender string, units ...models.Unit) models.Student {
	return models.Student{
		Name:          fmt.Sprintf("Member %03d", n),
		StudentNumber: fmt.Sprintf("OUK/M%03d/2026", n),
		Gender:        gender,
		Email:         fmt.Sprintf("member%03d@students.ouk.ac.ke", n),
		Phone:         fmt.Sprintf("+2547111%05d", n),
		Units:         units,
	}
}

func (f *assignmentFixture) auditCount(t *testing.T) int64 {
	t.Helper()
	var total int64
	require.NoError(t, f.db.Model(&models.AuditRecord{}).Count(&total).Error)
	return total
}

func TestAutoAssignFillsGroupBeforeCreatingNext(t *testing.T) {
	f := newAssignmentFixture(t, AssignmentConfig{MaxMembers: 2})

	first := f.register(t, 1, models.GenderMale)
	second := f.register(t, 2, models.GenderFemale)
	third := f.register(t, 3, models.GenderMale)

	require.Equal(t, first.Group.ID, second.Group.ID, "second student should fill the existing group")
	require.Equal(t, "Group 1", first.Group.Name)
	require.NotEqual(t, first.Group.ID, third.Group.ID, "a full group must trigger creation")
	require.Equal(t, "Group 2", third.Group.Name)

	require.Equal(t, int64(3), f.auditCount(t))
}

func TestAutoAssignBalancesGender(t *testing.T) {
	f := newAssignmentFixture(t, AssignmentConfig{MaxMembers: 4})

	// Group 1 ends up all male, Group 2 mixed.
	maleHeavy := f.register(t, 1, models.GenderMale).Group.ID
	require.Equal(t, maleHeavy, f.register(t, 2, models.GenderMale).Group.ID)
	require.Equal(t, maleHeavy, f.register(t, 3, models.GenderMale).Group.ID)
	require.Equal(t, maleHeavy, f.register(t, 4, models.GenderMale).Group.ID)

	mixed := f.register(t, 5, models.GenderFemale).Group.ID
	require.NotEqual(t, maleHeavy, mixed)
	require.Equal(t, mixed, f.register(t, 6, models.GenderMale).Group.ID)

	// The next female improves the all-male candidate pool most by joining
	// the imbalanced group, not the already-mixed one.
	f2 := newAssignmentFixture(t, AssignmentConfig{MaxMembers: 4})
	groupA := f2.register(t, 1, models.GenderMale).Group.ID
	require.Equal(t, groupA, f2.register(t, 2, models.GenderMale).Group.ID)
	groupB := f2.register(t, 3, models.GenderFemale).Group.ID
	require.Equal(t, groupA, groupB, "third student joins the existing group while it has slots")
}

func TestAutoAssignGenderGainBeatsOverlap(t *testing.T) {
	f := newAssignmentFixture(t, AssignmentConfig{MaxMembers: 3})
	unitA := f.units[0]
	unitB := f.units[1]

	allMale := f.seedGroup(t, "Group 1",
		f.member(1, models.GenderMale, unitA),
		f.member(2, models.GenderMale, unitA),
	)
	f.seedGroup(t, "Group 2",
		f.member(3, models.GenderMale, unitB),
		f.member(4, models.GenderFemale, unitB),
	)

	// A female enrolled only in unitB still goes to the all-male group:
	// balance gain dominates unit overlap.
	placement := f.register(t, 5, models.GenderFemale, unitB.ID)
	require.Equal(t, allMale.ID, placement.Group.ID)
}

func TestAutoAssignBreaksGenderTieOnOverlap(t *testing.T) {
	f := newAssignmentFixture(t, AssignmentConfig{MaxMembers: 3})
	unitA := f.units[0]
	unitB := f.units[1]

	f.seedGroup(t, "Group 1", f.member(1, models.GenderMale, unitA))
	overlapping := f.seedGroup(t, "Group 2", f.member(2, models.GenderMale, unitB))

	// Both groups offer the same balance outcome; shared units decide.
	placement := f.register(t, 3, models.GenderMale, unitB.ID)
	require.Equal(t, overlapping.ID, placement.Group.ID)
}

func TestAutoAssignRejectsDuplicateStudentNumber(t *testing.T) {
	f := newAssignmentFixture(t, AssignmentConfig{})

	f.register(t, 1, models.GenderMale)
	_, err := f.service.AutoAssign(context.Background(), f.registration(1, models.GenderMale), Actor{})
	require.ErrorIs(t, err, ErrDuplicateStudent)
}

func TestAutoAssignRejectsForeignEmailDomain(t *testing.T) {
	f := newAssignmentFixture(t, AssignmentConfig{})

	payload := f.registration(1, models.GenderFemale)
	payload.Email = "student001@gmail.com"
	_, err := f.service.AutoAssign(context.Background(), payload, Actor{})
	require.ErrorIs(t, err, ErrEmailDomain)
}

func TestAutoAssignRejectsUnknownUnits(t *testing.T) {
	f := newAssignmentFixture(t, AssignmentConfig{})

	payload := f.registration(1, models.GenderFemale, 9999)
	_, err := f.service.AutoAssign(context.Background(), payload, Actor{})
	require.ErrorIs(t, err, ErrInvalidUnits)
}

func TestAutoAssignRejectsUnknownCourse(t *testing.T) {
	f := newAssignmentFixture(t, AssignmentConfig{})

	payload := f.registration(1, models.GenderFemale)
	payload.CourseID = f.course.ID + 100
	_, err := f.service.AutoAssign(context.Background(), payload, Actor{})
	require.ErrorIs(t, err, ErrInvalidCourse)
}

func TestAutoAssignClosesRegistrationAtGroupCap(t *testing.T) {
	f := newAssignmentFixture(t, AssignmentConfig{MaxMembers: 1, MaxGroups: 1})

	f.register(t, 1, models.GenderMale)
	_, err := f.service.AutoAssign(context.Background(), f.registration(2, models.GenderFemale), Actor{})
	require.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestSwitchGroupMovesStudent(t *testing.T) {
	f := newAssignmentFixture(t, AssignmentConfig{MaxMembers: 1})

	first := f.register(t, 1, models.GenderMale)
	second := f.register(t, 2, models.GenderFemale)
	require.NotEqual(t, first.Group.ID, second.Group.ID)

	// Free the first group so the switch target has a slot.
	third := f.register(t, 3, models.GenderMale)
	require.NotEqual(t, first.Group.ID, third.Group.ID)

	placement, err := f.service.SwitchGroup(context.Background(), Actor{ID: 7, Role: models.RoleUser}, second.Student.ID, third.Group.ID)
	require.ErrorIs(t, err, ErrGroupFull)

	// Move into a group with space instead.
	f2 := newAssignmentFixture(t, AssignmentConfig{MaxMembers: 2})
	a := f2.register(t, 1, models.GenderMale)
	b := f2.register(t, 2, models.GenderFemale)
	require.Equal(t, a.Group.ID, b.Group.ID)
	c := f2.register(t, 3, models.GenderMale)
	require.NotEqual(t, a.Group.ID, c.Group.ID)

	placement, err = f2.service.SwitchGroup(context.Background(), Actor{ID: 7, Role: models.RoleUser}, a.Student.ID, c.Group.ID)
	require.NoError(t, err)
	require.Equal(t, c.Group.ID, placement.Group.ID)

	var record models.AuditRecord
	require.NoError(t, f2.db.Order("id DESC").First(&record).Error)
	require.Equal(t, ActionSwitchGroup, record.Action)
	require.Equal(t, models.AuditOutcomeSuccess, record.Outcome)
	require.NotNil(t, record.ActorID)
	require.Equal(t, uint(7), *record.ActorID)
}

func TestSwitchGroupRejectsNoOp(t *testing.T) {
	f := newAssignmentFixture(t, AssignmentConfig{MaxMembers: 5})

	first := f.register(t, 1, models.GenderMale)
	before := f.auditCount(t)

	_, err := f.service.SwitchGroup(context.Background(), Actor{ID: 1}, first.Student.ID, first.Group.ID)
	require.ErrorIs(t, err, ErrSameGroup)
	require.Equal(t, before, f.auditCount(t), "rejected attempts are silent by default")

	var unchanged models.Student
	require.NoError(t, f.db.First(&unchanged, first.Student.ID).Error)
	require.Equal(t, first.Group.ID, *unchanged.GroupID)
}

func TestSwitchGroupRejectsMissingTarget(t *testing.T) {
	f := newAssignmentFixture(t, AssignmentConfig{})

	first := f.register(t, 1, models.GenderMale)
	_, err := f.service.SwitchGroup(context.Background(), Actor{ID: 1}, first.Student.ID, first.Group.ID+100)
	require.ErrorIs(t, err, ErrGroupNotFound)
}

func TestSwitchGroupRejectsUnassignedStudent(t *testing.T) {
	f := newAssignmentFixture(t, AssignmentConfig{})

	group := models.Group{Name: "Group 1"}
	require.NoError(t, f.db.Create(&group).Error)
	stray := models.Student{
		Name: "Hannah Akinyi", StudentNumber: "OUK/999/2026", Gender: models.GenderFemale,
		Email: "hannah@students.ouk.ac.ke", Phone: "+254700000999", CourseID: f.course.ID,
	}
	require.NoError(t, f.db.Create(&stray).Error)

	_, err := f.service.SwitchGroup(context.Background(), Actor{ID: 1}, stray.ID, group.ID)
	require.ErrorIs(t, err, ErrUnassigned)
}

func TestSwitchGroupRecordsDeniedAttemptWhenEnabled(t *testing.T) {
	f := newAssignmentFixture(t, AssignmentConfig{MaxMembers: 5, AuditRejected: true})

	first := f.register(t, 1, models.GenderMale)
	before := f.auditCount(t)

	_, err := f.service.SwitchGroup(context.Background(), Actor{ID: 1}, first.Student.ID, first.Group.ID)
	require.ErrorIs(t, err, ErrSameGroup)
	require.Equal(t, before+1, f.auditCount(t))

	var record models.AuditRecord
	require.NoError(t, f.db.Order("id DESC").First(&record).Error)
	require.Equal(t, models.AuditOutcomeDenied, record.Outcome)
	require.Equal(t, ActionSwitchGroup, record.Action)
}

func TestMoveStudentRequiresAdmin(t *testing.T) {
	f := newAssignmentFixture(t, AssignmentConfig{MaxMembers: 1})

	first := f.register(t, 1, models.GenderMale)
	second := f.register(t, 2, models.GenderFemale)

	_, err := f.service.MoveStudent(context.Background(), Actor{ID: 1, Role: models.RoleUser}, first.Student.ID, second.Group.ID)
	require.ErrorIs(t, err, ErrNotAdmin)
}

func TestMoveStudentByAdmin(t *testing.T) {
	f := newAssignmentFixture(t, AssignmentConfig{MaxMembers: 2})

	a := f.register(t, 1, models.GenderMale)
	b := f.register(t, 2, models.GenderFemale)
	require.Equal(t, a.Group.ID, b.Group.ID)
	c := f.register(t, 3, models.GenderMale)

	placement, err := f.service.MoveStudent(context.Background(), Actor{ID: 9, Role: models.RoleAdmin}, a.Student.ID, c.Group.ID)
	require.NoError(t, err)
	require.Equal(t, c.Group.ID, placement.Group.ID)

	var record models.AuditRecord
	require.NoError(t, f.db.Order("id DESC").First(&record).Error)
	require.Equal(t, ActionMoveStudent, record.Action)
	require.Equal(t, models.RoleAdmin, record.ActorRole)
}

func TestAutoAssignConcurrentRegistrationsRespectCapacity(t *testing.T) {
	const students = 12
	const capacity = 4
	f := newAssignmentFixture(t, AssignmentConfig{MaxMembers: capacity})

	var wg sync.WaitGroup
	errs := make([]error, students)
	for i := 0; i < students; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			gender := models.GenderMale
			if n%2 == 0 {
				gender = models.GenderFemale
			}
			_, errs[n] = f.service.AutoAssign(context.Background(), f.registration(n+1, gender), Actor{})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	var groups []models.Group
	require.NoError(t, f.db.Preload("Members").Find(&groups).Error)
	assigned := 0
	for _, group := range groups {
		require.LessOrEqual(t, len(group.Members), capacity, "group %d over capacity", group.ID)
		assigned += len(group.Members)
	}
	require.Equal(t, students, assigned)

	var unassigned int64
	require.NoError(t, f.db.Model(&models.Student{}).Where("group_id IS NULL").Count(&unassigned).Error)
	require.Zero(t, unassigned)

	require.Equal(t, int64(students), f.auditCount(t), "every placement pairs with exactly one audit record")
}

func TestAutoAssignIsDeterministic(t *testing.T) {
	run := func() []uint {
		f := newAssignmentFixture(t, AssignmentConfig{MaxMembers: 3})
		genders := []string{
			models.GenderMale, models.GenderFemale, models.GenderMale,
			models.GenderOther, models.GenderFemale, models.GenderMale,
			models.GenderFemale, models.GenderMale,
		}
		placements := make([]uint, 0, len(genders))
		for i, gender := range genders {
			placement := f.register(t, i+1, gender, f.units[i%len(f.units)].ID)
			placements = append(placements, placement.Group.ID)
		}
		return placements
	}

	require.Equal(t, run(), run())
}
