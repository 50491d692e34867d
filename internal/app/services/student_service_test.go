package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/models/dto"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/auth"
	"github.com/miu/unidesk/internal/pkg/websocket"
)

func studentRequest(faculty models.Faculty, course models.Course, regNo string) dto.StudentRequest {
	return dto.StudentRequest{
		Name:      "Amina Nakato",
		RegNo:     regNo,
		Email:     "amina@students.miu.ac.ug",
		FacultyID: faculty.ID,
		CourseID:  course.ID,
	}
}

func TestStudentService_CreateMailsGeneratedPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	faculty, course, _ := f.academics(t)

	student, err := f.students.Create(ctx, studentRequest(faculty, course, "2021/BCS/001"))
	require.NoError(t, err)

	sent := f.mailer.Sent()
	require.Len(t, sent, 1, "only the credentials mail, no schedule yet")
	assert.Equal(t, []string{"amina@students.miu.ac.ug"}, sent[0].To)
	assert.Equal(t, "Your Research Account Details", sent[0].Subject)

	password := mailedPassword(t, sent[0])
	assert.Len(t, password, auth.GeneratedPasswordLength)

	stored, err := f.store.Students.GetByID(ctx, student.ID)
	require.NoError(t, err)
	assert.NotEqual(t, password, stored.PasswordHash)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, password))
	assert.Equal(t, models.LevelDegree, stored.Level)

	event, ok := f.publisher.last(websocket.EventStudentCreated)
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"id": student.ID, "name": student.Name}, event.Payload)

	entries, total, err := f.audit.List(ctx, models.ListQuery{Page: 1, Size: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, models.AuditAddition, entries[0].Action)
	assert.Contains(t, entries[0].Message, "2021/BCS/001")
}

func TestStudentService_ExplicitPasswordIsNotMailed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	faculty, course, _ := f.academics(t)

	req := studentRequest(faculty, course, "2021/BCS/002")
	req.Password = "chosen-password"
	student, err := f.students.Create(ctx, req)
	require.NoError(t, err)

	assert.Empty(t, f.mailer.Sent())
	stored, err := f.store.Students.GetByID(ctx, student.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "chosen-password"))
}

func TestStudentService_DuplicateRegNo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	faculty, course, _ := f.academics(t)

	_, err := f.students.Create(ctx, studentRequest(faculty, course, "2021/BCS/003"))
	require.NoError(t, err)
	f.mailer.Reset()

	_, err = f.students.Create(ctx, studentRequest(faculty, course, "2021/BCS/003"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrRegNoAlreadyExists))
	var fe apperrors.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Student with this Reg no already exists.", fe.ByField()["regNo"])
	assert.Empty(t, f.mailer.Sent())
}

func TestStudentService_ScheduleMailedWhenComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	faculty, course, supervisor := f.academics(t)
	student := f.student(t, faculty, course, "2021/BCS/004", "secret1")

	topic, err := f.research.ProposeTopic(ctx, student.ID, dto.TopicForm{
		Topic: "Mobile money adoption in rural Uganda", DistrictOfStudy: "Gulu", CaseStudyArea: "Layibi",
	})
	require.NoError(t, err)

	req := studentRequest(faculty, course, "2021/BCS/004")
	req.Email = student.Email
	req.SupervisorID = &supervisor.ID
	req.SelectedTopicID = &topic.ID
	req.StartDate = ptr("2024-01-01")
	req.GraduationDate = ptr("2024-12-31")
	_, err = f.students.Update(ctx, student.ID, req)
	require.NoError(t, err)

	toStudent := f.mailer.SentTo(student.Email)
	require.Len(t, toStudent, 1, "no credentials mail for an account that has a password")
	assert.Equal(t, "Research Information Updated", toStudent[0].Subject)
	assert.Contains(t, toStudent[0].Text, "2024-01-31")
	assert.Contains(t, toStudent[0].Text, "2024-11-01")
	assert.NotEmpty(t, toStudent[0].HTML)

	toSupervisor := f.mailer.SentTo(supervisor.Email)
	require.Len(t, toSupervisor, 1)
	assert.Equal(t, "New Student Assigned: Amina Nakato", toSupervisor[0].Subject)

	// every later save sends the schedule again
	f.mailer.Reset()
	_, err = f.students.Update(ctx, student.ID, req)
	require.NoError(t, err)
	assert.Len(t, f.mailer.SentTo(student.Email), 1)
}

func TestStudentService_IncompleteRecordSendsNoSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	faculty, course, supervisor := f.academics(t)
	student := f.student(t, faculty, course, "2021/BCS/005", "secret1")

	req := studentRequest(faculty, course, "2021/BCS/005")
	req.SupervisorID = &supervisor.ID
	req.StartDate = ptr("2024-01-01")
	_, err := f.students.Update(ctx, student.ID, req)
	require.NoError(t, err)
	assert.Empty(t, f.mailer.Sent())
}

func TestStudentService_MailFailureIsReported(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	faculty, course, _ := f.academics(t)
	f.mailer.Err = errors.New("smtp down")

	student, err := f.students.Create(ctx, studentRequest(faculty, course, "2021/BCS/006"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotificationFailed))

	// the record is kept
	require.NotNil(t, student)
	_, err = f.store.Students.GetByRegNo(ctx, "2021/BCS/006")
	assert.NoError(t, err)
}

func TestStudentService_ResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	faculty, course, _ := f.academics(t)
	student := f.student(t, faculty, course, "2021/BCS/007", "old-password")

	require.NoError(t, f.students.ResetPassword(ctx, student.RegNo))
	sent := f.mailer.SentTo(student.Email)
	require.Len(t, sent, 1)
	password := mailedPassword(t, sent[0])

	stored, err := f.store.Students.GetByID(ctx, student.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, password))
	assert.False(t, auth.CheckPassword(stored.PasswordHash, "old-password"))

	assert.ErrorIs(t, f.students.ResetPassword(ctx, "missing"), apperrors.ErrResourceNotFound)
}
