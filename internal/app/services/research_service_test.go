package services_test

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/models/dto"
	"github.com/miu/unidesk/internal/app/services"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/filestorage"
)

func TestResearchService_TopicMustBeUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	faculty, course, _ := f.academics(t)
	first := f.student(t, faculty, course, "2021/BCS/010", "secret1")
	second := f.student(t, faculty, course, "2021/BCS/011", "secret1")

	form := dto.TopicForm{Topic: "Solar irrigation in Karamoja", DistrictOfStudy: "Moroto", CaseStudyArea: "Nadunget"}
	_, err := f.research.ProposeTopic(ctx, first.ID, form)
	require.NoError(t, err)

	_, err = f.research.ProposeTopic(ctx, second.ID, form)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTopicTaken))
	var fe apperrors.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, services.MsgTopicTaken, fe.ByField()["topic"])

	topics, total, err := f.research.ListTopics(ctx, models.ListQuery{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, first.ID, topics[0].StudentID)

	// renaming another topic onto the same text is rejected as well
	other, err := f.research.ProposeTopic(ctx, second.ID, dto.TopicForm{Topic: "Fish farming", DistrictOfStudy: "Jinja", CaseStudyArea: "Masese"})
	require.NoError(t, err)
	_, err = f.research.UpdateTopic(ctx, other.ID, dto.TopicRequest{
		StudentID: second.ID,
		TopicForm: dto.TopicForm{Topic: form.Topic, DistrictOfStudy: "Jinja", CaseStudyArea: "Masese"},
	})
	assert.True(t, errors.Is(err, apperrors.ErrTopicTaken))
}

func TestResearchService_ProposeTopicValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	faculty, course, _ := f.academics(t)
	student := f.student(t, faculty, course, "2021/BCS/012", "secret1")

	_, err := f.research.ProposeTopic(ctx, student.ID, dto.TopicForm{Topic: "Only a topic"})
	require.Error(t, err)
	var fe apperrors.FieldErrors
	require.True(t, errors.As(err, &fe))
	fields := fe.ByField()
	assert.Contains(t, fields, "district_of_study")
	assert.Contains(t, fields, "case_study_area")
}

func TestResearchService_Guide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	faculty, course, supervisor := f.academics(t)
	student := f.student(t, faculty, course, "2021/BCS/013", "secret1")

	topic, err := f.research.ProposeTopic(ctx, student.ID, dto.TopicForm{Topic: "Urban waste", DistrictOfStudy: "Kampala", CaseStudyArea: "Kiteezi"})
	require.NoError(t, err)

	stored, err := f.store.Students.GetByID(ctx, student.ID)
	require.NoError(t, err)
	start := day("2024-02-01")
	stored.SupervisorID = &supervisor.ID
	stored.SelectedTopicID = &topic.ID
	stored.StartDate = &start
	require.NoError(t, f.store.Students.Update(ctx, stored))

	_, err = f.research.CreateMilestone(ctx, dto.MilestoneRequest{StudentID: student.ID, Name: "Proposal", DueDate: "2024-03-02"})
	require.NoError(t, err)
	_, err = f.research.CreateMeeting(ctx, dto.MeetingRequest{StudentID: student.ID, Date: "2024-02-10", DiscussionPoints: "Scope", ActionItems: "Read"})
	require.NoError(t, err)

	guide, err := f.research.Guide(ctx, student.ID)
	require.NoError(t, err)
	require.NotNil(t, guide.Topic)
	assert.Equal(t, "Urban waste", guide.Topic.Topic)
	require.NotNil(t, guide.Supervisor)
	assert.Equal(t, supervisor.Name, guide.Supervisor.Name)
	require.NotNil(t, guide.Schedule)
	assert.Equal(t, day("2024-03-02"), guide.Schedule.Proposal)
	assert.Nil(t, guide.Schedule.Defense)
	assert.Len(t, guide.Topics, 1)
	assert.Len(t, guide.Milestones, 1)
	assert.Len(t, guide.Meetings, 1)
	assert.Empty(t, guide.Files)
}

func TestResearchService_UploadAndDeleteFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	faculty, course, _ := f.academics(t)
	student := f.student(t, faculty, course, "2021/BCS/014", "secret1")

	_, err := f.research.UploadFile(ctx, dto.ResearchFileForm{StudentID: student.ID}, nil)
	var fe apperrors.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.ByField(), "file")

	rf, err := f.research.UploadFile(ctx, dto.ResearchFileForm{StudentID: student.ID, Description: "Chapter one"},
		&multipart.FileHeader{Filename: "chapter1.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "/media/research_files/chapter1.pdf", rf.FileURL)

	require.NoError(t, f.research.DeleteFile(ctx, rf.ID))
	assert.Equal(t, []string{rf.FileURL}, f.storage.deleted)
	_, err = f.research.GetFile(ctx, rf.ID)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestUploadsRejectUnsupportedTypes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	faculty, course, _ := f.academics(t)
	student := f.student(t, faculty, course, "2021/BCS/015", "secret1")
	r := f.candidates(t)

	_, err := f.research.UploadFile(ctx, dto.ResearchFileForm{StudentID: student.ID},
		&multipart.FileHeader{Filename: "chapter1.html"})
	var fe apperrors.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.ByField()["file"], "pdf")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	assert.ErrorIs(t, err, filestorage.ErrUnsupportedType)

	_, err = f.students.SetProfileImage(ctx, student.ID, &multipart.FileHeader{Filename: "me.svg"})
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.ByField(), "image")

	_, err = f.election.SetCandidateImage(ctx, r.alice.ID, &multipart.FileHeader{Filename: "alice.html"})
	assert.ErrorIs(t, err, filestorage.ErrUnsupportedType)

	assert.Empty(t, f.storage.saved)

	c, err := f.election.SetCandidateImage(ctx, r.alice.ID, &multipart.FileHeader{Filename: "alice.png"})
	require.NoError(t, err)
	require.NotNil(t, c.ImageURL)
	assert.Equal(t, "/media/candidate_images/alice.png", *c.ImageURL)
}
