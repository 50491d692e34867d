package services

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/models/dto"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/filestorage"
	"github.com/miu/unidesk/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// MsgTopicTaken is shown on the topic field when the text is already in use
const MsgTopicTaken = "This research topic has already been assigned to another student."

var topicUnique = map[error][2]string{
	apperrors.ErrTopicTaken: {"topic", MsgTopicTaken},
}

// ResearchService manages topics, milestones, meetings and research files
type ResearchService interface {
	// ProposeTopic records a topic a student submitted from the research portal
	ProposeTopic(ctx context.Context, studentID int64, form dto.TopicForm) (*models.ResearchTopic, error)
	CreateTopic(ctx context.Context, req dto.TopicRequest) (*models.ResearchTopic, error)
	UpdateTopic(ctx context.Context, id int64, req dto.TopicRequest) (*models.ResearchTopic, error)
	SetTopicApproval(ctx context.Context, id int64, approved bool) (*models.ResearchTopic, error)
	GetTopic(ctx context.Context, id int64) (*models.ResearchTopic, error)
	ListTopics(ctx context.Context, q models.ListQuery) ([]models.ResearchTopic, int64, error)
	DeleteTopic(ctx context.Context, id int64) error

	CreateMilestone(ctx context.Context, req dto.MilestoneRequest) (*models.Milestone, error)
	UpdateMilestone(ctx context.Context, id int64, req dto.MilestoneRequest) (*models.Milestone, error)
	GetMilestone(ctx context.Context, id int64) (*models.Milestone, error)
	ListMilestones(ctx context.Context, q models.ListQuery) ([]models.Milestone, int64, error)
	DeleteMilestone(ctx context.Context, id int64) error

	CreateMeeting(ctx context.Context, req dto.MeetingRequest) (*models.Meeting, error)
	UpdateMeeting(ctx context.Context, id int64, req dto.MeetingRequest) (*models.Meeting, error)
	GetMeeting(ctx context.Context, id int64) (*models.Meeting, error)
	ListMeetings(ctx context.Context, q models.ListQuery) ([]models.Meeting, int64, error)
	DeleteMeeting(ctx context.Context, id int64) error

	UploadFile(ctx context.Context, form dto.ResearchFileForm, file *multipart.FileHeader) (*models.ResearchFile, error)
	GetFile(ctx context.Context, id int64) (*models.ResearchFile, error)
	ListFiles(ctx context.Context, q models.ListQuery) ([]models.ResearchFile, int64, error)
	DeleteFile(ctx context.Context, id int64) error

	// Guide collects everything the research guide page shows a student
	Guide(ctx context.Context, studentID int64) (*dto.ResearchGuide, error)
}

type researchServiceImpl struct {
	students   StudentRepository
	topics     records[models.ResearchTopic]
	milestones records[models.Milestone]
	meetings   records[models.Meeting]
	files      records[models.ResearchFile]
	topicRepo  TopicRepository
	mileRepo   MilestoneRepository
	meetRepo   MeetingRepository
	fileRepo   ResearchFileRepository
	storage    filestorage.FileStorage
	logger     zerolog.Logger
}

// NewResearchService creates a new research service
func NewResearchService(store Store, audit AuditService, storage filestorage.FileStorage, logger zerolog.Logger) ResearchService {
	return &researchServiceImpl{
		students:   store.Students,
		topics:     records[models.ResearchTopic]{repo: store.Topics, audit: audit, kind: "research topic", id: func(t *models.ResearchTopic) int64 { return t.ID }},
		milestones: records[models.Milestone]{repo: store.Milestones, audit: audit, kind: "milestone", id: func(m *models.Milestone) int64 { return m.ID }},
		meetings:   records[models.Meeting]{repo: store.Meetings, audit: audit, kind: "meeting", id: func(m *models.Meeting) int64 { return m.ID }},
		files:      records[models.ResearchFile]{repo: store.Files, audit: audit, kind: "research file", id: func(f *models.ResearchFile) int64 { return f.ID }},
		topicRepo:  store.Topics,
		mileRepo:   store.Milestones,
		meetRepo:   store.Meetings,
		fileRepo:   store.Files,
		storage:    storage,
		logger:     logger,
	}
}

func (s *researchServiceImpl) ProposeTopic(ctx context.Context, studentID int64, form dto.TopicForm) (*models.ResearchTopic, error) {
	if err := validation.Struct(form); err != nil {
		return nil, err
	}
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		return nil, err
	}
	topic := &models.ResearchTopic{
		StudentID:       studentID,
		Topic:           form.Topic,
		DistrictOfStudy: form.DistrictOfStudy,
		CaseStudyArea:   form.CaseStudyArea,
	}
	if err := s.topics.create(ctx, topic); err != nil {
		return nil, uniqueField(err, topicUnique)
	}
	s.logger.Info().Int64("studentId", studentID).Int64("topicId", topic.ID).Msg("Research topic proposed")
	return topic, nil
}

func (s *researchServiceImpl) CreateTopic(ctx context.Context, req dto.TopicRequest) (*models.ResearchTopic, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	topic := &models.ResearchTopic{}
	req.Apply(topic)
	if err := s.topics.create(ctx, topic); err != nil {
		return nil, uniqueField(err, topicUnique)
	}
	return s.topics.get(ctx, topic.ID)
}

func (s *researchServiceImpl) UpdateTopic(ctx context.Context, id int64, req dto.TopicRequest) (*models.ResearchTopic, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	topic, err := s.topics.get(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(topic)
	if err := s.topics.update(ctx, topic); err != nil {
		return nil, uniqueField(err, topicUnique)
	}
	return s.topics.get(ctx, id)
}

func (s *researchServiceImpl) SetTopicApproval(ctx context.Context, id int64, approved bool) (*models.ResearchTopic, error) {
	topic, err := s.topics.get(ctx, id)
	if err != nil {
		return nil, err
	}
	topic.Approved = approved
	if err := s.topics.update(ctx, topic); err != nil {
		return nil, err
	}
	return topic, nil
}

func (s *researchServiceImpl) GetTopic(ctx context.Context, id int64) (*models.ResearchTopic, error) {
	return s.topics.get(ctx, id)
}

func (s *researchServiceImpl) ListTopics(ctx context.Context, q models.ListQuery) ([]models.ResearchTopic, int64, error) {
	return s.topics.list(ctx, q)
}

func (s *researchServiceImpl) DeleteTopic(ctx context.Context, id int64) error {
	return s.topics.delete(ctx, id)
}

func (s *researchServiceImpl) CreateMilestone(ctx context.Context, req dto.MilestoneRequest) (*models.Milestone, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	m := &models.Milestone{}
	if err := req.Apply(m); err != nil {
		return nil, apperrors.FieldErrors{asFieldError(err)}
	}
	if err := s.milestones.create(ctx, m); err != nil {
		return nil, err
	}
	return s.milestones.get(ctx, m.ID)
}

func (s *researchServiceImpl) UpdateMilestone(ctx context.Context, id int64, req dto.MilestoneRequest) (*models.Milestone, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	m, err := s.milestones.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(m); err != nil {
		return nil, apperrors.FieldErrors{asFieldError(err)}
	}
	if err := s.milestones.update(ctx, m); err != nil {
		return nil, err
	}
	return s.milestones.get(ctx, id)
}

func (s *researchServiceImpl) GetMilestone(ctx context.Context, id int64) (*models.Milestone, error) {
	return s.milestones.get(ctx, id)
}

func (s *researchServiceImpl) ListMilestones(ctx context.Context, q models.ListQuery) ([]models.Milestone, int64, error) {
	return s.milestones.list(ctx, q)
}

func (s *researchServiceImpl) DeleteMilestone(ctx context.Context, id int64) error {
	return s.milestones.delete(ctx, id)
}

func (s *researchServiceImpl) CreateMeeting(ctx context.Context, req dto.MeetingRequest) (*models.Meeting, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	m := &models.Meeting{}
	if err := req.Apply(m); err != nil {
		return nil, apperrors.FieldErrors{asFieldError(err)}
	}
	if err := s.meetings.create(ctx, m); err != nil {
		return nil, err
	}
	return s.meetings.get(ctx, m.ID)
}

func (s *researchServiceImpl) UpdateMeeting(ctx context.Context, id int64, req dto.MeetingRequest) (*models.Meeting, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	m, err := s.meetings.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(m); err != nil {
		return nil, apperrors.FieldErrors{asFieldError(err)}
	}
	if err := s.meetings.update(ctx, m); err != nil {
		return nil, err
	}
	return s.meetings.get(ctx, id)
}

func (s *researchServiceImpl) GetMeeting(ctx context.Context, id int64) (*models.Meeting, error) {
	return s.meetings.get(ctx, id)
}

func (s *researchServiceImpl) ListMeetings(ctx context.Context, q models.ListQuery) ([]models.Meeting, int64, error) {
	return s.meetings.list(ctx, q)
}

func (s *researchServiceImpl) DeleteMeeting(ctx context.Context, id int64) error {
	return s.meetings.delete(ctx, id)
}

func (s *researchServiceImpl) UploadFile(ctx context.Context, form dto.ResearchFileForm, file *multipart.FileHeader) (*models.ResearchFile, error) {
	if err := validation.Struct(form); err != nil {
		return nil, err
	}
	if file == nil {
		return nil, apperrors.FieldErrors{apperrors.NewFieldError("file", "This field is required.")}
	}
	if err := checkUpload(file, "file", filestorage.DirResearchFiles); err != nil {
		return nil, err
	}
	if _, err := s.students.GetByID(ctx, form.StudentID); err != nil {
		return nil, err
	}

	url, err := s.storage.Save(ctx, file, filestorage.DirResearchFiles)
	if err != nil {
		return nil, fmt.Errorf("failed to store research file: %w", err)
	}
	rf := &models.ResearchFile{StudentID: form.StudentID, FileURL: url, Description: form.Description}
	if err := s.files.create(ctx, rf); err != nil {
		if delErr := s.storage.Delete(ctx, url); delErr != nil {
			s.logger.Warn().Err(delErr).Str("url", url).Msg("Failed to remove orphaned upload")
		}
		return nil, err
	}
	return rf, nil
}

func (s *researchServiceImpl) GetFile(ctx context.Context, id int64) (*models.ResearchFile, error) {
	return s.files.get(ctx, id)
}

func (s *researchServiceImpl) ListFiles(ctx context.Context, q models.ListQuery) ([]models.ResearchFile, int64, error) {
	return s.files.list(ctx, q)
}

func (s *researchServiceImpl) DeleteFile(ctx context.Context, id int64) error {
	rf, err := s.files.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.files.delete(ctx, id); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, rf.FileURL); err != nil {
		s.logger.Warn().Err(err).Str("url", rf.FileURL).Msg("Failed to delete research file from storage")
	}
	return nil
}

func (s *researchServiceImpl) Guide(ctx context.Context, studentID int64) (*dto.ResearchGuide, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	guide := &dto.ResearchGuide{
		Student:    *student,
		Topic:      student.SelectedTopic,
		Supervisor: student.Supervisor,
	}
	if student.StartDate != nil {
		schedule := ComputeSchedule(*student.StartDate, student.GraduationDate)
		guide.Schedule = &schedule
	}
	if guide.Topics, err = s.topicRepo.ListByStudent(ctx, studentID); err != nil {
		return nil, err
	}
	if guide.Milestones, err = s.mileRepo.ListByStudent(ctx, studentID); err != nil {
		return nil, err
	}
	if guide.Meetings, err = s.meetRepo.ListByStudent(ctx, studentID); err != nil {
		return nil, err
	}
	if guide.Files, err = s.fileRepo.ListByStudent(ctx, studentID); err != nil {
		return nil, err
	}
	return guide, nil
}
