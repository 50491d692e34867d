package inmem

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miu/unidesk/internal/app/models"
	"github.com/miu/unidesk/internal/app/services"
	"github.com/miu/unidesk/internal/pkg/apperrors"
)

type researchSet struct {
	faculty    models.Faculty
	course     models.Course
	supervisor models.Supervisor
	student    models.Student
	topic      models.ResearchTopic
}

func seedResearch(t *testing.T, store services.Store) researchSet {
	t.Helper()
	ctx := context.Background()
	var r researchSet
	r.faculty = models.Faculty{Name: "Faculty of Science and Technology", ShortCode: "FST"}
	require.NoError(t, store.Faculties.Create(ctx, &r.faculty))
	r.course = models.Course{Name: "Computer Science", FacultyID: r.faculty.ID}
	require.NoError(t, store.Courses.Create(ctx, &r.course))
	r.supervisor = models.Supervisor{Name: "Dr. Okello", Email: "okello@miu.ac.ug", FacultyID: r.faculty.ID}
	require.NoError(t, store.Supervisors.Create(ctx, &r.supervisor))
	r.student = models.Student{
		Name: "Amina", RegNo: "2021/BCS/001", Email: "amina@miu.ac.ug",
		FacultyID: r.faculty.ID, CourseID: r.course.ID, Level: models.LevelDegree, SupervisorID: &r.supervisor.ID,
	}
	require.NoError(t, store.Students.Create(ctx, &r.student))
	r.topic = models.ResearchTopic{StudentID: r.student.ID, Topic: "Solar irrigation", DistrictOfStudy: "Moroto", CaseStudyArea: "Nadunget"}
	require.NoError(t, store.Topics.Create(ctx, &r.topic))

	r.student.SelectedTopicID = &r.topic.ID
	require.NoError(t, store.Students.Update(ctx, &r.student))
	require.NoError(t, store.Milestones.Create(ctx, &models.Milestone{StudentID: r.student.ID, Name: "Proposal", DueDate: time.Now()}))
	require.NoError(t, store.Meetings.Create(ctx, &models.Meeting{StudentID: r.student.ID, Date: time.Now(), DiscussionPoints: "x", ActionItems: "y"}))
	require.NoError(t, store.Files.Create(ctx, &models.ResearchFile{StudentID: r.student.ID, FileURL: "/media/research_files/a.pdf"}))
	return r
}

func counts(t *testing.T, store services.Store) map[string]int64 {
	t.Helper()
	ctx := context.Background()
	out := map[string]int64{}
	for name, repo := range map[string]interface {
		Count(context.Context) (int64, error)
	}{
		"faculties": store.Faculties, "courses": store.Courses, "supervisors": store.Supervisors,
		"students": store.Students, "topics": store.Topics, "milestones": store.Milestones,
		"meetings": store.Meetings, "files": store.Files,
	} {
		n, err := repo.Count(ctx)
		require.NoError(t, err)
		out[name] = n
	}
	return out
}

func TestStudentView(t *testing.T) {
	store := New().Store()
	r := seedResearch(t, store)

	got, err := store.Students.GetByID(context.Background(), r.student.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Faculty)
	require.NotNil(t, got.Course)
	require.NotNil(t, got.Supervisor)
	require.NotNil(t, got.SelectedTopic)
	assert.Equal(t, "Solar irrigation", got.SelectedTopic.Topic)

	without, total, err := store.Students.ListWithoutTopic(context.Background(), models.ListQuery{Page: 1, Size: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, without)
}

func TestFacultyDeleteCascades(t *testing.T) {
	store := New().Store()
	r := seedResearch(t, store)

	require.NoError(t, store.Faculties.Delete(context.Background(), r.faculty.ID))
	for name, n := range counts(t, store) {
		assert.Zero(t, n, name)
	}
}

func TestSupervisorDeleteRemovesStudents(t *testing.T) {
	store := New().Store()
	r := seedResearch(t, store)

	require.NoError(t, store.Supervisors.Delete(context.Background(), r.supervisor.ID))
	c := counts(t, store)
	assert.EqualValues(t, 1, c["faculties"])
	assert.EqualValues(t, 1, c["courses"])
	assert.Zero(t, c["students"])
	assert.Zero(t, c["topics"])
	assert.Zero(t, c["files"])
}

func TestTopicDeleteClearsSelection(t *testing.T) {
	store := New().Store()
	r := seedResearch(t, store)
	ctx := context.Background()

	require.NoError(t, store.Topics.Delete(ctx, r.topic.ID))
	got, err := store.Students.GetByID(ctx, r.student.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SelectedTopicID)
	assert.Nil(t, got.SelectedTopic)
}

func TestConstraints(t *testing.T) {
	store := New().Store()
	r := seedResearch(t, store)
	ctx := context.Background()

	dup := r.student
	dup.ID = 0
	dup.Email = "other@miu.ac.ug"
	assert.ErrorIs(t, store.Students.Create(ctx, &dup), apperrors.ErrRegNoAlreadyExists)

	orphan := models.Student{Name: "X", RegNo: "X/1", FacultyID: 999, CourseID: r.course.ID}
	assert.ErrorIs(t, store.Students.Create(ctx, &orphan), apperrors.ErrValidationFailed)

	taken := models.ResearchTopic{StudentID: r.student.ID, Topic: "Solar irrigation"}
	assert.ErrorIs(t, store.Topics.Create(ctx, &taken), apperrors.ErrTopicTaken)

	_, err := store.Students.GetByID(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

type ballotSet struct {
	voter                models.Voter
	president, secretary models.Position
	alice, carol         models.Candidate
}

func seedBallot(t *testing.T, store services.Store) ballotSet {
	t.Helper()
	ctx := context.Background()
	var b ballotSet
	b.voter = models.Voter{Name: "Brian", RegNo: "2022/BBA/001", Email: "brian@miu.ac.ug", IsActive: true}
	require.NoError(t, store.Voters.Create(ctx, &b.voter))
	b.president = models.Position{Title: "Guild President"}
	require.NoError(t, store.Positions.Create(ctx, &b.president))
	b.secretary = models.Position{Title: "General Secretary"}
	require.NoError(t, store.Positions.Create(ctx, &b.secretary))
	b.alice = models.Candidate{Name: "Alice", Email: "alice@miu.ac.ug", PositionID: b.president.ID}
	require.NoError(t, store.Candidates.Create(ctx, &b.alice))
	b.carol = models.Candidate{Name: "Carol", Email: "carol@miu.ac.ug", PositionID: b.secretary.ID}
	require.NoError(t, store.Candidates.Create(ctx, &b.carol))
	return b
}

func TestCastBallotAllOrNothing(t *testing.T) {
	store := New().Store()
	b := seedBallot(t, store)
	ctx := context.Background()

	require.NoError(t, store.Votes.CastBallot(ctx, b.voter.ID, []models.Vote{
		{CandidateID: b.alice.ID, PositionID: b.president.ID},
	}))

	err := store.Votes.CastBallot(ctx, b.voter.ID, []models.Vote{
		{CandidateID: b.carol.ID, PositionID: b.secretary.ID},
		{CandidateID: b.alice.ID, PositionID: b.president.ID},
	})
	var already *apperrors.AlreadyVotedError
	require.True(t, errors.As(err, &already))
	assert.Equal(t, b.president.ID, already.PositionID)
	assert.Equal(t, "Guild President", already.PositionTitle)

	n, err := store.Votes.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	carol, err := store.Candidates.GetByID(ctx, b.carol.ID)
	require.NoError(t, err)
	assert.Zero(t, carol.Votes)

	voted, err := store.Votes.VotedPositions(ctx, b.voter.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{b.president.ID: b.alice.ID}, voted)

	assert.ErrorIs(t, store.Votes.CastBallot(ctx, b.voter.ID, nil), apperrors.ErrEmptyBallot)
}

func TestPositionDeleteCascades(t *testing.T) {
	store := New().Store()
	b := seedBallot(t, store)
	ctx := context.Background()
	require.NoError(t, store.Votes.CastBallot(ctx, b.voter.ID, []models.Vote{
		{CandidateID: b.alice.ID, PositionID: b.president.ID},
		{CandidateID: b.carol.ID, PositionID: b.secretary.ID},
	}))

	require.NoError(t, store.Positions.Delete(ctx, b.president.ID))
	_, err := store.Candidates.GetByID(ctx, b.alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	n, err := store.Votes.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestVoterListFilters(t *testing.T) {
	store := New().Store()
	ctx := context.Background()
	for _, v := range []models.Voter{
		{Name: "Active", RegNo: "A/1", Email: "a@miu.ac.ug", IsActive: true},
		{Name: "Voted", RegNo: "A/2", Email: "b@miu.ac.ug", IsActive: true, HasVoted: true},
		{Name: "Staff", RegNo: "S/1", Email: "s@miu.ac.ug", IsActive: true, IsStaff: true, HasVoted: true},
		{Name: "Inactive", RegNo: "A/3", Email: "c@miu.ac.ug"},
	} {
		v := v
		require.NoError(t, store.Voters.Create(ctx, &v))
	}

	list := func(filters map[string]string, search string) []string {
		voters, _, err := store.Voters.List(ctx, models.ListQuery{Filters: filters, Search: search, Page: 1, Size: 10})
		require.NoError(t, err)
		names := []string{}
		for _, v := range voters {
			names = append(names, v.Name)
		}
		return names
	}

	assert.ElementsMatch(t, []string{"Voted", "Staff"}, list(map[string]string{"has_voted": "true"}, ""))
	assert.ElementsMatch(t, []string{"Staff"}, list(map[string]string{"is_staff": "true"}, ""))
	assert.ElementsMatch(t, []string{"Inactive"}, list(map[string]string{"is_active": "false"}, ""))
	assert.ElementsMatch(t, []string{"Voted"}, list(nil, "b@miu"))

	_, _, err := store.Voters.List(ctx, models.ListQuery{Filters: map[string]string{"is_staff": "maybe"}})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}
