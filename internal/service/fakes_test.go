package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quiz-arena/arena-backend/internal/models"
	"github.com/quiz-arena/arena-backend/internal/realtime"
)

// 인메모리 MatchStore. 상태 전이는 저장소 계층과 동일하게
// 이전 status를 조건으로 하는 원자적 갱신으로 구현한다.
type fakeMatchStore struct {
	mu      sync.Mutex
	matches map[string]*models.ArenaMatch
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{matches: make(map[string]*models.ArenaMatch)}
}

func cloneMatch(m *models.ArenaMatch) *models.ArenaMatch {
	if m == nil {
		return nil
	}
	c := *m
	c.QuestionIDs = append([]string(nil), m.QuestionIDs...)
	if m.Player2ID != nil {
		p2 := *m.Player2ID
		c.Player2ID = &p2
	}
	if m.WinnerID != nil {
		w := *m.WinnerID
		c.WinnerID = &w
	}
	return &c
}

func (s *fakeMatchStore) put(m *models.ArenaMatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = cloneMatch(m)
}

func (s *fakeMatchStore) Create(id, hostID string, questionIDs []string, source models.QuestionSource, subject, grade *string) (*models.ArenaMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	m := &models.ArenaMatch{
		ID:            id,
		Player1ID:     hostID,
		Status:        models.MatchStatusWaiting,
		QuestionIDs:   append([]string(nil), questionIDs...),
		Player1HP:     models.InitialHP,
		Player2HP:     models.InitialHP,
		Source:        source,
		FilterSubject: subject,
		FilterGrade:   grade,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.matches[id] = m
	return cloneMatch(m), nil
}

func (s *fakeMatchStore) FindByID(id string) (*models.ArenaMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMatch(s.matches[id]), nil
}

func (s *fakeMatchStore) FindWaiting(excludeHostID string) ([]*models.ArenaMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.ArenaMatch
	for _, m := range s.matches {
		if m.Status == models.MatchStatusWaiting && m.Player1ID != excludeHostID {
			out = append(out, cloneMatch(m))
		}
	}
	return out, nil
}

func (s *fakeMatchStore) Claim(matchID, challengerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok || m.Status != models.MatchStatusWaiting {
		return false, nil
	}
	m.Player2ID = &challengerID
	m.Status = models.MatchStatusChallenged
	m.UpdatedAt = time.Now()
	return true, nil
}

func (s *fakeMatchStore) Accept(matchID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok || m.Status != models.MatchStatusChallenged {
		return false, nil
	}
	m.Status = models.MatchStatusPlaying
	m.UpdatedAt = time.Now()
	return true, nil
}

func (s *fakeMatchStore) Reject(matchID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok || m.Status != models.MatchStatusChallenged {
		return false, nil
	}
	m.Player2ID = nil
	m.Status = models.MatchStatusWaiting
	m.UpdatedAt = time.Now()
	return true, nil
}

func (s *fakeMatchStore) WithdrawChallenge(matchID, challengerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok || m.Status != models.MatchStatusChallenged || m.Player2ID == nil || *m.Player2ID != challengerID {
		return false, nil
	}
	m.Player2ID = nil
	m.Status = models.MatchStatusWaiting
	m.UpdatedAt = time.Now()
	return true, nil
}

func (s *fakeMatchStore) DeleteIfOpen(matchID, hostID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok || m.Player1ID != hostID {
		return false, nil
	}
	if m.Status != models.MatchStatusWaiting && m.Status != models.MatchStatusChallenged {
		return false, nil
	}
	delete(s.matches, matchID)
	return true, nil
}

func (s *fakeMatchStore) ApplyDamage(matchID string, targetIsPlayer1 bool, damage int) (*models.ArenaMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok || m.Status != models.MatchStatusPlaying {
		return nil, nil
	}

	if targetIsPlayer1 {
		m.Player1HP -= damage
		if m.Player1HP < 0 {
			m.Player1HP = 0
		}
		m.Player2Score++
	} else {
		m.Player2HP -= damage
		if m.Player2HP < 0 {
			m.Player2HP = 0
		}
		m.Player1Score++
	}
	m.UpdatedAt = time.Now()
	return cloneMatch(m), nil
}

func (s *fakeMatchStore) AdvanceQuestion(matchID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok {
		return fmt.Errorf("match %s not found", matchID)
	}
	if index > m.CurrentQuestion {
		m.CurrentQuestion = index
	}
	m.UpdatedAt = time.Now()
	return nil
}

func (s *fakeMatchStore) Finish(matchID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[matchID]
	if !ok || m.Status != models.MatchStatusPlaying {
		return false, nil
	}
	m.Status = models.MatchStatusFinished
	if m.Player1HP > m.Player2HP {
		winner := m.Player1ID
		m.WinnerID = &winner
	} else if m.Player2HP > m.Player1HP && m.Player2ID != nil {
		winner := *m.Player2ID
		m.WinnerID = &winner
	} else {
		m.WinnerID = nil
	}
	m.UpdatedAt = time.Now()
	return true, nil
}

func (s *fakeMatchStore) FindStalePlaying(cutoff time.Time) ([]*models.ArenaMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.ArenaMatch
	for _, m := range s.matches {
		if m.Status == models.MatchStatusPlaying && m.UpdatedAt.Before(cutoff) {
			out = append(out, cloneMatch(m))
		}
	}
	return out, nil
}

type fakeQuestionStore struct {
	questions []*models.ArenaQuestion
}

func (s *fakeQuestionStore) FindByFilters(subject, topic string) ([]*models.ArenaQuestion, error) {
	var out []*models.ArenaQuestion
	for _, q := range s.questions {
		if subject != "" && q.Subject != subject {
			continue
		}
		if topic != "" && q.Topic != topic {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *fakeQuestionStore) FindByIDs(ids []string) (map[string]*models.ArenaQuestion, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[string]*models.ArenaQuestion)
	for _, q := range s.questions {
		if want[q.ID] {
			out[q.ID] = q
		}
	}
	return out, nil
}

type fakeExamStore struct {
	published []*models.ArenaQuestion
	byID      map[string]*models.ArenaQuestion // key: ExamQuestionID(examID, questionID)
}

func (s *fakeExamStore) FindPublishedMCQs(subject, grade string) ([]*models.ArenaQuestion, error) {
	return s.published, nil
}

func (s *fakeExamStore) FindExamQuestion(examID, questionID string) (*models.ArenaQuestion, error) {
	return s.byID[models.ExamQuestionID(examID, questionID)], nil
}

type fakeProfileStore struct {
	mu            sync.Mutex
	profiles      map[string]*models.ArenaProfile
	ratingUpdates int
	lastLimit     int
}

func newFakeProfileStore(profiles ...*models.ArenaProfile) *fakeProfileStore {
	s := &fakeProfileStore{profiles: make(map[string]*models.ArenaProfile)}
	for _, p := range profiles {
		s.profiles[p.ID] = p
	}
	return s
}

func (s *fakeProfileStore) FindByID(id string) (*models.ArenaProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (s *fakeProfileStore) GetOrCreate(id, displayName string) (*models.ArenaProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[id]; ok {
		p.DisplayName = displayName
		c := *p
		return &c, nil
	}
	p := &models.ArenaProfile{
		ID:          id,
		DisplayName: displayName,
		AvatarClass: "scholar",
		EloRating:   models.DefaultEloRating,
		TowerFloor:  1,
	}
	s.profiles[id] = p
	c := *p
	return &c, nil
}

func (s *fakeProfileStore) UpdateRating(id string, newRating, xpGain int, won, lost bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return fmt.Errorf("profile %s not found", id)
	}
	p.EloRating = newRating
	p.TotalXP += xpGain
	if won {
		p.Wins++
	}
	if lost {
		p.Losses++
	}
	s.ratingUpdates++
	return nil
}

func (s *fakeProfileStore) UpdateCosmetics(id string, avatarClass *string, towerFloor *int) (*models.ArenaProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	if avatarClass != nil {
		p.AvatarClass = *avatarClass
	}
	if towerFloor != nil {
		p.TowerFloor = *towerFloor
	}
	c := *p
	return &c, nil
}

func (s *fakeProfileStore) TopByRating(limit int) ([]*models.ArenaProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLimit = limit
	var out []*models.ArenaProfile
	for _, p := range s.profiles {
		c := *p
		out = append(out, &c)
	}
	return out, nil
}

type fakeEventStore struct {
	mu     sync.Mutex
	events []*models.MatchEvent
}

func (s *fakeEventStore) Append(event *models.MatchEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *fakeEventStore) FindByMatchID(matchID string) ([]*models.MatchEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.MatchEvent
	for _, e := range s.events {
		if e.MatchID == matchID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeEventStore) all() []*models.MatchEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.MatchEvent(nil), s.events...)
}

type fakeDirectory struct {
	names      map[string]string
	classmates map[string][]string
}

func (d *fakeDirectory) DisplayName(userID string) (string, error) {
	return d.names[userID], nil
}

func (d *fakeDirectory) ClassmateIDs(userID string) ([]string, error) {
	return d.classmates[userID], nil
}

type fakePublisher struct {
	mu      sync.Mutex
	states  []*models.ArenaMatch
	damages []realtime.DamageMessage
}

func (p *fakePublisher) PublishState(ctx context.Context, match *models.ArenaMatch) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, cloneMatch(match))
	return nil
}

func (p *fakePublisher) PublishDamage(ctx context.Context, msg realtime.DamageMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.damages = append(p.damages, msg)
	return nil
}

func (p *fakePublisher) damageCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.damages)
}

func (p *fakePublisher) lastState() *models.ArenaMatch {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.states) == 0 {
		return nil
	}
	return p.states[len(p.states)-1]
}

type fakeAnnouncer struct {
	mu         sync.Mutex
	hostNames  []string
	recipients [][]string
}

func (a *fakeAnnouncer) AnnounceRoom(hostName string, match *models.ArenaMatch, recipients []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hostNames = append(a.hostNames, hostName)
	a.recipients = append(a.recipients, recipients)
}

// bankQuestion 테스트용 아레나 은행 문항
func bankQuestion(id, subject string, correctIndex int) *models.ArenaQuestion {
	return &models.ArenaQuestion{
		ID:           id,
		Content:      "question " + id,
		Answers:      []string{"a", "b", "c", "d"},
		CorrectIndex: correctIndex,
		Difficulty:   1,
		Subject:      subject,
		Topic:        "general",
	}
}
