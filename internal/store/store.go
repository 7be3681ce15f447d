// Package store persists quiz artifacts (quizzes, answer sets, result lists)
// through a storage.KV medium under the keys derived by package keys.
//
// Every write replaces the whole value under its key. Reads of a quiz or an
// answer set look in the caller's partition first and fall back to the
// anonymous partition, so artifacts created before sign-in stay reachable.
// When the medium is unsupported, writes are silently dropped and reads find
// nothing.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"quizwise-service/internal/domain"
	"quizwise-service/internal/history"
	"quizwise-service/internal/keys"
	"quizwise-service/internal/storage"
	"github.com/rs/zerolog/log"
)

// Store is the artifact store.
type Store struct {
	kv storage.KV
}

// New returns a store over kv. A nil kv behaves as storage.Unsupported.
func New(kv storage.KV) *Store {
	if kv == nil {
		kv = storage.Unsupported{}
	}
	return &Store{kv: kv}
}

// SaveQuiz writes quiz into the partition of userID.
func (s *Store) SaveQuiz(ctx context.Context, quiz domain.Quiz, userID string) error {
	return s.put(ctx, keys.Quiz(quiz.QuizID, userID), quiz)
}

// LoadQuiz returns the quiz stored for quizID, trying userID's partition first.
func (s *Store) LoadQuiz(ctx context.Context, quizID, userID string) (domain.Quiz, bool, error) {
	var quiz domain.Quiz
	found, err := s.getWithFallback(ctx, keys.KindQuiz, quizID, userID, &quiz)
	if err != nil || !found {
		return domain.Quiz{}, found, err
	}
	return quiz, true, nil
}

// SaveAnswers writes the answer set of quizID into the partition of userID.
func (s *Store) SaveAnswers(ctx context.Context, quizID string, answers domain.UserAnswers, userID string) error {
	if answers == nil {
		answers = domain.UserAnswers{}
	}
	return s.put(ctx, keys.Answers(quizID, userID), answers)
}

// LoadAnswers returns the answer set stored for quizID, trying userID's partition first.
func (s *Store) LoadAnswers(ctx context.Context, quizID, userID string) (domain.UserAnswers, bool, error) {
	var answers domain.UserAnswers
	found, err := s.getWithFallback(ctx, keys.KindAnswers, quizID, userID, &answers)
	if err != nil || !found {
		return nil, found, err
	}
	if answers == nil {
		answers = domain.UserAnswers{}
	}
	return answers, true, nil
}

// SaveResult stores result in the list of its UserID's partition, replacing a
// stored record with the same QuizID or appending otherwise.
func (s *Store) SaveResult(ctx context.Context, result domain.QuizResult) error {
	key := keys.Results(result.UserID)
	results, _, err := s.readResults(ctx, key)
	if storage.IsUnsupported(err) {
		return nil
	}
	if err != nil {
		return err
	}

	replaced := false
	for i := range results {
		if results[i].QuizID == result.QuizID {
			results[i] = result
			replaced = true
			break
		}
	}
	if !replaced {
		results = append(results, result)
	}
	return s.put(ctx, key, results)
}

// FindResult returns the stored record of quizID in userID's partition.
func (s *Store) FindResult(ctx context.Context, quizID, userID string) (domain.QuizResult, bool, error) {
	results, err := s.partition(ctx, userID)
	if err != nil {
		return domain.QuizResult{}, false, err
	}
	for _, r := range results {
		if r.QuizID == quizID {
			return r, true, nil
		}
	}
	return domain.QuizResult{}, false, nil
}

// LoadResults returns the result list of userID. With an empty userID it
// returns every partition merged, one record per quiz id.
func (s *Store) LoadResults(ctx context.Context, userID string) ([]domain.QuizResult, error) {
	if userID != "" {
		return s.partition(ctx, userID)
	}
	return s.allResults(ctx)
}

func (s *Store) partition(ctx context.Context, userID string) ([]domain.QuizResult, error) {
	results, _, err := s.readResults(ctx, keys.Results(userID))
	if storage.IsUnsupported(err) {
		return []domain.QuizResult{}, nil
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

// allResults scans the whole results family. Entries that vanish or cannot be
// decoded mid-scan are skipped so one bad list never hides the others.
func (s *Store) allResults(ctx context.Context) ([]domain.QuizResult, error) {
	found, err := s.kv.Keys(ctx, keys.ResultsFamily)
	if storage.IsUnsupported(err) {
		return []domain.QuizResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	partitions := make([][]domain.QuizResult, 0, len(found))
	for _, key := range found {
		userID, ok := keys.ResultsPartition(key)
		if !ok {
			continue
		}
		results, present, err := s.readResults(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Str("userId", userID).Msg("skipping unreadable result list")
			continue
		}
		if !present {
			continue
		}
		partitions = append(partitions, results)
	}
	return history.Merge(partitions...), nil
}

func (s *Store) readResults(ctx context.Context, key string) ([]domain.QuizResult, bool, error) {
	raw, found, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return []domain.QuizResult{}, false, nil
	}
	var results []domain.QuizResult
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return nil, true, fmt.Errorf("decode %s: %w: %v", key, domain.ErrMalformedData, err)
	}
	if results == nil {
		results = []domain.QuizResult{}
	}
	return results, true, nil
}

func (s *Store) getWithFallback(ctx context.Context, kind keys.Kind, quizID, userID string, dst any) (bool, error) {
	found, err := s.get(ctx, keys.For(kind, quizID, userID), dst)
	if err != nil || found || userID == "" {
		return found, err
	}
	// created before the viewer signed in
	return s.get(ctx, keys.For(kind, quizID, ""), dst)
}

func (s *Store) get(ctx context.Context, key string, dst any) (bool, error) {
	raw, found, err := s.kv.Get(ctx, key)
	if storage.IsUnsupported(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w: %v", key, domain.ErrMalformedData, err)
	}
	return true, nil
}

func (s *Store) put(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	err = s.kv.Set(ctx, key, string(data))
	if storage.IsUnsupported(err) {
		return nil
	}
	return err
}
