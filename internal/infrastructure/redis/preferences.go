package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cassiomorais/bingwa/internal/domain/classifier"
	"github.com/cassiomorais/bingwa/internal/domain/templates"
)

const (
	keywordsKey  = "engine:prefs:keywords"
	templatesKey = "engine:prefs:templates"
)

// PreferenceStore keeps keyword sets and templates in Redis hashes. It
// implements engine.PreferenceStore.
type PreferenceStore struct {
	client redis.Cmdable
}

func NewPreferenceStore(client redis.Cmdable) *PreferenceStore {
	return &PreferenceStore{client: client}
}

func (s *PreferenceStore) LoadKeywords(ctx context.Context) (classifier.Keywords, bool, error) {
	fields, err := s.client.HGetAll(ctx, keywordsKey).Result()
	if err != nil {
		return classifier.Keywords{}, false, fmt.Errorf("load keywords: %w", err)
	}
	if len(fields) == 0 {
		return classifier.Keywords{}, false, nil
	}

	var kw classifier.Keywords
	if err := decodeList(fields["success"], &kw.Success); err != nil {
		return classifier.Keywords{}, false, fmt.Errorf("decode success keywords: %w", err)
	}
	if err := decodeList(fields["failure"], &kw.Failure); err != nil {
		return classifier.Keywords{}, false, fmt.Errorf("decode failure keywords: %w", err)
	}
	return kw, true, nil
}

func (s *PreferenceStore) SaveKeywords(ctx context.Context, kw classifier.Keywords) error {
	success, err := json.Marshal(nonNil(kw.Success))
	if err != nil {
		return fmt.Errorf("encode success keywords: %w", err)
	}
	failure, err := json.Marshal(nonNil(kw.Failure))
	if err != nil {
		return fmt.Errorf("encode failure keywords: %w", err)
	}

	if err := s.client.HSet(ctx, keywordsKey, "success", string(success), "failure", string(failure)).Err(); err != nil {
		return fmt.Errorf("save keywords: %w", err)
	}
	return nil
}

func (s *PreferenceStore) LoadTemplates(ctx context.Context) (templates.Set, bool, error) {
	fields, err := s.client.HGetAll(ctx, templatesKey).Result()
	if err != nil {
		return templates.Set{}, false, fmt.Errorf("load templates: %w", err)
	}
	if len(fields) == 0 {
		return templates.Set{}, false, nil
	}

	return templates.Set{
		Success:          fields[string(templates.KindSuccess)],
		Failure:          fields[string(templates.KindFailure)],
		AlreadyProcessed: fields[string(templates.KindAlreadyProcessed)],
		NoOffer:          fields[string(templates.KindNoOffer)],
	}, true, nil
}

func (s *PreferenceStore) SaveTemplates(ctx context.Context, set templates.Set) error {
	err := s.client.HSet(ctx, templatesKey,
		string(templates.KindSuccess), set.Success,
		string(templates.KindFailure), set.Failure,
		string(templates.KindAlreadyProcessed), set.AlreadyProcessed,
		string(templates.KindNoOffer), set.NoOffer,
	).Err()
	if err != nil {
		return fmt.Errorf("save templates: %w", err)
	}
	return nil
}

func decodeList(raw string, out *[]string) error {
	if raw == "" {
		*out = []string{}
		return nil
	}
	return json.Unmarshal([]byte(raw), out)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
