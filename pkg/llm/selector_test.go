package llm

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestSelectModel_OverrideWins(t *testing.T) {
	mock := &MockClient{}
	got := SelectModel(context.Background(), mock, "my-model", zap.NewNop())
	if got != "my-model" {
		t.Errorf("SelectModel() = %q, want override", got)
	}
	if mock.ListModelsCalls != 0 {
		t.Error("override must not consult the provider listing")
	}
}

func TestSelectModel_PriorityOrder(t *testing.T) {
	mock := &MockClient{
		ListModelsFunc: func(ctx context.Context) ([]ModelInfo, error) {
			return []ModelInfo{
				{ID: "some-exotic-model"},
				{ID: "gpt-4o"},
				{ID: "gpt-4o-mini"},
			}, nil
		},
	}
	got := SelectModel(context.Background(), mock, "", zap.NewNop())
	if got != "gpt-4o-mini" {
		t.Errorf("SelectModel() = %q, want highest-priority available", got)
	}
}

func TestSelectModel_FallsBackToFirstListed(t *testing.T) {
	mock := &MockClient{
		ListModelsFunc: func(ctx context.Context) ([]ModelInfo, error) {
			return []ModelInfo{{ID: "house-model-v2"}}, nil
		},
	}
	got := SelectModel(context.Background(), mock, "", zap.NewNop())
	if got != "house-model-v2" {
		t.Errorf("SelectModel() = %q, want first listed", got)
	}
}

func TestSelectModel_ListingFailureUsesDefault(t *testing.T) {
	mock := &MockClient{
		ListModelsFunc: func(ctx context.Context) ([]ModelInfo, error) {
			return nil, errors.New("503 service unavailable")
		},
	}
	got := SelectModel(context.Background(), mock, "", zap.NewNop())
	if got != DefaultModel {
		t.Errorf("SelectModel() = %q, want DefaultModel", got)
	}
}
