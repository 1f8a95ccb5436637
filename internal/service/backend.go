package service

import (
	"context"

	"vroom/internal/model"
)

// MetaSource fetches catalogue metadata
type MetaSource interface {
	GetMeta(ctx context.Context) (*model.MetaResponse, error)
}

// Recommender submits criteria for ranking
type Recommender interface {
	Recommend(ctx context.Context, req *model.RecommendRequest) (*model.RecommendResponse, error)
}

// ChatBackend answers one conversational turn
type ChatBackend interface {
	Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatReply, error)
}
